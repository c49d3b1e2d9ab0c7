// Package service contains the business logic between handlers and repositories.
package service

import (
	"context"
	"errors"
	"strings"

	"gameofbones/internal/cache"
	"gameofbones/internal/geocode"
	"gameofbones/internal/middleware"
	"gameofbones/internal/models"
	"gameofbones/internal/repository"

	"gorm.io/gorm"
)

// Geocoder resolves a free-text location to coordinates, or nil when the
// location is empty or cannot be resolved. Implementations never fail hard;
// a degraded geocoder must not fail post creation.
type Geocoder interface {
	Resolve(ctx context.Context, location string) *geocode.Coordinates
}

type PostService struct {
	postRepo repository.PostRepository
	geocoder Geocoder
	isAdmin  func(ctx context.Context, userID uint) (bool, error)
}

type CreatePostInput struct {
	UserID    uint
	Title     string
	Content   string
	Location  string
	Published *bool
}

type ListPostsInput struct {
	Limit         int
	Offset        int
	CurrentUserID uint
	Sort          string
}

type UpdatePostInput struct {
	UserID    uint
	PostID    uint
	Title     string
	Content   string
	Location  *string
	Published *bool
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

// LikeResult is the outcome of a like toggle.
type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}

func NewPostService(
	postRepo repository.PostRepository,
	geocoder Geocoder,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *PostService {
	return &PostService{
		postRepo: postRepo,
		geocoder: geocoder,
		isAdmin:  isAdmin,
	}
}

const (
	maxTitleLen    = 300
	maxContentLen  = 50000
	maxLocationLen = 255
)

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.Title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(in.Title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 300 characters)")
	}
	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxContentLen {
		return nil, models.NewValidationError("Content too long (max 50000 characters)")
	}
	if len(in.Location) > maxLocationLen {
		return nil, models.NewValidationError("Location too long (max 255 characters)")
	}

	published := true
	if in.Published != nil {
		published = *in.Published
	}

	post := &models.Post{
		Title:     in.Title,
		Content:   in.Content,
		Location:  in.Location,
		Published: published,
		UserID:    in.UserID,
	}
	s.applyCoordinates(ctx, post)

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

// applyCoordinates fills Latitude/Longitude from the post's Location. An
// empty location or a failed lookup leaves both nil; geocoding failures
// never fail the surrounding operation.
func (s *PostService) applyCoordinates(ctx context.Context, post *models.Post) {
	post.Latitude = nil
	post.Longitude = nil

	if s.geocoder == nil || strings.TrimSpace(post.Location) == "" {
		return
	}
	if coords := s.geocoder.Resolve(ctx, post.Location); coords != nil {
		post.Latitude = &coords.Latitude
		post.Longitude = &coords.Longitude
	}
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	var posts []*models.Post
	var err error

	// The anonymous first page is shared across all visitors and worth a
	// cache-aside; per-user liked flags are layered back on top.
	if in.Offset == 0 && in.Limit <= 20 && in.Sort == "" {
		key := cache.PostsListKey(in.Limit)
		err = cache.Aside(ctx, key, &posts, cache.ListTTL, func() error {
			var fetchErr error
			posts, fetchErr = s.postRepo.List(ctx, in.Limit, in.Offset, 0, "")
			return fetchErr
		})
		if err != nil {
			return nil, err
		}

		if in.CurrentUserID != 0 && len(posts) > 0 {
			postIDs := make([]uint, len(posts))
			for i, p := range posts {
				postIDs[i] = p.ID
			}

			likedIDs, likedErr := s.postRepo.GetLikedPostIDs(ctx, in.CurrentUserID, postIDs)
			if likedErr == nil {
				likedMap := make(map[uint]bool, len(likedIDs))
				for _, id := range likedIDs {
					likedMap[id] = true
				}
				for _, p := range posts {
					p.Liked = likedMap[p.ID]
				}
			}
		}
		return posts, nil
	}

	return s.postRepo.List(ctx, in.Limit, in.Offset, in.CurrentUserID, in.Sort)
}

func (s *PostService) SearchPosts(ctx context.Context, query string, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	if query == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	return s.postRepo.Search(ctx, query, limit, offset, currentUserID)
}

func (s *PostService) GetPost(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id, currentUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, err
	}
	if !post.Published && post.UserID != currentUserID {
		return nil, models.NewNotFoundError("Post", id)
	}
	return post, nil
}

func (s *PostService) GetUserPosts(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return s.postRepo.GetByUserID(ctx, userID, limit, offset, currentUserID)
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", in.PostID)
		}
		return nil, err
	}

	if post.UserID != in.UserID {
		// Drafts stay invisible to everyone but the author.
		if !post.Published {
			return nil, models.NewNotFoundError("Post", in.PostID)
		}
		return nil, models.NewForbiddenError("You can only update your own posts")
	}

	if in.Title != "" {
		if len(in.Title) > maxTitleLen {
			return nil, models.NewValidationError("Title too long (max 300 characters)")
		}
		post.Title = in.Title
	}
	if in.Content != "" {
		if len(in.Content) > maxContentLen {
			return nil, models.NewValidationError("Content too long (max 50000 characters)")
		}
		post.Content = in.Content
	}
	if in.Published != nil {
		post.Published = *in.Published
	}

	// A location update, including clearing it, re-derives the coordinates.
	if in.Location != nil && *in.Location != post.Location {
		if len(*in.Location) > maxLocationLen {
			return nil, models.NewValidationError("Location too long (max 255 characters)")
		}
		post.Location = *in.Location
		s.applyCoordinates(ctx, post)
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Post", in.PostID)
		}
		return err
	}

	if post.UserID != in.UserID {
		admin := false
		if s.isAdmin != nil {
			admin, err = s.isAdmin(ctx, in.UserID)
			if err != nil {
				return err
			}
		}
		if !admin {
			// Drafts stay invisible to everyone but the author.
			if !post.Published {
				return models.NewNotFoundError("Post", in.PostID)
			}
			return models.NewForbiddenError("You can only delete your own posts")
		}
	}

	return s.postRepo.Delete(ctx, in.PostID)
}

// ToggleLike flips the caller's like on a post and reports the resulting
// state with the post-mutation count. The read-then-write pair is not
// atomic; under a concurrent toggle for the same pair the uniqueness
// constraint on (user_id, post_id) is the serialization point, and a
// duplicate-key insert is reinterpreted as "already liked", never an error.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (*LikeResult, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}

	post, err := s.postRepo.GetByID(ctx, postID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", postID)
		}
		return nil, err
	}
	if !post.Published {
		return nil, models.NewNotFoundError("Post", postID)
	}

	isLiked, err := s.postRepo.IsLiked(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	var liked bool
	if isLiked {
		if err := s.postRepo.DeleteLike(ctx, userID, postID); err != nil {
			return nil, err
		}
		liked = false
		middleware.LikeToggles.WithLabelValues("unliked").Inc()
	} else {
		switch err := s.postRepo.CreateLike(ctx, userID, postID); {
		case err == nil:
			liked = true
			middleware.LikeToggles.WithLabelValues("liked").Inc()
		case errors.Is(err, repository.ErrDuplicateKey):
			// Lost the race against a concurrent like for the same pair.
			liked = true
			middleware.LikeToggles.WithLabelValues("conflict").Inc()
		default:
			return nil, err
		}
	}

	count, err := s.postRepo.CountLikes(ctx, postID)
	if err != nil {
		return nil, err
	}

	return &LikeResult{Liked: liked, LikesCount: count}, nil
}

// GetLikesCount returns the current like count for a published post.
func (s *PostService) GetLikesCount(ctx context.Context, postID uint, currentUserID uint) (int, error) {
	if _, err := s.GetPost(ctx, postID, currentUserID); err != nil {
		return 0, err
	}
	return s.postRepo.CountLikes(ctx, postID)
}
