package service

import (
	"context"
	"errors"
	"testing"

	"gameofbones/internal/cache"
	"gameofbones/internal/geocode"
	"gameofbones/internal/models"
	"gameofbones/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stubPostRepo implements repository.PostRepository with function fields so
// each test overrides only what it needs.
type stubPostRepo struct {
	createFn          func(ctx context.Context, post *models.Post) error
	getByIDFn         func(ctx context.Context, id uint, currentUserID uint) (*models.Post, error)
	getByUserIDFn     func(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error)
	listFn            func(ctx context.Context, limit, offset int, currentUserID uint, sort string) ([]*models.Post, error)
	searchFn          func(ctx context.Context, query string, limit, offset int, currentUserID uint) ([]*models.Post, error)
	updateFn          func(ctx context.Context, post *models.Post) error
	deleteFn          func(ctx context.Context, id uint) error
	isLikedFn         func(ctx context.Context, userID, postID uint) (bool, error)
	getLikedPostIDsFn func(ctx context.Context, userID uint, postIDs []uint) ([]uint, error)
	createLikeFn      func(ctx context.Context, userID, postID uint) error
	deleteLikeFn      func(ctx context.Context, userID, postID uint) error
	countLikesFn      func(ctx context.Context, postID uint) (int, error)
}

func (s *stubPostRepo) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *stubPostRepo) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id, currentUserID)
}
func (s *stubPostRepo) GetByUserID(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return s.getByUserIDFn(ctx, userID, limit, offset, currentUserID)
}
func (s *stubPostRepo) List(ctx context.Context, limit, offset int, currentUserID uint, sort string) ([]*models.Post, error) {
	return s.listFn(ctx, limit, offset, currentUserID, sort)
}
func (s *stubPostRepo) Search(ctx context.Context, query string, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return s.searchFn(ctx, query, limit, offset, currentUserID)
}
func (s *stubPostRepo) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *stubPostRepo) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *stubPostRepo) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	return s.isLikedFn(ctx, userID, postID)
}
func (s *stubPostRepo) GetLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	return s.getLikedPostIDsFn(ctx, userID, postIDs)
}
func (s *stubPostRepo) CreateLike(ctx context.Context, userID, postID uint) error {
	return s.createLikeFn(ctx, userID, postID)
}
func (s *stubPostRepo) DeleteLike(ctx context.Context, userID, postID uint) error {
	return s.deleteLikeFn(ctx, userID, postID)
}
func (s *stubPostRepo) CountLikes(ctx context.Context, postID uint) (int, error) {
	return s.countLikesFn(ctx, postID)
}

type stubGeocoder struct {
	calls   int
	resolve func(ctx context.Context, location string) *geocode.Coordinates
}

func (g *stubGeocoder) Resolve(ctx context.Context, location string) *geocode.Coordinates {
	g.calls++
	if g.resolve == nil {
		return nil
	}
	return g.resolve(ctx, location)
}

func publishedPost(id, userID uint) *models.Post {
	return &models.Post{ID: id, UserID: userID, Title: "Find", Content: "Bones", Published: true}
}

func TestToggleLike_Unauthenticated(t *testing.T) {
	t.Parallel()
	svc := NewPostService(&stubPostRepo{}, nil, nil)

	_, err := svc.ToggleLike(context.Background(), 0, 1)
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "UNAUTHORIZED", appErr.Code)
}

func TestToggleLike_PostNotFound(t *testing.T) {
	t.Parallel()
	repo := &stubPostRepo{
		getByIDFn: func(_ context.Context, _ uint, _ uint) (*models.Post, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := NewPostService(repo, nil, nil)

	_, err := svc.ToggleLike(context.Background(), 7, 42)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestToggleLike_UnpublishedPost(t *testing.T) {
	t.Parallel()
	repo := &stubPostRepo{
		getByIDFn: func(_ context.Context, id uint, _ uint) (*models.Post, error) {
			return &models.Post{ID: id, UserID: 7, Published: false}, nil
		},
	}
	svc := NewPostService(repo, nil, nil)

	// Even the author cannot like a draft.
	_, err := svc.ToggleLike(context.Background(), 7, 42)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestToggleLike_LikeThenUnlike(t *testing.T) {
	t.Parallel()
	liked := false
	count := 0
	repo := &stubPostRepo{
		getByIDFn: func(_ context.Context, id uint, _ uint) (*models.Post, error) {
			return publishedPost(id, 1), nil
		},
		isLikedFn: func(_ context.Context, _, _ uint) (bool, error) {
			return liked, nil
		},
		createLikeFn: func(_ context.Context, _, _ uint) error {
			liked = true
			count++
			return nil
		},
		deleteLikeFn: func(_ context.Context, _, _ uint) error {
			liked = false
			count--
			return nil
		},
		countLikesFn: func(_ context.Context, _ uint) (int, error) {
			return count, nil
		},
	}
	svc := NewPostService(repo, nil, nil)

	result, err := svc.ToggleLike(context.Background(), 7, 42)
	require.NoError(t, err)
	assert.True(t, result.Liked)
	assert.Equal(t, 1, result.LikesCount)

	result, err = svc.ToggleLike(context.Background(), 7, 42)
	require.NoError(t, err)
	assert.False(t, result.Liked)
	assert.Equal(t, 0, result.LikesCount)
}

func TestToggleLike_DuplicateKeyMeansAlreadyLiked(t *testing.T) {
	t.Parallel()
	repo := &stubPostRepo{
		getByIDFn: func(_ context.Context, id uint, _ uint) (*models.Post, error) {
			return publishedPost(id, 1), nil
		},
		isLikedFn: func(_ context.Context, _, _ uint) (bool, error) {
			// Concurrent toggle inserted the row after this check.
			return false, nil
		},
		createLikeFn: func(_ context.Context, _, _ uint) error {
			return repository.ErrDuplicateKey
		},
		countLikesFn: func(_ context.Context, _ uint) (int, error) {
			return 1, nil
		},
	}
	svc := NewPostService(repo, nil, nil)

	result, err := svc.ToggleLike(context.Background(), 7, 42)
	require.NoError(t, err, "losing the insert race is not an error")
	assert.True(t, result.Liked)
	assert.Equal(t, 1, result.LikesCount)
}

func TestToggleLike_CreateLikeFailure(t *testing.T) {
	t.Parallel()
	boom := errors.New("connection reset")
	repo := &stubPostRepo{
		getByIDFn: func(_ context.Context, id uint, _ uint) (*models.Post, error) {
			return publishedPost(id, 1), nil
		},
		isLikedFn: func(_ context.Context, _, _ uint) (bool, error) {
			return false, nil
		},
		createLikeFn: func(_ context.Context, _, _ uint) error {
			return boom
		},
	}
	svc := NewPostService(repo, nil, nil)

	_, err := svc.ToggleLike(context.Background(), 7, 42)
	assert.ErrorIs(t, err, boom)
}

func TestCreatePost_GeocodesLocation(t *testing.T) {
	t.Parallel()
	var saved *models.Post
	repo := &stubPostRepo{
		createFn: func(_ context.Context, post *models.Post) error {
			post.ID = 5
			saved = post
			return nil
		},
		getByIDFn: func(_ context.Context, id uint, _ uint) (*models.Post, error) {
			return saved, nil
		},
	}
	geocoder := &stubGeocoder{resolve: func(_ context.Context, location string) *geocode.Coordinates {
		assert.Equal(t, "Hell Creek, Montana", location)
		return &geocode.Coordinates{Latitude: 47.6167, Longitude: -107.0667}
	}}
	svc := NewPostService(repo, geocoder, nil)

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		UserID:   7,
		Title:    "New rex material",
		Content:  "Partial skull in excellent condition.",
		Location: "Hell Creek, Montana",
	})
	require.NoError(t, err)
	require.NotNil(t, post.Latitude)
	assert.InDelta(t, 47.6167, *post.Latitude, 1e-9)
	require.NotNil(t, post.Longitude)
	assert.True(t, post.Published, "posts default to published")
	assert.Equal(t, 1, geocoder.calls)
}

func TestCreatePost_EmptyLocationSkipsGeocoder(t *testing.T) {
	t.Parallel()
	repo := &stubPostRepo{
		createFn: func(_ context.Context, post *models.Post) error {
			post.ID = 5
			return nil
		},
		getByIDFn: func(_ context.Context, id uint, _ uint) (*models.Post, error) {
			return publishedPost(id, 7), nil
		},
	}
	geocoder := &stubGeocoder{}
	svc := NewPostService(repo, geocoder, nil)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{
		UserID:  7,
		Title:   "Lab notes",
		Content: "Prep work only today.",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, geocoder.calls)
}

func TestCreatePost_UnresolvableLocationStillCreates(t *testing.T) {
	t.Parallel()
	var saved *models.Post
	repo := &stubPostRepo{
		createFn: func(_ context.Context, post *models.Post) error {
			post.ID = 5
			saved = post
			return nil
		},
		getByIDFn: func(_ context.Context, _ uint, _ uint) (*models.Post, error) {
			return saved, nil
		},
	}
	geocoder := &stubGeocoder{} // always resolves to nil
	svc := NewPostService(repo, geocoder, nil)

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		UserID:   7,
		Title:    "Mystery site",
		Content:  "Coordinates withheld.",
		Location: "Atlantis",
	})
	require.NoError(t, err, "geocoding failure must not fail the post")
	assert.Equal(t, "Atlantis", post.Location)
	assert.Nil(t, post.Latitude)
	assert.Nil(t, post.Longitude)
}

func TestCreatePost_Validation(t *testing.T) {
	t.Parallel()
	svc := NewPostService(&stubPostRepo{}, nil, nil)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{UserID: 7, Content: "body"})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)

	_, err = svc.CreatePost(context.Background(), CreatePostInput{UserID: 7, Title: "t"})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestUpdatePost_LocationChangeReGeocodes(t *testing.T) {
	t.Parallel()
	lat, lng := 47.6167, -107.0667
	existing := publishedPost(5, 7)
	existing.Location = "Hell Creek, Montana"
	existing.Latitude = &lat
	existing.Longitude = &lng

	repo := &stubPostRepo{
		getByIDFn: func(_ context.Context, _ uint, _ uint) (*models.Post, error) {
			return existing, nil
		},
		updateFn: func(_ context.Context, _ *models.Post) error { return nil },
	}
	geocoder := &stubGeocoder{resolve: func(_ context.Context, location string) *geocode.Coordinates {
		return &geocode.Coordinates{Latitude: 50.7611, Longitude: -111.4928}
	}}
	svc := NewPostService(repo, geocoder, nil)

	newLoc := "Dinosaur Provincial Park, Alberta"
	post, err := svc.UpdatePost(context.Background(), UpdatePostInput{
		UserID:   7,
		PostID:   5,
		Location: &newLoc,
	})
	require.NoError(t, err)
	assert.Equal(t, newLoc, post.Location)
	require.NotNil(t, post.Latitude)
	assert.InDelta(t, 50.7611, *post.Latitude, 1e-9)
	assert.Equal(t, 1, geocoder.calls)
}

func TestUpdatePost_ClearingLocationClearsCoordinates(t *testing.T) {
	t.Parallel()
	lat, lng := 47.6167, -107.0667
	existing := publishedPost(5, 7)
	existing.Location = "Hell Creek, Montana"
	existing.Latitude = &lat
	existing.Longitude = &lng

	repo := &stubPostRepo{
		getByIDFn: func(_ context.Context, _ uint, _ uint) (*models.Post, error) {
			return existing, nil
		},
		updateFn: func(_ context.Context, _ *models.Post) error { return nil },
	}
	geocoder := &stubGeocoder{}
	svc := NewPostService(repo, geocoder, nil)

	empty := ""
	post, err := svc.UpdatePost(context.Background(), UpdatePostInput{
		UserID:   7,
		PostID:   5,
		Location: &empty,
	})
	require.NoError(t, err)
	assert.Equal(t, "", post.Location)
	assert.Nil(t, post.Latitude)
	assert.Nil(t, post.Longitude)
	assert.Equal(t, 0, geocoder.calls, "clearing a location needs no lookup")
}

func TestUpdatePost_UnchangedLocationSkipsGeocoder(t *testing.T) {
	t.Parallel()
	existing := publishedPost(5, 7)
	existing.Location = "Hell Creek, Montana"

	repo := &stubPostRepo{
		getByIDFn: func(_ context.Context, _ uint, _ uint) (*models.Post, error) {
			return existing, nil
		},
		updateFn: func(_ context.Context, _ *models.Post) error { return nil },
	}
	geocoder := &stubGeocoder{}
	svc := NewPostService(repo, geocoder, nil)

	same := "Hell Creek, Montana"
	_, err := svc.UpdatePost(context.Background(), UpdatePostInput{
		UserID:   7,
		PostID:   5,
		Title:    "Updated title",
		Location: &same,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, geocoder.calls)
}

func TestUpdatePost_NotOwner(t *testing.T) {
	t.Parallel()
	repo := &stubPostRepo{
		getByIDFn: func(_ context.Context, _ uint, _ uint) (*models.Post, error) {
			return publishedPost(5, 99), nil
		},
	}
	svc := NewPostService(repo, nil, nil)

	_, err := svc.UpdatePost(context.Background(), UpdatePostInput{UserID: 7, PostID: 5, Title: "x"})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "FORBIDDEN", appErr.Code)
}

func TestUpdatePost_DraftHiddenFromOthers(t *testing.T) {
	t.Parallel()
	repo := &stubPostRepo{
		getByIDFn: func(_ context.Context, id uint, _ uint) (*models.Post, error) {
			return &models.Post{ID: id, UserID: 99, Title: "Draft", Published: false}, nil
		},
	}
	svc := NewPostService(repo, nil, nil)

	// A stranger probing a draft gets the same answer as for a missing
	// post, not a forbidden that confirms it exists.
	_, err := svc.UpdatePost(context.Background(), UpdatePostInput{UserID: 7, PostID: 5, Title: "x"})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestDeletePost_DraftHiddenFromOthers(t *testing.T) {
	t.Parallel()
	deleted := false
	repo := &stubPostRepo{
		getByIDFn: func(_ context.Context, id uint, _ uint) (*models.Post, error) {
			return &models.Post{ID: id, UserID: 99, Title: "Draft", Published: false}, nil
		},
		deleteFn: func(_ context.Context, _ uint) error {
			deleted = true
			return nil
		},
	}
	isAdmin := func(_ context.Context, userID uint) (bool, error) {
		return userID == 1, nil
	}
	svc := NewPostService(repo, nil, isAdmin)

	err := svc.DeletePost(context.Background(), DeletePostInput{UserID: 7, PostID: 5})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
	assert.False(t, deleted)

	// Admins still moderate drafts.
	require.NoError(t, svc.DeletePost(context.Background(), DeletePostInput{UserID: 1, PostID: 5}))
	assert.True(t, deleted)
}

func TestDeletePost_AdminOverride(t *testing.T) {
	t.Parallel()
	deleted := false
	repo := &stubPostRepo{
		getByIDFn: func(_ context.Context, _ uint, _ uint) (*models.Post, error) {
			return publishedPost(5, 99), nil
		},
		deleteFn: func(_ context.Context, _ uint) error {
			deleted = true
			return nil
		},
	}
	isAdmin := func(_ context.Context, userID uint) (bool, error) {
		return userID == 7, nil
	}
	svc := NewPostService(repo, nil, isAdmin)

	err := svc.DeletePost(context.Background(), DeletePostInput{UserID: 7, PostID: 5})
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestGetPost_DraftHiddenFromOthers(t *testing.T) {
	t.Parallel()
	repo := &stubPostRepo{
		getByIDFn: func(_ context.Context, id uint, _ uint) (*models.Post, error) {
			return &models.Post{ID: id, UserID: 7, Published: false}, nil
		},
	}
	svc := NewPostService(repo, nil, nil)

	// Author sees their draft.
	post, err := svc.GetPost(context.Background(), 5, 7)
	require.NoError(t, err)
	assert.Equal(t, uint(5), post.ID)

	// Everyone else gets a 404, not a 403, to avoid leaking existence.
	_, err = svc.GetPost(context.Background(), 5, 8)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestListPosts_CacheKeyedByPageSize(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	repo := &stubPostRepo{
		listFn: func(_ context.Context, limit, _ int, _ uint, _ string) ([]*models.Post, error) {
			posts := make([]*models.Post, limit)
			for i := range posts {
				posts[i] = publishedPost(uint(i+1), 1)
			}
			return posts, nil
		},
	}
	svc := NewPostService(repo, nil, nil)

	small, err := svc.ListPosts(context.Background(), ListPostsInput{Limit: 5})
	require.NoError(t, err)
	require.Len(t, small, 5)

	// A 5-item page cached for one visitor must not satisfy a wider request.
	large, err := svc.ListPosts(context.Background(), ListPostsInput{Limit: 20})
	require.NoError(t, err)
	assert.Len(t, large, 20)
}

func TestGetLikesCount(t *testing.T) {
	t.Parallel()
	repo := &stubPostRepo{
		getByIDFn: func(_ context.Context, id uint, _ uint) (*models.Post, error) {
			return publishedPost(id, 1), nil
		},
		countLikesFn: func(_ context.Context, _ uint) (int, error) {
			return 12, nil
		},
	}
	svc := NewPostService(repo, nil, nil)

	count, err := svc.GetLikesCount(context.Background(), 5, 0)
	require.NoError(t, err)
	assert.Equal(t, 12, count)
}
