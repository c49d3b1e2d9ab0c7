package seed

import (
	"errors"
	"fmt"
	"log"

	"gameofbones/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
	SkipBcrypt  bool
}

// Seed populates the database with demo data: users, discovery posts at
// real dig sites, comments, and likes.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Seeding database with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway...")
		}
	}

	factory := NewFactory(db, SeedOptions{SkipBcrypt: opts.SkipBcrypt})

	users, err := createUsers(factory, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("created %d users", len(users))

	posts, err := createPosts(factory, users, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("created %d posts", len(posts))

	if err := createEngagement(factory, users, posts); err != nil {
		return fmt.Errorf("failed to create engagement: %w", err)
	}

	log.Println("Database seeding completed")
	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("Clearing existing data...")
	sql := `TRUNCATE TABLE comments, likes, posts, users RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}

func createUsers(factory *Factory, count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)

	// A couple of fixed accounts for local login convenience.
	if count >= 2 {
		fixed := []struct {
			username string
			admin    bool
		}{
			{"mary_anning", true},
			{"bone_digger", false},
		}
		for _, fx := range fixed {
			user, err := factory.CreateUser(func(u *models.User) {
				u.Username = fx.username
				u.Email = fmt.Sprintf("%s@example.com", fx.username)
				u.IsAdmin = fx.admin
			})
			if err != nil {
				log.Printf("failed to create fixed user %s: %v", fx.username, err)
				continue
			}
			users = append(users, user)
		}
	}

	for i := len(users); i < count; i++ {
		user, err := factory.CreateUser()
		if err != nil {
			log.Printf("failed to create user: %v", err)
			continue
		}
		users = append(users, user)

		if i > 0 && i%100 == 0 {
			log.Printf("created %d users...", i)
		}
	}

	return users, nil
}

func createPosts(factory *Factory, users []*models.User, count int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, count)

	const batchSize = 100
	batch := make([]*models.Post, 0, batchSize)

	for i := 0; i < count; i++ {
		user := users[factory.rng.Intn(len(users))]
		post := factory.BuildPost(user, func(p *models.Post) {
			// Keep a few drafts around so the published filter has
			// something to hide.
			if factory.rng.Intn(20) == 0 {
				p.Published = false
			}
		})
		batch = append(batch, post)

		if len(batch) == batchSize || i == count-1 {
			if err := factory.CreatePostsBatch(batch); err != nil {
				return nil, err
			}
			posts = append(posts, batch...)
			batch = batch[:0]
		}
	}

	return posts, nil
}

// createEngagement sprinkles comments and likes across the seeded posts.
// Duplicate likes from the random pairing are skipped.
func createEngagement(factory *Factory, users []*models.User, posts []*models.Post) error {
	if len(users) == 0 || len(posts) == 0 {
		return nil
	}

	likeCount := len(posts) * 3
	for i := 0; i < likeCount; i++ {
		user := users[factory.rng.Intn(len(users))]
		post := posts[factory.rng.Intn(len(posts))]
		if err := factory.CreateLike(user, post); err != nil {
			if isDuplicateErr(err) {
				continue
			}
			return err
		}
	}

	commentCount := len(posts) * 2
	for i := 0; i < commentCount; i++ {
		user := users[factory.rng.Intn(len(users))]
		post := posts[factory.rng.Intn(len(posts))]
		if _, err := factory.CreateComment(user, post); err != nil {
			return err
		}
	}

	return nil
}

func isDuplicateErr(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
