// Package seed provides helpers to create demo and test data for the
// application database. Development and testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"gameofbones/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedOptions tune how factories generate data.
type SeedOptions struct {
	// DryRun logs instead of writing to the database.
	DryRun bool
	// SkipBcrypt stores plaintext passwords for fast local seeding.
	SkipBcrypt bool
	// MaxDays spreads post timestamps over this many days back.
	MaxDays int
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db    *gorm.DB
	opts  SeedOptions
	sites []DigSite
	rng   *rand.Rand
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

var taxa = []string{
	"Tyrannosaurus rex", "Triceratops horridus", "Velociraptor mongoliensis",
	"Archaeopteryx lithographica", "Anomalocaris canadensis", "Ichthyosaurus communis",
	"Smilodon fatalis", "Herrerasaurus ischigualastensis", "Sinosauropteryx prima",
	"Stegosaurus stenops", "Plesiosaurus dolichodeirus", "Mosasaurus hoffmannii",
}

var findVerbs = []string{
	"unearthed", "excavated", "catalogued", "prepped", "jacketed", "surveyed",
}

var specimens = []string{
	"a nearly complete skull", "an articulated tail section", "a femur fragment",
	"a clutch of fossilized eggs", "a partial ribcage", "trackway impressions",
	"a jaw with intact dentition", "vertebrae in matrix", "a coprolite cluster",
}

// NewFactory creates a Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts SeedOptions) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	sites, err := LoadDigSites()
	if err != nil {
		log.Printf("dig site fixture unavailable, posts will have no location: %v", err)
	}
	//nolint:gosec // weak randomness is fine for seeding
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Factory{db: db, opts: opts, sites: sites, rng: rng, nextID: 1000}
}

// CreateUser constructs and persists a sample `models.User`.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Username: gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Email:    gofakeit.Email(),
		Bio:      fmt.Sprintf("Field paleontologist. Last season at %s.", f.randomSite().Name),
		Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
	}

	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.Password = string(hashedPassword)
	}

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: %s <%s>", user.Username, user.Email)
		return user, nil
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a discovery post without persisting it. Useful for
// batching.
func (f *Factory) BuildPost(user *models.User, overrides ...func(*models.Post)) *models.Post {
	site := f.randomSite()
	taxon := taxa[f.rng.Intn(len(taxa))]

	post := &models.Post{
		Title: fmt.Sprintf("%s %s at %s",
			findVerbs[f.rng.Intn(len(findVerbs))], taxon, site.Name),
		Content: fmt.Sprintf("Today we %s %s attributed to %s in %s strata. %s",
			findVerbs[f.rng.Intn(len(findVerbs))],
			specimens[f.rng.Intn(len(specimens))],
			taxon, site.Period,
			gofakeit.Paragraph(1, 3, 8, "\n")),
		UserID:    user.ID,
		Published: true,
	}

	if site.Location != "" {
		post.Location = site.Location
		lat, lng := site.Latitude, site.Longitude
		post.Latitude = &lat
		post.Longitude = &lng
	}

	// realistic created_at spread
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	daysBack := f.rng.Intn(maxDays)
	hoursBack := f.rng.Intn(24)
	post.CreatedAt = time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour)

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost constructs and persists a discovery post for the given user.
func (f *Factory) CreatePost(user *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(user, overrides...)

	if f.opts.DryRun {
		f.nextID++
		post.ID = f.nextID
		log.Printf("[dry-run] CreatePost: user=%d title=%q", post.UserID, post.Title)
		return post, nil
	}

	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreatePostsBatch persists multiple posts in a single DB call when possible.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if f.opts.DryRun {
		for _, p := range posts {
			f.nextID++
			p.ID = f.nextID
		}
		log.Printf("[dry-run] CreatePostsBatch: %d posts (no DB write)", len(posts))
		return nil
	}
	return f.db.Create(&posts).Error
}

// CreateComment constructs and persists a comment on the provided post
// authored by the provided user.
func (f *Factory) CreateComment(user *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		Content: gofakeit.Sentence(8),
		UserID:  user.ID,
		PostID:  post.ID,
	}

	for _, override := range overrides {
		override(comment)
	}

	if f.opts.DryRun {
		f.nextID++
		comment.ID = f.nextID
		return comment, nil
	}

	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike persists a like from `user` on `post`.
func (f *Factory) CreateLike(user *models.User, post *models.Post) error {
	if f.opts.DryRun {
		return nil
	}
	like := &models.Like{
		UserID: user.ID,
		PostID: post.ID,
	}
	return f.db.Create(like).Error
}

func (f *Factory) randomSite() DigSite {
	if len(f.sites) == 0 {
		return DigSite{}
	}
	return f.sites[f.rng.Intn(len(f.sites))]
}
