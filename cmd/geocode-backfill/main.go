// Command geocode-backfill fills in coordinates for posts that have a location but
// were never geocoded, e.g. posts created while the geocoder was down.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"gameofbones/internal/config"
	"gameofbones/internal/database"
	"gameofbones/internal/geocode"
	"gameofbones/internal/models"
)

// Nominatim's usage policy caps clients at one request per second.
const interRequestDelay = 1100 * time.Millisecond

func main() {
	batchSize := flag.Int("batch", 500, "Maximum number of posts to backfill in one run")
	dryRun := flag.Bool("dry-run", false, "Resolve locations but do not write to the database")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	resolver := geocode.NewResolver(
		geocode.NewHTTPClient(cfg.GeocoderURL, cfg.GeocoderUserAgent, cfg.GeocoderTimeout()),
		geocode.NewMemoryStore(geocode.StoreOptions{}),
	)

	var posts []models.Post
	if err := db.
		Where("location <> '' AND latitude IS NULL").
		Limit(*batchSize).
		Find(&posts).Error; err != nil {
		log.Fatalf("Failed to query posts: %v", err)
	}

	log.Printf("Backfilling coordinates for %d posts...", len(posts))

	ctx := context.Background()
	// Resolve memoizes by normalized location, so only the first occurrence
	// of each location reaches the external service. The pacer spaces out
	// exactly those calls; repeats come back from the memo store instantly.
	pacer := geocode.NewPacer(interRequestDelay)
	seen := make(map[string]bool)
	resolved := 0
	for _, post := range posts {
		if key := geocode.Normalize(post.Location); key != "" && !seen[key] {
			pacer.Wait()
			seen[key] = true
		}

		coords := resolver.Resolve(ctx, post.Location)
		if coords == nil {
			log.Printf("post %d: no result for %q", post.ID, post.Location)
			continue
		}

		if *dryRun {
			log.Printf("[dry-run] post %d: %q -> (%f, %f)", post.ID, post.Location, coords.Latitude, coords.Longitude)
			resolved++
			continue
		}

		if err := db.Model(&models.Post{}).
			Where("id = ?", post.ID).
			Updates(map[string]any{
				"latitude":  coords.Latitude,
				"longitude": coords.Longitude,
			}).Error; err != nil {
			log.Fatalf("post %d: update failed: %v", post.ID, err)
		}
		resolved++
	}

	log.Printf("Done: %d/%d posts resolved", resolved, len(posts))
}
