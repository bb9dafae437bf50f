// Command seed populates the database with demo moderation data.
package main

import (
	"flag"
	"log"

	"tribunal/internal/config"
	"tribunal/internal/database"
	"tribunal/internal/seed"
)

func main() {
	numMembers := flag.Int("members", 50, "Number of members to create")
	numPosts := flag.Int("posts", 120, "Number of posts to create")
	numActions := flag.Int("actions", 40, "Number of moderation actions to create")
	numFlags := flag.Int("flags", 30, "Number of flag reports to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("Tribunal database seeder")
	log.Printf("Target: %d members, %d posts, %d actions, %d flags, clean=%v",
		*numMembers, *numPosts, *numActions, *numFlags, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := seed.Seed(db, seed.Options{
		NumMembers:  *numMembers,
		NumPosts:    *numPosts,
		NumActions:  *numActions,
		NumFlags:    *numFlags,
		ShouldClean: *shouldClean,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
