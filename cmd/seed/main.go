// Command seed populates the database with fake users, memes, and likes
// for local development.
package main

import (
	"flag"
	"log"

	"hehememe/internal/config"
	"hehememe/internal/database"
	"hehememe/internal/seed"
)

func main() {
	users := flag.Int("users", 20, "number of users to create")
	posts := flag.Int("posts", 100, "number of memes to create")
	days := flag.Int("days", 90, "spread post timestamps over this many days")
	clean := flag.Bool("clean", false, "delete existing likes, posts, and users first")
	dryRun := flag.Bool("dry-run", false, "log what would be created without writing")
	builtins := flag.Bool("builtins", true, "seed the built-in starter memes")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Env == "production" {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *builtins && !*dryRun {
		if err := seed.Memes(db); err != nil {
			log.Fatalf("Failed to seed built-in memes: %v", err)
		}
	}

	err = seed.Run(db, seed.Options{
		NumUsers:    *users,
		NumPosts:    *posts,
		MaxDays:     *days,
		ShouldClean: *clean,
		DryRun:      *dryRun,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Seeding complete")
}
