// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"hehememe/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	MaxDays     int
	ShouldClean bool
	DryRun      bool
}

// Run seeds the database with generated users, meme posts, and likes.
func Run(db *gorm.DB, opts Options) error {
	if opts.NumUsers <= 0 {
		opts.NumUsers = 20
	}
	if opts.NumPosts <= 0 {
		opts.NumPosts = 100
	}

	if opts.ShouldClean && !opts.DryRun {
		log.Println("cleaning existing seed data...")
		for _, model := range []interface{}{&models.Like{}, &models.Post{}, &models.User{}} {
			if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).
				Unscoped().Delete(model).Error; err != nil {
				return fmt.Errorf("clean failed: %w", err)
			}
		}
	}

	f := NewFactory(db, opts)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := f.CreateUser()
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		users = append(users, user)
	}

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		author := users[r.Intn(len(users))]
		posts = append(posts, f.BuildPost(author))
	}
	if err := f.CreatePostsBatch(posts); err != nil {
		return fmt.Errorf("create posts: %w", err)
	}

	// Spread likes over the feed. Each user likes a random subset of posts
	// they did not author; the unique index keeps accidental repeats out.
	liked := 0
	for _, user := range users {
		for _, post := range posts {
			if post.UserID == user.ID {
				continue
			}
			if r.Float64() > 0.15 {
				continue
			}
			if err := f.CreateLike(user, post); err != nil {
				continue
			}
			liked++
		}
	}

	log.Printf("seeded %d users, %d posts, %d likes", len(users), len(posts), liked)
	return nil
}
