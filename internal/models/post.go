// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Post represents a meme post.
type Post struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	ImageURL string `gorm:"not null" json:"image_url"`
	Caption  string `gorm:"type:text;not null" json:"caption"`
	UserID   uint   `gorm:"not null;index" json:"user_id"`
	User     User   `gorm:"foreignKey:UserID" json:"user"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->" json:"likes"`
	// HasLiked indicates whether the current requesting user liked this post (computed)
	HasLiked bool `gorm:"->" json:"has_liked"`
	// ReactionImageURL is only populated on "my liked posts" queries: the
	// viewer's own reaction still for this post (computed)
	ReactionImageURL string         `gorm:"->" json:"reaction_image_url,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}
