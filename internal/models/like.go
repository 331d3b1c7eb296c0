package models

import "time"

// Like records a verified reaction to a post.
// The combination of UserID and PostID must be unique; likes are never
// updated or deleted once recorded.
type Like struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"not null;uniqueIndex:idx_user_post" json:"user_id"`
	PostID uint `gorm:"not null;uniqueIndex:idx_user_post" json:"post_id"`
	// ReactionImageURL points at the camera still captured when the like
	// was confirmed.
	ReactionImageURL string    `json:"reaction_image_url"`
	CreatedAt        time.Time `json:"created_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"-"`
	Post Post `gorm:"foreignKey:PostID" json:"-"`
}
