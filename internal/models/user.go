// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an account identified by a wallet address.
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	// Address is the user's wallet address, stored lowercased.
	Address string `gorm:"uniqueIndex;not null" json:"address"`
	// HeheScore is incremented each time another user likes one of this
	// user's posts, and in bulk by the NFT-burn boost flow.
	HeheScore int  `gorm:"not null;default:0" json:"hehe_score"`
	IsAdmin   bool `gorm:"default:false" json:"is_admin"`
	// Password is only set for bootstrap admin accounts; wallet users have none.
	Password  string         `json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Ranking is a leaderboard row.
type Ranking struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	HeheScore int    `json:"hehe_score"`
}
