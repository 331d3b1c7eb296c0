// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"hehememe/internal/cache"
	"hehememe/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByAddress(ctx context.Context, address string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Rankings(ctx context.Context, limit int) ([]models.Ranking, error)
	BoostScore(ctx context.Context, userID uint, delta int) (int, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	key := cache.UserKey(id)

	err := cache.Aside(ctx, key, &user, cache.UserTTL, func() error {
		if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByAddress looks up a user by wallet address. Addresses are stored
// lowercased; the lookup normalizes its input the same way.
// Returns (nil, nil) when no user exists for the address.
func (r *userRepository) GetByAddress(ctx context.Context, address string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("address = ?", strings.ToLower(address)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByUsername returns (nil, nil) when the username is unclaimed.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.Address = strings.ToLower(user.Address)
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return err
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

// Rankings returns the top users by hehe score, cached with a short TTL
// since the leaderboard tolerates slight staleness.
func (r *userRepository) Rankings(ctx context.Context, limit int) ([]models.Ranking, error) {
	var rankings []models.Ranking
	err := cache.Aside(ctx, cache.RankingsKey, &rankings, cache.RankingsTTL, func() error {
		return r.db.WithContext(ctx).
			Model(&models.User{}).
			Select("id, username, hehe_score").
			Order("hehe_score DESC").
			Limit(limit).
			Scan(&rankings).Error
	})
	if err != nil {
		return nil, err
	}
	return rankings, nil
}

// BoostScore applies a bulk score change (NFT-burn flow) and returns the
// updated score. Scores never go below zero.
func (r *userRepository) BoostScore(ctx context.Context, userID uint, delta int) (int, error) {
	var score int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ?", userID).
			UpdateColumn("hehe_score",
				gorm.Expr("CASE WHEN hehe_score + ? < 0 THEN 0 ELSE hehe_score + ? END", delta, delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("User", userID)
		}
		return tx.Model(&models.User{}).
			Select("hehe_score").
			Where("id = ?", userID).
			Scan(&score).Error
	})
	if err != nil {
		return 0, err
	}
	cache.InvalidateUser(ctx, userID)
	cache.InvalidateRankings(ctx)
	return score, nil
}
