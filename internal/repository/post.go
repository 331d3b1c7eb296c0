package repository

import (
	"context"
	"errors"
	"strings"

	"hehememe/internal/cache"
	"hehememe/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint violation.
const uniqueViolation = "23505"

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error)
	GetByUserID(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error)
	GetLikedByUserID(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error)
	List(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Post, int64, error)
	IsLiked(ctx context.Context, userID, postID uint) (bool, error)
	LikeWithReaction(ctx context.Context, userID, postID uint, reactionImageURL string) (*models.Like, int, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	var post models.Post
	err := r.applyPostDetails(r.db.WithContext(ctx), currentUserID).
		Preload("User").
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) GetByUserID(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.applyPostDetails(r.db.WithContext(ctx), currentUserID).
		Preload("User").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// GetLikedByUserID returns posts the user has liked, newest first, each
// carrying the user's own reaction image URL.
func (r *postRepository) GetLikedByUserID(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("posts.*, "+
			"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) as likes_count, "+
			"1 as has_liked, "+
			"likes.reaction_image_url as reaction_image_url").
		Joins("JOIN likes ON likes.post_id = posts.id AND likes.user_id = ?", userID).
		Preload("User").
		Order("posts.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Post, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []*models.Post
	err := r.applyPostDetails(r.db.WithContext(ctx), currentUserID).
		Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// applyPostDetails adds subqueries to fetch the like count and the viewer's
// liked status in a single query.
func (r *postRepository) applyPostDetails(db *gorm.DB, currentUserID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) as likes_count"

	if currentUserID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) as has_liked", currentUserID)
	}

	return db.Select(selectQuery + ", false as has_liked")
}

func (r *postRepository) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// LikeWithReaction records a like carrying its reaction image and increments
// the post author's hehe score, atomically. A duplicate (post, user) pair
// fails with ALREADY_LIKED and leaves the score untouched.
func (r *postRepository) LikeWithReaction(ctx context.Context, userID, postID uint, reactionImageURL string) (*models.Like, int, error) {
	var like models.Like
	var authorScore int

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id", "user_id").First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Post", postID)
			}
			return err
		}

		like = models.Like{
			UserID:           userID,
			PostID:           postID,
			ReactionImageURL: reactionImageURL,
		}
		if err := tx.Create(&like).Error; err != nil {
			if isUniqueViolation(err) {
				return models.NewAlreadyLikedError(postID)
			}
			return err
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", post.UserID).
			UpdateColumn("hehe_score", gorm.Expr("hehe_score + ?", 1)).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.User{}).
			Select("hehe_score").
			Where("id = ?", post.UserID).
			Scan(&authorScore).Error; err != nil {
			return err
		}

		cache.InvalidateUser(ctx, post.UserID)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	cache.InvalidatePost(ctx, postID)
	cache.InvalidateRankings(ctx)
	return &like, authorScore, nil
}

// isUniqueViolation recognizes unique-constraint failures from both Postgres
// (production) and SQLite (tests).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
