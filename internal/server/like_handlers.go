// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"time"

	"hehememe/internal/cache"
	"hehememe/internal/middleware"
	"hehememe/internal/models"

	"github.com/gofiber/fiber/v2"
)

// LikePost handles POST /api/posts/:id/like
//
// A like is permanent and carries the reaction image captured during the
// smile check. Liking a post increments its author's hehe score in the same
// transaction. A second like for the same post returns 409 ALREADY_LIKED;
// clients treat that as already converged, not a failure.
func (s *Server) LikePost(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		ReactionImageURL string `json:"reaction_image_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.ReactionImageURL == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Reaction image URL is required"))
	}

	like, authorScore, err := s.postRepo.LikeWithReaction(ctx, userID, postID, req.ReactionImageURL)
	if err != nil {
		if models.IsAlreadyLiked(err) {
			middleware.LikeConflicts.Inc()
			return models.RespondWithError(c, fiber.StatusConflict, err)
		}
		if appErr, ok := err.(*models.AppError); ok && appErr.Code == "NOT_FOUND" {
			return models.RespondWithError(c, fiber.StatusNotFound, err)
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	// The author's cached profile and the rankings carry a stale score now.
	post, postErr := s.postRepo.GetByID(ctx, postID, userID)
	if postErr == nil {
		cache.InvalidateUser(context.Background(), post.UserID)
	}
	cache.InvalidatePost(context.Background(), postID)
	cache.InvalidateRankings(context.Background())

	if postErr == nil {
		s.publishUserEvent(post.UserID, EventPostLiked, map[string]interface{}{
			"post_id":      postID,
			"liked_by":     userID,
			"author_score": authorScore,
			"created_at":   time.Now().UTC().Format(time.RFC3339Nano),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"like":         like,
		"author_score": authorScore,
	})
}
