// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"

	"hehememe/internal/cache"
	"hehememe/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(user)
}

// GetRankings handles GET /api/rankings
//
// Returns the top users by hehe score. Public; no auth required.
func (s *Server) GetRankings(c *fiber.Ctx) error {
	ctx := c.Context()

	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	rankings, err := s.userRepo.Rankings(ctx, limit)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(fiber.Map{"rankings": rankings})
}

// BoostScores handles POST /api/users/boost-scores (admin only).
//
// Applies a flat score delta to a batch of users, used for events and
// promotional score drops.
func (s *Server) BoostScores(c *fiber.Ctx) error {
	ctx := c.Context()

	var req struct {
		UserIDs []uint `json:"user_ids"`
		Delta   int    `json:"delta"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if len(req.UserIDs) == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("At least one user ID is required"))
	}
	if req.Delta == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Delta must be non-zero"))
	}

	results := make([]fiber.Map, 0, len(req.UserIDs))
	for _, id := range req.UserIDs {
		score, err := s.userRepo.BoostScore(ctx, id, req.Delta)
		if err != nil {
			if appErr, ok := err.(*models.AppError); ok && appErr.Code == "NOT_FOUND" {
				results = append(results, fiber.Map{"user_id": id, "error": "not found"})
				continue
			}
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		cache.InvalidateUser(context.Background(), id)
		results = append(results, fiber.Map{"user_id": id, "hehe_score": score})
	}
	cache.InvalidateRankings(context.Background())

	return c.JSON(fiber.Map{"results": results})
}
