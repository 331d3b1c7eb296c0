// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"io"
	"strconv"

	"hehememe/internal/middleware"
	"hehememe/internal/models"
	"hehememe/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UploadMeme handles POST /api/upload (multipart form, field "file")
func (s *Server) UploadMeme(c *fiber.Ctx) error {
	return s.handleUpload(c, service.MediaKindMeme)
}

// UploadReaction handles POST /api/upload/reaction (multipart form, field "file")
//
// Stores the reaction still captured after a confirmed smile. The resulting
// URL is what the client sends along with the like.
func (s *Server) UploadReaction(c *fiber.Ctx) error {
	err := s.handleUpload(c, service.MediaKindReaction)
	if err == nil && c.Response().StatusCode() == fiber.StatusCreated {
		middleware.ReactionUploads.WithLabelValues("ok").Inc()
	} else {
		middleware.ReactionUploads.WithLabelValues("error").Inc()
	}
	return err
}

func (s *Server) handleUpload(c *fiber.Ctx, kind service.MediaKind) error {
	userID := c.Locals("userID").(uint)

	// Reaction stills are always bound to the post being reacted to.
	if kind == service.MediaKindReaction {
		postID, err := strconv.ParseUint(c.FormValue("post_id"), 10, 32)
		if err != nil || postID == 0 {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("A valid post_id is required for reaction uploads"))
		}
		if _, err := s.postRepo.GetByID(c.Context(), uint(postID), userID); err != nil {
			return models.RespondWithError(c, fiber.StatusNotFound, err)
		}
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("A file upload is required"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	stored, err := s.mediaService.Store(service.StoreMediaInput{
		UserID:      userID,
		Kind:        kind,
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		if appErr, ok := err.(*models.AppError); ok && appErr.Code == "VALIDATION_ERROR" {
			return models.RespondWithError(c, fiber.StatusBadRequest, err)
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.Status(fiber.StatusCreated).JSON(stored)
}
