package reel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"hehememe/internal/heheclient"
)

// LikeAPI is the slice of the API client the submitter needs.
type LikeAPI interface {
	UploadReaction(ctx context.Context, postID uint, filename string, image []byte) (string, error)
	Like(ctx context.Context, postID uint, reactionImageURL string) (*heheclient.LikeResult, error)
}

// SubmitOutcome reports what a successful submission did.
type SubmitOutcome struct {
	// AlreadyLiked is true when the server reported a duplicate, e.g. a
	// race with another tab. The post counts as liked but no count changed.
	AlreadyLiked bool
	AuthorScore  int
}

// Submitter records a like once the gate opens: it captures a still from
// the live camera, uploads it as the reaction image, then sends the like
// request carrying the returned URL. The three steps run strictly in
// order; a capture or upload failure aborts before the like is sent, so
// no like is ever recorded without its reaction still.
type Submitter struct {
	camera Camera
	api    LikeAPI
	logger *slog.Logger
}

// NewSubmitter creates a submitter. The camera is the shared reel handle.
func NewSubmitter(camera Camera, api LikeAPI, logger *slog.Logger) *Submitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Submitter{camera: camera, api: api, logger: logger}
}

// Submit runs the capture, upload, like sequence for postID.
func (s *Submitter) Submit(ctx context.Context, postID uint) (*SubmitOutcome, error) {
	if s.camera == nil {
		return nil, errors.New("no camera available for reaction capture")
	}

	frame, err := s.camera.Capture(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture reaction still: %w", err)
	}

	filename := fmt.Sprintf("reaction-%d.jpg", postID)
	reactionURL, err := s.api.UploadReaction(ctx, postID, filename, frame)
	if err != nil {
		return nil, fmt.Errorf("upload reaction still: %w", err)
	}

	result, err := s.api.Like(ctx, postID, reactionURL)
	if err != nil {
		if errors.Is(err, heheclient.ErrAlreadyLiked) {
			s.logger.Debug("reel: like already recorded", "post_id", postID)
			return &SubmitOutcome{AlreadyLiked: true}, nil
		}
		return nil, fmt.Errorf("record like: %w", err)
	}

	return &SubmitOutcome{AuthorScore: result.AuthorScore}, nil
}
