package reel

import "context"

// Camera is a live video source. One handle is shared across all sessions
// of a reel; it is acquired when the reel opens and released once on
// teardown, never per post.
type Camera interface {
	// Capture grabs a single encoded still from the live feed.
	Capture(ctx context.Context) (Frame, error)
	Close() error
}
