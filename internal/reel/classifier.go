// Package reel implements the client-side reaction verification flow: a
// liveness timer polls an expression classifier against the live camera
// feed and, on a confirmed smile, submits a like carrying the captured
// reaction still. It also owns the one-post-at-a-time feed navigation that
// re-arms the flow on every swipe.
package reel

import "context"

// happyThreshold is the minimum "happy" confidence on the first detected
// face that counts as a positive smile detection.
const happyThreshold = 0.7

// Frame is a single encoded image captured from the camera feed.
type Frame []byte

// Detection is one detected face with its expression confidence scores,
// each in the range 0..1.
type Detection struct {
	Expressions map[string]float64 `json:"expressions"`
}

// Classifier scores video frames for facial expressions. Implementations
// must treat an empty face set as a valid negative result, not an error.
type Classifier interface {
	Detect(ctx context.Context, frame Frame) ([]Detection, error)
}

// isPositive reports whether a detection set counts as a confirmed smile.
// Only the first face is considered; no faces is a negative.
func isPositive(detections []Detection) bool {
	if len(detections) == 0 {
		return false
	}
	return detections[0].Expressions["happy"] > happyThreshold
}
