package reel

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultPollInterval = time.Second
	defaultMaxTicks     = 5
)

// ConfirmFunc is invoked exactly once per session when a smile is
// confirmed for a post that was not already liked.
type ConfirmFunc func(ctx context.Context, postID uint)

// Verifier runs the liveness check for the post currently on screen: a
// bounded countdown that polls the expression classifier once per second
// against the live camera feed. A positive detection moves the session to
// confirmed and fires the confirm callback once; reaching the tick bound
// without one moves it to expired.
type Verifier struct {
	camera      Camera
	classifier  Classifier
	onConfirmed ConfirmFunc
	interval    time.Duration
	maxTicks    int
	logger      *slog.Logger

	mu         sync.Mutex
	generation uint64
	postID     uint
	state      SessionState
	elapsed    int
	liked      bool
	fired      bool
	cancel     context.CancelFunc
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithPollInterval overrides the 1 Hz polling cadence, mainly for tests.
func WithPollInterval(d time.Duration) VerifierOption {
	return func(v *Verifier) { v.interval = d }
}

// WithMaxTicks overrides the five second liveness window.
func WithMaxTicks(n int) VerifierOption {
	return func(v *Verifier) { v.maxTicks = n }
}

// WithLogger sets the logger for poll failures.
func WithLogger(l *slog.Logger) VerifierOption {
	return func(v *Verifier) { v.logger = l }
}

// NewVerifier creates a verifier. A nil camera or classifier disables
// automatic verification: sessions for unliked posts expire immediately
// and browsing continues without the smile check.
func NewVerifier(camera Camera, classifier Classifier, onConfirmed ConfirmFunc, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		camera:      camera,
		classifier:  classifier,
		onConfirmed: onConfirmed,
		interval:    defaultPollInterval,
		maxTicks:    defaultMaxTicks,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Enabled reports whether automatic verification is available.
func (v *Verifier) Enabled() bool {
	return v.camera != nil && v.classifier != nil
}

// Session returns a snapshot of the current session state.
func (v *Verifier) Session() Session {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Session{PostID: v.postID, State: v.state, Elapsed: v.elapsed, Liked: v.liked}
}

// GateOpen reports whether a like may be submitted for the current session.
func (v *Verifier) GateOpen() bool {
	return v.Session().GateOpen()
}

// Start arms a fresh session for postID, cancelling any previous one. When
// the post is already liked the session short-circuits to confirmed with
// zero classifier polls and without firing the confirm callback.
func (v *Verifier) Start(ctx context.Context, postID uint, alreadyLiked bool) {
	v.mu.Lock()
	v.cancelLocked()
	v.generation++
	gen := v.generation
	v.postID = postID
	v.elapsed = 0
	v.fired = false
	v.liked = alreadyLiked

	if alreadyLiked {
		v.state = StateConfirmed
		v.mu.Unlock()
		return
	}
	if !v.Enabled() {
		v.state = StateExpired
		v.mu.Unlock()
		return
	}

	v.state = StateRunning
	pollCtx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	v.mu.Unlock()

	go v.poll(pollCtx, gen, postID)
}

// Reset cancels any in-flight polling and discards the session. Late
// results from the old session are dropped silently, not surfaced.
func (v *Verifier) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cancelLocked()
	v.generation++
	v.postID = 0
	v.state = StateIdle
	v.elapsed = 0
	v.liked = false
	v.fired = false
}

func (v *Verifier) cancelLocked() {
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
}

func (v *Verifier) poll(ctx context.Context, gen uint64, postID uint) {
	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if !v.beginTick(gen) {
			return
		}

		positive := v.classifyFrame(ctx, postID)

		if done := v.applyResult(ctx, gen, positive); done {
			return
		}
	}
}

// beginTick advances the elapsed counter. It returns false when the
// session has been reset or already reached a terminal state.
func (v *Verifier) beginTick(gen uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.generation || v.state != StateRunning {
		return false
	}
	v.elapsed++
	return true
}

// classifyFrame grabs a still from the camera and scores it. Capture or
// classifier failures count as a negative tick.
func (v *Verifier) classifyFrame(ctx context.Context, postID uint) bool {
	frame, err := v.camera.Capture(ctx)
	if err != nil {
		if ctx.Err() == nil {
			v.logger.Warn("reel: frame capture failed", "post_id", postID, "error", err)
		}
		return false
	}

	detections, err := v.classifier.Detect(ctx, frame)
	if err != nil {
		if ctx.Err() == nil {
			v.logger.Warn("reel: classifier poll failed", "post_id", postID, "error", err)
		}
		return false
	}
	return isPositive(detections)
}

// applyResult records one tick's outcome. Results for a stale generation
// or a terminal session are dropped. Returns true when polling should stop.
func (v *Verifier) applyResult(ctx context.Context, gen uint64, positive bool) bool {
	v.mu.Lock()
	if gen != v.generation || v.state != StateRunning {
		v.mu.Unlock()
		return true
	}

	if positive {
		v.state = StateConfirmed
		fire := !v.fired
		v.fired = true
		postID := v.postID
		cb := v.onConfirmed
		v.mu.Unlock()
		if fire && cb != nil {
			cb(ctx, postID)
		}
		return true
	}

	if v.elapsed >= v.maxTicks {
		v.state = StateExpired
		v.mu.Unlock()
		return true
	}

	v.mu.Unlock()
	return false
}
