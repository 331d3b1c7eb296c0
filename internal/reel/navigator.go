package reel

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"hehememe/internal/models"
)

const (
	// Gesture thresholds for advancing the reel by one post.
	gestureVelocityThreshold = 0.3
	gestureDistanceThreshold = 50.0

	// nearEndWindow is how close to the end of the loaded sequence the
	// cursor may get before the near-end callback asks for more posts.
	nearEndWindow = 2

	// mintMaxLikes is the exclusive like ceiling for mint eligibility,
	// matching the server's rule. Liking itself has no such ceiling.
	mintMaxLikes = 7
)

// Navigator presents one post at a time over an ordered sequence. Every
// cursor move synchronously discards the old reaction session and arms a
// fresh one for the newly displayed post, so a confirmed smile can never
// leak across posts. Reaction failures are handled here and never
// propagate; browsing keeps working whatever the camera or classifier do.
type Navigator struct {
	verifier  *Verifier
	submitter *Submitter
	camera    Camera
	onNearEnd func()
	logger    *slog.Logger

	mu    sync.Mutex
	posts []*models.Post
	index int
}

// NavigatorOption configures a Navigator.
type NavigatorOption func(*Navigator)

// WithNearEnd sets the callback fired when the cursor comes within two
// positions of the end of the loaded sequence.
func WithNearEnd(fn func()) NavigatorOption {
	return func(n *Navigator) { n.onNearEnd = fn }
}

// WithNavigatorLogger sets the logger for swallowed reaction failures.
func WithNavigatorLogger(l *slog.Logger) NavigatorOption {
	return func(n *Navigator) { n.logger = l }
}

// NewNavigator wires the full reaction verification flow: the verifier
// polls the classifier, a confirmed smile drives the submitter, and the
// navigator applies the outcome to its local post state. A nil camera or
// classifier leaves navigation fully usable with verification disabled.
func NewNavigator(camera Camera, classifier Classifier, api LikeAPI, opts ...NavigatorOption) *Navigator {
	n := &Navigator{
		camera: camera,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.submitter = NewSubmitter(camera, api, n.logger)
	n.verifier = NewVerifier(camera, classifier, n.handleConfirmed)
	return n
}

// NewNavigatorWithVerifier is like NewNavigator but lets the caller tune
// the verifier, mainly for tests.
func NewNavigatorWithVerifier(camera Camera, classifier Classifier, api LikeAPI, verifierOpts []VerifierOption, opts ...NavigatorOption) *Navigator {
	n := &Navigator{
		camera: camera,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.submitter = NewSubmitter(camera, api, n.logger)
	n.verifier = NewVerifier(camera, classifier, n.handleConfirmed, verifierOpts...)
	return n
}

// SetPosts replaces the sequence, moves the cursor to the start, and arms
// a session for the first post.
func (n *Navigator) SetPosts(ctx context.Context, posts []*models.Post) {
	n.mu.Lock()
	n.posts = posts
	n.index = 0
	n.mu.Unlock()

	n.armCurrent(ctx)
}

// Append extends the loaded sequence without moving the cursor.
func (n *Navigator) Append(posts []*models.Post) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.posts = append(n.posts, posts...)
}

// Current returns the post under the cursor, or nil when empty.
func (n *Navigator) Current() *models.Post {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.posts) == 0 {
		return nil
	}
	return n.posts[n.index]
}

// Index returns the cursor position.
func (n *Navigator) Index() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.index
}

// Len returns the number of loaded posts.
func (n *Navigator) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.posts)
}

// Session returns the current reaction session snapshot.
func (n *Navigator) Session() Session {
	return n.verifier.Session()
}

// GateOpen reports whether a like may be submitted for the displayed post.
func (n *Navigator) GateOpen() bool {
	return n.verifier.GateOpen()
}

// HandleGesture applies a drag or scroll gesture. A gesture exceeding the
// velocity or distance threshold moves the cursor exactly one position in
// its direction, clamped at both ends. Returns whether the cursor moved.
func (n *Navigator) HandleGesture(ctx context.Context, velocity, distance float64, direction int) bool {
	if math.Abs(velocity) <= gestureVelocityThreshold && math.Abs(distance) <= gestureDistanceThreshold {
		return false
	}
	if direction > 0 {
		return n.step(ctx, 1)
	}
	if direction < 0 {
		return n.step(ctx, -1)
	}
	return false
}

// Next advances the cursor by one, clamped at the end.
func (n *Navigator) Next(ctx context.Context) bool {
	return n.step(ctx, 1)
}

// Prev moves the cursor back by one, clamped at the start.
func (n *Navigator) Prev(ctx context.Context) bool {
	return n.step(ctx, -1)
}

// Restart discards the current session and re-arms it for the same post,
// giving an expired check another chance without reloading anything.
func (n *Navigator) Restart(ctx context.Context) {
	n.armCurrent(ctx)
}

// CanMint reports mint eligibility for the displayed post: the viewer must
// have liked it and it must still have fewer than seven likes.
func (n *Navigator) CanMint() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.posts) == 0 {
		return false
	}
	post := n.posts[n.index]
	return post.HasLiked && post.LikesCount < mintMaxLikes
}

// Close tears the reel down: cancels any session and releases the shared
// camera handle.
func (n *Navigator) Close() error {
	n.verifier.Reset()
	if n.camera != nil {
		return n.camera.Close()
	}
	return nil
}

func (n *Navigator) step(ctx context.Context, delta int) bool {
	n.mu.Lock()
	if len(n.posts) == 0 {
		n.mu.Unlock()
		return false
	}

	next := n.index + delta
	if next < 0 {
		next = 0
	}
	if next > len(n.posts)-1 {
		next = len(n.posts) - 1
	}
	if next == n.index {
		n.mu.Unlock()
		return false
	}

	n.index = next
	nearEnd := n.index >= len(n.posts)-nearEndWindow
	fetchMore := n.onNearEnd
	n.mu.Unlock()

	// Reset before any new polling so stale confirmations cannot leak.
	n.armCurrent(ctx)

	if nearEnd && fetchMore != nil {
		fetchMore()
	}
	return true
}

// armCurrent resets the verifier and starts a session for the post under
// the cursor.
func (n *Navigator) armCurrent(ctx context.Context) {
	n.verifier.Reset()

	n.mu.Lock()
	if len(n.posts) == 0 {
		n.mu.Unlock()
		return
	}
	post := n.posts[n.index]
	postID := post.ID
	liked := post.HasLiked
	n.mu.Unlock()

	n.verifier.Start(ctx, postID, liked)
}

// handleConfirmed runs the like submission after a confirmed smile and
// applies the result to local post state. A duplicate like converges to
// liked without touching the count; any other failure is logged and
// dropped so the reel stays browsable.
func (n *Navigator) handleConfirmed(ctx context.Context, postID uint) {
	outcome, err := n.submitter.Submit(ctx, postID)
	if err != nil {
		if ctx.Err() == nil {
			n.logger.Warn("reel: like submission failed", "post_id", postID, "error", err)
		}
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	for _, post := range n.posts {
		if post.ID != postID {
			continue
		}
		if !post.HasLiked && !outcome.AlreadyLiked {
			post.LikesCount++
		}
		post.HasLiked = true
		return
	}
}
