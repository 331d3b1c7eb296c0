package reel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hehememe/internal/heheclient"
	"hehememe/internal/models"
)

func fastNavigator(camera Camera, classifier Classifier, api LikeAPI, opts ...NavigatorOption) *Navigator {
	return NewNavigatorWithVerifier(camera, classifier, api,
		[]VerifierOption{WithPollInterval(testPollInterval)}, opts...)
}

func TestSmileLikesThePost(t *testing.T) {
	camera := &stubCamera{}
	classifier := &scriptedClassifier{scores: []float64{0.2, 0.4, 0.85}}
	api := &fakeAPI{authorScore: 10}

	nav := fastNavigator(camera, classifier, api)
	post := testPost(1, 2, false)
	nav.SetPosts(context.Background(), []*models.Post{post})

	require.Eventually(t, func() bool {
		return nav.Current().HasLiked
	}, 2*time.Second, testPollInterval)

	assert.Equal(t, 3, classifier.callCount())
	assert.Equal(t, 3, nav.Current().LikesCount)
	assert.True(t, nav.GateOpen())
	assert.Equal(t, []uint{1}, api.likeCalls())
	assert.Equal(t, 1, api.uploadCount())
}

func TestDuplicateLikeConvergesWithoutDoubleCount(t *testing.T) {
	camera := &stubCamera{}
	classifier := &scriptedClassifier{scores: []float64{0.9}}
	api := &fakeAPI{likeErr: heheclient.ErrAlreadyLiked}

	nav := fastNavigator(camera, classifier, api)
	post := testPost(1, 2, false)
	nav.SetPosts(context.Background(), []*models.Post{post})

	require.Eventually(t, func() bool {
		return nav.Current().HasLiked
	}, 2*time.Second, testPollInterval)

	// Conflict means another tab got there first: liked, count untouched.
	assert.Equal(t, 2, nav.Current().LikesCount)
	assert.Empty(t, api.likeCalls())
}

func TestUploadFailureAbortsBeforeLike(t *testing.T) {
	camera := &stubCamera{}
	classifier := &scriptedClassifier{scores: []float64{0.9}}
	api := &fakeAPI{uploadErr: errors.New("upload down")}

	nav := fastNavigator(camera, classifier, api)
	nav.SetPosts(context.Background(), []*models.Post{testPost(1, 2, false)})

	require.Eventually(t, func() bool {
		return nav.Session().State == StateConfirmed
	}, 2*time.Second, testPollInterval)

	// No like request without its reaction image, and no optimistic state.
	assert.Never(t, func() bool {
		return len(api.likeCalls()) > 0 || nav.Current().HasLiked
	}, 10*testPollInterval, testPollInterval)
	assert.Equal(t, 2, nav.Current().LikesCount)
}

func TestGestureThresholdAndClamping(t *testing.T) {
	camera := &stubCamera{}
	classifier := &scriptedClassifier{scores: []float64{0.1}}
	api := &fakeAPI{}
	ctx := context.Background()

	nav := fastNavigator(camera, classifier, api)
	nav.SetPosts(ctx, []*models.Post{testPost(1, 0, false), testPost(2, 0, false), testPost(3, 0, false)})

	// Below both thresholds: no move.
	assert.False(t, nav.HandleGesture(ctx, 0.1, 20, 1))
	assert.Equal(t, 0, nav.Index())

	// Velocity alone is enough.
	assert.True(t, nav.HandleGesture(ctx, 0.5, 0, 1))
	assert.Equal(t, 1, nav.Index())

	// Distance alone is enough.
	assert.True(t, nav.HandleGesture(ctx, 0, 80, 1))
	assert.Equal(t, 2, nav.Index())

	// Clamped at the end, no wraparound.
	assert.False(t, nav.HandleGesture(ctx, 1.0, 200, 1))
	assert.Equal(t, 2, nav.Index())

	// And at the start.
	assert.True(t, nav.HandleGesture(ctx, 1.0, 200, -1))
	assert.True(t, nav.HandleGesture(ctx, 1.0, 200, -1))
	assert.False(t, nav.HandleGesture(ctx, 1.0, 200, -1))
	assert.Equal(t, 0, nav.Index())
}

func TestNavigationResetsSessionPerPost(t *testing.T) {
	camera := &stubCamera{}
	classifier := &scriptedClassifier{scores: []float64{0.1}}
	api := &fakeAPI{}
	ctx := context.Background()

	nav := fastNavigator(camera, classifier, api)
	nav.SetPosts(ctx, []*models.Post{testPost(10, 0, true), testPost(11, 0, false)})

	// First post already liked: confirmed instantly.
	assert.Equal(t, StateConfirmed, nav.Session().State)
	assert.Equal(t, uint(10), nav.Session().PostID)

	require.True(t, nav.Next(ctx))

	// The confirmed state must not leak onto the next post.
	sess := nav.Session()
	assert.Equal(t, uint(11), sess.PostID)
	assert.NotEqual(t, StateConfirmed, sess.State)
	assert.False(t, sess.GateOpen())
}

func TestStalePollDoesNotAffectNewPost(t *testing.T) {
	camera := &stubCamera{}
	classifier := newGatedClassifier()
	api := &fakeAPI{}
	ctx := context.Background()

	nav := fastNavigator(camera, classifier, api)
	nav.SetPosts(ctx, []*models.Post{testPost(1, 0, false), testPost(2, 0, false)})

	// Wait for the first post's poll to be in flight, then navigate away.
	<-classifier.entered
	require.True(t, nav.Next(ctx))

	// The late positive for post 1 arrives after the session reset.
	classifier.release <- 0.95

	assert.Never(t, func() bool {
		return nav.Session().State == StateConfirmed || len(api.likeCalls()) > 0
	}, 10*testPollInterval, testPollInterval)
	assert.Equal(t, uint(2), nav.Session().PostID)
}

func TestNearEndSignalsFetch(t *testing.T) {
	camera := &stubCamera{}
	classifier := &scriptedClassifier{scores: []float64{0.1}}
	api := &fakeAPI{}
	ctx := context.Background()

	var mu sync.Mutex
	fetches := 0
	nav := fastNavigator(camera, classifier, api, WithNearEnd(func() {
		mu.Lock()
		fetches++
		mu.Unlock()
	}))

	nav.SetPosts(ctx, []*models.Post{
		testPost(1, 0, false), testPost(2, 0, false), testPost(3, 0, false),
		testPost(4, 0, false), testPost(5, 0, false),
	})

	// Index 1 and 2 are not within two of the end of five posts.
	nav.Next(ctx)
	nav.Next(ctx)
	mu.Lock()
	assert.Equal(t, 0, fetches)
	mu.Unlock()

	// Index 3 is.
	nav.Next(ctx)
	mu.Lock()
	assert.Equal(t, 1, fetches)
	mu.Unlock()
}

func TestMintEligibility(t *testing.T) {
	camera := &stubCamera{}
	classifier := &scriptedClassifier{scores: []float64{0.1}}
	api := &fakeAPI{}
	ctx := context.Background()

	nav := fastNavigator(camera, classifier, api)
	nav.SetPosts(ctx, []*models.Post{
		testPost(1, 3, true),
		testPost(2, 7, true),
		testPost(3, 2, false),
	})

	assert.True(t, nav.CanMint())

	// Seven likes blocks minting even though the post is liked.
	nav.Next(ctx)
	assert.False(t, nav.CanMint())
	assert.True(t, nav.GateOpen())

	// Not liked: no mint either.
	nav.Next(ctx)
	assert.False(t, nav.CanMint())
}

func TestBrowsingWorksWithoutCameraOrClassifier(t *testing.T) {
	api := &fakeAPI{}
	ctx := context.Background()

	nav := NewNavigator(nil, nil, api)
	nav.SetPosts(ctx, []*models.Post{testPost(1, 0, false), testPost(2, 0, true)})

	// Verification unavailable: the unliked post's gate stays closed.
	assert.Equal(t, StateExpired, nav.Session().State)
	assert.False(t, nav.GateOpen())

	// Navigation still works, and liked posts still open the gate.
	require.True(t, nav.Next(ctx))
	assert.True(t, nav.GateOpen())
	require.NoError(t, nav.Close())
}

func TestCloseReleasesCamera(t *testing.T) {
	camera := &stubCamera{}
	classifier := &scriptedClassifier{scores: []float64{0.1}}
	api := &fakeAPI{}

	nav := fastNavigator(camera, classifier, api)
	nav.SetPosts(context.Background(), []*models.Post{testPost(1, 0, false)})

	require.NoError(t, nav.Close())
	camera.mu.Lock()
	defer camera.mu.Unlock()
	assert.True(t, camera.closed)
}

func TestRestartReArmsExpiredSession(t *testing.T) {
	camera := &stubCamera{}
	classifier := &scriptedClassifier{scores: []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.9}}
	api := &fakeAPI{}
	ctx := context.Background()

	nav := fastNavigator(camera, classifier, api)
	nav.SetPosts(ctx, []*models.Post{testPost(1, 0, false)})

	require.Eventually(t, func() bool {
		return nav.Session().State == StateExpired
	}, 2*time.Second, testPollInterval)

	// Re-displaying the same post gives the check another chance.
	nav.Restart(ctx)
	require.Eventually(t, func() bool {
		return nav.Session().State == StateConfirmed
	}, 2*time.Second, testPollInterval)
	require.Eventually(t, func() bool {
		return nav.Current().HasLiked
	}, 2*time.Second, testPollInterval)
}

// gatedClassifier blocks its first call until released, so a navigation
// can happen while that poll is still in flight.
type gatedClassifier struct {
	mu      sync.Mutex
	calls   int
	entered chan struct{}
	release chan float64
}

func newGatedClassifier() *gatedClassifier {
	return &gatedClassifier{
		entered: make(chan struct{}, 1),
		release: make(chan float64, 1),
	}
}

func (g *gatedClassifier) Detect(_ context.Context, _ Frame) ([]Detection, error) {
	g.mu.Lock()
	g.calls++
	first := g.calls == 1
	g.mu.Unlock()

	if first {
		g.entered <- struct{}{}
		return happyFace(<-g.release), nil
	}
	return happyFace(0.1), nil
}
