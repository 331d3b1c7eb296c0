package reel

import (
	"context"
	"sync"

	"hehememe/internal/heheclient"
	"hehememe/internal/models"
)

// stubCamera hands out a fixed frame and counts captures.
type stubCamera struct {
	mu       sync.Mutex
	captures int
	err      error
	closed   bool
}

func (c *stubCamera) Capture(_ context.Context) (Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	c.captures++
	return Frame("still-frame"), nil
}

func (c *stubCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *stubCamera) captureCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.captures
}

// scriptedClassifier returns one happy score per call, repeating the last
// entry once the script runs out.
type scriptedClassifier struct {
	mu     sync.Mutex
	scores []float64
	calls  int
}

func (s *scriptedClassifier) Detect(_ context.Context, _ Frame) ([]Detection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if i >= len(s.scores) {
		i = len(s.scores) - 1
	}
	if i < 0 {
		return nil, nil
	}
	return happyFace(s.scores[i]), nil
}

func (s *scriptedClassifier) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func happyFace(score float64) []Detection {
	return []Detection{{Expressions: map[string]float64{"happy": score}}}
}

// fakeAPI records upload and like calls.
type fakeAPI struct {
	mu          sync.Mutex
	uploadErr   error
	likeErr     error
	authorScore int
	uploads     int
	likedPosts  []uint
}

func (a *fakeAPI) UploadReaction(_ context.Context, _ uint, _ string, _ []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.uploadErr != nil {
		return "", a.uploadErr
	}
	a.uploads++
	return "/media/reactions/test.jpg", nil
}

func (a *fakeAPI) Like(_ context.Context, postID uint, _ string) (*heheclient.LikeResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.likeErr != nil {
		return nil, a.likeErr
	}
	a.likedPosts = append(a.likedPosts, postID)
	return &heheclient.LikeResult{
		Like:        models.Like{PostID: postID},
		AuthorScore: a.authorScore,
	}, nil
}

func (a *fakeAPI) uploadCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.uploads
}

func (a *fakeAPI) likeCalls() []uint {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]uint(nil), a.likedPosts...)
}

func testPost(id uint, likes int, hasLiked bool) *models.Post {
	return &models.Post{ID: id, ImageURL: "/media/memes/x.jpg", Caption: "hehe", LikesCount: likes, HasLiked: hasLiked}
}
