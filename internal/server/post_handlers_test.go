package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"hehememe/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPostRepository is a mock of the PostRepository interface
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	args := m.Called(ctx, id, currentUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) GetByUserID(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	args := m.Called(ctx, userID, limit, offset, currentUserID)
	return args.Get(0).([]*models.Post), args.Error(1)
}

func (m *MockPostRepository) GetLikedByUserID(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]*models.Post), args.Error(1)
}

func (m *MockPostRepository) List(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Post, int64, error) {
	args := m.Called(ctx, limit, offset, currentUserID)
	return args.Get(0).([]*models.Post), args.Get(1).(int64), args.Error(2)
}

func (m *MockPostRepository) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	args := m.Called(ctx, userID, postID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostRepository) LikeWithReaction(ctx context.Context, userID, postID uint, reactionImageURL string) (*models.Like, int, error) {
	args := m.Called(ctx, userID, postID, reactionImageURL)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).(*models.Like), args.Int(1), args.Error(2)
}

func authedApp(s *Server, userID uint) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", userID)
		return c.Next()
	})
	return app
}

func TestCreatePost(t *testing.T) {
	mockRepo := new(MockPostRepository)
	s := &Server{postRepo: mockRepo}
	app := authedApp(s, 1)
	app.Post("/posts", s.CreatePost)

	tests := []struct {
		name           string
		body           map[string]string
		mockSetup      func()
		expectedStatus int
	}{
		{
			name: "Success",
			body: map[string]string{
				"image_url": "/media/memes/abc.jpg",
				"caption":   "hehe",
			},
			mockSetup: func() {
				mockRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
				mockRepo.On("GetByID", mock.Anything, mock.Anything, uint(1)).Return(&models.Post{ID: 1, ImageURL: "/media/memes/abc.jpg"}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "Missing Image URL",
			body: map[string]string{
				"caption": "no image",
			},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/posts", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			resp, _ := app.Test(req)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestGetFeed_HasMore(t *testing.T) {
	mockRepo := new(MockPostRepository)
	s := &Server{postRepo: mockRepo}
	app := fiber.New()
	app.Get("/posts", s.GetFeed)

	posts := []*models.Post{{ID: 3}, {ID: 2}}
	mockRepo.On("List", mock.Anything, 2, 0, uint(0)).Return(posts, int64(5), nil)

	req := httptest.NewRequest(http.MethodGet, "/posts?limit=2", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Posts   []models.Post `json:"posts"`
		Total   int64         `json:"total"`
		HasMore bool          `json:"hasMore"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Posts, 2)
	assert.Equal(t, int64(5), body.Total)
	assert.True(t, body.HasMore)
}

func TestGetFeed_LastPage(t *testing.T) {
	mockRepo := new(MockPostRepository)
	s := &Server{postRepo: mockRepo}
	app := fiber.New()
	app.Get("/posts", s.GetFeed)

	mockRepo.On("List", mock.Anything, 20, 4, uint(0)).Return([]*models.Post{{ID: 1}}, int64(5), nil)

	req := httptest.NewRequest(http.MethodGet, "/posts?offset=4", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body struct {
		HasMore bool `json:"hasMore"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.HasMore)
}

func TestGetPost_NotFound(t *testing.T) {
	mockRepo := new(MockPostRepository)
	s := &Server{postRepo: mockRepo}
	app := fiber.New()
	app.Get("/posts/:id", s.GetPost)

	mockRepo.On("GetByID", mock.Anything, uint(99), uint(0)).Return(nil, models.NewNotFoundError("Post", 99))

	req := httptest.NewRequest(http.MethodGet, "/posts/99", nil)
	resp, _ := app.Test(req)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetMyLikedPosts(t *testing.T) {
	mockRepo := new(MockPostRepository)
	s := &Server{postRepo: mockRepo}
	app := authedApp(s, 7)
	app.Get("/users/me/likes", s.GetMyLikedPosts)

	liked := []*models.Post{{ID: 4, HasLiked: true, ReactionImageURL: "/media/reactions/r1.jpg"}}
	mockRepo.On("GetLikedByUserID", mock.Anything, uint(7), 20, 0).Return(liked, nil)

	req := httptest.NewRequest(http.MethodGet, "/users/me/likes", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body []models.Post
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body, 1)
	assert.Equal(t, "/media/reactions/r1.jpg", body[0].ReactionImageURL)
}

func TestGetMintEligibility(t *testing.T) {
	tests := []struct {
		name     string
		post     *models.Post
		mintable bool
	}{
		{"liked under ceiling", &models.Post{ID: 1, HasLiked: true, LikesCount: 3}, true},
		{"liked at ceiling", &models.Post{ID: 1, HasLiked: true, LikesCount: 7}, false},
		{"not liked", &models.Post{ID: 1, HasLiked: false, LikesCount: 2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockPostRepository)
			s := &Server{postRepo: mockRepo}
			app := authedApp(s, 5)
			app.Get("/posts/:id/mintable", s.GetMintEligibility)

			mockRepo.On("GetByID", mock.Anything, uint(1), uint(5)).Return(tt.post, nil)

			req := httptest.NewRequest(http.MethodGet, "/posts/1/mintable", nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			var body struct {
				Mintable bool `json:"mintable"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.mintable, body.Mintable)
		})
	}
}
