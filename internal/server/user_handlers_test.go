package server

import (
	"bytes"
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

func TestGetRankings(t *testing.T) {
	mockRepo := new(MockUserRepository)
	s := &Server{userRepo: mockRepo}
	app := fiber.New()
	app.Get("/rankings", s.GetRankings)

	rankings := []models.Ranking{
		{ID: 1, Username: "top_hehe", HeheScore: 99},
		{ID: 2, Username: "runner_up", HeheScore: 42},
	}
	mockRepo.On("Rankings", mock.Anything, 50).Return(rankings, nil)

	req := httptest.NewRequest(http.MethodGet, "/rankings", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Rankings []models.Ranking `json:"rankings"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Rankings, 2)
	assert.Equal(t, "top_hehe", body.Rankings[0].Username)
}

func TestGetRankings_ClampsLimit(t *testing.T) {
	mockRepo := new(MockUserRepository)
	s := &Server{userRepo: mockRepo}
	app := fiber.New()
	app.Get("/rankings", s.GetRankings)

	mockRepo.On("Rankings", mock.Anything, 50).Return([]models.Ranking{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/rankings?limit=9999", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	mockRepo.AssertCalled(t, "Rankings", mock.Anything, 50)
}

func TestGetMyProfile(t *testing.T) {
	mockRepo := new(MockUserRepository)
	s := &Server{userRepo: mockRepo}
	app := authedApp(s, 8)
	app.Get("/users/me", s.GetMyProfile)

	mockRepo.On("GetByID", mock.Anything, uint(8)).Return(&models.User{ID: 8, Username: "me_irl", HeheScore: 5}, nil)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var user models.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
	assert.Equal(t, "me_irl", user.Username)
	assert.Equal(t, 5, user.HeheScore)
}

func TestBoostScores(t *testing.T) {
	mockRepo := new(MockUserRepository)
	s := &Server{userRepo: mockRepo}
	app := authedApp(s, 1)
	app.Post("/users/boost-scores", s.BoostScores)

	mockRepo.On("BoostScore", mock.Anything, uint(2), 10).Return(15, nil)
	mockRepo.On("BoostScore", mock.Anything, uint(999), 10).Return(0, models.NewNotFoundError("User", 999))

	body, _ := json.Marshal(map[string]interface{}{
		"user_ids": []uint{2, 999},
		"delta":    10,
	})
	req := httptest.NewRequest(http.MethodPost, "/users/boost-scores", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Results []map[string]interface{} `json:"results"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Results, 2)
	assert.Equal(t, float64(15), out.Results[0]["hehe_score"])
	assert.Equal(t, "not found", out.Results[1]["error"])
}

func TestBoostScores_RejectsEmptyBatch(t *testing.T) {
	mockRepo := new(MockUserRepository)
	s := &Server{userRepo: mockRepo}
	app := authedApp(s, 1)
	app.Post("/users/boost-scores", s.BoostScores)

	body, _ := json.Marshal(map[string]interface{}{"user_ids": []uint{}, "delta": 5})
	req := httptest.NewRequest(http.MethodPost, "/users/boost-scores", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	mockRepo.AssertNotCalled(t, "BoostScore", mock.Anything, mock.Anything, mock.Anything)
}
