package heheclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticateKnownAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "0xabc", body["address"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"token": "jwt-123",
			"user":  map[string]interface{}{"id": 7, "username": "hehefan"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	result, err := c.Authenticate(context.Background(), "0xabc", "")
	require.NoError(t, err)
	assert.Equal(t, "jwt-123", result.Token)
	assert.Equal(t, "hehefan", result.User.Username)
	assert.Equal(t, "jwt-123", c.token)
}

func TestAuthenticateUnknownAddressNeedsUsername(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error": "Username required to sign up",
			"code":  "NEEDS_USERNAME",
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Authenticate(context.Background(), "0xabc", "")
	assert.ErrorIs(t, err, ErrNeedsUsername)
}

func TestFeedDecodesPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/posts", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		assert.Equal(t, "4", r.URL.Query().Get("offset"))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"posts": []map[string]interface{}{
				{"id": 5, "image_url": "/media/memes/a.jpg", "likes": 3, "has_liked": true},
				{"id": 4, "image_url": "/media/memes/b.jpg", "likes": 0, "has_liked": false},
			},
			"total":   6,
			"hasMore": false,
		})
	}))
	defer srv.Close()

	page, err := New(srv.URL).Feed(context.Background(), 2, 4)
	require.NoError(t, err)
	require.Len(t, page.Posts, 2)
	assert.Equal(t, int64(6), page.Total)
	assert.False(t, page.HasMore)
	assert.True(t, page.Posts[0].HasLiked)
	assert.Equal(t, 3, page.Posts[0].LikesCount)
}

func TestUploadReactionReturnsURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/upload/reaction", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer func() { _ = file.Close() }()
		assert.Equal(t, "reaction.jpg", header.Filename)
		assert.Equal(t, "9", r.FormValue("post_id"))

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"url": "/media/reactions/abc.jpg"})
	}))
	defer srv.Close()

	c := New(srv.URL, WithToken("tok"))
	url, err := c.UploadReaction(context.Background(), 9, "reaction.jpg", []byte("fake-jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "/media/reactions/abc.jpg", url)
}

func TestUploadReactionFailureAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error": "Unsupported image type",
			"code":  "VALIDATION_ERROR",
		})
	}))
	defer srv.Close()

	_, err := New(srv.URL).UploadReaction(context.Background(), 9, "x.bin", []byte("nope"))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
}

func TestLikeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/posts/9/like", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "/media/reactions/abc.jpg", body["reaction_image_url"])

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"like":         map[string]interface{}{"post_id": 9, "user_id": 2},
			"author_score": 11,
		})
	}))
	defer srv.Close()

	result, err := New(srv.URL, WithToken("tok")).Like(context.Background(), 9, "/media/reactions/abc.jpg")
	require.NoError(t, err)
	assert.Equal(t, 11, result.AuthorScore)
	assert.Equal(t, uint(9), result.Like.PostID)
}

func TestLikeConflictMapsToErrAlreadyLiked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error": "You already liked this post",
			"code":  "ALREADY_LIKED",
		})
	}))
	defer srv.Close()

	_, err := New(srv.URL).Like(context.Background(), 9, "/media/reactions/abc.jpg")
	assert.ErrorIs(t, err, ErrAlreadyLiked)
	assert.False(t, errors.Is(err, ErrNeedsUsername))
}

func TestMintable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/posts/3/mintable", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"post_id":  3,
			"mintable": true,
			"likes":    4,
		})
	}))
	defer srv.Close()

	out, err := New(srv.URL, WithToken("tok")).Mintable(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, out.Mintable)
	assert.Equal(t, 4, out.Likes)
}
