package reel

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClassifierDetect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, "frame-bytes", string(body))

		_ = json.NewEncoder(w).Encode([]map[string]interface{}{
			{"expressions": map[string]float64{"happy": 0.91, "neutral": 0.05}},
		})
	}))
	defer srv.Close()

	detections, err := NewHTTPClassifier(srv.URL).Detect(context.Background(), Frame("frame-bytes"))
	require.NoError(t, err)
	require.Len(t, detections, 1)
	assert.True(t, isPositive(detections))
}

func TestHTTPClassifierNoFacesIsNegativeNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	detections, err := NewHTTPClassifier(srv.URL).Detect(context.Background(), Frame("x"))
	require.NoError(t, err)
	assert.False(t, isPositive(detections))
}

func TestHTTPClassifierErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewHTTPClassifier(srv.URL).Detect(context.Background(), Frame("x"))
	assert.Error(t, err)
}

func TestIsPositiveUsesFirstFaceOnly(t *testing.T) {
	detections := []Detection{
		{Expressions: map[string]float64{"happy": 0.3}},
		{Expressions: map[string]float64{"happy": 0.99}},
	}
	assert.False(t, isPositive(detections))

	assert.True(t, isPositive(happyFace(0.71)))
	assert.False(t, isPositive(happyFace(0.7)))
	assert.False(t, isPositive(nil))
}
