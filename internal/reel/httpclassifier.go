package reel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPClassifier scores frames against an external expression inference
// service. The service accepts a raw image body and responds with a JSON
// array of detected faces, each carrying an expression confidence map.
type HTTPClassifier struct {
	endpoint string
	http     *http.Client
}

// NewHTTPClassifier creates a classifier talking to the inference service
// at endpoint, e.g. "http://localhost:5005/detect".
func NewHTTPClassifier(endpoint string) *HTTPClassifier {
	return &HTTPClassifier{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 3 * time.Second},
	}
}

// Detect sends one frame for scoring. An empty response array means no
// faces were found, which is a valid negative result.
func (c *HTTPClassifier) Detect(ctx context.Context, frame Frame) ([]Detection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(frame))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	var detections []Detection
	if err := json.NewDecoder(resp.Body).Decode(&detections); err != nil {
		return nil, err
	}
	return detections, nil
}
