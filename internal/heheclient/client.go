// Package heheclient is a small HTTP client for the HeheMeme API, used by
// the reel viewer and by command line tooling.
package heheclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"hehememe/internal/models"
)

// ErrAlreadyLiked is returned by Like when the server reports the caller has
// already liked the post. Callers treat it as already-satisfied, not a failure.
var ErrAlreadyLiked = errors.New("already liked")

// ErrNeedsUsername is returned by Authenticate when the wallet address is
// unknown and no username was supplied to complete signup.
var ErrNeedsUsername = errors.New("username required for new address")

// APIError carries a non-success response from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client talks to a HeheMeme API server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sets the bearer token up front.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for the API at baseURL, e.g. "http://localhost:8480".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token used on authenticated requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// AuthResult is the response to a successful login or signup.
type AuthResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Authenticate logs in with a wallet address, signing up when the address is
// new and a username is supplied. An unknown address with no username returns
// ErrNeedsUsername so the caller can prompt for one.
func (c *Client) Authenticate(ctx context.Context, address, username string) (*AuthResult, error) {
	payload := map[string]string{"address": address}
	if username != "" {
		payload["username"] = username
	}

	var result AuthResult
	err := c.doJSON(ctx, http.MethodPost, "/api/auth", payload, &result)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == "NEEDS_USERNAME" {
			return nil, ErrNeedsUsername
		}
		return nil, err
	}

	c.token = result.Token
	return &result, nil
}

// FeedPage is one page of the meme feed.
type FeedPage struct {
	Posts   []*models.Post `json:"posts"`
	Total   int64          `json:"total"`
	HasMore bool           `json:"hasMore"`
}

// Feed fetches a page of posts, newest first.
func (c *Client) Feed(ctx context.Context, limit, offset int) (*FeedPage, error) {
	path := fmt.Sprintf("/api/posts?limit=%d&offset=%d", limit, offset)
	var page FeedPage
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// UploadReaction uploads a captured reaction still for postID and returns
// its public URL.
func (c *Client) UploadReaction(ctx context.Context, postID uint, filename string, image []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("post_id", strconv.FormatUint(uint64(postID), 10)); err != nil {
		return "", err
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(image); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload/reaction", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		return "", c.readError(resp)
	}

	var stored struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stored); err != nil {
		return "", err
	}
	if stored.URL == "" {
		return "", errors.New("upload response missing url")
	}
	return stored.URL, nil
}

// LikeResult is the response to a recorded like.
type LikeResult struct {
	Like        models.Like `json:"like"`
	AuthorScore int         `json:"author_score"`
}

// Like records a like for postID carrying the reaction image URL. A duplicate
// like returns ErrAlreadyLiked.
func (c *Client) Like(ctx context.Context, postID uint, reactionImageURL string) (*LikeResult, error) {
	path := fmt.Sprintf("/api/posts/%d/like", postID)
	payload := map[string]string{"reaction_image_url": reactionImageURL}

	var result LikeResult
	err := c.doJSON(ctx, http.MethodPost, path, payload, &result)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
			return nil, ErrAlreadyLiked
		}
		return nil, err
	}
	return &result, nil
}

// MintEligibility reports whether the caller can mint the post.
type MintEligibility struct {
	PostID   uint `json:"post_id"`
	Mintable bool `json:"mintable"`
	Likes    int  `json:"likes"`
}

// Mintable checks mint eligibility for postID.
func (c *Client) Mintable(ctx context.Context, postID uint) (*MintEligibility, error) {
	path := fmt.Sprintf("/api/posts/%d/mintable", postID)
	var out MintEligibility
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WSTicket fetches a single-use websocket ticket for the feed event stream.
func (c *Client) WSTicket(ctx context.Context) (string, error) {
	var out struct {
		Ticket string `json:"ticket"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/ws/ticket", nil, &out); err != nil {
		return "", err
	}
	return out.Ticket, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.readError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) readError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var parsed models.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err == nil {
		apiErr.Code = parsed.Code
		apiErr.Message = parsed.Error
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
