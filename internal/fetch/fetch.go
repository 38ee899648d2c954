// Package fetch is the single chokepoint for every read and write the
// engine performs against the movie API. It normalizes transport,
// status and decode failures into one Error shape and owns the per-feed
// retry policy: only the trending feed retries, everything else fails
// soft to an empty result at the call site.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mohanemg07-web/my-movie-recomendations/internal/models"
)

const (
	defaultTimeout       = 15 * time.Second
	trendingRetryAttempt = 3
	trendingRetryDelay   = time.Second
)

// Failure reasons carried by Error.
const (
	ReasonNetwork = "network"
	ReasonStatus  = "status"
	ReasonDecode  = "decode"
)

// Error is the single normalized failure for network errors, non-2xx
// responses and malformed payloads alike. Callers decide per feed
// whether it is fatal (trending) or tolerable (everything else).
type Error struct {
	Reason string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch failed (%s, status %d): %v", e.Reason, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch failed (%s): %v", e.Reason, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Client talks to the movie API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	// tokenSource supplies the bearer token for authenticated calls.
	// Nil or empty means anonymous.
	tokenSource func() string

	retryAttempts int
	retryDelay    time.Duration
}

func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger:        logger,
		retryAttempts: trendingRetryAttempt,
		retryDelay:    trendingRetryDelay,
	}
}

// SetTokenSource installs the session's bearer token supplier.
func (c *Client) SetTokenSource(fn func() string) { c.tokenSource = fn }

// SetRetryPolicy overrides the trending feed's retry policy.
func (c *Client) SetRetryPolicy(attempts int, delay time.Duration) {
	if attempts < 1 {
		attempts = 1
	}
	c.retryAttempts = attempts
	c.retryDelay = delay
}

// Trending returns the ranked landing feed. This is the one feed with a
// retry policy: transient failures are retried up to 3 attempts total
// with a fixed backoff, but a canceled context is returned immediately.
func (c *Client) Trending(ctx context.Context) ([]models.Movie, error) {
	var movies []models.Movie
	var lastErr error
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		lastErr = c.get(ctx, "/api/popular", nil, &movies)
		if lastErr == nil {
			return movies, nil
		}
		if ctx.Err() != nil {
			return nil, lastErr
		}
		if attempt < c.retryAttempts {
			c.logger.Warn("trending fetch failed, retrying",
				"attempt", attempt, "err", lastErr)
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return nil, lastErr
			}
		}
	}
	return nil, lastErr
}

// Recommendations returns the personalized feed for a user.
func (c *Client) Recommendations(ctx context.Context, userID int) (models.Recommendations, error) {
	var recs models.Recommendations
	err := c.get(ctx, "/api/recommend/"+strconv.Itoa(userID), nil, &recs)
	return recs, err
}

// MoviesByGenre returns one genre row.
func (c *Client) MoviesByGenre(ctx context.Context, genre string) ([]models.Movie, error) {
	var movies []models.Movie
	err := c.get(ctx, "/api/movies/genre/"+url.PathEscape(genre), nil, &movies)
	return movies, err
}

// TopActors returns the most frequent actors across the catalog.
func (c *Client) TopActors(ctx context.Context) ([]models.Actor, error) {
	var actors []models.Actor
	err := c.get(ctx, "/api/movies/actors", nil, &actors)
	return actors, err
}

// MoviesByActor returns the actor-filtered row.
func (c *Client) MoviesByActor(ctx context.Context, actor string) ([]models.Movie, error) {
	var movies []models.Movie
	err := c.get(ctx, "/api/movies/actor/"+url.PathEscape(actor), nil, &movies)
	return movies, err
}

// FilterMovies runs a filtered search with the canonical descriptor
// produced by the query package.
func (c *Client) FilterMovies(ctx context.Context, params url.Values) ([]models.Movie, error) {
	var movies []models.Movie
	err := c.get(ctx, "/api/movies/filter", params, &movies)
	return movies, err
}

// Search runs the live text search.
func (c *Client) Search(ctx context.Context, q string) ([]models.Movie, error) {
	params := url.Values{}
	params.Set("q", q)
	var movies []models.Movie
	err := c.get(ctx, "/api/search", params, &movies)
	return movies, err
}

// MovieDetails fetches the full detail payload for one movie.
func (c *Client) MovieDetails(ctx context.Context, movieID int) (*models.MovieDetail, error) {
	var detail models.MovieDetail
	if err := c.get(ctx, "/api/movies/details/"+strconv.Itoa(movieID), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Ratings fetches all rating entries for a user.
func (c *Client) Ratings(ctx context.Context, userID int) ([]models.RatedMovie, error) {
	var rated []models.RatedMovie
	err := c.get(ctx, "/api/ratings/"+strconv.Itoa(userID), nil, &rated)
	return rated, err
}

// SubmitRating writes one rating for a user.
func (c *Client) SubmitRating(ctx context.Context, userID, movieID, rating int) error {
	body := map[string]int{
		"user_id":  userID,
		"movie_id": movieID,
		"rating":   rating,
	}
	return c.post(ctx, "/api/rate", body, nil)
}

// Credentials is a login or signup request.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is what the auth endpoints return on success.
type AuthResponse struct {
	Token string `json:"token"`
	User  struct {
		ID       int    `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

// Login authenticates and returns the bearer token plus user identity.
func (c *Client) Login(ctx context.Context, username, password string) (AuthResponse, error) {
	var resp AuthResponse
	err := c.post(ctx, "/api/auth/login", Credentials{Username: username, Password: password}, &resp)
	return resp, err
}

// Signup creates an account and returns the same shape as Login.
func (c *Client) Signup(ctx context.Context, username, password string) (AuthResponse, error) {
	var resp AuthResponse
	err := c.post(ctx, "/api/auth/signup", Credentials{Username: username, Password: password}, &resp)
	return resp, err
}

func (c *Client) get(ctx context.Context, path string, params url.Values, v interface{}) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &Error{Reason: ReasonNetwork, Err: err}
	}
	return c.do(req, v)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, v interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &Error{Reason: ReasonDecode, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &Error{Reason: ReasonNetwork, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, v)
}

func (c *Client) do(req *http.Request, v interface{}) error {
	if c.tokenSource != nil {
		if token := c.tokenSource(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Reason: ReasonNetwork, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Reason: ReasonNetwork, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{
			Reason: ReasonStatus,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("%s %s returned %s", req.Method, req.URL.Path, resp.Status),
		}
	}

	if v == nil {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &Error{Reason: ReasonDecode, Err: err}
	}
	return nil
}
