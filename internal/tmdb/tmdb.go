// Package tmdb is a minimal TMDB client used for best-effort poster
// enrichment of search results that reference an external catalog id.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	tmdbBaseURL      = "https://api.themoviedb.org/3"
	tmdbImageBaseURL = "https://image.tmdb.org/t/p"

	// posterSize is the TMDB image size segment used for cards.
	posterSize = "w500"
)

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: tmdbBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SetBaseURL points the client at a different API root (tests).
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// PosterURL looks up the poster path for a TMDB movie id and returns a
// full image URL, or empty when the movie has no poster.
func (c *Client) PosterURL(ctx context.Context, tmdbID int) (string, error) {
	endpoint := fmt.Sprintf("%s/movie/%d", c.baseURL, tmdbID)
	params := url.Values{}
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("TMDB API returned status %d", resp.StatusCode)
	}

	var movie struct {
		PosterPath string `json:"poster_path"`
	}
	if err := json.Unmarshal(data, &movie); err != nil {
		return "", fmt.Errorf("failed to unmarshal movie: %w", err)
	}
	if movie.PosterPath == "" {
		return "", nil
	}
	return fmt.Sprintf("%s/%s%s", tmdbImageBaseURL, posterSize, movie.PosterPath), nil
}
