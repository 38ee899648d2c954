// Package search converts a live text stream into at most one in-flight
// search request, guaranteeing the displayed results always correspond
// to the most recent input.
package search

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mohanemg07-web/my-movie-recomendations/internal/fetch"
	"github.com/mohanemg07-web/my-movie-recomendations/internal/models"
)

const (
	// DefaultDebounce is the pause that has to elapse after the last
	// keystroke before a request fires.
	DefaultDebounce = 350 * time.Millisecond

	// MinQueryLength below which no request is made at all.
	MinQueryLength = 2
)

// State of the controller's input machine.
type State int

const (
	StateIdle State = iota
	StatePending
	StateInFlight
	StateSettled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateInFlight:
		return "in-flight"
	case StateSettled:
		return "settled"
	}
	return "unknown"
}

// Client is the slice of the fetch gateway the controller needs.
type Client interface {
	Search(ctx context.Context, q string) ([]models.Movie, error)
}

// Enricher is the best-effort secondary lookup for results missing a
// poster, keyed by the external catalog id.
type Enricher interface {
	PosterURL(ctx context.Context, tmdbID int) (string, error)
}

// Result is what the controller pushes to its consumer.
type Result struct {
	Query  string
	Movies []models.Movie
}

// Controller debounces keystrokes and discards stale responses. Every
// keystroke resets the timer; only when it elapses untouched does a
// request fire, for the text value at that moment.
type Controller struct {
	mu       sync.Mutex
	client   Client
	enricher Enricher
	logger   *slog.Logger

	delay  time.Duration
	minLen int

	timer   *time.Timer
	text    string
	state   State
	results []models.Movie
	slot    fetch.Slot
	apply   func(Result)
}

func NewController(client Client, delay time.Duration, apply func(Result), logger *slog.Logger) *Controller {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		client: client,
		logger: logger,
		delay:  delay,
		minLen: MinQueryLength,
		state:  StateIdle,
		apply:  apply,
	}
}

// SetEnricher installs the optional poster enrichment pass.
func (c *Controller) SetEnricher(e Enricher) {
	c.mu.Lock()
	c.enricher = e
	c.mu.Unlock()
}

// SetText feeds one keystroke's worth of input. A query shorter than
// the minimum length goes straight to Idle with empty results and no
// network call; anything longer arms (or re-arms) the debounce timer.
func (c *Controller) SetText(ctx context.Context, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.text = text
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}

	if utf8.RuneCountInString(strings.TrimSpace(text)) < c.minLen {
		// Also supersedes any in-flight request so its late response
		// cannot repopulate a cleared box.
		c.slot.Invalidate()
		c.state = StateIdle
		c.results = nil
		c.emitLocked(Result{Query: text})
		return
	}

	c.state = StatePending
	c.timer = time.AfterFunc(c.delay, func() { c.fire(ctx) })
}

// fire issues the request for the text as it stands now.
func (c *Controller) fire(ctx context.Context) {
	c.mu.Lock()
	text := c.text
	token := c.slot.Next()
	c.state = StateInFlight
	c.mu.Unlock()

	movies, err := c.client.Search(ctx, strings.TrimSpace(text))
	if err != nil {
		// Fail soft to empty results; search is never page-fatal.
		c.logger.Warn("search failed", "query", text, "err", err)
		movies = nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.slot.Latest(token) || c.text != text {
		// Originating text no longer current: a faster subsequent
		// request owns the display now.
		return
	}
	c.state = StateSettled
	c.results = movies
	c.emitLocked(Result{Query: text, Movies: movies})

	if c.enricher != nil {
		for i := range movies {
			if movies[i].PosterURL == "" && movies[i].TMDBID != 0 {
				go c.enrich(ctx, token, i, movies[i].TMDBID, text)
			}
		}
	}
}

// enrich patches one result's poster in place. Failures are per-item
// and never touch sibling items or the primary list.
func (c *Controller) enrich(ctx context.Context, token uint64, idx, tmdbID int, query string) {
	posterURL, err := c.enricher.PosterURL(ctx, tmdbID)
	if err != nil || posterURL == "" {
		if err != nil {
			c.logger.Debug("poster enrichment failed", "tmdb_id", tmdbID, "err", err)
		}
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.slot.Latest(token) || idx >= len(c.results) {
		return
	}
	c.results[idx].PosterURL = posterURL
	snapshot := make([]models.Movie, len(c.results))
	copy(snapshot, c.results)
	c.emitLocked(Result{Query: query, Movies: snapshot})
}

// State returns the current machine state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Results returns the currently displayed result list.
func (c *Controller) Results() []models.Movie {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Movie, len(c.results))
	copy(out, c.results)
	return out
}

func (c *Controller) emitLocked(r Result) {
	if c.apply != nil {
		c.apply(r)
	}
}
