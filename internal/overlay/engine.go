// Package overlay drives the single shared detail view. One overlay
// session exists at a time: opening a new target replaces the current
// one, it never stacks.
package overlay

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mohanemg07-web/my-movie-recomendations/internal/fetch"
	"github.com/mohanemg07-web/my-movie-recomendations/internal/models"
)

// State is the overlay lifecycle.
type State int

const (
	StateClosed State = iota
	StateLoading
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateLoading:
		return "loading"
	case StateOpen:
		return "open"
	}
	return "unknown"
}

// Session is the overlay's externally visible state. Detail may be nil
// while loading, or in the degraded open state after a failed detail
// fetch (identifier-level info from the triggering card still shows).
type Session struct {
	State  State
	Target int
	Detail *models.MovieDetail
}

// DetailClient is the slice of the fetch gateway the engine needs.
type DetailClient interface {
	MovieDetails(ctx context.Context, movieID int) (*models.MovieDetail, error)
}

// Engine is the overlay state machine. Each open re-fetches the detail;
// nothing is cached across overlay sessions.
type Engine struct {
	mu      sync.Mutex
	client  DetailClient
	logger  *slog.Logger
	slot    fetch.Slot
	current Session
	observe func(Session)
}

func NewEngine(client DetailClient, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		client:  client,
		logger:  logger,
		current: Session{State: StateClosed},
	}
}

// SetObserver installs a callback invoked (outside the lock is not
// needed; callers are quick renderers) after every state transition.
func (e *Engine) SetObserver(fn func(Session)) {
	e.mu.Lock()
	e.observe = fn
	e.mu.Unlock()
}

// Open transitions to Loading for the target and fetches its detail in
// the background. Opening over an in-flight or open session supersedes
// it: the prior fetch's eventual response is dropped by the token check.
func (e *Engine) Open(ctx context.Context, movieID int) {
	token := e.slot.Next()

	e.mu.Lock()
	e.current = Session{State: StateLoading, Target: movieID}
	e.emitLocked()
	e.mu.Unlock()

	go func() {
		detail, err := e.client.MovieDetails(ctx, movieID)
		if err != nil {
			// Degrade instead of closing: the overlay stays open on
			// whatever the triggering list item already knew.
			e.logger.Warn("detail fetch failed", "movie_id", movieID, "err", err)
			detail = nil
		}

		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.slot.Latest(token) {
			return
		}
		e.current = Session{State: StateOpen, Target: movieID, Detail: detail}
		e.emitLocked()
	}()
}

// Close transitions unconditionally to Closed and clears the payload,
// so reopening never flashes the previous movie's data. Every dismissal
// trigger (close control, backdrop, cancel key) routes through here.
func (e *Engine) Close() {
	e.slot.Invalidate()

	e.mu.Lock()
	e.current = Session{State: StateClosed}
	e.emitLocked()
	e.mu.Unlock()
}

// Snapshot returns the current overlay session.
func (e *Engine) Snapshot() Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

func (e *Engine) emitLocked() {
	if e.observe != nil {
		e.observe(e.current)
	}
}
