// Package ratings keeps the signed-in user's rating map. It is the
// single source of truth for every rendered rating control: a control
// reads the cache at render time instead of capturing a value once.
package ratings

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mohanemg07-web/my-movie-recomendations/internal/fetch"
	"github.com/mohanemg07-web/my-movie-recomendations/internal/models"
	"github.com/mohanemg07-web/my-movie-recomendations/internal/session"
)

// Client is the slice of the fetch gateway the cache needs.
type Client interface {
	Ratings(ctx context.Context, userID int) ([]models.RatedMovie, error)
	SubmitRating(ctx context.Context, userID, movieID, rating int) error
}

// Cache maps movie id -> rating (1-5) for the current user. All
// mutations replace or set whole entries under one lock, so a
// concurrently-reading consumer never observes a torn state.
type Cache struct {
	mu      sync.RWMutex
	entries map[int]int

	client  Client
	session *session.Manager
	logger  *slog.Logger
	loads   fetch.Slot
}

func NewCache(client Client, sess *session.Manager, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cache{
		entries: make(map[int]int),
		client:  client,
		session: sess,
		logger:  logger,
	}
	// The session owns the logout lifecycle; the cache just resets with it.
	sess.OnLogout(c.Clear)
	return c
}

// Load fetches all entries for the current user and replaces the map
// wholesale. Called once per session establishment; duplicate loads
// converge because the later response fully replaces, never merges.
// A load that was superseded (logout, or a newer load) is discarded.
func (c *Cache) Load(ctx context.Context) error {
	user, ok := c.session.CurrentUser()
	if !ok {
		return session.ErrUnauthenticated
	}

	token := c.loads.Next()
	rated, err := c.client.Ratings(ctx, user.ID)
	if err != nil {
		return err
	}

	entries := make(map[int]int, len(rated))
	for _, r := range rated {
		entries[r.ID] = r.Rating
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loads.Latest(token) {
		return nil
	}
	c.entries = entries
	return nil
}

// Submit sets the local entry immediately so every card showing the
// movie updates synchronously, then performs the write. A failed write
// is logged but deliberately not rolled back: the next Load reconciles
// against server truth, and flickering the control back would read as
// data loss to the user.
func (c *Cache) Submit(ctx context.Context, movieID, rating int) error {
	user, ok := c.session.CurrentUser()
	if !ok {
		return session.ErrUnauthenticated
	}
	if rating < 1 || rating > 5 {
		return fmt.Errorf("rating %d out of range 1-5", rating)
	}

	c.mu.Lock()
	c.entries[movieID] = rating
	c.mu.Unlock()

	if err := c.client.SubmitRating(ctx, user.ID, movieID, rating); err != nil {
		c.logger.Warn("rating write failed, keeping optimistic value",
			"movie_id", movieID, "rating", rating, "err", err)
		return err
	}
	return nil
}

// Get returns the rating for a movie; ok=false means unrated.
func (c *Cache) Get(movieID int) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rating, ok := c.entries[movieID]
	return rating, ok
}

// All returns a copy of the rating map.
func (c *Cache) All() map[int]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[int]int, len(c.entries))
	for id, rating := range c.entries {
		out[id] = rating
	}
	return out
}

// Len reports how many movies the user has rated.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear empties the map synchronously. Invoked on logout through the
// session hook; also supersedes any in-flight Load.
func (c *Cache) Clear() {
	c.loads.Invalidate()
	c.mu.Lock()
	c.entries = make(map[int]int)
	c.mu.Unlock()
}
