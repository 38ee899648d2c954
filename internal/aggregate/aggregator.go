// Package aggregate composes the independent feeds a page needs into
// one render-ready snapshot, tolerating partial failure of everything
// except the trending feed.
package aggregate

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/mohanemg07-web/my-movie-recomendations/internal/fetch"
	"github.com/mohanemg07-web/my-movie-recomendations/internal/models"
	"github.com/mohanemg07-web/my-movie-recomendations/internal/session"
)

// heroPoolSize bounds the randomized hero pick for anonymous visitors.
const heroPoolSize = 5

// Client is the slice of the fetch gateway the aggregator needs.
type Client interface {
	Trending(ctx context.Context) ([]models.Movie, error)
	Recommendations(ctx context.Context, userID int) (models.Recommendations, error)
	TopActors(ctx context.Context) ([]models.Actor, error)
	MoviesByGenre(ctx context.Context, genre string) ([]models.Movie, error)
	MoviesByActor(ctx context.Context, actor string) ([]models.Movie, error)
	MovieDetails(ctx context.Context, movieID int) (*models.MovieDetail, error)
}

// RatingsLoader is the piece of the ratings cache the initial batch
// settles alongside the feeds.
type RatingsLoader interface {
	Load(ctx context.Context) error
}

// Snapshot is one coherent view of the landing page: either every
// required feed has settled, or LoadInitial returned an error and no
// partial tree is exposed.
type Snapshot struct {
	Trending    []models.Movie
	Recommended []models.Movie
	Basis       string
	TopActors   []models.Actor
	Hero        *models.Movie

	// HeroDetail is the prefetched full payload for the featured movie,
	// nil when the prefetch failed (the hero card then renders from the
	// summary alone).
	HeroDetail *models.MovieDetail
}

// Aggregator drives the landing page's fetches. Secondary rows (per
// genre, per actor) are loaded independently after the initial batch
// and deliver through callbacks so a slow row never delays a fast one.
type Aggregator struct {
	client  Client
	ratings RatingsLoader
	session *session.Manager
	logger  *slog.Logger

	actorSlot fetch.Slot
	genreSlot fetch.Slot

	// intn is the hero randomness source, swappable in tests.
	intn func(n int) int
}

func New(client Client, ratingsLoader RatingsLoader, sess *session.Manager, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		client:  client,
		ratings: ratingsLoader,
		session: sess,
		logger:  logger,
		intn:    rand.Intn,
	}
}

// LoadInitial issues the required batch concurrently: trending always,
// plus recommendations and the rating map when signed in, plus the top
// actors strip. It returns only once every member has settled, so the
// page never renders with mismatched loading flags. Trending failure
// (after the gateway's retries) is the only fatal outcome; the caller
// surfaces it with a manual retry that simply calls LoadInitial again.
func (a *Aggregator) LoadInitial(ctx context.Context) (Snapshot, error) {
	user, signedIn := a.session.CurrentUser()

	var (
		wg          sync.WaitGroup
		trending    []models.Movie
		trendingErr error
		recs        models.Recommendations
		actors      []models.Actor
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		trending, trendingErr = a.client.Trending(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		var err error
		if actors, err = a.client.TopActors(ctx); err != nil {
			a.logger.Warn("top actors feed failed, omitting strip", "err", err)
			actors = nil
		}
	}()

	if signedIn {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var err error
			if recs, err = a.client.Recommendations(ctx, user.ID); err != nil {
				a.logger.Warn("recommendations feed failed, omitting row", "err", err)
				recs = models.Recommendations{}
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.ratings.Load(ctx); err != nil {
				a.logger.Warn("rating map load failed", "err", err)
			}
		}()
	}

	wg.Wait()

	if trendingErr != nil {
		return Snapshot{}, trendingErr
	}

	snap := Snapshot{
		Trending:    trending,
		Recommended: recs.Movies,
		Basis:       recs.Basis,
		TopActors:   actors,
	}
	snap.Hero = a.pickHero(snap.Trending, snap.Recommended, signedIn)
	if snap.Hero != nil {
		// Prefetch the featured movie's full payload through the same
		// detail endpoint the overlay uses. Failure is tolerated like
		// any secondary feed.
		detail, err := a.client.MovieDetails(ctx, snap.Hero.ID)
		if err != nil {
			a.logger.Warn("hero detail prefetch failed", "movie_id", snap.Hero.ID, "err", err)
			detail = nil
		}
		snap.HeroDetail = detail
	}
	return snap, nil
}

// pickHero chooses the featured movie. A signed-in user with nonempty
// recommendations gets recommended[0] deterministically; otherwise the
// pick is uniform among the top five trending entries so the landing
// page doesn't open on the same poster every visit.
func (a *Aggregator) pickHero(trending, recommended []models.Movie, signedIn bool) *models.Movie {
	if signedIn && len(recommended) > 0 {
		hero := recommended[0]
		return &hero
	}
	if len(trending) == 0 {
		return nil
	}
	pool := len(trending)
	if pool > heroPoolSize {
		pool = heroPoolSize
	}
	hero := trending[a.intn(pool)]
	return &hero
}

// LoadGenreRows issues one independent fetch per genre after the
// initial batch has settled. Each row delivers on arrival; a failed row
// delivers nil, which the renderer treats as "omit this row".
func (a *Aggregator) LoadGenreRows(ctx context.Context, genres []string, apply func(genre string, movies []models.Movie)) {
	token := a.genreSlot.Next()
	for _, genre := range genres {
		go func(genre string) {
			movies, err := a.client.MoviesByGenre(ctx, genre)
			if err != nil {
				a.logger.Warn("genre row failed, omitting", "genre", genre, "err", err)
				movies = nil
			}
			if !a.genreSlot.Latest(token) {
				return
			}
			apply(genre, movies)
		}(genre)
	}
}

// SetActor re-targets the actor row. A change supersedes any in-flight
// fetch for the previous actor; an empty actor clears the row.
func (a *Aggregator) SetActor(ctx context.Context, actor string, apply func(actor string, movies []models.Movie)) {
	if actor == "" {
		a.actorSlot.Invalidate()
		apply("", nil)
		return
	}

	token := a.actorSlot.Next()
	go func() {
		movies, err := a.client.MoviesByActor(ctx, actor)
		if err != nil {
			a.logger.Warn("actor row failed, omitting", "actor", actor, "err", err)
			movies = nil
		}
		if !a.actorSlot.Latest(token) {
			return
		}
		apply(actor, movies)
	}()
}
