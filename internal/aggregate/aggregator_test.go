package aggregate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mohanemg07-web/my-movie-recomendations/internal/models"
	"github.com/mohanemg07-web/my-movie-recomendations/internal/session"
)

type fakeFeeds struct {
	mu sync.Mutex

	trending    []models.Movie
	trendingErr error
	recs        models.Recommendations
	recsErr     error
	actors      []models.Actor
	actorsErr   error
	byGenre     map[string][]models.Movie
	byActor     map[string][]models.Movie
	actorGate   map[string]chan struct{}
	details     map[int]*models.MovieDetail
	detailsErr  error

	recCalls    int
	detailCalls []int
}

func (f *fakeFeeds) Trending(ctx context.Context) ([]models.Movie, error) {
	return f.trending, f.trendingErr
}

func (f *fakeFeeds) Recommendations(ctx context.Context, userID int) (models.Recommendations, error) {
	f.mu.Lock()
	f.recCalls++
	f.mu.Unlock()
	return f.recs, f.recsErr
}

func (f *fakeFeeds) TopActors(ctx context.Context) ([]models.Actor, error) {
	return f.actors, f.actorsErr
}

func (f *fakeFeeds) MoviesByGenre(ctx context.Context, genre string) ([]models.Movie, error) {
	return f.byGenre[genre], nil
}

func (f *fakeFeeds) MovieDetails(ctx context.Context, movieID int) (*models.MovieDetail, error) {
	f.mu.Lock()
	f.detailCalls = append(f.detailCalls, movieID)
	f.mu.Unlock()
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	return f.details[movieID], nil
}

func (f *fakeFeeds) MoviesByActor(ctx context.Context, actor string) ([]models.Movie, error) {
	f.mu.Lock()
	gate := f.actorGate[actor]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return f.byActor[actor], nil
}

type noopRatings struct{ loads int }

func (n *noopRatings) Load(ctx context.Context) error {
	n.loads++
	return nil
}

func movieList(titles ...string) []models.Movie {
	out := make([]models.Movie, len(titles))
	for i, title := range titles {
		out[i] = models.Movie{ID: i + 1, Title: title}
	}
	return out
}

func signedIn(t *testing.T) *session.Manager {
	t.Helper()
	sess := session.NewManager()
	sess.Establish("tok", session.User{ID: 7, Username: "tester"})
	return sess
}

func TestAnonymousSkipsPersonalFeeds(t *testing.T) {
	feeds := &fakeFeeds{
		trending: movieList("A", "B"),
		actors:   []models.Actor{{Name: "Tom Hanks", Count: 9}},
	}
	loader := &noopRatings{}
	a := New(feeds, loader, session.NewManager(), nil)

	snap, err := a.LoadInitial(context.Background())
	if err != nil {
		t.Fatalf("LoadInitial: %v", err)
	}
	if feeds.recCalls != 0 {
		t.Error("anonymous visit must never hit recommendations")
	}
	if loader.loads != 0 {
		t.Error("anonymous visit must never load the rating map")
	}
	if len(snap.Trending) != 2 || len(snap.TopActors) != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestSignedInLoadsPersonalFeeds(t *testing.T) {
	feeds := &fakeFeeds{
		trending: movieList("A"),
		recs: models.Recommendations{
			Movies: movieList("Picked"),
			Basis:  "popular_unrated",
		},
	}
	loader := &noopRatings{}
	a := New(feeds, loader, signedIn(t), nil)

	snap, err := a.LoadInitial(context.Background())
	if err != nil {
		t.Fatalf("LoadInitial: %v", err)
	}
	if feeds.recCalls != 1 || loader.loads != 1 {
		t.Errorf("recCalls=%d loads=%d, want 1 each", feeds.recCalls, loader.loads)
	}
	if snap.Basis != "popular_unrated" || len(snap.Recommended) != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestTrendingFailureIsFatal(t *testing.T) {
	feeds := &fakeFeeds{trendingErr: errors.New("backend down")}
	a := New(feeds, &noopRatings{}, session.NewManager(), nil)

	if _, err := a.LoadInitial(context.Background()); err == nil {
		t.Fatal("trending failure must surface as an error")
	}
}

func TestSecondaryFailuresAreTolerated(t *testing.T) {
	feeds := &fakeFeeds{
		trending:  movieList("A"),
		actorsErr: errors.New("actors down"),
		recsErr:   errors.New("recs down"),
	}
	a := New(feeds, &noopRatings{}, signedIn(t), nil)

	snap, err := a.LoadInitial(context.Background())
	if err != nil {
		t.Fatalf("LoadInitial: %v", err)
	}
	if snap.TopActors != nil || snap.Recommended != nil {
		t.Errorf("failed secondary feeds should be omitted, got %+v", snap)
	}
	if len(snap.Trending) != 1 {
		t.Error("trending must still be present")
	}
}

func TestHeroIsFirstRecommendationWhenSignedIn(t *testing.T) {
	feeds := &fakeFeeds{
		trending: movieList("T1", "T2"),
		recs:     models.Recommendations{Movies: movieList("Picked", "Other")},
	}
	a := New(feeds, &noopRatings{}, signedIn(t), nil)

	snap, err := a.LoadInitial(context.Background())
	if err != nil {
		t.Fatalf("LoadInitial: %v", err)
	}
	if snap.Hero == nil || snap.Hero.Title != "Picked" {
		t.Errorf("hero = %+v, want first recommendation", snap.Hero)
	}
}

func TestHeroDrawnFromTopFiveTrendingWhenAnonymous(t *testing.T) {
	feeds := &fakeFeeds{
		trending: movieList("T1", "T2", "T3", "T4", "T5", "T6", "T7"),
	}
	a := New(feeds, &noopRatings{}, session.NewManager(), nil)

	var maxN int
	a.intn = func(n int) int {
		maxN = n
		return n - 1
	}

	snap, err := a.LoadInitial(context.Background())
	if err != nil {
		t.Fatalf("LoadInitial: %v", err)
	}
	if maxN != 5 {
		t.Errorf("random pool = %d, want top 5", maxN)
	}
	if snap.Hero == nil || snap.Hero.Title != "T5" {
		t.Errorf("hero = %+v, want the drawn trending entry", snap.Hero)
	}
}

func TestHeroWithShortTrendingList(t *testing.T) {
	feeds := &fakeFeeds{trending: movieList("Only")}
	a := New(feeds, &noopRatings{}, session.NewManager(), nil)
	a.intn = func(n int) int {
		if n != 1 {
			t.Errorf("pool = %d, want 1", n)
		}
		return 0
	}

	snap, err := a.LoadInitial(context.Background())
	if err != nil {
		t.Fatalf("LoadInitial: %v", err)
	}
	if snap.Hero == nil || snap.Hero.Title != "Only" {
		t.Errorf("hero = %+v", snap.Hero)
	}
}

func TestHeroDetailPrefetched(t *testing.T) {
	feeds := &fakeFeeds{
		trending: movieList("Heat"),
		details: map[int]*models.MovieDetail{
			1: {
				Movie:    models.Movie{ID: 1, Title: "Heat"},
				Overview: "A Los Angeles crime saga.",
			},
		},
	}
	a := New(feeds, &noopRatings{}, session.NewManager(), nil)
	a.intn = func(int) int { return 0 }

	snap, err := a.LoadInitial(context.Background())
	if err != nil {
		t.Fatalf("LoadInitial: %v", err)
	}
	if len(feeds.detailCalls) != 1 || feeds.detailCalls[0] != 1 {
		t.Errorf("detail calls = %v, want one for the hero", feeds.detailCalls)
	}
	if snap.HeroDetail == nil || snap.HeroDetail.Overview != "A Los Angeles crime saga." {
		t.Errorf("HeroDetail = %+v", snap.HeroDetail)
	}
}

func TestHeroDetailFailureTolerated(t *testing.T) {
	feeds := &fakeFeeds{
		trending:   movieList("Heat"),
		detailsErr: errors.New("backend down"),
	}
	a := New(feeds, &noopRatings{}, session.NewManager(), nil)
	a.intn = func(int) int { return 0 }

	snap, err := a.LoadInitial(context.Background())
	if err != nil {
		t.Fatalf("failed hero prefetch must not fail the page: %v", err)
	}
	if snap.Hero == nil || snap.HeroDetail != nil {
		t.Errorf("snapshot = hero %+v detail %+v, want hero without detail", snap.Hero, snap.HeroDetail)
	}
}

func TestNoHeroDetailForEmptyTrending(t *testing.T) {
	feeds := &fakeFeeds{trending: nil}
	a := New(feeds, &noopRatings{}, session.NewManager(), nil)

	snap, err := a.LoadInitial(context.Background())
	if err != nil {
		t.Fatalf("LoadInitial: %v", err)
	}
	if snap.Hero != nil || len(feeds.detailCalls) != 0 {
		t.Errorf("hero=%+v detailCalls=%v, want neither", snap.Hero, feeds.detailCalls)
	}
}

func TestGenreRowsDeliverIndependently(t *testing.T) {
	feeds := &fakeFeeds{byGenre: map[string][]models.Movie{
		"Action": movieList("Die Hard"),
		"Drama":  movieList("Heat", "Casino"),
	}}
	a := New(feeds, &noopRatings{}, session.NewManager(), nil)

	var mu sync.Mutex
	got := make(map[string]int)
	done := make(chan struct{}, 2)
	a.LoadGenreRows(context.Background(), []string{"Action", "Drama"}, func(genre string, movies []models.Movie) {
		mu.Lock()
		got[genre] = len(movies)
		mu.Unlock()
		done <- struct{}{}
	})

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("genre rows never delivered")
		}
	}
	if got["Action"] != 1 || got["Drama"] != 2 {
		t.Errorf("rows = %v", got)
	}
}

func TestActorRetargetDropsStaleResponse(t *testing.T) {
	gate := make(chan struct{})
	feeds := &fakeFeeds{
		byActor: map[string][]models.Movie{
			"Slow Actor": movieList("Stale"),
			"Fast Actor": movieList("Fresh"),
		},
		actorGate: map[string]chan struct{}{"Slow Actor": gate},
	}
	a := New(feeds, &noopRatings{}, session.NewManager(), nil)

	var mu sync.Mutex
	var applied []string
	apply := func(actor string, movies []models.Movie) {
		mu.Lock()
		applied = append(applied, actor)
		mu.Unlock()
	}

	ctx := context.Background()
	a.SetActor(ctx, "Slow Actor", apply) // blocks
	a.SetActor(ctx, "Fast Actor", apply) // supersedes

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(applied)
		mu.Unlock()
		if n == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	close(gate)
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(applied) != 1 || applied[0] != "Fast Actor" {
		t.Errorf("applied = %v, want only the fresh actor", applied)
	}
}

func TestEmptyActorClearsRow(t *testing.T) {
	a := New(&fakeFeeds{}, &noopRatings{}, session.NewManager(), nil)

	var gotActor string
	var gotMovies []models.Movie
	called := false
	a.SetActor(context.Background(), "", func(actor string, movies []models.Movie) {
		called = true
		gotActor, gotMovies = actor, movies
	})

	if !called {
		t.Fatal("clearing must apply synchronously")
	}
	if gotActor != "" || gotMovies != nil {
		t.Errorf("apply(%q, %v), want empty clear", gotActor, gotMovies)
	}
}
