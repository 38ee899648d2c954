package ratings

import (
	"context"
	"errors"
	"testing"

	"github.com/mohanemg07-web/my-movie-recomendations/internal/models"
	"github.com/mohanemg07-web/my-movie-recomendations/internal/session"
)

type fakeClient struct {
	rated     []models.RatedMovie
	ratingErr error
	submitErr error

	submitted []submission
}

type submission struct {
	userID, movieID, rating int
}

func (f *fakeClient) Ratings(ctx context.Context, userID int) ([]models.RatedMovie, error) {
	return f.rated, f.ratingErr
}

func (f *fakeClient) SubmitRating(ctx context.Context, userID, movieID, rating int) error {
	f.submitted = append(f.submitted, submission{userID, movieID, rating})
	return f.submitErr
}

func signedIn(t *testing.T) *session.Manager {
	t.Helper()
	sess := session.NewManager()
	sess.Establish("opaque-token", session.User{ID: 7, Username: "tester"})
	return sess
}

func TestLoadReplacesWholesale(t *testing.T) {
	client := &fakeClient{rated: []models.RatedMovie{
		{Movie: models.Movie{ID: 1}, Rating: 4},
		{Movie: models.Movie{ID: 2}, Rating: 5},
	}}
	cache := NewCache(client, signedIn(t), nil)

	// Pre-existing local entry that the server does not know about.
	cache.entries[99] = 3

	if err := cache.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cache.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (replace, not merge)", cache.Len())
	}
	if _, ok := cache.Get(99); ok {
		t.Error("stale local entry survived a wholesale replace")
	}
	if r, _ := cache.Get(2); r != 5 {
		t.Errorf("rating for 2 = %d, want 5", r)
	}
}

func TestLoadRequiresSession(t *testing.T) {
	cache := NewCache(&fakeClient{}, session.NewManager(), nil)
	if err := cache.Load(context.Background()); !errors.Is(err, session.ErrUnauthenticated) {
		t.Errorf("Load anonymous = %v, want ErrUnauthenticated", err)
	}
}

func TestSubmitOptimisticUpdate(t *testing.T) {
	client := &fakeClient{}
	cache := NewCache(client, signedIn(t), nil)

	if err := cache.Submit(context.Background(), 42, 4); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if r, ok := cache.Get(42); !ok || r != 4 {
		t.Errorf("Get(42) = %d,%v", r, ok)
	}
	if len(client.submitted) != 1 || client.submitted[0] != (submission{7, 42, 4}) {
		t.Errorf("submitted = %+v", client.submitted)
	}
}

func TestSubmitKeepsValueOnWriteFailure(t *testing.T) {
	client := &fakeClient{submitErr: errors.New("boom")}
	cache := NewCache(client, signedIn(t), nil)

	err := cache.Submit(context.Background(), 42, 5)
	if err == nil {
		t.Fatal("want write error surfaced")
	}
	// The optimistic value stays; reconciliation happens on the next Load.
	if r, ok := cache.Get(42); !ok || r != 5 {
		t.Errorf("Get(42) after failed write = %d,%v, want 5,true", r, ok)
	}
}

func TestSubmitValidation(t *testing.T) {
	cache := NewCache(&fakeClient{}, signedIn(t), nil)
	for _, bad := range []int{0, 6, -1} {
		if err := cache.Submit(context.Background(), 1, bad); err == nil {
			t.Errorf("Submit(rating=%d): want error", bad)
		}
	}
	if cache.Len() != 0 {
		t.Error("invalid submissions must not touch the map")
	}
}

func TestSubmitRequiresSession(t *testing.T) {
	client := &fakeClient{}
	cache := NewCache(client, session.NewManager(), nil)
	if err := cache.Submit(context.Background(), 1, 3); !errors.Is(err, session.ErrUnauthenticated) {
		t.Errorf("Submit anonymous = %v, want ErrUnauthenticated", err)
	}
	if len(client.submitted) != 0 {
		t.Error("anonymous submit must not reach the gateway")
	}
}

func TestLogoutClearsCache(t *testing.T) {
	sess := signedIn(t)
	cache := NewCache(&fakeClient{}, sess, nil)
	cache.Submit(context.Background(), 1, 5)

	sess.Logout()
	if cache.Len() != 0 {
		t.Errorf("Len after logout = %d, want 0", cache.Len())
	}
}

func TestLogoutSupersedesInFlightLoad(t *testing.T) {
	release := make(chan struct{})
	client := &blockingClient{
		started: make(chan struct{}),
		release: release,
		rated:   []models.RatedMovie{{Movie: models.Movie{ID: 1}, Rating: 4}},
	}
	sess := signedIn(t)
	cache := NewCache(client, sess, nil)

	done := make(chan error, 1)
	go func() { done <- cache.Load(context.Background()) }()
	<-client.started

	sess.Logout()
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cache.Len() != 0 {
		t.Error("a load superseded by logout must not repopulate the map")
	}
}

type blockingClient struct {
	started chan struct{}
	release chan struct{}
	rated   []models.RatedMovie
}

func (b *blockingClient) Ratings(ctx context.Context, userID int) ([]models.RatedMovie, error) {
	close(b.started)
	<-b.release
	return b.rated, nil
}

func (b *blockingClient) SubmitRating(ctx context.Context, userID, movieID, rating int) error {
	return nil
}
