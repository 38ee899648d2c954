package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mohanemg07-web/my-movie-recomendations/internal/models"
)

const testDebounce = 20 * time.Millisecond

type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
	results map[string][]models.Movie
	err     error
	gate    chan struct{} // when non-nil, Search blocks until closed
}

func (f *fakeSearcher) Search(ctx context.Context, q string) ([]models.Movie, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.results[q], nil
}

func (f *fakeSearcher) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

type recorder struct {
	mu      sync.Mutex
	emitted []Result
}

func (r *recorder) apply(res Result) {
	r.mu.Lock()
	r.emitted = append(r.emitted, res)
	r.mu.Unlock()
}

func (r *recorder) last() (Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.emitted) == 0 {
		return Result{}, false
	}
	return r.emitted[len(r.emitted)-1], true
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestRapidTypingCoalescesToOneRequest(t *testing.T) {
	client := &fakeSearcher{results: map[string][]models.Movie{
		"bat": {{ID: 1, Title: "Batman"}},
	}}
	rec := &recorder{}
	c := NewController(client, testDebounce, rec.apply, nil)

	ctx := context.Background()
	c.SetText(ctx, "b")
	c.SetText(ctx, "ba")
	c.SetText(ctx, "bat")

	waitFor(t, func() bool { return c.State() == StateSettled })

	if got := client.calls(); len(got) != 1 || got[0] != "bat" {
		t.Errorf("requests = %v, want exactly one for %q", got, "bat")
	}
	last, _ := rec.last()
	if last.Query != "bat" || len(last.Movies) != 1 {
		t.Errorf("last result = %+v", last)
	}
}

func TestShortQueryGoesIdleWithoutRequest(t *testing.T) {
	client := &fakeSearcher{}
	rec := &recorder{}
	c := NewController(client, testDebounce, rec.apply, nil)

	c.SetText(context.Background(), "b")
	if c.State() != StateIdle {
		t.Errorf("state = %v, want idle", c.State())
	}

	time.Sleep(3 * testDebounce)
	if got := client.calls(); len(got) != 0 {
		t.Errorf("short query issued requests: %v", got)
	}
	last, ok := rec.last()
	if !ok || len(last.Movies) != 0 {
		t.Errorf("short query should emit empty results, got %+v ok=%v", last, ok)
	}
}

func TestMinLengthCountsRunesNotBytes(t *testing.T) {
	client := &fakeSearcher{results: map[string][]models.Movie{
		"映画": {{ID: 1, Title: "Tokyo Story"}},
	}}
	c := NewController(client, testDebounce, nil, nil)
	ctx := context.Background()

	// One CJK character is three bytes but still below the minimum.
	c.SetText(ctx, "映")
	if c.State() != StateIdle {
		t.Errorf("state after single rune = %v, want idle", c.State())
	}
	time.Sleep(3 * testDebounce)
	if got := client.calls(); len(got) != 0 {
		t.Errorf("single rune issued requests: %v", got)
	}

	c.SetText(ctx, "映画")
	waitFor(t, func() bool { return c.State() == StateSettled })
	if got := client.calls(); len(got) != 1 || got[0] != "映画" {
		t.Errorf("requests = %v, want one for the two-rune query", got)
	}
}

func TestClearDiscardsInFlightResponse(t *testing.T) {
	gate := make(chan struct{})
	client := &fakeSearcher{
		gate: gate,
		results: map[string][]models.Movie{
			"batman": {{ID: 1, Title: "Batman"}},
		},
	}
	c := NewController(client, testDebounce, nil, nil)

	ctx := context.Background()
	c.SetText(ctx, "batman")
	waitFor(t, func() bool { return len(client.calls()) == 1 })

	// The box is cleared while the request is still in flight.
	c.SetText(ctx, "")
	close(gate)

	time.Sleep(3 * testDebounce)
	if c.State() != StateIdle {
		t.Errorf("state = %v, want idle", c.State())
	}
	if got := c.Results(); len(got) != 0 {
		t.Errorf("late response repopulated a cleared box: %v", got)
	}
}

func TestSearchFailureFailsSoftToEmpty(t *testing.T) {
	client := &fakeSearcher{err: errors.New("backend down")}
	rec := &recorder{}
	c := NewController(client, testDebounce, rec.apply, nil)

	c.SetText(context.Background(), "batman")
	waitFor(t, func() bool { return c.State() == StateSettled })

	last, _ := rec.last()
	if last.Query != "batman" || len(last.Movies) != 0 {
		t.Errorf("failed search should settle with empty results, got %+v", last)
	}
}

type fakeEnricher struct{ url string }

func (f *fakeEnricher) PosterURL(ctx context.Context, tmdbID int) (string, error) {
	return f.url, nil
}

func TestEnrichmentPatchesMissingPosters(t *testing.T) {
	client := &fakeSearcher{results: map[string][]models.Movie{
		"heat": {
			{ID: 1, Title: "Heat", TMDBID: 949},
			{ID: 2, Title: "Heat 2", PosterURL: "existing.jpg", TMDBID: 950},
		},
	}}
	c := NewController(client, testDebounce, nil, nil)
	c.SetEnricher(&fakeEnricher{url: "patched.jpg"})

	c.SetText(context.Background(), "heat")
	waitFor(t, func() bool {
		got := c.Results()
		return len(got) == 2 && got[0].PosterURL == "patched.jpg"
	})

	got := c.Results()
	if got[1].PosterURL != "existing.jpg" {
		t.Errorf("enrichment touched a movie that already had a poster: %q", got[1].PosterURL)
	}
}
