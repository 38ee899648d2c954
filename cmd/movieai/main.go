// Command movieai is a terminal client for browsing, searching,
// filtering and rating movies against the MovieAI API.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/mohanemg07-web/my-movie-recomendations/internal/aggregate"
	"github.com/mohanemg07-web/my-movie-recomendations/internal/config"
	"github.com/mohanemg07-web/my-movie-recomendations/internal/fetch"
	"github.com/mohanemg07-web/my-movie-recomendations/internal/models"
	"github.com/mohanemg07-web/my-movie-recomendations/internal/overlay"
	"github.com/mohanemg07-web/my-movie-recomendations/internal/query"
	"github.com/mohanemg07-web/my-movie-recomendations/internal/ratings"
	"github.com/mohanemg07-web/my-movie-recomendations/internal/search"
	"github.com/mohanemg07-web/my-movie-recomendations/internal/session"
	"github.com/mohanemg07-web/my-movie-recomendations/internal/tmdb"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.Debug),
	}))

	sess := session.NewManager()
	client := fetch.NewClient(cfg.APIBaseURL, logger)
	client.SetTokenSource(sess.Token)

	cache := ratings.NewCache(client, sess, logger)
	agg := aggregate.New(client, cache, sess, logger)

	engine := overlay.NewEngine(client, logger)
	engine.SetObserver(printOverlay)

	searcher := search.NewController(client, cfg.SearchDebounce, printSearch, logger)
	if cfg.TMDBAPIKey != "" {
		searcher.SetEnricher(tmdb.NewClient(cfg.TMDBAPIKey))
	}

	fmt.Println("movieai — connected to", cfg.APIBaseURL)
	fmt.Println("commands: home, actor <name>, search <text>, filter <k=v ...>, open <id>, close, login <u> <p>, signup <u> <p>, logout, rate <id> <1-5>, ratings, quit")

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)

		switch cmd {
		case "quit", "exit":
			return

		case "home":
			showHome(ctx, agg)

		case "actor":
			agg.SetActor(ctx, rest, func(actor string, movies []models.Movie) {
				if actor == "" {
					fmt.Println("actor row cleared")
					return
				}
				fmt.Printf("starring %s:\n", actor)
				printMovies(movies)
			})

		case "search":
			// Feed the controller the way a search box would: the full
			// text is just the latest keystroke state.
			searcher.SetText(ctx, rest)

		case "filter":
			runFilter(ctx, client, rest)

		case "open":
			movieID, err := strconv.Atoi(rest)
			if err != nil {
				fmt.Println("usage: open <movie id>")
				continue
			}
			engine.Open(ctx, movieID)

		case "close":
			engine.Close()

		case "login", "signup":
			username, password, _ := strings.Cut(rest, " ")
			if username == "" || password == "" {
				fmt.Printf("usage: %s <username> <password>\n", cmd)
				continue
			}
			var resp fetch.AuthResponse
			var err error
			if cmd == "login" {
				resp, err = client.Login(ctx, username, strings.TrimSpace(password))
			} else {
				resp, err = client.Signup(ctx, username, strings.TrimSpace(password))
			}
			if err != nil {
				fmt.Println("auth failed:", err)
				continue
			}
			sess.Establish(resp.Token, session.User{ID: resp.User.ID, Username: resp.User.Username})
			if err := cache.Load(ctx); err != nil {
				logger.Warn("rating map load failed", "err", err)
			}
			fmt.Printf("signed in as %s (%d ratings)\n", resp.User.Username, cache.Len())

		case "logout":
			sess.Logout()
			fmt.Println("signed out")

		case "rate":
			fields := strings.Fields(rest)
			if len(fields) != 2 {
				fmt.Println("usage: rate <movie id> <1-5>")
				continue
			}
			movieID, _ := strconv.Atoi(fields[0])
			value, _ := strconv.Atoi(fields[1])
			err := cache.Submit(ctx, movieID, value)
			if errors.Is(err, session.ErrUnauthenticated) {
				fmt.Println("log in to rate")
				continue
			}
			if err != nil {
				// Optimistic value is kept; just report the failure.
				fmt.Println("rating saved locally, write failed:", err)
				continue
			}
			fmt.Printf("rated movie %d: %d stars\n", movieID, value)

		case "ratings":
			user, ok := sess.CurrentUser()
			if !ok {
				fmt.Println("log in to see your ratings")
				continue
			}
			rated, err := client.Ratings(ctx, user.ID)
			if err != nil {
				fmt.Println("could not load ratings:", err)
				continue
			}
			if len(rated) == 0 {
				fmt.Println("no ratings yet")
				continue
			}
			for _, r := range rated {
				// The local map may hold a newer optimistic value.
				if local, ok := cache.Get(r.ID); ok {
					r.Rating = local
				}
				fmt.Println(formatRated(r))
			}

		default:
			fmt.Println("unknown command:", cmd)
		}
	}
}

func showHome(ctx context.Context, agg *aggregate.Aggregator) {
	snap, err := agg.LoadInitial(ctx)
	if err != nil {
		fmt.Println("failed to load the page:", err)
		fmt.Println("type 'home' to retry")
		return
	}

	if snap.Hero != nil {
		fmt.Printf("featured: %s (%d)\n", snap.Hero.Title, snap.Hero.ReleaseYear)
		if d := snap.HeroDetail; d != nil {
			if d.Tagline != "" {
				fmt.Println("  ", d.Tagline)
			}
			if d.Overview != "" {
				fmt.Println("  ", d.Overview)
			}
		}
	}
	if len(snap.Recommended) > 0 {
		fmt.Printf("top picks (%s):\n", snap.Basis)
		printMovies(snap.Recommended)
	}
	fmt.Println("trending now:")
	printMovies(snap.Trending)
	if len(snap.TopActors) > 0 {
		names := make([]string, 0, len(snap.TopActors))
		for _, a := range snap.TopActors {
			names = append(names, fmt.Sprintf("%s(%d)", a.Name, a.Count))
		}
		fmt.Println("top actors:", strings.Join(names, ", "))
	}

	genres := make([]string, 0, 3)
	seen := make(map[string]bool)
	for _, m := range snap.Trending {
		for _, g := range m.Genres {
			if !seen[g] && len(genres) < 3 {
				seen[g] = true
				genres = append(genres, g)
			}
		}
	}
	agg.LoadGenreRows(ctx, genres, func(genre string, movies []models.Movie) {
		if len(movies) == 0 {
			return
		}
		fmt.Printf("%s:\n", genre)
		printMovies(movies)
	})
}

// runFilter parses k=v pairs (genre=Action genre=Drama year=1990-2005
// rating=3 actor=Hanks) into criteria and runs the filtered search.
func runFilter(ctx context.Context, client *fetch.Client, rest string) {
	criteria := query.NewCriteria()
	for _, field := range strings.Fields(rest) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		switch key {
		case "genre":
			criteria.ToggleGenre(value)
		case "year":
			lo, hi, ok := strings.Cut(value, "-")
			if !ok {
				continue
			}
			if n, err := strconv.Atoi(lo); err == nil {
				criteria.SetYearMin(n)
			}
			if n, err := strconv.Atoi(hi); err == nil {
				criteria.SetYearMax(n)
			}
		case "rating":
			if n, err := strconv.Atoi(value); err == nil {
				criteria.SetMinRating(n)
			}
		case "actor":
			criteria.SetActor(value)
		}
	}

	movies, err := client.FilterMovies(ctx, query.Encode(criteria))
	if err != nil {
		fmt.Println("filter failed:", err)
		return
	}
	if len(movies) == 0 {
		fmt.Println("no movies found — try broadening the filters")
		return
	}
	printMovies(movies)
}

func formatRated(r models.RatedMovie) string {
	return fmt.Sprintf("  [%d] %s (%d): %d stars", r.ID, r.Title, r.ReleaseYear, r.Rating)
}

func printMovies(movies []models.Movie) {
	for _, m := range movies {
		extra := ""
		if m.PredictedRating > 0 {
			extra = fmt.Sprintf("  ~%.1f", m.PredictedRating)
		}
		fmt.Printf("  [%d] %s (%d) %s%s\n", m.ID, m.Title, m.ReleaseYear, strings.Join(m.Genres, "/"), extra)
	}
}

func printSearch(r search.Result) {
	if len(r.Movies) == 0 {
		fmt.Printf("no results for %q\n", r.Query)
		return
	}
	fmt.Printf("results for %q:\n", r.Query)
	printMovies(r.Movies)
}

func printOverlay(s overlay.Session) {
	switch s.State {
	case overlay.StateLoading:
		fmt.Printf("overlay: loading movie %d...\n", s.Target)
	case overlay.StateOpen:
		if s.Detail == nil {
			fmt.Printf("overlay: movie %d (details unavailable)\n", s.Target)
			return
		}
		d := s.Detail
		fmt.Printf("overlay: %s (%d)\n", d.Title, d.ReleaseYear)
		if d.Tagline != "" {
			fmt.Println("  ", d.Tagline)
		}
		if d.Overview != "" {
			fmt.Println("  ", d.Overview)
		}
		if d.Runtime > 0 {
			fmt.Printf("   %d min", d.Runtime)
			if d.Certification != "" {
				fmt.Printf(" · %s", d.Certification)
			}
			fmt.Println()
		}
		if d.TrailerURL != "" {
			fmt.Println("   trailer:", d.TrailerURL)
		}
	case overlay.StateClosed:
		fmt.Println("overlay closed")
	}
}

func logLevel(debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}
