package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// seedEntry is the JSON shape of a catalog seed file.
type seedEntry struct {
	Title         string   `json:"title"`
	ReleaseYear   int      `json:"release_year"`
	Genres        []string `json:"genres"`
	Actors        []string `json:"actors"`
	PosterURL     string   `json:"poster_url"`
	BackdropURL   string   `json:"backdrop_url"`
	Tagline       string   `json:"tagline"`
	Overview      string   `json:"overview"`
	Runtime       int      `json:"runtime"`
	Certification string   `json:"certification"`
	TrailerURL    string   `json:"trailer_url"`
	TMDBID        int      `json:"tmdb_id"`
}

// SeedFromFile loads a JSON catalog and inserts it when the store is
// empty. A missing file is not an error; the server just starts with
// whatever the database already holds.
func (s *Store) SeedFromFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var entries []seedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return 0, fmt.Errorf("parse seed file %s: %w", path, err)
	}

	rows := make([]Movie, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, Movie{
			Title:         e.Title,
			ReleaseYear:   int64(e.ReleaseYear),
			Genres:        JoinList(e.Genres),
			Actors:        JoinList(e.Actors),
			PosterURL:     e.PosterURL,
			BackdropURL:   e.BackdropURL,
			Tagline:       e.Tagline,
			Overview:      e.Overview,
			Runtime:       int64(e.Runtime),
			Certification: e.Certification,
			TrailerURL:    e.TrailerURL,
			TMDBID:        int64(e.TMDBID),
		})
	}
	return s.SeedMovies(ctx, rows)
}
