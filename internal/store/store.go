// Package store provides SQLite persistence for the companion API
// server: the movie catalog, user accounts and rating entries.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"golang.org/x/crypto/bcrypt"

	_ "modernc.org/sqlite"

	"github.com/mohanemg07-web/my-movie-recomendations/internal/models"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already exists")
)

type Store struct {
	sqldb *sql.DB
	db    *bun.DB
}

// Movie is the catalog row. Genres and actors are pipe-joined text
// columns, matching the upstream dataset format.
type Movie struct {
	bun.BaseModel `bun:"table:movies,alias:m"`

	ID            int64  `bun:"id,pk,autoincrement"`
	Title         string `bun:"title,notnull"`
	ReleaseYear   int64  `bun:"release_year,notnull"`
	Genres        string `bun:"genres,notnull"`
	Actors        string `bun:"actors,notnull"`
	PosterURL     string `bun:"poster_url"`
	BackdropURL   string `bun:"backdrop_url"`
	Tagline       string `bun:"tagline"`
	Overview      string `bun:"overview"`
	Runtime       int64  `bun:"runtime"`
	Certification string `bun:"certification"`
	TrailerURL    string `bun:"trailer_url"`
	TMDBID        int64  `bun:"tmdb_id"`

	RatingCount int64   `bun:"rating_count,scanonly"`
	AvgRating   float64 `bun:"avg_rating,scanonly"`
}

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64  `bun:"id,pk,autoincrement"`
	Username     string `bun:"username,notnull"`
	PasswordHash string `bun:"password_hash,notnull"`
	CreatedAt    string `bun:"created_at,notnull"`
}

type Rating struct {
	bun.BaseModel `bun:"table:ratings,alias:r"`

	UserID    int64  `bun:"user_id,pk"`
	MovieID   int64  `bun:"movie_id,pk"`
	Rating    int64  `bun:"rating,notnull"`
	UpdatedAt string `bun:"updated_at,notnull"`
}

// Open connects to the SQLite database at dsn, creating the schema if
// needed. Pass "file::memory:?cache=shared" for an in-memory store.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("database path is required")
	}

	if !strings.Contains(dsn, ":memory:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o750); err != nil {
			return nil, err
		}
	}

	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := initSchema(ctx, sqldb); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{sqldb: sqldb, db: bun.NewDB(sqldb, sqlitedialect.New())}, nil
}

func (s *Store) Close() error { return s.sqldb.Close() }

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS movies (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	release_year INTEGER NOT NULL,
	genres TEXT NOT NULL,
	actors TEXT NOT NULL DEFAULT '',
	poster_url TEXT,
	backdrop_url TEXT,
	tagline TEXT,
	overview TEXT,
	runtime INTEGER,
	certification TEXT,
	trailer_url TEXT,
	tmdb_id INTEGER
);
CREATE INDEX IF NOT EXISTS idx_movies_year ON movies(release_year);
CREATE INDEX IF NOT EXISTS idx_movies_title ON movies(title);

CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS ratings (
	user_id INTEGER NOT NULL,
	movie_id INTEGER NOT NULL,
	rating INTEGER NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (user_id, movie_id)
);
CREATE INDEX IF NOT EXISTS idx_ratings_movie ON ratings(movie_id);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SeedMovies inserts catalog rows when the table is empty; re-running
// against a populated store is a no-op.
func (s *Store) SeedMovies(ctx context.Context, rows []Movie) (int, error) {
	count, err := s.db.NewSelect().Model((*Movie)(nil)).Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 || len(rows) == 0 {
		return 0, nil
	}
	if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Popular returns the trending list: most-rated first, highest average
// as tiebreak, id as the final stable order.
func (s *Store) Popular(ctx context.Context, limit int) ([]models.Movie, error) {
	var rows []Movie
	err := s.db.NewSelect().
		Model(&rows).
		ColumnExpr("m.*").
		ColumnExpr("(SELECT COUNT(*) FROM ratings r WHERE r.movie_id = m.id) AS rating_count").
		ColumnExpr("(SELECT COALESCE(AVG(rating), 0.0) FROM ratings r WHERE r.movie_id = m.id) AS avg_rating").
		OrderExpr("rating_count DESC, avg_rating DESC, m.id ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return summaries(rows), nil
}

// ByGenre returns the row for one genre.
func (s *Store) ByGenre(ctx context.Context, genre string, limit int) ([]models.Movie, error) {
	var rows []Movie
	err := s.db.NewSelect().
		Model(&rows).
		Where("m.genres LIKE ?", "%"+genre+"%").
		OrderExpr("m.id ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return summaries(rows), nil
}

// ByActor returns movies featuring the actor (substring match).
func (s *Store) ByActor(ctx context.Context, actor string, limit int) ([]models.Movie, error) {
	var rows []Movie
	err := s.db.NewSelect().
		Model(&rows).
		Where("m.actors LIKE ?", "%"+actor+"%").
		OrderExpr("m.id ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return summaries(rows), nil
}

// TopActors aggregates actor appearance counts across the catalog.
// The catalog is small enough to fold in memory, as the original
// service did.
func (s *Store) TopActors(ctx context.Context, limit int) ([]models.Actor, error) {
	var rows []Movie
	if err := s.db.NewSelect().Model(&rows).Column("actors").Scan(ctx); err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, m := range rows {
		for _, actor := range splitList(m.Actors) {
			counts[actor]++
		}
	}

	actors := make([]models.Actor, 0, len(counts))
	for name, count := range counts {
		actors = append(actors, models.Actor{Name: name, Count: count})
	}
	sort.Slice(actors, func(i, j int) bool {
		if actors[i].Count != actors[j].Count {
			return actors[i].Count > actors[j].Count
		}
		return actors[i].Name < actors[j].Name
	})
	if len(actors) > limit {
		actors = actors[:limit]
	}
	return actors, nil
}

// FilterParams mirrors the canonical filter descriptor.
type FilterParams struct {
	Genres    []string
	YearMin   int
	YearMax   int
	MinRating int
	Actor     string
}

// Filter runs the combined genre/year/rating/actor query.
func (s *Store) Filter(ctx context.Context, p FilterParams, limit int) ([]models.Movie, error) {
	q := s.db.NewSelect().
		Model((*Movie)(nil)).
		ColumnExpr("m.*").
		ColumnExpr("(SELECT COALESCE(AVG(rating), 0.0) FROM ratings r WHERE r.movie_id = m.id) AS avg_rating")

	for _, genre := range p.Genres {
		q = q.Where("m.genres LIKE ?", "%"+genre+"%")
	}
	if p.YearMin > 0 {
		q = q.Where("m.release_year >= ?", p.YearMin)
	}
	if p.YearMax > 0 {
		q = q.Where("m.release_year <= ?", p.YearMax)
	}
	if p.Actor != "" {
		q = q.Where("m.actors LIKE ?", "%"+p.Actor+"%")
	}
	if p.MinRating > 0 {
		q = q.Where("(SELECT COALESCE(AVG(rating), 0.0) FROM ratings r WHERE r.movie_id = m.id) >= ?", p.MinRating)
	}

	var rows []Movie
	if err := q.OrderExpr("m.id ASC").Limit(limit).Scan(ctx, &rows); err != nil {
		return nil, err
	}
	return summaries(rows), nil
}

// Search matches the query against title or genres.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]models.Movie, error) {
	var rows []Movie
	err := s.db.NewSelect().
		Model(&rows).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("m.title LIKE ?", "%"+query+"%").
				WhereOr("m.genres LIKE ?", "%"+query+"%")
		}).
		OrderExpr("m.id ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return summaries(rows), nil
}

// Details returns the full detail payload for one movie.
func (s *Store) Details(ctx context.Context, movieID int) (*models.MovieDetail, error) {
	var row Movie
	err := s.db.NewSelect().Model(&row).Where("m.id = ?", movieID).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	detail := &models.MovieDetail{
		Movie:         summary(row),
		BackdropURL:   row.BackdropURL,
		Tagline:       row.Tagline,
		Overview:      row.Overview,
		Runtime:       int(row.Runtime),
		Certification: row.Certification,
		TrailerURL:    row.TrailerURL,
	}
	return detail, nil
}

// RatingsFor returns the movies a user has rated, joined with the
// rating values, most recently rated first.
func (s *Store) RatingsFor(ctx context.Context, userID int) ([]models.RatedMovie, error) {
	var entries []Rating
	err := s.db.NewSelect().
		Model(&entries).
		Where("r.user_id = ?", userID).
		OrderExpr("r.updated_at DESC, r.movie_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return []models.RatedMovie{}, nil
	}

	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.MovieID)
	}
	var rows []Movie
	err = s.db.NewSelect().
		Model(&rows).
		Where("m.id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]Movie, len(rows))
	for _, m := range rows {
		byID[m.ID] = m
	}

	rated := make([]models.RatedMovie, 0, len(entries))
	for _, e := range entries {
		m, ok := byID[e.MovieID]
		if !ok {
			continue
		}
		rated = append(rated, models.RatedMovie{
			Movie:  summary(m),
			Rating: int(e.Rating),
		})
	}
	return rated, nil
}

// UpsertRating creates or overwrites one (user, movie) rating.
func (s *Store) UpsertRating(ctx context.Context, userID, movieID, rating int) error {
	row := Rating{
		UserID:    int64(userID),
		MovieID:   int64(movieID),
		Rating:    int64(rating),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	_, err := s.db.NewInsert().
		Model(&row).
		On("CONFLICT (user_id, movie_id) DO UPDATE").
		Set("rating = EXCLUDED.rating").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// RecommendFor is the stand-in personalized ranking: the most popular
// movies the user has not rated yet, with the catalog average attached
// as the predicted rating.
func (s *Store) RecommendFor(ctx context.Context, userID, limit int) ([]models.Movie, error) {
	var rows []Movie
	err := s.db.NewSelect().
		Model(&rows).
		ColumnExpr("m.*").
		ColumnExpr("(SELECT COUNT(*) FROM ratings r WHERE r.movie_id = m.id) AS rating_count").
		ColumnExpr("(SELECT COALESCE(AVG(rating), 0.0) FROM ratings r WHERE r.movie_id = m.id) AS avg_rating").
		Where("m.id NOT IN (SELECT movie_id FROM ratings WHERE user_id = ?)", userID).
		OrderExpr("rating_count DESC, avg_rating DESC, m.id ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	recs := make([]models.Movie, 0, len(rows))
	for _, row := range rows {
		m := summary(row)
		m.PredictedRating = row.AvgRating
		recs = append(recs, m)
	}
	return recs, nil
}

// CreateUser registers an account with a bcrypt-hashed password.
func (s *Store) CreateUser(ctx context.Context, username, password string) (User, error) {
	exists, err := s.db.NewSelect().
		Model((*User)(nil)).
		Where("username = ?", username).
		Exists(ctx)
	if err != nil {
		return User{}, err
	}
	if exists {
		return User{}, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	user := User{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := s.db.NewInsert().Model(&user).Exec(ctx); err != nil {
		return User{}, err
	}
	return user, nil
}

// Authenticate verifies credentials and returns the user.
func (s *Store) Authenticate(ctx context.Context, username, password string) (User, error) {
	var user User
	err := s.db.NewSelect().Model(&user).Where("username = ?", username).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

func summary(m Movie) models.Movie {
	return models.Movie{
		ID:          int(m.ID),
		Title:       m.Title,
		ReleaseYear: int(m.ReleaseYear),
		Genres:      splitList(m.Genres),
		Actors:      splitList(m.Actors),
		PosterURL:   m.PosterURL,
		TMDBID:      int(m.TMDBID),
	}
}

func summaries(rows []Movie) []models.Movie {
	out := make([]models.Movie, 0, len(rows))
	for _, m := range rows {
		out = append(out, summary(m))
	}
	return out
}

func splitList(joined string) []string {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, "|")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinList is the inverse of the catalog's pipe-joined column format.
func JoinList(items []string) string { return strings.Join(items, "|") }
