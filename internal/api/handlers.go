package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/mux"

	"github.com/mohanemg07-web/my-movie-recomendations/internal/models"
	"github.com/mohanemg07-web/my-movie-recomendations/internal/store"
)

const (
	popularLimit  = 20
	rowLimit      = 10
	filterLimit   = 60
	topActorLimit = 20

	// recommendBasis tags what the stand-in ranking was based on.
	recommendBasis = "popular_unrated"
)

type Handler struct {
	store  *store.Store
	logger *slog.Logger
}

func NewHandler(st *store.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: st, logger: logger}
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// HealthCheck handles GET /api/health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetPopular handles GET /api/popular — the ranked trending list.
func (h *Handler) GetPopular(w http.ResponseWriter, r *http.Request) {
	movies, err := h.store.Popular(r.Context(), popularLimit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, movies)
}

// GetRecommendations handles GET /api/recommend/{userID}
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, err := strconv.Atoi(mux.Vars(r)["userID"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	movies, err := h.store.RecommendFor(r.Context(), userID, rowLimit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, models.Recommendations{
		UserID:  userID,
		Movies:  movies,
		Basis:   recommendBasis,
		Latency: int(time.Since(start).Milliseconds()),
	})
}

// GetTopActors handles GET /api/movies/actors
func (h *Handler) GetTopActors(w http.ResponseWriter, r *http.Request) {
	actors, err := h.store.TopActors(r.Context(), topActorLimit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, actors)
}

// GetMoviesByActor handles GET /api/movies/actor/{name}
func (h *Handler) GetMoviesByActor(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	movies, err := h.store.ByActor(r.Context(), name, rowLimit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, movies)
}

// GetMoviesByGenre handles GET /api/movies/genre/{genre}
func (h *Handler) GetMoviesByGenre(w http.ResponseWriter, r *http.Request) {
	genre := mux.Vars(r)["genre"]
	movies, err := h.store.ByGenre(r.Context(), genre, rowLimit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, movies)
}

// FilterMovies handles GET /api/movies/filter with the canonical
// descriptor: genres (comma-joined), year_min, year_max, min_rating,
// actor. Absent fields are unconstrained.
func (h *Handler) FilterMovies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := store.FilterParams{
		Actor: strings.TrimSpace(q.Get("actor")),
	}
	if raw := q.Get("genres"); raw != "" {
		for _, g := range strings.Split(raw, ",") {
			if g = strings.TrimSpace(g); g != "" {
				params.Genres = append(params.Genres, g)
			}
		}
	}
	params.YearMin, _ = strconv.Atoi(q.Get("year_min"))
	params.YearMax, _ = strconv.Atoi(q.Get("year_max"))
	params.MinRating, _ = strconv.Atoi(q.Get("min_rating"))

	movies, err := h.store.Filter(r.Context(), params, filterLimit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, movies)
}

// SearchMovies handles GET /api/search?q= — title or genre substring.
func (h *Handler) SearchMovies(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if utf8.RuneCountInString(q) < 2 {
		respondJSON(w, http.StatusOK, []models.Movie{})
		return
	}
	movies, err := h.store.Search(r.Context(), q, rowLimit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, movies)
}

// GetMovieDetails handles GET /api/movies/details/{id}
func (h *Handler) GetMovieDetails(w http.ResponseWriter, r *http.Request) {
	movieID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid movie id")
		return
	}

	detail, err := h.store.Details(r.Context(), movieID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "movie not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

// GetRatings handles GET /api/ratings/{userID}
func (h *Handler) GetRatings(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(mux.Vars(r)["userID"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	rated, err := h.store.RatingsFor(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, rated)
}

// RateRequest is the body of POST /api/rate.
type RateRequest struct {
	UserID  int `json:"user_id"`
	MovieID int `json:"movie_id"`
	Rating  int `json:"rating"`
}

// RateMovie handles POST /api/rate. The bearer token must belong to
// the user the rating is submitted for.
func (h *Handler) RateMovie(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromRequest(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req RateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == 0 || req.MovieID == 0 || req.Rating == 0 {
		respondError(w, http.StatusBadRequest, "user_id, movie_id and rating required")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		respondError(w, http.StatusBadRequest, "rating must be 1-5")
		return
	}
	if claims.UserID != req.UserID {
		respondError(w, http.StatusForbidden, "cannot rate for another user")
		return
	}

	if err := h.store.UpsertRating(r.Context(), req.UserID, req.MovieID, req.Rating); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "rating saved"})
}
