package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()

	// Health check
	api.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// Feeds
	api.HandleFunc("/popular", handler.GetPopular).Methods("GET")
	api.HandleFunc("/recommend/{userID:[0-9]+}", handler.GetRecommendations).Methods("GET")

	// Movies
	api.HandleFunc("/movies/actors", handler.GetTopActors).Methods("GET")
	api.HandleFunc("/movies/actor/{name}", handler.GetMoviesByActor).Methods("GET")
	api.HandleFunc("/movies/genre/{genre}", handler.GetMoviesByGenre).Methods("GET")
	api.HandleFunc("/movies/filter", handler.FilterMovies).Methods("GET")
	api.HandleFunc("/movies/details/{id:[0-9]+}", handler.GetMovieDetails).Methods("GET")

	// Search
	api.HandleFunc("/search", handler.SearchMovies).Methods("GET")

	// Ratings
	api.HandleFunc("/ratings/{userID:[0-9]+}", handler.GetRatings).Methods("GET")
	api.HandleFunc("/rate", handler.RateMovie).Methods("POST")

	// Auth
	api.HandleFunc("/auth/login", handler.Login).Methods("POST")
	api.HandleFunc("/auth/signup", handler.Signup).Methods("POST")

	// Enable CORS
	r.Use(corsMiddleware)

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
