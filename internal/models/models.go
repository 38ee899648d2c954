package models

// Movie is the summary shape every list endpoint returns. It is a value
// object: produced by a fetch response and never mutated afterwards.
type Movie struct {
	ID              int      `json:"movie_id"`
	Title           string   `json:"title"`
	ReleaseYear     int      `json:"release_year"`
	Genres          []string `json:"genres"`
	Actors          []string `json:"actors,omitempty"`
	PosterURL       string   `json:"poster_url,omitempty"`
	TMDBID          int      `json:"tmdb_id,omitempty"`
	PredictedRating float64  `json:"predicted_rating,omitempty"`
}

// MovieDetail is the full per-movie payload behind the detail endpoint.
// Fetched lazily by identifier and not cached across overlay sessions.
type MovieDetail struct {
	Movie
	BackdropURL   string `json:"backdrop_url,omitempty"`
	Tagline       string `json:"tagline,omitempty"`
	Overview      string `json:"overview,omitempty"`
	Runtime       int    `json:"runtime,omitempty"`
	Certification string `json:"certification,omitempty"`
	TrailerURL    string `json:"trailer_url,omitempty"`
}

// Actor is one entry of the top-actors row.
type Actor struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// RatingEntry is one (movie, rating) pair for a user. Rating is 1-5;
// a missing entry means unrated.
type RatingEntry struct {
	MovieID int `json:"movie_id"`
	Rating  int `json:"rating"`
}

// Recommendations is the personalized feed response: a ranked list plus
// a tag naming what the ranking was based on.
type Recommendations struct {
	UserID  int     `json:"user_id"`
	Movies  []Movie `json:"recommendations"`
	Basis   string  `json:"basis"`
	Latency int     `json:"latency_ms,omitempty"`
}

// RatedMovie is a movie joined with the requesting user's rating, as
// returned by the per-user ratings endpoint.
type RatedMovie struct {
	Movie
	Rating int `json:"rating"`
}
