package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/mohanemg07-web/my-movie-recomendations/internal/auth"
	"github.com/mohanemg07-web/my-movie-recomendations/internal/store"
)

// CredentialsRequest is the body of the login and signup endpoints.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse carries the bearer token plus the user identity.
type AuthResponse struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

type UserInfo struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// Login handles POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password required")
		return
	}

	user, err := h.store.Authenticate(r.Context(), req.Username, req.Password)
	if errors.Is(err, store.ErrInvalidCredentials) {
		respondError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	if err != nil {
		h.logger.Error("login failed", "err", err)
		respondError(w, http.StatusInternalServerError, "authentication failed")
		return
	}

	h.respondWithToken(w, user)
}

// Signup handles POST /api/auth/signup
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password required")
		return
	}

	user, err := h.store.CreateUser(r.Context(), req.Username, req.Password)
	if errors.Is(err, store.ErrUsernameTaken) {
		respondError(w, http.StatusBadRequest, "username already exists")
		return
	}
	if err != nil {
		h.logger.Error("signup failed", "err", err)
		respondError(w, http.StatusInternalServerError, "signup failed")
		return
	}

	h.respondWithToken(w, user)
}

func (h *Handler) respondWithToken(w http.ResponseWriter, user store.User) {
	token, err := auth.GenerateToken(int(user.ID), user.Username)
	if err != nil {
		h.logger.Error("token generation failed", "err", err)
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respondJSON(w, http.StatusOK, AuthResponse{
		Token: token,
		User:  UserInfo{ID: int(user.ID), Username: user.Username},
	})
}

// claimsFromRequest extracts and validates the bearer token.
func claimsFromRequest(r *http.Request) (*auth.Claims, bool) {
	header := r.Header.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" || token == header {
		return nil, false
	}
	claims, err := auth.ValidateToken(token)
	if err != nil {
		return nil, false
	}
	return claims, true
}
