package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/digital-menu/api/internal/auth"
	"github.com/digital-menu/api/internal/enum"
	"github.com/digital-menu/api/internal/logger"
)

// adminSubject is the token subject of the single admin account.
const adminSubject = "admin"

// AuthHandler handles admin authentication.
type AuthHandler struct {
	passwordHash string
	jwtSecret    string
}

// NewAuthHandler creates a new AuthHandler. passwordHash is the bcrypt hash
// of the admin password; an empty hash disables login.
func NewAuthHandler(passwordHash, jwtSecret string) *AuthHandler {
	return &AuthHandler{passwordHash: passwordHash, jwtSecret: jwtSecret}
}

// RegisterRoutes registers auth endpoints on the given Chi router.
// Expected to be mounted at /admin, outside the admin authentication.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/login", h.Login)
}

// --- Request / Response types ---

type loginRequest struct {
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	Role        string `json:"role"`
}

// --- Handlers ---

// Login exchanges the admin password for an access token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "password is required"})
		return
	}

	if err := auth.CheckPassword(h.passwordHash, req.Password); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	token, err := auth.GenerateToken(h.jwtSecret, adminSubject, enum.RoleAdmin)
	if err != nil {
		logger.WithCtx(r.Context()).Error("generate token", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		ExpiresIn:   int(auth.TokenTTL.Seconds()),
		Role:        enum.RoleAdmin,
	})
}
