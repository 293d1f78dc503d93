package server

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/jonathan/ghostpen/internal/db"
	"github.com/jonathan/ghostpen/internal/server/middleware"
	"github.com/jonathan/ghostpen/internal/types"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	users  *UserService
	jwt    *JWTService
	logger *zap.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(users *UserService, jwt *JWTService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt, logger: logger}
}

// Register creates an account and returns a token pair (201).
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		failWith(w, r, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		failWith(w, r, validationError(err), h.logger)
		return
	}

	user, err := h.users.Register(r.Context(), &req)
	if err != nil {
		h.logger.Warn("registration failed", zap.String("email", db.NormalizeEmail(req.Email)), zap.Error(err))
		failWith(w, r, err, h.logger)
		return
	}
	h.logger.Info("user registered", zap.String("user_id", user.ID.String()))
	h.issueTokens(w, r, http.StatusCreated, user)
}

// Login authenticates with email and password and returns a token pair.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		failWith(w, r, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		failWith(w, r, validationError(err), h.logger)
		return
	}

	user, err := h.users.Login(r.Context(), &req)
	if err != nil {
		h.logger.Warn("login failed", zap.String("email", db.NormalizeEmail(req.Email)))
		failWith(w, r, err, h.logger)
		return
	}
	h.issueTokens(w, r, http.StatusOK, user)
}

// Refresh exchanges a refresh token for a new token pair.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req types.RefreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		failWith(w, r, err, h.logger)
		return
	}
	if req.RefreshToken == "" {
		failWith(w, r, &ErrValidation{Field: "RefreshToken", Message: "required"}, h.logger)
		return
	}

	claims, err := h.jwt.ValidateToken(req.RefreshToken, TokenRefresh)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid refresh token"}, h.logger)
		return
	}
	user, err := h.users.Get(r.Context(), claims.UserID)
	if err != nil {
		// A deleted account cannot refresh.
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid refresh token"}, h.logger)
		return
	}
	h.issueTokens(w, r, http.StatusOK, user)
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserID(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"}, h.logger)
		return
	}
	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		failWith(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, user.Public(), h.logger)
}

func (h *AuthHandler) issueTokens(w http.ResponseWriter, r *http.Request, status int, user *db.User) {
	access, refresh, err := h.jwt.GeneratePair(&TokenSubject{ID: user.ID, Email: user.Email, Name: user.Name})
	if err != nil {
		failWith(w, r, err, h.logger)
		return
	}
	writeJSON(w, status, types.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		User:         user.Public(),
	}, h.logger)
}
