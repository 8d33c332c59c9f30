package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/bookmarks/internal/auth"
	"github.com/sakif/bookmarks/internal/service"
)

// AuthHandler exposes account registration, login, and token refresh.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister → create an account from username/email/password
//   - HandleLogin    → verify credentials, issue access + refresh tokens
//   - HandleMe       → return the currently logged-in user's profile
//   - HandleRefresh  → mint a new access token from a valid refresh token
//
// The handler only decodes requests and encodes responses; credential
// checking, validation, and token issuing all live in the auth service.
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected here;
// the handler has no knowledge of how they're constructed.
func NewAuthHandler(authService *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   authService,
		logger: logger,
	}
}

// registerRequest is the JSON body for HandleRegister.
type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginRequest is the JSON body for HandleLogin.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse is the public view of a user. The password hash never
// leaves the server, and internal ids stay internal.
type userResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// HandleRegister creates a new account.
//
// HTTP: POST /api/v1/auth/register
//
// Responses:
//   - 201 {"message": "user created", "user": {"username": ..., "email": ...}}
//   - 400 when validation fails (short password, bad email, ...)
//   - 409 when the email or username is already taken
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	user, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "user created",
		"user": userResponse{
			Username: user.Username,
			Email:    user.Email,
		},
	})
}

// HandleLogin verifies credentials and issues a token pair.
//
// HTTP: POST /api/v1/auth/login
//
// Response (200):
//
//	{"user": {"access": ..., "refresh": ..., "username": ..., "email": ...}}
//
// Both unknown emails and wrong passwords produce the same 401, so the
// endpoint can't be used to probe which addresses have accounts.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("user logged in", slog.String("userID", result.User.ID))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user": map[string]string{
			"access":   result.AccessToken,
			"refresh":  result.RefreshToken,
			"username": result.User.Username,
			"email":    result.User.Email,
		},
	})
}

// HandleMe returns the currently authenticated user's profile.
//
// HTTP: GET /api/v1/auth/me
// Auth: access token required (RequireAuth middleware sets userID in context)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	// Auth middleware has already validated the JWT and set userID in context.
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		// Should never happen on a RequireAuth-protected route, but be safe.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return
	}

	user, err := h.auth.Me(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		Username: user.Username,
		Email:    user.Email,
	})
}

// HandleRefresh mints a fresh access token.
//
// HTTP: GET /api/v1/auth/token/refresh
// Auth: refresh token required (RequireRefresh middleware)
//
// The refresh token itself is not rotated; the client keeps using it
// until it expires and then logs in again.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return
	}

	access, err := h.auth.Refresh(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}
