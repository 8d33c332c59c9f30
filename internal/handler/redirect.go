package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/bookmarks/internal/service"
)

// RedirectHandler serves the public short links. It is the only
// unauthenticated surface besides registration and login.
type RedirectHandler struct {
	redirects *service.RedirectService
	logger    *slog.Logger
}

// NewRedirectHandler creates a RedirectHandler with injected dependencies.
func NewRedirectHandler(redirects *service.RedirectService, logger *slog.Logger) *RedirectHandler {
	return &RedirectHandler{
		redirects: redirects,
		logger:    logger,
	}
}

// HandleRedirect resolves a short code and bounces the visitor to the
// bookmarked url.
//
// HTTP: GET /{shortURL}
//
// The visit is counted in the same database statement that resolves the
// code, so concurrent visitors each add exactly one to the counter.
// Unknown codes get the standard 404 JSON body.
func (h *RedirectHandler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	shortURL := chi.URLParam(r, "shortURL")

	url, err := h.redirects.Resolve(r.Context(), shortURL)
	if err != nil {
		writeError(w, err)
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}
