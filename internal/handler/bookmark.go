package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/bookmarks/internal/apperror"
	"github.com/sakif/bookmarks/internal/auth"
	"github.com/sakif/bookmarks/internal/service"
)

// BookmarkHandler exposes the authenticated bookmark CRUD endpoints.
//
// Every route here sits behind RequireAuth, so the middleware guarantees
// a userID in the request context. The service scopes every query to
// that owner; a bookmark belonging to someone else looks exactly like
// one that doesn't exist.
type BookmarkHandler struct {
	bookmarks *service.BookmarkService
	logger    *slog.Logger
}

// NewBookmarkHandler creates a BookmarkHandler with injected dependencies.
func NewBookmarkHandler(bookmarks *service.BookmarkService, logger *slog.Logger) *BookmarkHandler {
	return &BookmarkHandler{
		bookmarks: bookmarks,
		logger:    logger,
	}
}

// bookmarkRequest is the JSON body for create and update.
type bookmarkRequest struct {
	URL  string `json:"url"`
	Body string `json:"body"`
}

// mustUserID pulls the authenticated user's id out of the context.
// On RequireAuth-protected routes it always succeeds; the false branch
// exists for safety if a route is ever wired without the middleware.
func mustUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return "", false
	}
	return userID, true
}

// bookmarkID parses the {id} path parameter. A non-numeric id can't
// match any bookmark, so it gets the same 404 as an unknown one.
func bookmarkID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperror.NotFound("bookmark", raw)
	}
	return id, nil
}

// HandleCreate saves a new bookmark.
//
// HTTP: POST /api/v1/bookmarks
//
// Responses:
//   - 201 with the full bookmark, including its generated short_url
//   - 400 when the url is syntactically invalid
//   - 409 when any user has already bookmarked the url
func (h *BookmarkHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := mustUserID(w, r)
	if !ok {
		return
	}

	var req bookmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	bookmark, err := h.bookmarks.Create(r.Context(), userID, req.URL, req.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("bookmark created",
		slog.Int64("id", bookmark.ID),
		slog.String("shortURL", bookmark.ShortURL),
	)

	writeJSON(w, http.StatusCreated, bookmark)
}

// HandleList returns one page of the caller's bookmarks.
//
// HTTP: GET /api/v1/bookmarks?page=1&per_page=5
//
// Response (200):
//
//	{"data": [...], "meta": {"page": 1, "pages": 3, "total_count": 12, ...}}
//
// Unparseable or non-positive page parameters fall back to the defaults
// rather than erroring.
func (h *BookmarkHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := mustUserID(w, r)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	result, err := h.bookmarks.List(r.Context(), userID, page, perPage)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": result.Items,
		"meta": result.Meta,
	})
}

// HandleGetByID returns a single bookmark owned by the caller.
//
// HTTP: GET /api/v1/bookmarks/{id}
func (h *BookmarkHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := mustUserID(w, r)
	if !ok {
		return
	}

	id, err := bookmarkID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	bookmark, err := h.bookmarks.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, bookmark)
}

// HandleUpdate replaces a bookmark's url and body.
//
// HTTP: PUT/PATCH /api/v1/bookmarks/{id}
//
// The short_url and visit count are immutable; only url and body change.
func (h *BookmarkHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := mustUserID(w, r)
	if !ok {
		return
	}

	id, err := bookmarkID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req bookmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	bookmark, err := h.bookmarks.Update(r.Context(), userID, id, req.URL, req.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, bookmark)
}

// HandleDelete removes a bookmark. Its short link stops resolving.
//
// HTTP: DELETE /api/v1/bookmarks/{id}
//
// Responds 204 with an empty body on success.
func (h *BookmarkHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := mustUserID(w, r)
	if !ok {
		return
	}

	id, err := bookmarkID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.bookmarks.Delete(r.Context(), userID, id); err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("bookmark deleted", slog.Int64("id", id))

	w.WriteHeader(http.StatusNoContent)
}

// HandleStats returns visit counts for all of the caller's bookmarks.
//
// HTTP: GET /api/v1/bookmarks/stats
//
// Response (200): {"data": [{"id": ..., "url": ..., "short_url": ..., "visits": ...}]}
func (h *BookmarkHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := mustUserID(w, r)
	if !ok {
		return
	}

	stats, err := h.bookmarks.Stats(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": stats})
}
