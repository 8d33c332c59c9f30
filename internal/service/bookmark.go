// Package service — bookmark business logic.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// BookmarkService accepts primitives and returns domain models/errors — it
// has zero knowledge of HTTP. The handler translates apperror kinds into
// status codes; the repository owns SQL. Ownership scoping lives in the
// repository's WHERE clauses, so this layer never has to compare user ids.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/bookmarks/internal/apperror"
	"github.com/sakif/bookmarks/internal/model"
	"github.com/sakif/bookmarks/internal/repository"
)

// Pagination defaults. per_page=5 is deliberately small — bookmark bodies
// are free text and the list endpoint returns full records.
const (
	DefaultPage    = 1
	DefaultPerPage = 5
	MaxPerPage     = 100
)

// BookmarkService handles business logic for bookmarks.
type BookmarkService struct {
	bookmarks repository.BookmarkRepository
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewBookmarkService creates a new BookmarkService.
func NewBookmarkService(bookmarks repository.BookmarkRepository, logger *slog.Logger) *BookmarkService {
	return &BookmarkService{
		bookmarks: bookmarks,
		validate:  validator.New(),
		logger:    logger,
	}
}

// PageMeta describes one page of a paginated listing.
// PrevPage/NextPage are pointers so they serialize as null when absent,
// rather than a misleading 0.
type PageMeta struct {
	Page       int   `json:"page"`
	Pages      int   `json:"pages"`
	TotalCount int64 `json:"total_count"`
	PrevPage   *int  `json:"prev_page"`
	NextPage   *int  `json:"next_page"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// BookmarkPage is the result of List: one page of bookmarks plus metadata.
type BookmarkPage struct {
	Items []model.Bookmark
	Meta  PageMeta
}

// Create validates and saves a new bookmark for ownerID.
//
// URL RULES:
//   - syntax: must parse as an absolute http(s)-style URL (validator "url" tag)
//   - uniqueness: GLOBAL — a url bookmarked by anyone, not just this owner,
//     is a conflict. The pre-check gives the friendly error; the store's
//     UNIQUE constraint settles races.
//
// The repository assigns the id, the derived short code, visits=0, and
// timestamps.
func (s *BookmarkService) Create(ctx context.Context, ownerID, url, body string) (*model.Bookmark, error) {
	if s.validate.Var(url, "required,url") != nil {
		return nil, apperror.ValidationFailed("url", "enter a valid url")
	}

	exists, err := s.bookmarks.ExistsByURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("service/bookmark: checking url: %w", err)
	}
	if exists {
		return nil, apperror.Conflict("url already exists")
	}

	bookmark := &model.Bookmark{
		UserID: ownerID,
		URL:    url,
		Body:   body,
	}
	if err := s.bookmarks.Create(ctx, bookmark); err != nil {
		return nil, err
	}

	s.logger.Info("bookmark created",
		slog.Int64("id", bookmark.ID),
		slog.String("shortURL", bookmark.ShortURL),
		slog.String("userID", ownerID),
	)

	return bookmark, nil
}

// List returns one page of the owner's bookmarks, in stable id (insertion)
// order, plus pagination metadata.
//
// Non-positive page/perPage values are clamped to the defaults (1 and 5)
// rather than rejected — the query parameters are advisory, and clamping
// keeps the endpoint deterministic for any input.
func (s *BookmarkService) List(ctx context.Context, ownerID string, page, perPage int) (*BookmarkPage, error) {
	if page <= 0 {
		page = DefaultPage
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	items, err := s.bookmarks.ListByOwner(ctx, ownerID, repository.ListOptions{
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	})
	if err != nil {
		return nil, fmt.Errorf("service/bookmark: listing: %w", err)
	}

	total, err := s.bookmarks.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("service/bookmark: counting: %w", err)
	}

	pages := int((total + int64(perPage) - 1) / int64(perPage))

	meta := PageMeta{
		Page:       page,
		Pages:      pages,
		TotalCount: total,
		HasPrev:    page > 1,
		HasNext:    page < pages,
	}
	if meta.HasPrev {
		prev := page - 1
		meta.PrevPage = &prev
	}
	if meta.HasNext {
		next := page + 1
		meta.NextPage = &next
	}

	return &BookmarkPage{Items: items, Meta: meta}, nil
}

// Get returns a single bookmark owned by ownerID.
// A bookmark owned by someone else yields the same NotFound as a missing id.
func (s *BookmarkService) Get(ctx context.Context, ownerID string, id int64) (*model.Bookmark, error) {
	return s.bookmarks.GetByID(ctx, ownerID, id)
}

// Update modifies the url and body of an owned bookmark. short_url and the
// visit counter are immutable here.
//
// The new url is syntax-checked like Create, but there is NO global
// uniqueness pre-check on this path — that asymmetry mirrors the create
// flow's contract. The store's UNIQUE url constraint still rejects moving
// onto a url another row holds, surfacing as a conflict.
func (s *BookmarkService) Update(ctx context.Context, ownerID string, id int64, url, body string) (*model.Bookmark, error) {
	if s.validate.Var(url, "required,url") != nil {
		return nil, apperror.ValidationFailed("url", "enter a valid url")
	}

	// Fetch-then-update: confirms existence/ownership first and gives us the
	// full record to return.
	bookmark, err := s.bookmarks.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	bookmark.URL = url
	bookmark.Body = body

	if err := s.bookmarks.Update(ctx, bookmark); err != nil {
		return nil, err
	}

	s.logger.Info("bookmark updated",
		slog.Int64("id", bookmark.ID),
		slog.String("userID", ownerID),
	)

	return bookmark, nil
}

// Delete hard-deletes an owned bookmark. Deleting an id that is already gone
// yields NotFound — the same signal as deleting someone else's bookmark.
func (s *BookmarkService) Delete(ctx context.Context, ownerID string, id int64) error {
	if err := s.bookmarks.Delete(ctx, ownerID, id); err != nil {
		return err
	}

	s.logger.Info("bookmark deleted",
		slog.Int64("id", id),
		slog.String("userID", ownerID),
	)
	return nil
}

// Stats returns the owner's visit counters for every bookmark, unpaginated.
func (s *BookmarkService) Stats(ctx context.Context, ownerID string) ([]model.BookmarkStats, error) {
	stats, err := s.bookmarks.StatsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("service/bookmark: loading stats: %w", err)
	}
	return stats, nil
}
