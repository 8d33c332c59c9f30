// Package repository declares the storage interfaces the service layer
// depends on. The sqlite subpackage provides the real implementation; tests
// substitute in-memory mocks.
//
// Services receive these interfaces (not *sqlite.DB) so the storage engine
// can be swapped — or mocked — without touching business logic.
package repository

import (
	"context"

	"github.com/sakif/bookmarks/internal/model"
)

// ListOptions carries LIMIT/OFFSET pagination for owner-scoped listings.
type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository persists user accounts.
//
// Create must enforce the uniqueness of both username and email and return
// apperror.Conflict when either is already taken — the constraint in the
// store is authoritative, including under concurrent registrations.
// GetByEmail returns apperror.NotFound for unknown emails; the auth service
// folds that into its uniform "wrong credentials" response.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// BookmarkRepository persists bookmarks.
//
// All read/write methods except ExistsByURL and ResolveVisit are owner-scoped:
// they match on (owner, id) together, so a bookmark owned by someone else is
// indistinguishable from one that doesn't exist (both are apperror.NotFound).
//
// ResolveVisit is the single unauthenticated mutation path: it atomically
// increments the visit counter for the short code and returns the target URL.
type BookmarkRepository interface {
	Create(ctx context.Context, bookmark *model.Bookmark) error
	GetByID(ctx context.Context, ownerID string, id int64) (*model.Bookmark, error)
	ListByOwner(ctx context.Context, ownerID string, opts ListOptions) ([]model.Bookmark, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
	Update(ctx context.Context, bookmark *model.Bookmark) error
	Delete(ctx context.Context, ownerID string, id int64) error
	StatsByOwner(ctx context.Context, ownerID string) ([]model.BookmarkStats, error)
	ExistsByURL(ctx context.Context, url string) (bool, error)
	ResolveVisit(ctx context.Context, shortURL string) (string, error)
}
