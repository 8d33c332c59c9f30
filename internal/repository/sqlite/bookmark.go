package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/bookmarks/internal/apperror"
	"github.com/sakif/bookmarks/internal/model"
	"github.com/sakif/bookmarks/internal/repository"
)

// compile-time check that *DB implements repository.BookmarkRepository
var _ repository.BookmarkRepository = (*DB)(nil)

// Create inserts a new bookmark and assigns its short code.
//
// SHORT CODE DERIVATION:
// The short code is the base36 encoding of the freshly assigned numeric id
// (strconv.FormatInt(id, 36) — "1", "2", ..., "a", ..., "z", "10", ...).
// Because AUTOINCREMENT ids are unique and never reused, the derived code is
// unique by construction — no random generation, no collision retry loop.
//
// The INSERT and the short-code UPDATE run in one transaction so no
// committed row is ever visible without its short code.
//
// The UNIQUE constraint on url is authoritative for global URL uniqueness:
// if two concurrent creates race past the service's pre-check, the loser's
// INSERT fails here and becomes apperror.Conflict.
func (db *DB) Create(ctx context.Context, bookmark *model.Bookmark) error {
	now := time.Now().UTC()
	bookmark.CreatedAt = now
	bookmark.UpdatedAt = now
	bookmark.Visits = 0

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	// Rollback is a no-op after Commit — safe to defer unconditionally.
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookmarks (user_id, url, body, visits, created_at, updated_at)
		 VALUES (?, ?, ?, 0, ?, ?)`,
		bookmark.UserID,
		bookmark.URL,
		bookmark.Body,
		bookmark.CreatedAt,
		bookmark.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "bookmarks.url") {
			return apperror.Conflict("url already exists")
		}
		return fmt.Errorf("sqlite: creating bookmark: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new bookmark id: %w", err)
	}
	bookmark.ID = id
	bookmark.ShortURL = strconv.FormatInt(id, 36)

	if _, err := tx.ExecContext(ctx,
		`UPDATE bookmarks SET short_url = ? WHERE id = ?`,
		bookmark.ShortURL, bookmark.ID,
	); err != nil {
		return fmt.Errorf("sqlite: setting short url for bookmark %d: %w", bookmark.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing bookmark %d: %w", bookmark.ID, err)
	}

	return nil
}

// GetByID retrieves a bookmark by id, scoped to its owner.
//
// OWNERSHIP COLLAPSING:
// The WHERE clause matches id AND user_id together, so a bookmark owned by a
// different user produces the exact same NotFound as a bookmark that doesn't
// exist. Callers can't probe for other users' bookmark ids.
func (db *DB) GetByID(ctx context.Context, ownerID string, id int64) (*model.Bookmark, error) {
	var b model.Bookmark

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, url, body, short_url, visits, created_at, updated_at
		 FROM bookmarks
		 WHERE id = ? AND user_id = ?`,
		id, ownerID,
	).Scan(
		&b.ID,
		&b.UserID,
		&b.URL,
		&b.Body,
		&b.ShortURL,
		&b.Visits,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("bookmark", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting bookmark %d: %w", id, err)
	}

	return &b, nil
}

// ListByOwner retrieves one page of the owner's bookmarks in id (insertion)
// order. The service layer computes pagination metadata from CountByOwner.
func (db *DB) ListByOwner(ctx context.Context, ownerID string, opts repository.ListOptions) ([]model.Bookmark, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 5
	}

	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, url, body, short_url, visits, created_at, updated_at
		 FROM bookmarks
		 WHERE user_id = ?
		 ORDER BY id
		 LIMIT ? OFFSET ?`,
		ownerID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing bookmarks: %w", err)
	}
	defer rows.Close()

	bookmarks := make([]model.Bookmark, 0, limit)

	for rows.Next() {
		var b model.Bookmark
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.URL, &b.Body, &b.ShortURL,
			&b.Visits, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning bookmark row: %w", err)
		}
		bookmarks = append(bookmarks, b)
	}

	// rows.Err() catches errors that happened DURING iteration.
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating bookmarks: %w", err)
	}

	return bookmarks, nil
}

// CountByOwner returns the total number of bookmarks the owner has.
func (db *DB) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookmarks WHERE user_id = ?`,
		ownerID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting bookmarks: %w", err)
	}
	return count, nil
}

// Update modifies a bookmark's url and body, scoped to its owner.
// short_url and visits are deliberately absent from the SET clause —
// they are immutable on this path.
//
// Same ownership collapsing as GetByID: zero rows affected means NotFound,
// whether the id doesn't exist or belongs to someone else.
func (db *DB) Update(ctx context.Context, bookmark *model.Bookmark) error {
	bookmark.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE bookmarks
		 SET url = ?, body = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		bookmark.URL,
		bookmark.Body,
		bookmark.UpdatedAt,
		bookmark.ID,
		bookmark.UserID,
	)
	if err != nil {
		// The url column's UNIQUE constraint also guards updates: moving a
		// bookmark onto a url some other row already holds is a conflict.
		if isUniqueViolation(err, "bookmarks.url") {
			return apperror.Conflict("url already exists")
		}
		return fmt.Errorf("sqlite: updating bookmark %d: %w", bookmark.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("bookmark", strconv.FormatInt(bookmark.ID, 10))
	}

	return nil
}

// Delete removes a bookmark, scoped to its owner. Deleting an id that is
// already gone (or never belonged to the caller) returns the same NotFound —
// a second delete is not an error class of its own.
func (db *DB) Delete(ctx context.Context, ownerID string, id int64) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM bookmarks WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting bookmark %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("bookmark", strconv.FormatInt(id, 10))
	}

	return nil
}

// StatsByOwner returns the owner's full visit-count listing, unpaginated.
func (db *DB) StatsByOwner(ctx context.Context, ownerID string) ([]model.BookmarkStats, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, url, short_url, visits
		 FROM bookmarks
		 WHERE user_id = ?
		 ORDER BY id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading bookmark stats: %w", err)
	}
	defer rows.Close()

	stats := make([]model.BookmarkStats, 0)
	for rows.Next() {
		var s model.BookmarkStats
		if err := rows.Scan(&s.ID, &s.URL, &s.ShortURL, &s.Visits); err != nil {
			return nil, fmt.Errorf("sqlite: scanning stats row: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating stats: %w", err)
	}

	return stats, nil
}

// ExistsByURL reports whether any user already bookmarked the url.
// URL uniqueness is global, not per-owner.
func (db *DB) ExistsByURL(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM bookmarks WHERE url = ?)`,
		url,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking url existence: %w", err)
	}
	return exists, nil
}

// ResolveVisit resolves a short code to its target URL and counts the visit.
//
// ATOMIC INCREMENT:
// `UPDATE ... SET visits = visits + 1 ... RETURNING url` is a single
// statement, so concurrent redirects to the same short code can never lose
// an increment — there is no read-modify-write window. RETURNING (SQLite
// 3.35+, supported by modernc) also saves the follow-up SELECT.
func (db *DB) ResolveVisit(ctx context.Context, shortURL string) (string, error) {
	var url string
	err := db.conn.QueryRowContext(ctx,
		`UPDATE bookmarks
		 SET visits = visits + 1
		 WHERE short_url = ?
		 RETURNING url`,
		shortURL,
	).Scan(&url)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", apperror.NotFound("bookmark", shortURL)
		}
		return "", fmt.Errorf("sqlite: resolving short url %s: %w", shortURL, err)
	}

	return url, nil
}
