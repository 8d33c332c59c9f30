package model

import "time"

// Bookmark represents a saved URL owned by exactly one user.
//
// The `json:"..."` tags match the wire format of the public API — snake_case,
// with the full record (including visit count and timestamps) returned from
// create/get/update.
//
// FIELD NOTES:
//   - ID is the SQLite rowid (INTEGER PRIMARY KEY AUTOINCREMENT). Using the
//     numeric id lets us derive the short code deterministically.
//   - ShortURL is the base36 encoding of ID, assigned once at creation and
//     immutable afterwards. Base36 of a monotonically increasing integer can
//     never collide, so there is no retry loop.
//   - Visits is only ever mutated by the public redirect path, via an atomic
//     UPDATE in the store. Owner-scoped updates never touch it.
type Bookmark struct {
	ID        int64     `json:"id"         db:"id"`
	UserID    string    `json:"-"          db:"user_id"`
	URL       string    `json:"url"        db:"url"`
	Body      string    `json:"body"       db:"body"`
	ShortURL  string    `json:"short_url"  db:"short_url"`
	Visits    int64     `json:"visits"     db:"visits"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// BookmarkStats is the per-bookmark slice of the owner's stats view:
// just the identifiers and the visit counter, no body or timestamps.
type BookmarkStats struct {
	ID       int64  `json:"id"`
	URL      string `json:"url"`
	ShortURL string `json:"short_url"`
	Visits   int64  `json:"visits"`
}
