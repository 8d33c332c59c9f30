package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/sakif/bookmarks/internal/apperror"
	"github.com/sakif/bookmarks/internal/model"
	"github.com/sakif/bookmarks/internal/repository"
)

// =========================================================================
// FAKE BOOKMARK REPOSITORY
// =========================================================================

// fakeBookmarkRepo is an in-memory implementation of
// repository.BookmarkRepository, mirroring the sqlite implementation's
// contract: owner-scoped lookups collapse "missing" and "not yours" into
// NotFound, Create assigns ids and base36 short codes, and the url column
// behaves as globally unique.
type fakeBookmarkRepo struct {
	bookmarks map[int64]*model.Bookmark
	nextID    int64
}

func newFakeBookmarkRepo() *fakeBookmarkRepo {
	return &fakeBookmarkRepo{
		bookmarks: make(map[int64]*model.Bookmark),
		nextID:    1,
	}
}

func (f *fakeBookmarkRepo) Create(_ context.Context, b *model.Bookmark) error {
	for _, existing := range f.bookmarks {
		if existing.URL == b.URL {
			return apperror.Conflict("url already exists")
		}
	}
	b.ID = f.nextID
	f.nextID++
	b.ShortURL = strconv.FormatInt(b.ID, 36)
	b.Visits = 0
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	stored := *b
	f.bookmarks[b.ID] = &stored
	return nil
}

func (f *fakeBookmarkRepo) GetByID(_ context.Context, ownerID string, id int64) (*model.Bookmark, error) {
	b, ok := f.bookmarks[id]
	if !ok || b.UserID != ownerID {
		return nil, apperror.NotFound("bookmark", strconv.FormatInt(id, 10))
	}
	result := *b
	return &result, nil
}

// owned returns the owner's bookmarks in id order, like ORDER BY id.
func (f *fakeBookmarkRepo) owned(ownerID string) []model.Bookmark {
	var result []model.Bookmark
	for _, b := range f.bookmarks {
		if b.UserID == ownerID {
			result = append(result, *b)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (f *fakeBookmarkRepo) ListByOwner(_ context.Context, ownerID string, opts repository.ListOptions) ([]model.Bookmark, error) {
	result := f.owned(ownerID)
	if opts.Offset >= len(result) {
		return []model.Bookmark{}, nil
	}
	result = result[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result, nil
}

func (f *fakeBookmarkRepo) CountByOwner(_ context.Context, ownerID string) (int64, error) {
	return int64(len(f.owned(ownerID))), nil
}

func (f *fakeBookmarkRepo) Update(_ context.Context, b *model.Bookmark) error {
	stored, ok := f.bookmarks[b.ID]
	if !ok || stored.UserID != b.UserID {
		return apperror.NotFound("bookmark", strconv.FormatInt(b.ID, 10))
	}
	for id, existing := range f.bookmarks {
		if id != b.ID && existing.URL == b.URL {
			return apperror.Conflict("url already exists")
		}
	}
	stored.URL = b.URL
	stored.Body = b.Body
	stored.UpdatedAt = time.Now()
	return nil
}

func (f *fakeBookmarkRepo) Delete(_ context.Context, ownerID string, id int64) error {
	b, ok := f.bookmarks[id]
	if !ok || b.UserID != ownerID {
		return apperror.NotFound("bookmark", strconv.FormatInt(id, 10))
	}
	delete(f.bookmarks, id)
	return nil
}

func (f *fakeBookmarkRepo) StatsByOwner(_ context.Context, ownerID string) ([]model.BookmarkStats, error) {
	owned := f.owned(ownerID)
	stats := make([]model.BookmarkStats, 0, len(owned))
	for _, b := range owned {
		stats = append(stats, model.BookmarkStats{
			ID:       b.ID,
			URL:      b.URL,
			ShortURL: b.ShortURL,
			Visits:   b.Visits,
		})
	}
	return stats, nil
}

func (f *fakeBookmarkRepo) ExistsByURL(_ context.Context, url string) (bool, error) {
	for _, b := range f.bookmarks {
		if b.URL == url {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBookmarkRepo) ResolveVisit(_ context.Context, shortURL string) (string, error) {
	for _, b := range f.bookmarks {
		if b.ShortURL == shortURL {
			b.Visits++
			return b.URL, nil
		}
	}
	return "", apperror.NotFound("bookmark", shortURL)
}

// =========================================================================
// HELPERS
// =========================================================================

func newTestBookmarkService(t *testing.T) (*BookmarkService, *fakeBookmarkRepo) {
	t.Helper()
	repo := newFakeBookmarkRepo()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := NewBookmarkService(repo, logger)
	return svc, repo
}

func createBookmarks(t *testing.T, svc *BookmarkService, ownerID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := svc.Create(context.Background(), ownerID,
			fmt.Sprintf("https://example.com/%s/%d", ownerID, i), "")
		if err != nil {
			t.Fatalf("Create() #%d error = %v", i, err)
		}
	}
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestBookmarkCreate_Valid(t *testing.T) {
	svc, _ := newTestBookmarkService(t)

	b, err := svc.Create(context.Background(), "user-1", "https://example.com/post", "worth keeping")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if b.ID == 0 {
		t.Error("Create() did not assign an id")
	}
	if b.ShortURL == "" {
		t.Error("Create() did not assign a short url")
	}
	if b.Visits != 0 {
		t.Errorf("Visits = %d, want 0", b.Visits)
	}
}

func TestBookmarkCreate_InvalidURL(t *testing.T) {
	svc, _ := newTestBookmarkService(t)

	for _, bad := range []string{"not-a-url", "", "   ", "example dot com"} {
		_, err := svc.Create(context.Background(), "user-1", bad, "")
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("Create(%q) error = %v, want ErrValidation", bad, err)
		}
	}
}

func TestBookmarkCreate_DuplicateURLAcrossOwners(t *testing.T) {
	svc, _ := newTestBookmarkService(t)

	if _, err := svc.Create(context.Background(), "user-1", "https://example.com/shared", ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Global uniqueness: a different owner is still a conflict.
	_, err := svc.Create(context.Background(), "user-2", "https://example.com/shared", "")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create() error = %v, want ErrConflict", err)
	}
}

// =========================================================================
// LIST / PAGINATION TESTS
// =========================================================================

func TestBookmarkList_PaginationMeta(t *testing.T) {
	svc, _ := newTestBookmarkService(t)
	createBookmarks(t, svc, "user-1", 12)

	// Page 1 of 12 items at 5 per page: 5 items, 3 pages, next=2, no prev.
	page1, err := svc.List(context.Background(), "user-1", 1, 5)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(page1.Items) != 5 {
		t.Errorf("page 1 items = %d, want 5", len(page1.Items))
	}
	if page1.Meta.Pages != 3 || page1.Meta.TotalCount != 12 {
		t.Errorf("meta = {pages:%d total:%d}, want {pages:3 total:12}", page1.Meta.Pages, page1.Meta.TotalCount)
	}
	if !page1.Meta.HasNext || page1.Meta.HasPrev {
		t.Errorf("page 1 flags = {next:%v prev:%v}, want {true false}", page1.Meta.HasNext, page1.Meta.HasPrev)
	}
	if page1.Meta.PrevPage != nil {
		t.Errorf("page 1 prev_page = %d, want null", *page1.Meta.PrevPage)
	}
	if page1.Meta.NextPage == nil || *page1.Meta.NextPage != 2 {
		t.Error("page 1 next_page should be 2")
	}

	// Page 3: the trailing 2 items, no next.
	page3, err := svc.List(context.Background(), "user-1", 3, 5)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(page3.Items) != 2 {
		t.Errorf("page 3 items = %d, want 2", len(page3.Items))
	}
	if page3.Meta.HasNext {
		t.Error("page 3 has_next = true, want false")
	}
	if page3.Meta.NextPage != nil {
		t.Errorf("page 3 next_page = %d, want null", *page3.Meta.NextPage)
	}
	if page3.Meta.PrevPage == nil || *page3.Meta.PrevPage != 2 {
		t.Error("page 3 prev_page should be 2")
	}
}

func TestBookmarkList_ClampsNonPositiveParams(t *testing.T) {
	svc, _ := newTestBookmarkService(t)
	createBookmarks(t, svc, "user-1", 3)

	// page=0, per_page=-5 clamp to the defaults (1 and 5).
	page, err := svc.List(context.Background(), "user-1", 0, -5)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.Meta.Page != 1 {
		t.Errorf("Page = %d, want clamped to 1", page.Meta.Page)
	}
	if len(page.Items) != 3 {
		t.Errorf("items = %d, want 3", len(page.Items))
	}
}

func TestBookmarkList_OnlyOwnersRows(t *testing.T) {
	svc, _ := newTestBookmarkService(t)
	createBookmarks(t, svc, "user-1", 2)
	createBookmarks(t, svc, "user-2", 3)

	page, err := svc.List(context.Background(), "user-1", 1, 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(page.Items))
	}
	for _, b := range page.Items {
		if b.UserID != "user-1" {
			t.Errorf("List() leaked bookmark owned by %q", b.UserID)
		}
	}
}

// =========================================================================
// GET / UPDATE / DELETE TESTS
// =========================================================================

func TestBookmarkGet_OtherOwnerIsNotFound(t *testing.T) {
	svc, _ := newTestBookmarkService(t)
	b, _ := svc.Create(context.Background(), "user-1", "https://example.com/a", "")

	_, err := svc.Get(context.Background(), "user-2", b.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestBookmarkUpdate_Valid(t *testing.T) {
	svc, repo := newTestBookmarkService(t)
	b, _ := svc.Create(context.Background(), "user-1", "https://example.com/old", "old body")

	updated, err := svc.Update(context.Background(), "user-1", b.ID, "https://example.com/new", "new body")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.URL != "https://example.com/new" || updated.Body != "new body" {
		t.Errorf("Update() returned {%q, %q}", updated.URL, updated.Body)
	}
	if updated.ShortURL != b.ShortURL {
		t.Error("Update() changed the short url")
	}

	stored := repo.bookmarks[b.ID]
	if stored.URL != "https://example.com/new" {
		t.Errorf("stored URL = %q, want the updated value", stored.URL)
	}
}

func TestBookmarkUpdate_InvalidURL(t *testing.T) {
	svc, _ := newTestBookmarkService(t)
	b, _ := svc.Create(context.Background(), "user-1", "https://example.com/a", "")

	_, err := svc.Update(context.Background(), "user-1", b.ID, "nope", "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Update() error = %v, want ErrValidation", err)
	}
}

func TestBookmarkUpdate_OtherOwnerIsNotFound(t *testing.T) {
	svc, _ := newTestBookmarkService(t)
	b, _ := svc.Create(context.Background(), "user-1", "https://example.com/a", "")

	_, err := svc.Update(context.Background(), "user-2", b.ID, "https://example.com/b", "")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestBookmarkDelete_ThenGetIsNotFound(t *testing.T) {
	svc, _ := newTestBookmarkService(t)
	b, _ := svc.Create(context.Background(), "user-1", "https://example.com/a", "")

	if err := svc.Delete(context.Background(), "user-1", b.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := svc.Get(context.Background(), "user-1", b.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}

	// Second delete: same NotFound, not a different failure mode.
	if err := svc.Delete(context.Background(), "user-1", b.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// STATS TESTS
// =========================================================================

func TestBookmarkStats(t *testing.T) {
	svc, repo := newTestBookmarkService(t)
	b, _ := svc.Create(context.Background(), "user-1", "https://example.com/a", "")
	svc.Create(context.Background(), "user-1", "https://example.com/b", "")
	svc.Create(context.Background(), "user-2", "https://example.com/c", "")

	// Two visits via the public path
	repo.ResolveVisit(context.Background(), b.ShortURL)
	repo.ResolveVisit(context.Background(), b.ShortURL)

	stats, err := svc.Stats(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("Stats() returned %d entries, want 2 (owner-scoped)", len(stats))
	}
	if stats[0].ID != b.ID || stats[0].Visits != 2 {
		t.Errorf("stats[0] = {id:%d visits:%d}, want {id:%d visits:2}", stats[0].ID, stats[0].Visits, b.ID)
	}
}
