package service

import (
	"context"
	"log/slog"

	"github.com/sakif/bookmarks/internal/repository"
)

// RedirectService resolves public short codes to their target URLs.
//
// This is the one mutation path with no identity gate: anyone holding a
// short code can follow it, and following it counts a visit. It must never
// expose ownership data — the resolved URL is all a caller learns.
type RedirectService struct {
	bookmarks repository.BookmarkRepository
	logger    *slog.Logger
}

// NewRedirectService creates a RedirectService.
func NewRedirectService(bookmarks repository.BookmarkRepository, logger *slog.Logger) *RedirectService {
	return &RedirectService{
		bookmarks: bookmarks,
		logger:    logger,
	}
}

// Resolve looks up the bookmark for shortURL, counts the visit, and returns
// the redirect target. The increment and the lookup are one atomic store
// operation — concurrent resolves of the same code never lose counts.
// Unknown codes return apperror.NotFound.
func (s *RedirectService) Resolve(ctx context.Context, shortURL string) (string, error) {
	url, err := s.bookmarks.ResolveVisit(ctx, shortURL)
	if err != nil {
		return "", err
	}

	s.logger.Info("redirect resolved",
		slog.String("shortURL", shortURL),
	)

	return url, nil
}
