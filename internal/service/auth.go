// Package service — authentication business logic.
//
// AuthService is the business logic layer for authentication. It sits between
// the HTTP handlers and the repository/auth utilities:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT) + PasswordService (bcrypt)
//
// KEY RESPONSIBILITIES:
//   - Registration: field validation in a fixed order, uniqueness checks,
//     bcrypt hashing, persistence
//   - Login: credential verification with a single indistinguishable failure
//     mode, access+refresh token issuance
//   - Encapsulate all auth rules in one place, away from HTTP concerns
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/bookmarks/internal/apperror"
	"github.com/sakif/bookmarks/internal/auth"
	"github.com/sakif/bookmarks/internal/model"
	"github.com/sakif/bookmarks/internal/repository"
)

// Validation thresholds for registration.
const (
	MinPasswordLength = 6
	MinUsernameLength = 4
)

// AuthService handles the authentication business logic.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository  → read/write user records
//   - tokens     *auth.TokenService         → issue/validate JWTs
//   - passwords  *auth.PasswordService      → bcrypt hashing
//   - validate   *validator.Validate        → email syntax rules
//   - logger     *slog.Logger               → structured logging
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
// Call this in server.go when wiring the dependency graph.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		validate:  validator.New(),
		logger:    logger,
	}
}

// LoginResult bundles everything the login handler needs to respond:
// the token pair plus the user's public identity.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         *model.User
}

// Register validates and creates a new account.
//
// VALIDATION ORDER IS PART OF THE CONTRACT — first failure wins:
//  1. password length ≥ 6
//  2. username length ≥ 4
//  3. username alphanumeric, no spaces
//  4. email syntactically valid
//
// then uniqueness, email before username. Each failure maps to its own
// message so the client can point at the offending field.
//
// The returned User carries the bcrypt hash internally but the hash never
// serializes (json:"-"), and handlers respond with a {username, email}
// summary only.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password", "password is too short")
	}
	if len(username) < MinUsernameLength {
		return nil, apperror.ValidationFailed("username", "username is too short")
	}
	if strings.Contains(username, " ") || s.validate.Var(username, "alphanum") != nil {
		return nil, apperror.ValidationFailed("username", "username should be alphanumeric and without spaces")
	}
	if s.validate.Var(email, "required,email") != nil {
		return nil, apperror.ValidationFailed("email", "email is not valid")
	}

	// Uniqueness pre-checks. These give deterministic ordering of the two
	// conflict messages; the store's UNIQUE constraints remain authoritative
	// for concurrent registrations racing past this point.
	if err := s.ensureAvailable(ctx, email, username); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// The repository already translates constraint violations into
		// apperror.Conflict, so just propagate.
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// ensureAvailable checks that neither the email nor the username is taken.
// A successful lookup means the value IS taken; only NotFound means free.
func (s *AuthService) ensureAvailable(ctx context.Context, email, username string) error {
	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return apperror.Conflict("email is already taken")
	case !errors.Is(err, apperror.ErrNotFound):
		return fmt.Errorf("service/auth: checking email availability: %w", err)
	}

	_, err = s.users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		return apperror.Conflict("username is already taken")
	case !errors.Is(err, apperror.ErrNotFound):
		return fmt.Errorf("service/auth: checking username availability: %w", err)
	}

	return nil
}

// Login verifies credentials and issues an access/refresh token pair.
//
// UNIFORM FAILURE:
// "No such email" and "wrong password" both return the same
// apperror.Unauthorized("wrong credentials"). Distinguishing them would let
// an attacker probe which emails are registered.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("wrong credentials")
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("wrong credentials")
	}

	access, err := s.tokens.GenerateAccess(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating access token: %w", err)
	}
	refresh, err := s.tokens.GenerateRefresh(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating refresh token: %w", err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user,
	}, nil
}

// Me returns the user behind an already-validated access token.
//
// The middleware verified the token; here we only resolve the subject. A
// user that vanished since the token was issued is an authentication
// failure, not a plain 404 — the credential no longer refers to anyone.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("valid authentication required")
		}
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}
	return user, nil
}

// Refresh mints a new access token for the subject of a refresh token the
// middleware has already validated. The refresh token itself is not rotated:
// one long-lived refresh credential per login.
func (s *AuthService) Refresh(ctx context.Context, userID string) (string, error) {
	// The subject must still exist — tokens outlive accounts otherwise.
	if _, err := s.Me(ctx, userID); err != nil {
		return "", err
	}

	access, err := s.tokens.GenerateAccess(userID)
	if err != nil {
		return "", fmt.Errorf("service/auth: generating access token: %w", err)
	}
	return access, nil
}
