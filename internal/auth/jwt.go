// Package auth provides JWT token generation/validation and password hashing
// for the bookmarks API.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. User registers with username/email/password → password stored as bcrypt hash
// 2. User logs in → server verifies the hash and issues TWO tokens:
//    an access token (short-lived) and a refresh token (long-lived)
// 3. API calls carry "Authorization: Bearer <access token>"
// 4. When the access token expires, the client calls /token/refresh with the
//    refresh token to mint a new access token — no password round-trip
//
// WHY TWO TOKEN TYPES?
// The access token is presented on every request, so we keep its lifetime
// short to limit the damage if it leaks. The refresh token is presented only
// to one endpoint and only to mint access tokens. Each token carries a "typ"
// claim, and validation pins the expected type — a refresh token is never
// accepted where an access token is required, and vice versa. Without the
// type claim, a stolen refresh token would double as a month-long access token.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: algorithm + token type → {"alg":"HS256","typ":"JWT"}
//	- Payload: claims (data) → {"sub":"userID","typ":"access","exp":1234567890}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
//
// The server verifies the signature without any DB lookup — just the secret.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType distinguishes the two credentials the service issues.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

const issuer = "bookmarks"

// Default lifetimes, used when the config supplies zero values.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 30 * 24 * time.Hour
)

// TokenService issues and validates the signed access/refresh token pair.
//
// It holds the HMAC secret used to sign and verify tokens. The same secret
// must be used for both operations — keep it out of the repo, supply it via
// configuration.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService creates a TokenService with the given secret and lifetimes.
// Pass zero durations to use the defaults (15m access, 30d refresh).
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// claims is the JWT payload. It embeds jwt.RegisteredClaims (Subject,
// ExpiresAt, IssuedAt, Issuer) and adds our private "typ" claim carrying the
// token type. "sub" stores the internal user ID.
type claims struct {
	Type TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// GenerateAccess creates a signed access token for the given userID.
//
// Signing algorithm: HS256 (HMAC-SHA256)
// - Symmetric: same key for signing and verifying
// - Fast and simple — good for single-server deployments
func (s *TokenService) GenerateAccess(userID string) (string, error) {
	return s.generate(userID, TokenTypeAccess, s.accessTTL)
}

// GenerateRefresh creates a signed refresh token for the given userID.
// Refresh tokens are only accepted by the token-refresh endpoint.
func (s *TokenService) GenerateRefresh(userID string) (string, error) {
	return s.generate(userID, TokenTypeRefresh, s.refreshTTL)
}

// generateWithDuration builds a token with an explicit expiry.
// Unexported — the tests in this package use it to mint already-expired tokens.
func (s *TokenService) generateWithDuration(userID string, typ TokenType, d time.Duration) (string, error) {
	return s.generate(userID, typ, d)
}

func (s *TokenService) generate(userID string, typ TokenType, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	// jwt.NewWithClaims creates an unsigned token with the given algorithm.
	// SignedString(key) signs it and returns the complete JWT string.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing %s token: %w", typ, err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string, requiring the given token type.
// Returns the userID (stored in the "sub" claim) if the token is valid.
//
// VALIDATION CHECKS:
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired (ExpiresAt is in the future)
//   - Issuer matches (prevents tokens from other apps)
//   - Algorithm is HS256 (prevents algorithm confusion attacks)
//   - "typ" claim matches want — an access token never passes a refresh
//     check and vice versa
//
// ALGORITHM CONFUSION ATTACK:
// Without checking the algorithm, an attacker could send a token signed with
// "none" and the library might accept it. Passing jwt.WithValidMethods prevents this.
func (s *TokenService) Validate(tokenStr string, want TokenType) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			// Reject tokens that aren't signed with HS256
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		// Translate jwt library errors into cleaner messages
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	if c.Type != want {
		return "", fmt.Errorf("auth: token type is %q, want %q", c.Type, want)
	}

	userID := c.Subject
	if userID == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return userID, nil
}
