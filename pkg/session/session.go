// Package session manages the SIGOC access/refresh token pair. It owns the
// persisted credential record, decides when the access token is stale, and
// exposes an authenticated-request operation that transparently refreshes and
// retries exactly once on an authorization failure.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Sentinel errors for the session taxonomy. Callers only ever see these;
// raw transport failures are wrapped before they leave this package.
var (
	// ErrInvalidCredentials means the token endpoint rejected the login.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrMalformedToken means the access token payload cannot be decoded.
	ErrMalformedToken = errors.New("malformed access token")

	// ErrAuthExpired means a refresh was attempted and failed, or a retried
	// request was still unauthorized. The UI maps this to a forced logout.
	ErrAuthExpired = errors.New("authentication expired")

	// ErrRefreshFailed means the refresh endpoint rejected the refresh token.
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrNoSession means no credential record is persisted.
	ErrNoSession = errors.New("no active session")
)

// Session is the reconstructed authentication state: the token pair plus the
// claims this client reads from the access token payload. The signature is
// never verified here; that is the server's job.
type Session struct {
	AccessToken  string
	RefreshToken string

	// ExpiresAt is the access token's exp claim.
	ExpiresAt time.Time

	// Subject and Email are identity claims, empty when the token omits them.
	Subject string
	Email   string
}

// Expired reports whether the access token's expiry claim is in the past.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// newSession decodes the access token payload and builds a Session. A token
// that cannot be decoded, or that carries no exp claim, is malformed.
func newSession(access, refresh string) (*Session, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, fmt.Errorf("%w: missing exp claim", ErrMalformedToken)
	}

	sess := &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    exp.Time,
	}
	if sub, err := claims.GetSubject(); err == nil {
		sess.Subject = sub
	}
	if email, ok := claims["email"].(string); ok {
		sess.Email = email
	}
	return sess, nil
}
