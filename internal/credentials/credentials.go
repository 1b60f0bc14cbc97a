// Package credentials abstracts the browser-storage style credential
// lookup behind a typed, read-only provider.  The seat session never
// reaches into ambient storage; it asks the injected provider, which makes
// the unauthenticated path testable without a storage backend.
package credentials

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// Provider exposes the authenticated user's identity and bearer token.
// Both accessors report absence explicitly; a missing user ID is what the
// session turns into its authentication precondition failure.
type Provider interface {
	// UserID returns the authenticated user's ID, or false when no user
	// is logged in.
	UserID() (uint64, bool)
	// Token returns the bearer credential, or false when absent.
	Token() (string, bool)
}

// Static is a fixed credential set.  Used by the CLI when the caller
// supplies an explicit user ID and by tests.
type Static struct {
	ID     uint64
	Bearer string
}

func (s Static) UserID() (uint64, bool) { return s.ID, s.ID != 0 }
func (s Static) Token() (string, bool)  { return s.Bearer, s.Bearer != "" }

// Anonymous is a provider with no user at all.
type Anonymous struct{}

func (Anonymous) UserID() (uint64, bool) { return 0, false }
func (Anonymous) Token() (string, bool)  { return "", false }

// FromToken derives credentials from a JWT access token by reading its
// subject claim.  The token is NOT verified here: the client has no
// signing secret and the backend re-validates on every call.  A token
// whose subject is missing or not a positive integer yields an
// unauthenticated provider with the raw token still attached.
func FromToken(token string) Provider {
	if token == "" {
		return Anonymous{}
	}
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return Static{Bearer: token}
	}
	return Static{ID: subjectID(claims), Bearer: token}
}

// subjectID pulls a numeric user ID out of the sub claim.  JSON numbers
// arrive as float64; string subjects are parsed as base-10 integers.
func subjectID(claims jwt.MapClaims) uint64 {
	switch v := claims["sub"].(type) {
	case float64:
		if v > 0 {
			return uint64(v)
		}
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
