package credentials_test

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviebook/seatsync/internal/credentials"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestFromTokenNumericSubject(t *testing.T) {
	p := credentials.FromToken(signedToken(t, jwt.MapClaims{"sub": 42, "role": "CUSTOMER"}))

	id, ok := p.UserID()
	assert.True(t, ok)
	assert.Equal(t, uint64(42), id)

	tok, ok := p.Token()
	assert.True(t, ok)
	assert.NotEmpty(t, tok)
}

func TestFromTokenStringSubject(t *testing.T) {
	p := credentials.FromToken(signedToken(t, jwt.MapClaims{"sub": "17"}))
	id, ok := p.UserID()
	assert.True(t, ok)
	assert.Equal(t, uint64(17), id)
}

func TestFromTokenUnusableSubject(t *testing.T) {
	// Token parses but carries no usable identity: the bearer is kept
	// for transport while the user stays unauthenticated.
	p := credentials.FromToken(signedToken(t, jwt.MapClaims{"sub": "not-a-number"}))
	_, ok := p.UserID()
	assert.False(t, ok)
	_, ok = p.Token()
	assert.True(t, ok)
}

func TestFromTokenGarbage(t *testing.T) {
	p := credentials.FromToken("not.a.jwt")
	_, ok := p.UserID()
	assert.False(t, ok)
	tok, ok := p.Token()
	assert.True(t, ok)
	assert.Equal(t, "not.a.jwt", tok)
}

func TestFromTokenEmpty(t *testing.T) {
	p := credentials.FromToken("")
	_, ok := p.UserID()
	assert.False(t, ok)
	_, ok = p.Token()
	assert.False(t, ok)
}

func TestStaticAndAnonymous(t *testing.T) {
	s := credentials.Static{ID: 5, Bearer: "tok"}
	id, ok := s.UserID()
	assert.True(t, ok)
	assert.Equal(t, uint64(5), id)

	_, ok = credentials.Static{}.UserID()
	assert.False(t, ok)

	_, ok = credentials.Anonymous{}.UserID()
	assert.False(t, ok)
}
