package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer() *TokenIssuer {
	return NewTokenIssuer("test-secret", 15*time.Minute, 7*24*time.Hour)
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := newTestIssuer()
	userID := uuid.New()

	pair, jti, err := issuer.Issue(userID)
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	got, err := issuer.VerifyAccess(pair.Access)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	claims, err := issuer.VerifyRefresh(pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, jti, claims.ID)
	assert.Equal(t, userID.String(), claims.Subject)
}

func TestTokenIssuer_TypesAreNotInterchangeable(t *testing.T) {
	issuer := newTestIssuer()
	pair, _, err := issuer.Issue(uuid.New())
	require.NoError(t, err)

	_, err = issuer.VerifyAccess(pair.Refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.VerifyRefresh(pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_Expired(t *testing.T) {
	past := newTestIssuer()
	past.now = func() time.Time { return time.Now().Add(-time.Hour) }
	pair, _, err := past.Issue(uuid.New())
	require.NoError(t, err)

	_, err = newTestIssuer().VerifyAccess(pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	pair, _, err := NewTokenIssuer("other", time.Minute, time.Hour).Issue(uuid.New())
	require.NoError(t, err)

	_, err = newTestIssuer().VerifyAccess(pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{
		Type: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestIssuer().VerifyAccess(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_Garbage(t *testing.T) {
	_, err := newTestIssuer().VerifyAccess("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
