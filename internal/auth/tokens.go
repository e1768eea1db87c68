package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims are the JWT claims for both token kinds. Type tells them apart so a
// refresh token is never accepted as an access token and vice versa.
type Claims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 access and refresh tokens.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (i *TokenIssuer) RefreshTTL() time.Duration { return i.refreshTTL }

func (i *TokenIssuer) sign(userID uuid.UUID, typ string, ttl time.Duration, jti string) (string, error) {
	now := i.now()
	claims := Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}

// Issue returns a fresh access and refresh token for userID along with the
// refresh token's jti, which callers register as a session.
func (i *TokenIssuer) Issue(userID uuid.UUID) (TokenPair, string, error) {
	access, err := i.sign(userID, tokenTypeAccess, i.accessTTL, "")
	if err != nil {
		return TokenPair{}, "", err
	}

	jti := uuid.NewString()
	refresh, err := i.sign(userID, tokenTypeRefresh, i.refreshTTL, jti)
	if err != nil {
		return TokenPair{}, "", err
	}

	return TokenPair{Refresh: refresh, Access: access}, jti, nil
}

func (i *TokenIssuer) parse(raw, typ string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != typ {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyAccess checks an access token and returns the user it was issued to.
func (i *TokenIssuer) VerifyAccess(raw string) (uuid.UUID, error) {
	claims, err := i.parse(raw, tokenTypeAccess)
	if err != nil {
		return uuid.Nil, err
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return userID, nil
}

// VerifyRefresh checks a refresh token and returns its claims. The token must
// carry a jti.
func (i *TokenIssuer) VerifyRefresh(raw string) (*Claims, error) {
	claims, err := i.parse(raw, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, ErrInvalidToken
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
