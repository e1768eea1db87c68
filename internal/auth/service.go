package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	redisclient "github.com/hackgods/clinic-records/internal/redis"
	"github.com/hackgods/clinic-records/internal/validation"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = fmt.Errorf("%w: user account is disabled", ErrInvalidCredentials)
)

// SessionStore keeps track of refresh tokens that may still be exchanged.
type SessionStore interface {
	Save(ctx context.Context, jti, userID string, ttl time.Duration) error
	Rotate(ctx context.Context, oldJTI, newJTI, userID string, ttl time.Duration) error
	Revoke(ctx context.Context, jti string) error
}

type Service struct {
	users    UserRepository
	sessions SessionStore
	tokens   *TokenIssuer
	log      *zap.Logger
}

func NewService(users UserRepository, sessions SessionStore, tokens *TokenIssuer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		log:      logger,
	}
}

// Tokens exposes the issuer so transports can verify access tokens.
func (s *Service) Tokens() *TokenIssuer { return s.tokens }

// Register creates an active user and signs them in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateUser(ctx, User{
		ID:           uuid.New(),
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		IsActive:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}

	s.log.Info("user registered", zap.String("user_id", user.ID.String()))

	return s.signIn(ctx, user)
}

// Login checks the credentials and signs the user in. Unknown email, wrong
// password and disabled accounts all fail with ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Result, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	ok, err := CheckPassword(user.PasswordHash, in.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	return s.signIn(ctx, user)
}

func (s *Service) signIn(ctx context.Context, user *User) (*Result, error) {
	pair, jti, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, jti, user.ID.String(), s.tokens.RefreshTTL()); err != nil {
		return nil, err
	}
	return &Result{User: user, Tokens: pair}, nil
}

// Refresh exchanges a refresh token for a new pair. Each refresh token can be
// exchanged once; the old one stops working as soon as the new one is issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Result, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	userID := uuid.MustParse(claims.Subject)
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidToken
	}

	pair, jti, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	err = s.sessions.Rotate(ctx, claims.ID, jti, user.ID.String(), s.tokens.RefreshTTL())
	if err != nil {
		if errors.Is(err, redisclient.ErrSessionNotFound) {
			s.log.Warn("refresh token reuse or unknown session",
				zap.String("user_id", user.ID.String()),
				zap.String("jti", claims.ID))
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return &Result{User: user, Tokens: pair}, nil
}

// Logout revokes the session behind a refresh token. Logging out twice is
// not an error.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return err
	}
	if err := s.sessions.Revoke(ctx, claims.ID); err != nil {
		return err
	}

	s.log.Info("user logged out", zap.String("user_id", claims.Subject))
	return nil
}
