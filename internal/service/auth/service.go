package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/patryk-bejcer/photobook/internal/domain"
	"github.com/patryk-bejcer/photobook/internal/repository"
	"github.com/patryk-bejcer/photobook/pkg/config"
	"github.com/patryk-bejcer/photobook/pkg/crypto"
	jwtpkg "github.com/patryk-bejcer/photobook/pkg/jwt"
)

// Service handles the register/login/logout/refresh/profile lifecycle.
type Service struct {
	users    repository.UserRepository
	denylist repository.TokenDenylist
	logger   *slog.Logger
	cfg      config.APIConfig
}

// New constructs a Service.
func New(users repository.UserRepository, denylist repository.TokenDenylist, logger *slog.Logger, cfg config.APIConfig) Service {
	return Service{users: users, denylist: denylist, logger: logger, cfg: cfg}
}

// Token is an issued bearer credential.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresIn   time.Duration
}

// Register validates input, hashes the password and persists a new user.
// No token is issued; the caller logs in separately.
func (s Service) Register(ctx context.Context, name, email, password, confirmation string) (*domain.User, error) {
	if ve := validateRegister(name, email, password, confirmation); ve != nil {
		return nil, ve
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        normalizeEmail(email),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login authenticates a user and issues a fresh token. Unknown emails and
// wrong passwords produce the same ErrInvalidCredentials.
func (s Service) Login(ctx context.Context, email, password string) (*domain.User, Token, error) {
	if ve := validateLogin(email, password); ve != nil {
		return nil, Token{}, ve
	}
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, Token{}, ErrInvalidCredentials
		}
		return nil, Token{}, err
	}
	if err := crypto.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, Token{}, ErrInvalidCredentials
	}
	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, Token{}, err
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return user, token, nil
}

// Authorize validates a bearer token and returns the associated user and
// claims. Invalid, expired and revoked tokens all collapse to
// ErrUnauthenticated; store failures propagate as-is.
func (s Service) Authorize(ctx context.Context, token string) (*domain.User, *jwtpkg.Claims, error) {
	claims, err := jwtpkg.Parse(token, s.cfg.JWTSecret)
	if err != nil {
		s.logger.Warn("token validation failed", "error", err)
		return nil, nil, ErrUnauthenticated
	}
	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("check denylist: %w", err)
	}
	if revoked {
		s.logger.Warn("revoked token presented", "user_id", claims.UserID)
		return nil, nil, ErrUnauthenticated
	}
	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrUnauthenticated
		}
		return nil, nil, err
	}
	return user, claims, nil
}

// Logout revokes the presented token. The entry must outlive not just the
// token's expiry but its refresh grace window, or a logged-out token could
// be exchanged for a fresh one once the access TTL lapses. The caller must
// have authorized the token first; a second logout with the same token fails
// authorization because the jti is already denylisted.
func (s Service) Logout(ctx context.Context, claims *jwtpkg.Claims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return ErrUnauthenticated
	}
	if err := s.denylist.Revoke(ctx, claims.ID, s.revocationTTL(claims)); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	s.logger.Info("user logged out", "user_id", claims.UserID)
	return nil
}

// Refresh exchanges a still-valid or recently expired token for a fresh one
// without re-submitting a password. The old token is revoked so each
// credential can only be rotated once.
func (s Service) Refresh(ctx context.Context, token string) (*domain.User, Token, error) {
	claims, err := jwtpkg.ParseAllowExpired(token, s.cfg.JWTSecret)
	if err != nil {
		s.logger.Warn("refresh token rejected", "error", err)
		return nil, Token{}, ErrUnauthenticated
	}
	if claims.ID == "" || claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil, Token{}, ErrUnauthenticated
	}
	if time.Since(claims.IssuedAt.Time) > s.cfg.RefreshGrace {
		s.logger.Warn("refresh outside grace window", "user_id", claims.UserID)
		return nil, Token{}, ErrUnauthenticated
	}
	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, Token{}, fmt.Errorf("check denylist: %w", err)
	}
	if revoked {
		return nil, Token{}, ErrUnauthenticated
	}
	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, Token{}, ErrUnauthenticated
		}
		return nil, Token{}, err
	}
	if err := s.denylist.Revoke(ctx, claims.ID, s.revocationTTL(claims)); err != nil {
		return nil, Token{}, fmt.Errorf("revoke token: %w", err)
	}
	fresh, err := s.issueToken(user.ID)
	if err != nil {
		return nil, Token{}, err
	}
	s.logger.Info("token refreshed", "user_id", user.ID)
	return user, fresh, nil
}

// Profile validates a token and returns the associated user record.
func (s Service) Profile(ctx context.Context, token string) (*domain.User, error) {
	user, _, err := s.Authorize(ctx, token)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// revocationTTL returns how long a jti must stay denylisted: until both the
// token's expiry and its refresh grace window have passed.
func (s Service) revocationTTL(claims *jwtpkg.Claims) time.Duration {
	ttl := time.Until(claims.ExpiresAt.Time)
	if claims.IssuedAt != nil {
		if grace := time.Until(claims.IssuedAt.Time.Add(s.cfg.RefreshGrace)); grace > ttl {
			ttl = grace
		}
	}
	return ttl
}

func (s Service) issueToken(userID string) (Token, error) {
	access, err := jwtpkg.GenerateToken(userID, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{AccessToken: access, TokenType: "bearer", ExpiresIn: s.cfg.AccessTokenTTL}, nil
}
