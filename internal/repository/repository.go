package repository

import (
	"context"
	"time"

	"github.com/patryk-bejcer/photobook/internal/domain"
)

// UserRepository persists users. Email uniqueness is enforced by the store;
// a conflicting CreateUser returns ErrDuplicateEmail.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
}

// TokenDenylist records token IDs revoked before their natural expiry.
// Entries only need to survive until the token itself would have expired.
type TokenDenylist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	Close()
}
