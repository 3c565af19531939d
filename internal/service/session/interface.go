package session

import (
	"context"

	"github.com/example/delivery-rider/internal/domain/models"
)

// AuthAPI is the slice of the backend client this service needs.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*models.Credentials, error)
	Register(ctx context.Context, email, name, password string) error
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, accessToken string) error
	Earnings(ctx context.Context, accessToken string) (int, error)
}

// TokenStore is the secure device store holding the refresh token. It is
// opaque to this service beyond the three operations.
type TokenStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Pipeline drives protected calls with transparent token renewal.
type Pipeline interface {
	Do(ctx context.Context, call func(ctx context.Context, accessToken string) error) error
}
