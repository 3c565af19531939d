package devserver

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/delivery-rider/internal/domain/models"
	"github.com/example/delivery-rider/pkg/uuid"
)

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("expired token")
)

// TokenManager issues and validates the dev backend's HS256 tokens. Access
// and refresh tokens share the secret and differ by the typ claim; the
// refresh endpoint only accepts refresh-typed tokens.
type TokenManager struct {
	secret     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssuePair returns a fresh access/refresh token pair for the user.
func (m *TokenManager) IssuePair(user *models.User) (access, refresh string, err error) {
	access, err = m.IssueAccess(user, m.accessTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err = m.sign(user, models.RefreshToken, m.refreshTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// IssueAccess returns an access token with the given lifetime. A negative ttl
// produces an already-expired token, which the integration tests rely on.
func (m *TokenManager) IssueAccess(user *models.User, ttl time.Duration) (string, error) {
	return m.sign(user, models.AccessToken, ttl)
}

func (m *TokenManager) sign(user *models.User, typ string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"typ":   typ,
		"jti":   uuid.NewString(),
		"email": user.Email,
		"name":  user.Name,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.secret))
}

// Validate checks signature, expiry and token type, returning the subject's
// email. Expiry is reported distinctly so handlers can emit the 419 signal.
func (m *TokenManager) Validate(tokenString, wantTyp string) (email string, err error) {
	parsed, err := jwt.ParseWithClaims(tokenString, jwt.MapClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrTokenInvalid
		}
		return []byte(m.secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}
	if !parsed.Valid {
		return "", ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrTokenInvalid
	}

	typ, _ := claims["typ"].(string)
	if typ != wantTyp {
		return "", ErrTokenInvalid
	}

	email, _ = claims["email"].(string)
	if email == "" {
		return "", ErrTokenInvalid
	}
	return email, nil
}
