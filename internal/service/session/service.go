package session

import (
	"context"
	"errors"

	"github.com/example/delivery-rider/internal/domain/models"
	"github.com/example/delivery-rider/internal/domain/types"
	"github.com/example/delivery-rider/pkg/logger"
	wrap "github.com/example/delivery-rider/pkg/logger/wrapper"
)

var (
	ErrEmptyCredentials = errors.New("email and password are required")
)

// Service owns the login, logout and restore flows around the session state.
type Service struct {
	api    AuthAPI
	tokens TokenStore
	store  *Store
	coord  *Coordinator
	pipe   Pipeline
	log    logger.Logger
}

func NewService(api AuthAPI, tokens TokenStore, store *Store, coord *Coordinator, pipe Pipeline, log logger.Logger) *Service {
	return &Service{
		api:    api,
		tokens: tokens,
		store:  store,
		coord:  coord,
		pipe:   pipe,
		log:    log,
	}
}

// Login authenticates the rider and establishes a session. The refresh token
// is persisted before the session becomes visible so a non-empty access token
// always has a stored refresh token behind it.
func (s *Service) Login(ctx context.Context, email, password string) error {
	ctx = wrap.WithAction(ctx, "login")

	if email == "" || password == "" {
		return ErrEmptyCredentials
	}

	creds, err := s.api.Login(ctx, email, password)
	if err != nil {
		return err
	}

	if err := s.tokens.Set(ctx, refreshTokenKey, creds.RefreshToken); err != nil {
		return wrap.Error(ctx, err)
	}

	s.store.Set(models.Session{
		Name:        creds.Name,
		Email:       creds.Email,
		AccessToken: creds.AccessToken,
	})

	s.log.Info(ctx, "logged in", "email", creds.Email)
	return nil
}

// Register creates a rider account. It does not log in.
func (s *Service) Register(ctx context.Context, email, name, password string) error {
	ctx = wrap.WithAction(ctx, "register")

	if email == "" || password == "" {
		return ErrEmptyCredentials
	}
	return s.api.Register(ctx, email, name, password)
}

// Restore re-enters the logged-in state at startup using the stored refresh
// token. A missing token simply means starting logged out; a rejected token
// clears the device state the same way a forced logout does.
func (s *Service) Restore(ctx context.Context) error {
	ctx = wrap.WithAction(ctx, "restore_session")

	_, err := s.coord.EnsureFresh(ctx)
	switch {
	case err == nil:
		s.log.Info(ctx, "session restored from refresh token")
		return nil
	case errors.Is(err, types.ErrNoRefreshToken):
		s.log.Info(ctx, "no stored session, starting logged out")
		return nil
	case errors.Is(err, types.ErrRefreshFailed):
		s.log.Warn(ctx, "stored refresh token rejected, clearing session")
		s.ForceLogout(ctx)
		return nil
	default:
		return err
	}
}

// Logout ends the session. The backend call is best-effort: local state is
// cleared regardless of its outcome.
func (s *Service) Logout(ctx context.Context) error {
	ctx = wrap.WithAction(ctx, "logout")

	if token := s.store.AccessToken(); token != "" {
		if err := s.api.Logout(ctx, token); err != nil {
			s.log.Warn(ctx, "backend logout failed", "err", err.Error())
		}
	}

	s.ForceLogout(ctx)
	return nil
}

// ForceLogout clears the session state and the stored refresh token. Called
// after RefreshFailed or AuthExhausted surfaces from the pipeline.
func (s *Service) ForceLogout(ctx context.Context) {
	s.store.Clear()
	if err := s.tokens.Remove(ctx, refreshTokenKey); err != nil {
		s.log.Warn(ctx, "failed to remove stored refresh token", "err", err.Error())
	}
}

// RefreshEarnings fetches the rider's current earnings through the pipeline
// and publishes them on the session.
func (s *Service) RefreshEarnings(ctx context.Context) (int, error) {
	ctx = wrap.WithAction(ctx, "refresh_earnings")

	var earnings int
	err := s.pipe.Do(ctx, func(ctx context.Context, accessToken string) error {
		v, err := s.api.Earnings(ctx, accessToken)
		if err != nil {
			return err
		}
		earnings = v
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.store.SetEarnings(earnings)
	return earnings, nil
}
