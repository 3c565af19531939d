package session

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/example/delivery-rider/internal/domain/types"
	"github.com/example/delivery-rider/pkg/logger"
	wrap "github.com/example/delivery-rider/pkg/logger/wrapper"
	"github.com/example/delivery-rider/pkg/metrics"
)

// refreshTokenKey is the fixed secure store key for the refresh token.
const refreshTokenKey = "refreshToken"

// Coordinator single-flights token renewal. However many requests discover an
// expired access token at once, exactly one refresh call goes out and every
// caller gets that episode's outcome. Refresh tokens are single-use on real
// backends, so concurrent refreshes are a correctness bug, not just waste.
type Coordinator struct {
	api     AuthAPI
	tokens  TokenStore
	session *Store
	log     logger.Logger

	group singleflight.Group
}

func NewCoordinator(api AuthAPI, tokens TokenStore, session *Store, log logger.Logger) *Coordinator {
	return &Coordinator{
		api:     api,
		tokens:  tokens,
		session: session,
		log:     log,
	}
}

// AccessToken returns the current access token from the session state.
func (c *Coordinator) AccessToken() string {
	return c.session.AccessToken()
}

// EnsureFresh renews the access token. Callers that arrive while a refresh is
// already in flight wait for its result instead of starting their own.
func (c *Coordinator) EnsureFresh(ctx context.Context) (string, error) {
	v, err, shared := c.group.Do(refreshTokenKey, func() (any, error) {
		// The episode outcome is shared; one caller's cancellation must not
		// fail everyone waiting on it.
		return c.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return "", err
	}
	if shared {
		c.log.Debug(ctx, "joined in-flight token refresh")
	}
	return v.(string), nil
}

func (c *Coordinator) refresh(ctx context.Context) (string, error) {
	ctx = wrap.WithAction(ctx, "token_refresh")

	refreshToken, ok, err := c.tokens.Get(ctx, refreshTokenKey)
	if err != nil {
		metrics.RecordTokenRefresh("failure")
		return "", wrap.Error(ctx, fmt.Errorf("%w: %v", types.ErrRefreshFailed, err))
	}
	if !ok {
		metrics.RecordTokenRefresh("no_refresh_token")
		return "", wrap.Error(ctx, types.ErrNoRefreshToken)
	}

	accessToken, err := c.api.RefreshToken(ctx, refreshToken)
	if err != nil {
		metrics.RecordTokenRefresh("failure")
		c.log.Warn(ctx, "token refresh rejected", "err", err.Error())
		return "", wrap.Error(ctx, fmt.Errorf("%w: %v", types.ErrRefreshFailed, err))
	}

	c.session.SetAccessToken(accessToken)
	metrics.RecordTokenRefresh("success")
	c.log.Info(ctx, "access token renewed")

	return accessToken, nil
}
