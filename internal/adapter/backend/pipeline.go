package backend

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/delivery-rider/internal/domain/types"
	"github.com/example/delivery-rider/pkg/logger"
	"github.com/example/delivery-rider/pkg/metrics"
)

// TokenSource supplies the current access token and coordinates its renewal.
// EnsureFresh must be safe for any number of concurrent callers; they all
// share a single refresh episode.
type TokenSource interface {
	AccessToken() string
	EnsureFresh(ctx context.Context) (string, error)
}

// Pipeline wraps protected backend calls: it attaches the current access
// token, and when a call comes back with the expiry signal it refreshes the
// token through the TokenSource and replays the call exactly once. Everything
// else passes through untouched.
type Pipeline struct {
	tokens TokenSource
	leeway time.Duration
	log    logger.Logger
}

func NewPipeline(tokens TokenSource, leeway time.Duration, log logger.Logger) *Pipeline {
	return &Pipeline{
		tokens: tokens,
		leeway: leeway,
		log:    log,
	}
}

// Do runs one protected call. The call function must be safe to invoke a
// second time with a different token; it is given a fresh context-bound token
// on each invocation.
func (p *Pipeline) Do(ctx context.Context, call func(ctx context.Context, accessToken string) error) error {
	token := p.tokens.AccessToken()

	// Refresh proactively when the token is missing or locally known to be
	// expired, saving the guaranteed 419 round trip.
	if token == "" || p.expiresSoon(token) {
		fresh, err := p.tokens.EnsureFresh(ctx)
		if err != nil {
			return err
		}
		token = fresh
	}

	err := call(ctx, token)
	if !errors.Is(err, types.ErrAuthExpired) {
		return err
	}

	fresh, refreshErr := p.tokens.EnsureFresh(ctx)
	if refreshErr != nil {
		return refreshErr
	}

	metrics.RequestReplaysTotal.Inc()
	p.log.Debug(ctx, "replaying request with renewed access token")

	// One replay only. A second expiry means the renewed token is rejected
	// too, which no further retries can fix.
	if err := call(ctx, fresh); errors.Is(err, types.ErrAuthExpired) {
		return types.ErrAuthExhausted
	} else if err != nil {
		return err
	}
	return nil
}

// expiresSoon inspects the unverified exp claim. The signature belongs to the
// server; the client only peeks at the expiry to avoid a doomed request.
func (p *Pipeline) expiresSoon(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		// Opaque tokens cannot be inspected, let the server decide.
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Until(exp.Time) < p.leeway
}
