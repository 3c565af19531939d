package types

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthExpired signals the 419/"expired" response. It is consumed by the
	// request pipeline and never reaches callers of the services.
	ErrAuthExpired = errors.New("access token expired")

	// ErrRefreshFailed means the refresh episode itself failed. The session is
	// no longer usable and the caller must force a logout.
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrNoRefreshToken is a refresh failure caused by an empty secure store.
	ErrNoRefreshToken = fmt.Errorf("%w: no refresh token stored", ErrRefreshFailed)

	// ErrAuthExhausted means the replayed request reported expiry again.
	// Treated as fatal, never retried a third time.
	ErrAuthExhausted = errors.New("access token expired after refresh")

	// ErrTransport covers timeouts, refused connections and malformed
	// responses. Never retried by the client core.
	ErrTransport = errors.New("transport failure")

	ErrOrderNotFound   = errors.New("order not found")
	ErrOrderNotPending = errors.New("order is not pending")
	ErrOrderNotActive  = errors.New("order is not in delivery")
)

// BusinessError is a server-side rejection by domain rules, e.g. the order was
// already taken by another rider. Recoverable at the UI level.
type BusinessError struct {
	Message string
}

func (e *BusinessError) Error() string {
	return e.Message
}

// APIError is any other non-2xx response that is terminal for the call.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// IsBusinessRejection reports whether err carries a business rejection.
func IsBusinessRejection(err error) bool {
	var be *BusinessError
	return errors.As(err, &be)
}
