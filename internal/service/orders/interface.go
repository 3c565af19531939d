package orders

import "context"

// OrderAPI is the slice of the backend client this service needs.
type OrderAPI interface {
	AcceptOrder(ctx context.Context, accessToken, orderID string) error
	CompleteOrder(ctx context.Context, accessToken, orderID string) error
}

// Pipeline drives protected calls with transparent token renewal.
type Pipeline interface {
	Do(ctx context.Context, call func(ctx context.Context, accessToken string) error) error
}
