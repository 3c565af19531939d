package orders

import (
	"context"

	"github.com/example/delivery-rider/internal/domain/types"
	"github.com/example/delivery-rider/pkg/logger"
	wrap "github.com/example/delivery-rider/pkg/logger/wrapper"
)

// Service drives the order lifecycle: optimistic accept with rollback, local
// reject, and completion. The Store is the only owner of the collections;
// this service decides which transition to apply from the server's outcome.
type Service struct {
	api   OrderAPI
	pipe  Pipeline
	store *Store
	log   logger.Logger
}

func NewService(api OrderAPI, pipe Pipeline, store *Store, log logger.Logger) *Service {
	return &Service{
		api:   api,
		pipe:  pipe,
		store: store,
		log:   log,
	}
}

// Accept moves the order into delivery optimistically, then confirms with the
// backend. A business rejection means another rider won the order: it is
// deleted outright. A technical failure (transport, exhausted auth) restores
// the order to pending so the rider may retry.
func (s *Service) Accept(ctx context.Context, orderID string) error {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{Action: "accept_order", OrderID: orderID})

	if err := s.store.BeginAccept(orderID); err != nil {
		return err
	}

	err := s.pipe.Do(ctx, func(ctx context.Context, accessToken string) error {
		return s.api.AcceptOrder(ctx, accessToken, orderID)
	})

	switch {
	case err == nil:
		s.store.ConfirmAccept(orderID)
		s.log.Info(ctx, "order accepted")
		return nil

	case types.IsBusinessRejection(err):
		// The order is gone for this rider, not retryable.
		s.store.Remove(orderID)
		s.log.Info(ctx, "accept rejected by backend", "reason", err.Error())
		return err

	default:
		s.store.RestorePending(orderID)
		s.log.Warn(ctx, "accept could not be confirmed, order restored to pending", "err", err.Error())
		return err
	}
}

// Reject drops the order locally. Idempotent: rejecting an unknown order is
// a no-op.
func (s *Service) Reject(ctx context.Context, orderID string) {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{Action: "reject_order", OrderID: orderID})

	if s.store.Remove(orderID) {
		s.log.Info(ctx, "order rejected")
	}
}

// Complete finishes an active delivery with the backend and removes the
// order. The order must be a confirmed delivery.
func (s *Service) Complete(ctx context.Context, orderID string) error {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{Action: "complete_order", OrderID: orderID})

	status, ok := s.store.Status(orderID)
	if !ok {
		return types.ErrOrderNotFound
	}
	if status != types.OrderActive {
		return types.ErrOrderNotActive
	}

	err := s.pipe.Do(ctx, func(ctx context.Context, accessToken string) error {
		return s.api.CompleteOrder(ctx, accessToken, orderID)
	})
	if err != nil {
		return err
	}

	s.store.Remove(orderID)
	s.log.Info(ctx, "delivery completed")
	return nil
}
