package feed

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/delivery-rider/internal/domain/models"
	"github.com/example/delivery-rider/internal/service/orders"
	"github.com/example/delivery-rider/pkg/logger"
	wrap "github.com/example/delivery-rider/pkg/logger/wrapper"
	"github.com/example/delivery-rider/pkg/metrics"
)

// TokenSource supplies the access token for the websocket handshake.
type TokenSource interface {
	AccessToken() string
	EnsureFresh(ctx context.Context) (string, error)
}

// Consumer keeps a websocket subscription to the backend's order feed and
// applies the events to the order collections: created orders arrive in
// pending, taken orders leave it. It reconnects with capped backoff and
// deliberately never touches orders this rider is already delivering.
type Consumer struct {
	url    string
	tokens TokenSource
	store  *orders.Store
	log    logger.Logger

	dialer     *websocket.Dialer
	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewConsumer(url string, tokens TokenSource, store *orders.Store, minBackoff, maxBackoff time.Duration, log logger.Logger) *Consumer {
	return &Consumer{
		url:        url,
		tokens:     tokens,
		store:      store,
		log:        log,
		dialer:     websocket.DefaultDialer,
		minBackoff: minBackoff,
		maxBackoff: maxBackoff,
	}
}

// Run maintains the subscription until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	ctx = wrap.WithAction(ctx, "order_feed")
	backoff := c.minBackoff

	for {
		conn, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			metrics.FeedReconnectsTotal.Inc()
			c.log.Warn(ctx, "order feed connect failed", "err", err.Error(), "retry_in", backoff.String())

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, c.maxBackoff)
			continue
		}

		backoff = c.minBackoff
		c.log.Info(ctx, "order feed connected")

		if err := c.readLoop(ctx, conn); err != nil && ctx.Err() == nil {
			c.log.Warn(ctx, "order feed disconnected", "err", err.Error())
		}
		conn.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *Consumer) dial(ctx context.Context) (*websocket.Conn, error) {
	token := c.tokens.AccessToken()
	if token == "" {
		fresh, err := c.tokens.EnsureFresh(ctx)
		if err != nil {
			return nil, err
		}
		token = fresh
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := c.dialer.DialContext(ctx, c.url, header)
	if err == nil {
		return conn, nil
	}

	// A rejected handshake may just mean a stale token; renew and try once
	// more before backing off.
	if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == 419) {
		fresh, ferr := c.tokens.EnsureFresh(ctx)
		if ferr != nil {
			return nil, ferr
		}
		header.Set("Authorization", "Bearer "+fresh)
		conn, _, err = c.dialer.DialContext(ctx, c.url, header)
	}
	return conn, err
}

func (c *Consumer) readLoop(ctx context.Context, conn *websocket.Conn) error {
	// Unblock ReadJSON when the context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var ev models.OrderEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		c.handle(ctx, ev)
	}
}

func (c *Consumer) handle(ctx context.Context, ev models.OrderEvent) {
	metrics.FeedEventsTotal.WithLabelValues(ev.Type).Inc()

	switch ev.Type {
	case models.EventOrderCreated:
		if ev.Order == nil {
			c.log.Warn(ctx, "order.created event without order payload")
			return
		}
		if c.store.Add(*ev.Order) {
			c.log.Info(wrap.WithOrderID(ctx, ev.Order.OrderID), "order arrived", "price", ev.Order.Price)
		}

	case models.EventOrderTaken:
		if c.store.RemovePending(ev.OrderID) {
			c.log.Info(wrap.WithOrderID(ctx, ev.OrderID), "order taken by another rider")
		}

	default:
		c.log.Debug(ctx, "ignoring unknown feed event", "type", ev.Type)
	}
}
