package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/delivery-rider/config"
	"github.com/example/delivery-rider/internal/adapter/backend"
	"github.com/example/delivery-rider/internal/adapter/feed"
	"github.com/example/delivery-rider/internal/adapter/securestore"
	"github.com/example/delivery-rider/internal/service/orders"
	"github.com/example/delivery-rider/internal/service/session"
	"github.com/example/delivery-rider/pkg/logger"
)

// Rider is the client agent: backend pipeline, session, order collections and
// the live order feed, plus a local debug endpoint for metrics and state.
type Rider struct {
	sessions     *session.Service
	sessionStore *session.Store
	orders       *orders.Service
	orderStore   *orders.Store
	feed         *feed.Consumer
	debug        *http.Server

	cfg config.Config
	log logger.Logger
}

func NewRider(ctx context.Context, cfg config.Config, log logger.Logger) (*Rider, error) {
	tokens, err := securestore.New(cfg.TokenStore.Path, cfg.TokenStore.Secret)
	if err != nil {
		return nil, err
	}

	client := backend.NewClient(backend.NewTransport(cfg.Backend.BaseURL, cfg.Backend.Timeout, log))

	sessionStore := session.NewStore()
	coord := session.NewCoordinator(client, tokens, sessionStore, log)
	pipe := backend.NewPipeline(coord, cfg.Backend.TokenLeeway, log)
	sessions := session.NewService(client, tokens, sessionStore, coord, pipe, log)

	orderStore := orders.NewStore()
	orderSvc := orders.NewService(client, pipe, orderStore, log)

	consumer := feed.NewConsumer(cfg.Feed.URL, coord, orderStore, cfg.Feed.MinBackoff, cfg.Feed.MaxBackoff, log)

	r := &Rider{
		sessions:     sessions,
		sessionStore: sessionStore,
		orders:       orderSvc,
		orderStore:   orderStore,
		feed:         consumer,
		cfg:          cfg,
		log:          log,
	}
	r.debug = &http.Server{
		Addr:    cfg.Debug.Addr,
		Handler: r.debugMux(),
	}

	return r, nil
}

// Sessions exposes the session service for UI bindings.
func (r *Rider) Sessions() *session.Service {
	return r.sessions
}

// Orders exposes the order service for UI bindings.
func (r *Rider) Orders() *orders.Service {
	return r.orders
}

func (r *Rider) Start(ctx context.Context) error {
	defer func() {
		r.close(ctx)
		r.log.Info(ctx, "rider agent closed")
	}()

	// Pick up a previous session if a refresh token survives on device.
	if err := r.sessions.Restore(ctx); err != nil {
		return err
	}

	feedCtx, cancelFeed := context.WithCancel(ctx)
	defer cancelFeed()
	go r.feed.Run(feedCtx)

	errCh := make(chan error, 1)
	go func() {
		r.log.Info(ctx, "debug endpoint listening", "address", r.cfg.Debug.Addr)
		if err := r.debug.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	r.log.Info(ctx, "rider agent started")
	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		r.log.Info(ctx, "shutting down application", "signal", sig.String())
		return nil
	case <-ctx.Done():
		return nil
	}
}

func (r *Rider) close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := r.debug.Shutdown(ctx); err != nil {
		r.log.Error(ctx, "failed to shutdown debug endpoint", err)
	}
}

func (r *Rider) debugMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/state", func(w http.ResponseWriter, _ *http.Request) {
		sess := r.sessionStore.Current()
		state := map[string]any{
			"session": map[string]any{
				"name":     sess.Name,
				"email":    sess.Email,
				"earnings": sess.Earnings,
				"loggedIn": sess.LoggedIn(),
			},
			"pending": r.orderStore.Pending(),
			"active":  r.orderStore.Active(),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(state)
	})
	return mux
}
