package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/example/delivery-rider/pkg/logger"
	wrap "github.com/example/delivery-rider/pkg/logger/wrapper"
)

// API is the development backend: a stand-in for the production delivery
// service that speaks the same wire format, including the 419 expiry signal
// and the websocket order feed.
type API struct {
	mux    *http.ServeMux
	server *http.Server

	store  *Store
	tokens *TokenManager
	hub    *Hub
	gen    *Generator

	addr string
	log  logger.Logger
}

func New(addr string, tokens *TokenManager, orderInterval time.Duration, log logger.Logger) *API {
	store := NewStore()
	hub := NewHub(log)

	api := &API{
		mux:    http.NewServeMux(),
		store:  store,
		tokens: tokens,
		hub:    hub,
		gen:    NewGenerator(store, hub, orderInterval, log),
		addr:   addr,
		log:    log,
	}

	h := NewHandler(store, tokens, hub, log)
	api.mux.HandleFunc("POST /login", h.Login)
	api.mux.HandleFunc("POST /user", h.Register)
	api.mux.HandleFunc("POST /refreshToken", h.Refresh)
	api.mux.HandleFunc("POST /logout", h.Logout)
	api.mux.HandleFunc("POST /accept", h.Accept)
	api.mux.HandleFunc("POST /complete", h.Complete)
	api.mux.HandleFunc("GET /showmethemoney", h.Earnings)
	api.mux.HandleFunc("GET /ws/orders", h.OrderFeed)

	api.server = &http.Server{
		Addr:    api.addr,
		Handler: api.mux,
	}

	return api
}

// Handler exposes the mux for in-process tests.
func (a *API) Handler() http.Handler {
	return a.mux
}

// Store exposes the backing store so callers can seed users and orders.
func (a *API) Store() *Store {
	return a.store
}

func (a *API) Run(ctx context.Context, errCh chan<- error) {
	go a.gen.Run(ctx)

	go func() {
		ctx = wrap.WithAction(ctx, "devserver_start")
		a.log.Info(ctx, "started dev backend", "address", a.addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start dev backend: %w", err)
		}
	}()
}

func (a *API) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ctx = wrap.WithAction(ctx, "devserver_stop")

	a.log.Debug(ctx, "shutting down dev backend...", "address", a.addr)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down dev backend: %w", err)
	}
	a.log.Debug(ctx, "shutting down dev backend completed")

	return nil
}
