package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/delivery-rider/config"
	"github.com/example/delivery-rider/internal/devserver"
	"github.com/example/delivery-rider/pkg/logger"
)

// DevServer runs the development backend.
type DevServer struct {
	api *devserver.API

	cfg config.Config
	log logger.Logger
}

func NewDevServer(_ context.Context, cfg config.Config, log logger.Logger) (*DevServer, error) {
	tokens := devserver.NewTokenManager(cfg.Dev.JWTSecret, cfg.Dev.AccessTokenTTL, cfg.Dev.RefreshTokenTTL)
	api := devserver.New(cfg.Dev.Addr, tokens, cfg.Dev.OrderInterval, log)

	return &DevServer{
		api: api,
		cfg: cfg,
		log: log,
	}, nil
}

func (s *DevServer) Start(ctx context.Context) error {
	defer func() {
		s.close(ctx)
		s.log.Info(ctx, "dev backend closed")
	}()

	genCtx, cancelGen := context.WithCancel(ctx)
	defer cancelGen()

	errCh := make(chan error, 1)
	s.api.Run(genCtx, errCh)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	s.log.Info(ctx, "dev backend started", "address", s.cfg.Dev.Addr)
	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		s.log.Info(ctx, "shutting down application", "signal", sig.String())
		return nil
	case <-ctx.Done():
		return nil
	}
}

func (s *DevServer) close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.api.Stop(ctx); err != nil {
		s.log.Error(ctx, "failed to shutdown dev backend", err)
	}
}
