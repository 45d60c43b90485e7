package server

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"ARMTS/internal/usecase"
	"ARMTS/pkg/config"
	xhttp "ARMTS/pkg/http"
	applogger "ARMTS/pkg/logger"
)

type closer struct {
	name string
	c    io.Closer
}

// App encapsulates the entire application lifecycle: one mining run, an optional HTTP API
// kept alive until interrupted, and the infrastructure clients released at the end.
type App struct {
	cfg     *config.Config
	l       *applogger.Logger
	miner   *usecase.Miner
	srv     *xhttp.Server
	closers []closer
}

// New creates a new App. srv may be nil when the API is disabled.
func New(cfg *config.Config, l *applogger.Logger, miner *usecase.Miner, srv *xhttp.Server) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{cfg: cfg, l: l, miner: miner, srv: srv}
}

// AddCloser registers a client released during shutdown, in reverse order of registration.
func (a *App) AddCloser(name string, c io.Closer) {
	a.closers = append(a.closers, closer{name: name, c: c})
}

// Miner returns the mining use case.
func (a *App) Miner() *usecase.Miner { return a.miner }

// Run mines once and, when the API is enabled, keeps serving until SIGINT or SIGTERM.
// An interrupted search still returns the partial report with a nil error.
func (a *App) Run(ctx context.Context) (usecase.Report, error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer a.shutdown()

	var srvErr <-chan error
	if a.srv != nil {
		srvErr = a.srv.Start()
	}

	rep, err := a.miner.Run(ctx)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		a.l.Warn("mining interrupted", applogger.Int("rules", rep.ArchiveSize))
		return rep, nil
	case err != nil:
		return rep, err
	}

	if a.srv == nil {
		return rep, nil
	}
	a.l.Info("mining done, serving until interrupted", applogger.String("addr", a.srv.Addr()))
	select {
	case <-ctx.Done():
		a.l.Info("shutdown signal received")
	case err, ok := <-srvErr:
		if ok && err != nil {
			return rep, err
		}
	}
	return rep, nil
}

func (a *App) shutdown() {
	if a.srv != nil {
		if err := a.srv.Stop(context.Background()); err != nil {
			a.l.Warn("http shutdown error", applogger.Error(err))
		}
	}
	// flush aggregated logs while the producer is still open
	a.l.RemoveCollector()
	a.miner.Close()
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.c.Close(); err != nil {
			a.l.Warn("close error", applogger.String("client", c.name), applogger.Error(err))
		}
	}
	a.l.Info("shutdown complete")
}
