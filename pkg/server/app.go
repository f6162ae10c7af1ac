package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"FxBias/internal/scheduler"
	"FxBias/pkg/config"
	xhttp "FxBias/pkg/http"
	pkgkafka "FxBias/pkg/kafka"
	xlogger "FxBias/pkg/logger"
)

// App encapsulates the application lifecycle. Scheduler and consumer are optional.
type App struct {
	cfg        *config.Config
	l          *xlogger.Logger
	httpServer *xhttp.Server
	scheduler  *scheduler.Scheduler
	consumer   *pkgkafka.Consumer
}

func New(
	cfg *config.Config,
	l *xlogger.Logger,
	httpServer *xhttp.Server,
	sched *scheduler.Scheduler,
	consumer *pkgkafka.Consumer,
) *App {
	return &App{
		cfg:        cfg,
		l:          l,
		httpServer: httpServer,
		scheduler:  sched,
		consumer:   consumer,
	}
}

// Run starts every component and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts every component and blocks until ctx is done, then shuts down.
func (a *App) RunContext(ctx context.Context) error {
	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", xlogger.Error(err))
		return err
	}

	if a.scheduler != nil {
		a.scheduler.Start()
	}

	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			a.l.Error("kafka consumer start error", xlogger.Error(err))
			a.shutdown()
			return err
		}
	}

	a.l.Info("fxbias started",
		xlogger.String("env", a.cfg.Environment),
		xlogger.String("backend", a.cfg.Backend.Type),
		xlogger.String("scraper", a.cfg.Scraper.Mode),
	)

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	a.shutdown()
	return nil
}

// shutdown stops intake first: no new scheduled or remote launches, then HTTP.
// The in-flight run and infrastructure clients are released by the DI cleanup.
func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", xlogger.Error(err))
		}
	}
	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", xlogger.Error(err))
	}
	a.l.Info("shutdown complete")
}
