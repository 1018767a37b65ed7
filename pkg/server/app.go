package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"DemandCast/internal/domain/models"
	domrepo "DemandCast/internal/domain/repository"
	"DemandCast/internal/usecase"
	"DemandCast/pkg/cache"
	pkgch "DemandCast/pkg/clickhouse"
	"DemandCast/pkg/config"
	xhttp "DemandCast/pkg/http"
	applogger "DemandCast/pkg/logger"
)

// App owns the process lifecycle: the HTTP server in service mode, a single
// run in one-shot mode, and orderly teardown of infrastructure clients.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	handler    xhttp.Handler
	runs       *usecase.ForecastRunUseCase
	chClient   *pkgch.Client
	publisher  domrepo.RunPublisher
	cacheSvc   cache.Service
	httpServer *xhttp.Server
}

func New(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	runs *usecase.ForecastRunUseCase,
	chClient *pkgch.Client,
	publisher domrepo.RunPublisher,
	cacheSvc cache.Service,
) *App {
	return &App{
		cfg:       cfg,
		l:         l,
		handler:   handler,
		runs:      runs,
		chClient:  chClient,
		publisher: publisher,
		cacheSvc:  cacheSvc,
	}
}

// Run starts the HTTP server and blocks until an interrupt arrives.
func (a *App) Run() error {
	a.httpServer = xhttp.NewServer(a.handler, a.l,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start failed", applogger.Error(err))
		return err
	}
	a.l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown()
}

// RunOnce executes a single forecast run with the configured parameters and
// tears down. Exit code semantics belong to the caller.
func (a *App) RunOnce(ctx context.Context) error {
	defer func() { _ = a.shutdownClients() }()

	params := a.paramsFromConfig()
	summary, err := a.runs.Run(ctx, params)
	if err != nil {
		return err
	}
	a.l.Info("one-shot run complete",
		applogger.String("run_id", summary.RunID),
		applogger.Int("rows", summary.Rows),
		applogger.Int("entities_skipped", summary.Skipped),
	)
	return nil
}

func (a *App) paramsFromConfig() models.RunParams {
	fc := a.cfg.Forecast

	levels := make([]models.Level, 0, len(fc.Levels))
	for _, l := range fc.Levels {
		levels = append(levels, models.Level(l))
	}
	if len(levels) == 0 {
		levels = []models.Level{models.LevelProduct, models.LevelWarehouse, models.LevelRegion}
	}

	model := fc.Model
	if model == "" {
		model = "seasonal-regression"
	}
	granularity := models.Granularity(fc.Granularity)
	if granularity == "" {
		granularity = models.GranularityDaily
	}
	horizon := fc.Horizon
	if horizon == 0 {
		horizon = 90
	}

	return models.RunParams{
		Levels:      levels,
		Model:       model,
		Granularity: granularity,
		Horizon:     horizon,
		Parallel:    fc.Parallel,
		Overwrite:   fc.Overwrite,
		Reconcile:   fc.Reconcile,
		SampleLimit: fc.SampleLimit,
	}
}

func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			a.l.Warn("http shutdown error", applogger.Error(err))
		}
	}
	err := a.shutdownClients()
	a.l.Info("shutdown complete")
	return err
}

func (a *App) shutdownClients() error {
	var firstErr error
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.l.Warn("publisher close error", applogger.Error(err))
			firstErr = err
		}
	}
	if a.cacheSvc != nil {
		if err := a.cacheSvc.Close(); err != nil {
			a.l.Warn("cache close error", applogger.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
