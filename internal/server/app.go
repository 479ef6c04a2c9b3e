// Package server wires the cloudrive backend together: metadata store,
// content store, services, the gRPC endpoint, the metrics endpoint and
// the background sweeper. It also handles graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/cloudrive/internal/logging"
	"github.com/dmitrijs2005/cloudrive/internal/server/config"
	"github.com/dmitrijs2005/cloudrive/internal/server/content"
	"github.com/dmitrijs2005/cloudrive/internal/server/gateway"
	"github.com/dmitrijs2005/cloudrive/internal/server/metrics"
	"github.com/dmitrijs2005/cloudrive/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cloudrive/internal/server/services"
	"github.com/dmitrijs2005/cloudrive/internal/server/sessions"
	"github.com/dmitrijs2005/cloudrive/internal/server/sweeper"

	gs "github.com/dmitrijs2005/cloudrive/internal/server/grpc"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	rm      repomanager.RepositoryManager
	gateway *gateway.Gateway
	sweeper *sweeper.Sweeper
}

// NewApp opens the metadata and content stores and builds the service graph.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewFromConfig(c.LogLevel, c.LogFormat)

	rm, err := openRepositoryManager(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	store, err := openContentStore(ctx, c)
	if err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("content store init error: %w", err)
	}

	registry := sessions.NewRegistry([]byte(c.SecretKey), c.SessionIdleTimeout, logger)

	us := services.NewUserService(rm, registry, logger)
	ts := services.NewTreeService(rm, store, logger)
	ss := services.NewShareService(rm, logger)
	uploads := content.NewInFlight()

	return &App{
		config:  c,
		logger:  logger,
		rm:      rm,
		gateway: gateway.New(us, ts, ss, store, logger, gateway.WithUploads(uploads)),
		sweeper: sweeper.New(ss, registry, rm.Nodes(), store, c.SweepInterval, c.OrphanGracePeriod, logger,
			sweeper.WithUploads(uploads)),
	}, nil
}

func openRepositoryManager(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	if c.DatabaseDSN == config.MemoryDSN {
		return repomanager.NewMemoryRepositoryManager(), nil
	}

	rm, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN, c.ShareDSN())
	if err != nil {
		return nil, err
	}
	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return rm, nil
}

func openContentStore(ctx context.Context, c *config.Config) (content.Store, error) {
	switch c.ContentBackend {
	case config.BackendFS:
		return content.NewFSStore(c.StorageRoot)
	case config.BackendS3:
		return content.NewS3Store(ctx, content.S3Config{
			User:     c.S3RootUser,
			Password: c.S3RootPassword,
			Bucket:   c.S3Bucket,
			Region:   c.S3Region,
			Endpoint: c.S3BaseEndpoint,
		})
	case config.BackendMemory:
		return content.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown content backend %q", c.ContentBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.gateway)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "grpc server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startMetricsServer(ctx context.Context) {
	srv := &http.Server{
		Addr:              app.config.MetricsAddr,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "metrics endpoint listening", "addr", app.config.MetricsAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, "metrics server failed", "error", err)
	}
}

// Run blocks until a termination signal arrives or ctx is cancelled, then
// waits for every component to stop and closes the metadata store.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...",
		"grpc_addr", app.config.EndpointAddrGRPC,
		"content_backend", app.config.ContentBackend)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	if app.config.MetricsAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startMetricsServer(ctx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.sweeper.Run(ctx)
	}()

	wg.Wait()

	if err := app.rm.Close(); err != nil {
		app.logger.Error(context.WithoutCancel(ctx), "closing metadata store", "error", err)
	}
	app.logger.Info(context.WithoutCancel(ctx), "Stopped")
}
