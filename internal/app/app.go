package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/config"
	"github.com/MrSnakeDoc/shelf/internal/httpserver"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/scheduler"
	"github.com/MrSnakeDoc/shelf/internal/version"
)

type App struct {
	cfg     *config.Config
	logger  logger.Logger
	server  *httpserver.Server
	core    *Core
	auditor *scheduler.StoreAuditor
}

func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	// Connect the store early - fail fast if unavailable
	backend, err := OpenBackend(ctx, cfg, loggerClient)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.StoreBackend, err)
	}
	loggerClient.Info("item store initialized", logger.String("backend", backend.Name()))

	core, err := NewCore(cfg, loggerClient, backend, NewSink(cfg, loggerClient))
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	// Create manual audit trigger channel
	auditTrigger := make(chan struct{}, 1)
	auditor := scheduler.NewStoreAuditor(core.Items, loggerClient.Named("audit"), cfg.AuditInterval, auditTrigger)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:          loggerClient,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		TimeNow:         time.Now,
		AllowedHosts:    cfg.AllowedHosts,
		AllowedCIDRS:    cfg.AllowedCIDRS,
		TrustProxy:      cfg.TrustProxy,
		RequestTimeout:  cfg.RequestTimeout,
		RateLimitBurst:  cfg.RateLimitBurst,
		RateLimitRefill: cfg.RateLimitRefill,
		Items:           core.Items,
		Exports:         core.Exports,
		Batch:           core.Batch,
		Dispatcher:      core.Dispatcher,
		Renames:         core.Renames,
		Auditor:         auditor,
		AuditTrigger:    auditTrigger,
	}

	return &App{
		cfg:     cfg,
		logger:  loggerClient,
		server:  httpserver.New(cfg, loggerClient, d),
		core:    core,
		auditor: auditor,
	}, nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Shelf v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Shelf %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Audit the store once, then on schedule and on demand
	if err := a.auditor.Start(ctx); err != nil {
		return fmt.Errorf("failed to start store auditor: %w", err)
	}
	a.logger.Info("store auditor started",
		logger.Duration("interval", a.cfg.AuditInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		a.auditor.Stop()
		_ = a.core.Close(context.Background())
		return err
	}

	a.auditor.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	// Commit renames still inside their quiet period before the store goes away
	if n := a.core.Renames.Pending(); n > 0 {
		a.logger.Info("flushing pending renames", logger.Int("count", n))
	}
	if err := a.core.Close(shutdownCtx); err != nil {
		a.logger.Warnf("failed to close %s store: %v", a.core.Backend.Name(), err)
	} else {
		a.logger.Info("✅ Store closed cleanly")
	}

	a.logger.Info("✅ Shelf stopped cleanly")
	return nil
}
