package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/linemark/internal/blob"
	"github.com/MrSnakeDoc/linemark/internal/config"
	"github.com/MrSnakeDoc/linemark/internal/domain"
	"github.com/MrSnakeDoc/linemark/internal/httpserver"
	"github.com/MrSnakeDoc/linemark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linemark/internal/logger"
	"github.com/MrSnakeDoc/linemark/internal/service"
	"github.com/MrSnakeDoc/linemark/internal/utils"
	"github.com/MrSnakeDoc/linemark/internal/version"
)

// App owns one bookmark service and the resources behind it.
type App struct {
	cfg      *config.Config
	logger   logger.Logger
	settings *config.Settings
	blobs    blob.Store
	svc      *service.Service
}

// New opens the options file and the blob backend and builds the
// service. The service is not started.
func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	settings, err := config.OpenSettings(cfg.OptionsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open options: %w", err)
	}

	blobs, err := OpenBlobs(ctx, cfg, loggerClient)
	if err != nil {
		return nil, err
	}

	svc := service.New(service.Deps{
		Settings:       settings,
		Blobs:          blobs,
		Workspaces:     domain.NewWorkspaces(cfg.Workspaces...),
		Logger:         loggerClient,
		CheckInterval:  cfg.CheckInterval,
		ReloadInterval: cfg.OptionsReloadInterval,
	})

	return &App{
		cfg:      cfg,
		logger:   loggerClient,
		settings: settings,
		blobs:    blobs,
		svc:      svc,
	}, nil
}

// OpenBlobs connects the backend selected by cfg.Backend.
func OpenBlobs(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (blob.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		loggerClient.Warn("memory backend selected, bookmarks will not survive a restart")
		return blob.NewMemory(), nil

	case config.BackendRedis:
		r, err := blob.DialRedis(ctx, blob.RedisOptions{
			URL:            cfg.RedisURL,
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		loggerClient.Info("Redis initialized successfully")
		return r, nil

	case config.BackendSQLite:
		s, err := blob.NewSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		loggerClient.Info("sqlite backend opened", logger.Path(cfg.SQLitePath))
		return s, nil
	}
	return nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
}

// Service returns the bookmark service.
func (a *App) Service() *service.Service { return a.svc }

// Start loads the collection and starts background work.
func (a *App) Start(ctx context.Context) error {
	if err := a.svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	a.logger.Info("bookmark service started",
		logger.Key(a.svc.Key()),
		logger.Int("bookmarks", a.svc.Len()),
		logger.Strings("workspaces", a.svc.Workspaces()),
		logger.Duration("check_interval", a.cfg.CheckInterval),
		logger.Duration("options_reload_interval", a.cfg.OptionsReloadInterval))
	return nil
}

// Close flushes pending changes and releases the backend.
func (a *App) Close(ctx context.Context) error {
	err := a.svc.Close(ctx)
	utils.MustClose(a.blobs, a.logger, "blob store")
	return err
}

// Run serves the control API until SIGINT/SIGTERM.
func (a *App) Run() error {
	build := version.Get()
	a.logger.Infof("🚀 Starting %s on %s", build, a.cfg.ListenAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}

	server := httpserver.New(a.cfg, a.logger, deps.Deps{
		Logger:       a.logger,
		StartTime:    time.Now(),
		Build:        build,
		AllowedHosts: a.cfg.AllowedHosts,
		AllowedCIDRS: a.cfg.AllowedCIDRS,
		TrustProxy:   a.cfg.TrustProxy,
		RateBurst:    a.cfg.RateBurst,
		RatePerMin:   a.cfg.RatePerMin,
		Service:      a.svc,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}
	if err := a.Close(shutdownCtx); err != nil {
		a.logger.Error("final save failed", logger.Error(err))
		if runErr == nil {
			runErr = err
		}
	}
	if runErr != nil {
		return runErr
	}

	a.logger.Info("✅ linemark stopped cleanly")
	return nil
}
