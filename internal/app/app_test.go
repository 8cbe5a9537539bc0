package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/MrSnakeDoc/linemark/internal/config"
	"github.com/MrSnakeDoc/linemark/internal/logger"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Backend:         backend,
		OptionsFile:     filepath.Join(dir, "options.yaml"),
		SQLitePath:      filepath.Join(dir, "data", "linemark.db"),
		Workspaces:      []string{dir},
		ShutdownTimeout: time.Second,

		RedisConnectTimeout: time.Second,
		RedisRetryInterval:  10 * time.Millisecond,
		RedisMaxWait:        50 * time.Millisecond,
		RedisPingTimeout:    100 * time.Millisecond,
		RedisPoolSize:       2,
	}
}

func TestOpenBlobs(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name    string
		backend string
		setup   func(*config.Config)
		wantErr bool
	}{
		{name: "memory", backend: config.BackendMemory},
		{name: "sqlite", backend: config.BackendSQLite},
		{name: "redis", backend: config.BackendRedis, setup: func(c *config.Config) { c.RedisAddr = mr.Addr() }},
		{name: "redis url", backend: config.BackendRedis, setup: func(c *config.Config) {
			c.RedisAddr = "unused:1"
			c.RedisURL = "redis://" + mr.Addr()
		}},
		{name: "bad redis url", backend: config.BackendRedis, setup: func(c *config.Config) { c.RedisURL = "http://nope" }, wantErr: true},
		{name: "unknown", backend: "postgres", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, tt.backend)
			if tt.setup != nil {
				tt.setup(cfg)
			}
			store, err := OpenBlobs(context.Background(), cfg, logger.NewNop())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("OpenBlobs() error = %v", err)
			}
			defer store.Close()

			if err := store.Ping(context.Background()); err != nil {
				t.Errorf("Ping() error = %v", err)
			}
		})
	}
}

func TestAppPersistsAcrossRestart(t *testing.T) {
	cfg := testConfig(t, config.BackendSQLite)
	ctx := context.Background()

	a, err := New(ctx, cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	b := a.Service().Add(ctx, filepath.Join(cfg.Workspaces[0], "missing.go"), 4, "kept")
	if err := a.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	again, err := New(ctx, cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	if err := again.Start(ctx); err != nil {
		t.Fatalf("restart error = %v", err)
	}
	defer again.Close(ctx)

	got, err := again.Service().Get(b.ID)
	if err != nil {
		t.Fatalf("bookmark lost across restart: %v", err)
	}
	if got.Label != "kept" || got.Line != 4 {
		t.Errorf("reloaded = %+v", got)
	}
}
