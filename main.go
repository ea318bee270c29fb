package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/jscorp/hostpanel/internal/auth"
	"github.com/jscorp/hostpanel/internal/config"
	"github.com/jscorp/hostpanel/internal/diagnostics"
	"github.com/jscorp/hostpanel/internal/events"
	"github.com/jscorp/hostpanel/internal/metrics"
	"github.com/jscorp/hostpanel/internal/middleware"
	"github.com/jscorp/hostpanel/internal/plugins"
	_ "github.com/jscorp/hostpanel/internal/plugins/storage"
	"github.com/jscorp/hostpanel/internal/prefs"
	"github.com/jscorp/hostpanel/internal/seed"
	"github.com/jscorp/hostpanel/internal/server"
	"github.com/jscorp/hostpanel/internal/stats"
	"github.com/jscorp/hostpanel/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Parse command-line flags (can override env vars)
	port := flag.Int("port", config.DefaultPort, "Port to listen on")
	storageName := flag.String("storage", "", "Storage backend: memory, sqlite, postgres, badger or s3")
	dbPath := flag.String("db", config.DefaultDBPath, "Path to SQLite database")
	seedFile := flag.String("seed-file", "", "Path to a JSON fixtures file for initial seeding")
	flag.Parse()

	cfg, err := config.LoadWithFlags(*port, *storageName, *dbPath, *seedFile)
	if err != nil {
		log.Fatalf("Configuration error:\n%v\n\nSee .env.example for configuration options.", err)
	}

	slog.SetDefault(newLogger(os.Stderr, cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("hostpanel stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// fixtures returns the seed data: the file named by cfg.SeedFile when set,
// otherwise the built-in catalog.
func fixtures(cfg *config.Config) (seed.Fixtures, error) {
	if cfg.SeedFile == "" {
		return seed.DefaultFixtures(), nil
	}
	return seed.LoadFixtures(cfg.SeedFile)
}

// buildApp wires every component over an initialized plugin registry.
func buildApp(ctx context.Context, cfg *config.Config, registry *plugins.Registry) (*server.App, error) {
	substrate := registry.Storage()
	if substrate == nil {
		return nil, errors.New("no storage plugin initialized")
	}

	bus := events.NewBus()
	var agg *stats.Aggregator
	m := metrics.New(metrics.StatsSourceFunc(func(ctx context.Context) (stats.Stats, error) {
		return agg.GetStats(ctx)
	}))
	s := store.New(substrate, store.WithNotifier(bus), store.WithObserver(m))
	agg = stats.New(s)

	if cfg.Seed {
		fx, err := fixtures(cfg)
		if err != nil {
			return nil, fmt.Errorf("load seed fixtures: %w", err)
		}
		res, err := seed.NewSeeder(s).SeedAll(ctx, fx)
		if err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
		slog.Info("seed complete",
			"packages", res.Packages,
			"customers", res.Customers,
			"orders", res.Orders,
			"skipped_orders", res.SkippedOrders,
		)
	}

	gate, err := auth.NewGate(substrate, auth.Config{
		Username:    cfg.AdminUsername,
		Password:    cfg.AdminPassword,
		Secret:      []byte(cfg.SessionSecret),
		SessionTTL:  cfg.SessionTTL,
		RememberTTL: cfg.RememberTTL,
	})
	if err != nil {
		return nil, err
	}
	if cfg.SessionSecret == "" {
		slog.Warn("HOSTPANEL_SESSION_SECRET not set; sessions will not survive a restart")
	}

	app := &server.App{
		Store:   s,
		Gate:    gate,
		Stats:   agg,
		Themes:  prefs.NewThemes(substrate),
		Bus:     bus,
		Metrics: m,
		Plugins: registry,
		Config:  cfg,
	}
	app.Diagnostics = diagnostics.NewCollector(cfg, registry, agg, time.Now())
	if cfg.LoginRateLimit > 0 {
		app.LoginLimiter = middleware.NewRateLimiter(rate.Limit(cfg.LoginRateLimit), cfg.LoginBurst)
	}
	return app, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	registry := plugins.Global()
	if err := registry.Initialize(ctx, cfg.RegistryConfig()); err != nil {
		return err
	}
	defer registry.Close()

	app, err := buildApp(ctx, cfg, registry)
	if err != nil {
		return err
	}
	if app.LoginLimiter != nil {
		defer app.LoginLimiter.Stop()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("hostpanel listening", "addr", srv.Addr, "storage", cfg.Storage)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
