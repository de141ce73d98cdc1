package cli

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"CapLedger/internal/api"
	"CapLedger/internal/config"
	"CapLedger/internal/engine"
	"CapLedger/internal/events"
	"CapLedger/internal/ledger"
	"CapLedger/internal/observability"
	"CapLedger/internal/persistence"
	"CapLedger/internal/reporting"
	"CapLedger/internal/storage/postgres"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ledger HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(parent context.Context) error {
	cfg := config.Load()
	log := observability.NewLogger("serve")

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres
	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("postgres open: %w", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}
	log.Info().Msg("postgres connected")

	migrator := persistence.NewMigrator(db, cfg.MigrationsDir, observability.NewLogger("migrator"))
	if err := migrator.Up(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// NATS is optional: without it, events are dropped.
	var pub events.Publisher = events.NopPublisher{}
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Close()

		js, err := jetstream.New(nc)
		if err != nil {
			return fmt.Errorf("jetstream: %w", err)
		}
		if err := events.EnsureEventStream(ctx, js); err != nil {
			return err
		}
		pub = events.NewNATSPublisher(js, observability.NewLogger("events"))
		log.Info().Str("url", cfg.NATSURL).Msg("nats connected")
	} else {
		log.Info().Msg("nats not configured, event publishing disabled")
	}

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	health := observability.NewHealthChecker()

	store := postgres.NewStore(db)
	poster := ledger.NewPoster(observability.NewLogger("ledger"), metrics)
	eng := engine.New(store, poster, pub, observability.NewLogger("engine"), metrics)
	reports := reporting.NewService(store, observability.NewLogger("reporting"))

	server := api.NewServer(eng, reports, health, observability.NewLogger("api"))
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	health.SetReady(true)

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	health.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	log.Info().Msg("shutdown complete")
	return nil
}
