package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/formcoach/internal/config"
	"github.com/meltforce/formcoach/internal/mcp"
	fcserver "github.com/meltforce/formcoach/internal/server"
	"github.com/meltforce/formcoach/internal/metrics"
	"github.com/meltforce/formcoach/internal/storage"
	"github.com/meltforce/formcoach/internal/workout"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	log.Info("formcoach starting", "version", Version)

	ctx := context.Background()
	journal, err := openJournal(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open journal", "driver", cfg.Journal.Driver, "error", err)
		os.Exit(1)
	}
	defer func() { _ = journal.Close() }()

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	collector := metrics.NewCollector(log)
	tracker := workout.New(log,
		workout.WithMinVisibility(cfg.Tracker.MinVisibility),
		workout.WithUnknownExercises(cfg.Tracker.AllowUnknownExercise),
		workout.WithObserver(collector),
	)

	srv := fcserver.New(tracker, journal, collector, fcserver.Options{
		APIKey: cfg.Auth.APIKey,
		MaxFPS: cfg.Tracker.MaxFPS,
	}, log)

	if cfg.MCP.Enabled {
		mcpSrv := mcp.New(mcp.NewLocal(tracker, journal, log), Version, log)
		srv.SetMCP(server.NewStreamableHTTPServer(mcpSrv))
		log.Info("mcp endpoint enabled", "path", "/mcp")
	}

	// Start server: tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}

	// a workout left open at shutdown is still journaled
	if st := tracker.Status(); st.Active {
		if err := storage.RecordFinished(shutdownCtx, journal, tracker.End()); err != nil {
			log.Warn("failed to journal open workout", "error", err)
		}
	}
	log.Info("server stopped")
}

// openJournal connects the configured session journal. Postgres migrations
// run before the pool is opened.
func openJournal(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.Journal, error) {
	switch cfg.Journal.Driver {
	case config.JournalPostgres:
		dsn := cfg.Database.DSN()
		if err := storage.RunMigrations(dsn, "migrations"); err != nil {
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		log.Info("migrations applied")
		db, err := storage.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		log.Info("database connected")
		return db, nil
	case config.JournalSQLite:
		db, err := storage.OpenLocal(cfg.Journal.Path)
		if err != nil {
			return nil, err
		}
		log.Info("journal opened", "path", cfg.Journal.Path)
		return db, nil
	default:
		return storage.Nop{}, nil
	}
}
