// Dashboard API server.
// Serves the dashboard HTTP API behind the access decision middleware.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Yashtiwari893/11za-ai-Dashboard-sub001/internal/api"
	"github.com/Yashtiwari893/11za-ai-Dashboard-sub001/internal/version"
	"github.com/Yashtiwari893/11za-ai-Dashboard-sub001/pkg/access"
	"github.com/Yashtiwari893/11za-ai-Dashboard-sub001/pkg/session"
	"github.com/Yashtiwari893/11za-ai-Dashboard-sub001/pkg/store"
)

var (
	listenAddr = flag.String("listen", ":18090", "HTTP listen address")
	dbPath     = flag.String("db", "", "Database path (default: ~/.local/share/dashd/dashboard.db)")
	sessionTTL = flag.Duration("session-ttl", 24*time.Hour, "Session lifetime")
)

func main() {
	flag.CommandLine.SetOutput(os.Stdout)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	logger.Info("dashboard API starting", "version", version.Version)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// Session signing key comes from the environment, never a flag, so it
	// stays out of process listings.
	key := os.Getenv("DASH_SESSION_KEY")
	if key == "" {
		return fmt.Errorf("DASH_SESSION_KEY is required (at least 32 bytes)")
	}

	path := *dbPath
	if path == "" {
		path = store.DefaultPath()
	}
	db, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	sessions, err := session.NewManager([]byte(key),
		session.WithTTL(*sessionTTL),
		session.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}

	// The route table is static configuration; a shadowed entry is a deploy
	// bug, so refuse to start on one.
	routes := access.NewRouteTable(access.DefaultRoutePolicies())
	if errs := routes.Validate(); len(errs) > 0 {
		for _, e := range errs {
			logger.Error("route policy error", "error", e)
		}
		return fmt.Errorf("invalid route policy table")
	}
	// Unlisted paths are open by default; keep the watched surface visible.
	logger.Info("route policies loaded", "count", len(routes.Policies()))

	resolver := api.NewStoreIdentityResolver(sessions, db)
	engine, err := access.NewEngine(routes, resolver, db, access.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to build access engine: %w", err)
	}

	server := api.NewServer(db, sessions, engine, logger)
	mux := http.NewServeMux()
	server.RegisterRoutes(mux)

	accessMiddleware := api.NewAccessMiddleware(engine, logger)

	// Middleware order: logging -> access -> routes. Access wraps the mux so
	// every route, including ones added later, sits behind the decision
	// engine.
	httpServer := &http.Server{
		Addr:    *listenAddr,
		Handler: api.LoggingMiddleware(logger)(accessMiddleware.Wrap(mux)),
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", *listenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
