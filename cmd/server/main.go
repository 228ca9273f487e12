package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	_ "github.com/mattn/go-sqlite3"

	"github.com/canvasslabs/canvass/internal/api"
	"github.com/canvasslabs/canvass/internal/config"
	"github.com/canvasslabs/canvass/internal/db"
	"github.com/canvasslabs/canvass/internal/logger"
	"github.com/canvasslabs/canvass/internal/middleware"
)

func main() {
	migrateOnly := flag.Bool("migrate", false, "apply schema migrations and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if *migrateOnly {
		if err := runMigrations(cfg); err != nil {
			zl.Fatal("migrate", zap.Error(err))
		}
		zl.Info("migrations applied", zap.String("driver", cfg.Store.Driver))
		return
	}

	store, cleanup, err := openStore(cfg)
	if err != nil {
		zl.Fatal("store", zap.Error(err))
	}
	defer cleanup()

	auth := middleware.NewAuth(cfg.JWT.Secret)

	mux := http.NewServeMux()
	api.NewRouter(store, auth.SignToken).Register(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		ok := true
		if err := store.Ping(); err != nil {
			status = http.StatusServiceUnavailable
			ok = false
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": ok, "name": "Canvass API"})
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"commit":     os.Getenv("CANVASS_COMMIT"),
			"build_time": os.Getenv("CANVASS_BUILD_TIME"),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())

	handler := middleware.Recover(zl)(
		middleware.RequestLog(zl)(
			middleware.Metrics(
				middleware.SecureHeaders(
					middleware.CORS(
						middleware.NoStore(
							auth.WithAuth(mux)))))))

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("listening", zap.String("addr", cfg.Server.Addr()), zap.String("store", cfg.Store.Driver))
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			zl.Fatal("server", zap.Error(err))
		}
	case sig := <-stop:
		zl.Info("shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			zl.Error("shutdown", zap.Error(err))
		}
	}
}

// openStore builds the configured backend and returns a cleanup func.
func openStore(cfg *config.Config) (api.Store, func(), error) {
	switch cfg.Store.Driver {
	case "memory":
		return api.NewMemoryStore(), func() {}, nil
	case "sqlite":
		sqlDB, err := openSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := db.MigrateSQLite(sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, nil, err
		}
		store, err := db.NewSQLiteStore(sqlDB)
		if err != nil {
			_ = sqlDB.Close()
			return nil, nil, err
		}
		return store, func() { _ = sqlDB.Close() }, nil
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		pool, err := db.NewPostgresPool(ctx, cfg.Postgres.DSN(), cfg.Postgres.MaxConns, cfg.Postgres.MinConns)
		if err != nil {
			return nil, nil, err
		}
		if err := db.MigratePostgres(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		store, err := db.NewPostgresStore(pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func openSQLite(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", path)
	return sql.Open("sqlite3", dsn)
}
