package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"

	"storefront-session/internal/cartstore"
	"storefront-session/internal/config"
	"storefront-session/internal/db"
	"storefront-session/internal/events"
	"storefront-session/internal/httpserver"
	"storefront-session/internal/orderclient"
	"storefront-session/internal/session"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()

	var dbpool *pgxpool.Pool
	var store cartstore.Store
	if cfg.DBConnString != "" {
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			logger.Fatalf("connect to db: %v", err)
		}
		defer pool.Close()
		dbpool = pool
		store = cartstore.NewPostgres(pool)
	} else {
		logger.Printf("no DB_DSN configured, using in-memory snapshot store")
		store = cartstore.NewMemory()
	}

	orders := orderclient.New(cfg.OrderAPIBase, cfg.OrderAPITimeout)

	ctrl := session.NewController(orders, store, buildEventSink(cfg, logger), logger)
	mgr := session.NewManager()

	srv := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Sessions: mgr,
		Ctrl:     ctrl,
	}, cfg.AllowedOrigins)

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}

// buildEventSink connects the lifecycle publisher when a broker is
// configured. Events are best-effort, so a missing broker only downgrades
// to the no-op sink.
func buildEventSink(cfg config.Config, logger *log.Logger) session.EventSink {
	if cfg.AMQPURL == "" {
		return events.Noop{}
	}
	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		logger.Printf("amqp dial failed, lifecycle events disabled: %v", err)
		return events.Noop{}
	}
	pub, err := events.NewPublisher(conn)
	if err != nil {
		logger.Printf("amqp publisher init failed, lifecycle events disabled: %v", err)
		return events.Noop{}
	}
	return pub
}
