package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/greensolartech/storefront/api/controllers"
	"github.com/greensolartech/storefront/api/routes"
	"github.com/greensolartech/storefront/internal/cartstore"
	"github.com/greensolartech/storefront/internal/checkout"
	"github.com/greensolartech/storefront/internal/orders"
	"github.com/greensolartech/storefront/internal/sessions"
	"github.com/greensolartech/storefront/pkg/config"
	"github.com/greensolartech/storefront/pkg/db"
	"github.com/greensolartech/storefront/pkg/logger"
	"github.com/greensolartech/storefront/pkg/metrics"
	"github.com/greensolartech/storefront/pkg/migrate"
	pkgredis "github.com/greensolartech/storefront/pkg/redis"
)

const (
	shutdownTimeout = 10 * time.Second
	evictInterval   = time.Minute
	purgeInterval   = time.Hour
)

// backend is the selected cart record store plus what it needs on shutdown.
type backend struct {
	kv      cartstore.KV
	keys    cartstore.Keyer
	pingers map[string]controllers.Pinger
	closers []func() error
	purger  *cartstore.SQLKV
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openBackend(ctx, cfg, logg)
	requireResource(ctx, logg, "cart storage", err)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	cartMetrics := metrics.NewCartMetrics(reg)

	orderClient, err := orders.NewClient(cfg.Orders.BaseURL,
		orders.WithTimeout(cfg.Orders.Timeout),
		orders.WithCSRFHeader(cfg.Orders.CSRFHeader),
		orders.WithLogger(logg),
	)
	requireResource(ctx, logg, "order client", err)

	registry := sessions.NewRegistry(
		cartstore.NewStore(store.kv, store.keys, logg, cartMetrics),
		checkout.Deps{
			Orders:      orderClient,
			Logger:      logg,
			Metrics:     cartMetrics,
			AutoDismiss: cfg.Modal.AutoDismiss,
		},
		cfg.Session.IdleTTL,
	)
	go registry.Run(ctx, evictInterval)

	if store.purger != nil {
		go purgeExpired(ctx, logg, store.purger, cfg.Storage.RecordTTL)
	}

	addr := ":" + cfg.App.Port
	srvCtx := logg.WithFields(ctx, map[string]any{
		"env":            cfg.App.Env,
		"addr":           addr,
		"storage_driver": cfg.Storage.Driver,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Deps{
			Sessions: registry,
			Pingers:  store.pingers,
			Gatherer: reg,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(srvCtx, "starting storefront server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logg.Info(srvCtx, "shutdown signal received")
	case runErr = <-errCh:
		if runErr != nil {
			logg.Error(srvCtx, "storefront server stopped unexpectedly", runErr)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := []error{runErr, server.Shutdown(shutdownCtx)}
	for _, closeFn := range store.closers {
		errs = append(errs, closeFn())
	}
	if err := multierr.Combine(errs...); err != nil {
		logg.Error(srvCtx, "storefront shutdown incomplete", err)
		os.Exit(1)
	}
	logg.Info(srvCtx, "storefront stopped")
}

func openBackend(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*backend, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverRedis:
		client, err := pkgredis.New(ctx, cfg.Redis, cfg.Storage.Namespace, logg)
		if err != nil {
			return nil, err
		}
		return &backend{
			kv:      cartstore.NewRedisKV(client, cfg.Storage.RecordTTL),
			keys:    client,
			pingers: map[string]controllers.Pinger{"redis": client},
			closers: []func() error{client.Close},
		}, nil

	case config.StorageDriverSQL:
		client, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, err
		}
		if err := migrate.MaybeRun(ctx, cfg, logg, client); err != nil {
			return nil, multierr.Append(err, client.Close())
		}
		kv := cartstore.NewSQLKV(client.DB())
		return &backend{
			kv:      kv,
			keys:    cartstore.Namespace(cfg.Storage.Namespace),
			pingers: map[string]controllers.Pinger{"database": client},
			closers: []func() error{client.Close},
			purger:  kv,
		}, nil

	case config.StorageDriverMemory:
		kv := cartstore.NewMemoryKV()
		return &backend{
			kv:      kv,
			keys:    cartstore.Namespace(cfg.Storage.Namespace),
			pingers: map[string]controllers.Pinger{"memory": kv},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

// purgeExpired drops SQL cart records untouched for longer than ttl.
func purgeExpired(ctx context.Context, logg *logger.Logger, kv *cartstore.SQLKV, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := kv.PurgeBefore(ctx, now.Add(-ttl))
			if err != nil {
				logg.Error(ctx, "purging expired carts failed", err)
				continue
			}
			if n > 0 {
				logg.Info(logg.WithField(ctx, "purged", n), "expired carts purged")
			}
		}
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
