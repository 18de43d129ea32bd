package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blossoms/internal/config"
	"blossoms/internal/docstore"
	"blossoms/internal/domain"
	"blossoms/internal/http/handlers"
	"blossoms/internal/jobs"
	applog "blossoms/internal/log"
	"blossoms/internal/objectstore"
	"blossoms/internal/repos"
)

func main() {
	if err := run(); err != nil {
		applog.Error(nil, "server.exit", err, nil)
		os.Exit(1)
	}
}

// stores holds the storage gateway for the configured driver and how to
// release it.
type stores struct {
	products domain.ProductRepository
	orders   domain.OrderRepository
	close    func(context.Context) error
}

func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	switch cfg.DBDriver {
	case config.DriverMongo:
		s, err := docstore.Connect(ctx, cfg.DBDSN, cfg.MongoDB)
		if err != nil {
			return stores{}, err
		}
		return stores{products: s.Products(), orders: s.Orders(), close: s.Close}, nil
	default:
		db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return stores{}, err
		}
		return stores{
			products: repos.NewProductRepo(db),
			orders:   repos.NewOrderRepo(db),
			close:    func(context.Context) error { return db.Close() },
		}, nil
	}
}

func openImages(ctx context.Context, cfg config.Config) (domain.ImageStore, error) {
	if cfg.StorageDriver == config.StorageS3 {
		return objectstore.NewS3(ctx, objectstore.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.S3PublicURL,
		})
	}
	return objectstore.NewLocal(cfg.MediaDir, cfg.PublicBaseURL)
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}

	// Optional file logging
	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			slog.Warn("could not open log file", "path", cfg.LogFile, "err", err)
		} else {
			defer f.Close()
			out = io.MultiWriter(os.Stdout, f)
		}
	}
	applog.Init(out, cfg.LogLevel)
	slog.SetDefault(applog.Logger())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.DBDriver, err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			applog.Error(nil, "db.close.fail", err, nil)
		}
	}()

	images, err := openImages(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s image store: %w", cfg.StorageDriver, err)
	}

	deps := handlers.NewDeps(st.products, st.orders, images)

	sched, err := jobs.NewScheduler(cfg.ReconcileSchedule, deps.OrderHandler.Orders)
	if err != nil {
		return err
	}
	if cfg.ReconcileOnStart {
		_, _ = sched.RunOnce(ctx)
	}
	sched.Start()
	applog.Info(nil, "orders.reconcile.scheduled", map[string]any{
		"schedule": cfg.ReconcileSchedule,
		"next":     sched.Next().Format(time.RFC3339),
	})

	app := handlers.NewApp(deps, cfg, out)

	errCh := make(chan error, 1)
	go func() {
		applog.Info(nil, "server.start", map[string]any{"port": cfg.Port})
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = sched.Stop(stopCtx)
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	applog.Info(nil, "server.shutdown", nil)
	var errs []error
	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
