package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zidnyyasrah/point-of-sale/internal/cache"
	"github.com/zidnyyasrah/point-of-sale/internal/config"
	"github.com/zidnyyasrah/point-of-sale/internal/httpapi"
	"github.com/zidnyyasrah/point-of-sale/internal/service"
	pgstore "github.com/zidnyyasrah/point-of-sale/internal/store/postgres"
	"github.com/zidnyyasrah/point-of-sale/internal/store/sqlite"
	"github.com/zidnyyasrah/point-of-sale/internal/store/sqlstore"
)

func runServe(ctx context.Context, opts *rootOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 2)
	defer func() {
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				log.Printf("close error: %v", err)
			}
		}
	}()

	repo, err := openRepository(startCtx, cfg)
	if err != nil {
		return err
	}
	closers = append(closers, repo.Close)

	receipts, closeCache := openReceiptCache(startCtx, cfg)
	if closeCache != nil {
		closers = append(closers, closeCache)
	}

	svc := service.New(repo, service.Options{
		ReceiptCache: receipts,
		ReceiptTTL:   cfg.ReceiptCacheTTL(),
		Location:     loc,
		StoreName:    cfg.StoreName,
		AdjustStock:  cfg.CommitAdjustsStock,
	})
	if cfg.SeedItems {
		if _, err := svc.SeedCatalog(startCtx); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
	}
	api := httpapi.New(svc, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("POS backend listening on %s (store %q, timezone %s)", cfg.Address(), cfg.StoreName, loc)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
	case <-sig:
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	log.Println("server stopped")
	return nil
}

func runMigrate(ctx context.Context, opts *rootOptions, seed bool, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	repo, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer repo.Close()
	fmt.Fprintf(out, "schema applied (%s)\n", repo.Name())

	if !seed {
		return nil
	}
	n, err := service.New(repo, service.Options{}).SeedCatalog(ctx)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	fmt.Fprintf(out, "seeded %d items\n", n)
	return nil
}

// openRepository prefers Postgres when DATABASE_URL is set and never falls
// back to SQLite in that case.
func openRepository(ctx context.Context, cfg config.Config) (*sqlstore.Store, error) {
	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres unavailable and DATABASE_URL is set: %w", err)
		}
		log.Println("repository: postgres")
		return pg, nil
	}

	db, err := sqlite.Open(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
	}
	log.Printf("repository: sqlite (%s)", cfg.SQLitePath)
	return db, nil
}

func openReceiptCache(ctx context.Context, cfg config.Config) (cache.ReceiptCache, func() error) {
	if cfg.RedisAddr == "" {
		log.Println("cache: noop")
		return cache.NoopReceiptCache{}, nil
	}

	redisCache := cache.NewRedisReceiptCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := redisCache.Ping(ctx); err != nil {
		log.Printf("redis unavailable (%v), using noop cache", err)
		_ = redisCache.Close()
		return cache.NoopReceiptCache{}, nil
	}
	log.Println("cache: redis")
	return redisCache, redisCache.Close
}
