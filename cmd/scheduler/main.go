package main

import (
	"context"
	"crypto/tls"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"travel_backoffice_backend/internal/agency"
	"travel_backoffice_backend/internal/catalog"
	"travel_backoffice_backend/internal/events"
	"travel_backoffice_backend/internal/scheduler"
	"travel_backoffice_backend/platform/config"
	"travel_backoffice_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	if cfg.GetAgencyServiceToken() == "" {
		log.Warn("AGENCY_SERVICE_TOKEN not configured; catalog refreshes will be rejected upstream")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventBus := events.NewInMemoryBus(log)
	agencyClient := agency.New(cfg, log)

	rdb, err := newRedisClient(cfg)
	if err != nil {
		log.Error("failed to configure redis", "error", err)
		panic("failed to configure redis: " + err.Error())
	}
	defer rdb.Close()

	catalogCache := catalog.NewCache(rdb, cfg.GetCatalogCacheTTL())
	catalogSvc := catalog.New(agencyClient, catalogCache, cfg, eventBus, log)

	// Seed the cache once at startup so the API never waits a full interval
	// for its first snapshot.
	if err := catalogSvc.Refresh(ctx); err != nil {
		log.Warn("initial catalog refresh failed", "error", err)
	}

	worker, err := scheduler.NewWorker(cfg, catalogSvc, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	periodic, err := scheduler.NewPeriodic(cfg, cfg, log)
	if err != nil {
		log.Error("failed to initialize periodic scheduler", "error", err)
		panic("failed to initialize periodic scheduler: " + err.Error())
	}

	go func() {
		<-ctx.Done()
		periodic.Shutdown()
	}()

	schedErr := make(chan error, 1)
	go func() {
		schedErr <- periodic.Run()
	}()

	worker.Run(ctx)

	if err := <-schedErr; err != nil {
		log.Error("periodic scheduler stopped", "error", err)
	}
	log.Info("scheduler stopped")
}

func newRedisClient(cfg *config.Config) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, err
	}
	if cfg.GetRedisTLSInsecure() {
		if opt.TLSConfig == nil {
			opt.TLSConfig = &tls.Config{}
		}
		opt.TLSConfig.InsecureSkipVerify = true
	}
	return redis.NewClient(opt), nil
}
