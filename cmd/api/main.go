package main

import (
	"context"
	"crypto/tls"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"travel_backoffice_backend/internal/agency"
	"travel_backoffice_backend/internal/audit"
	"travel_backoffice_backend/internal/catalog"
	"travel_backoffice_backend/internal/events"
	apphttp "travel_backoffice_backend/internal/http"
	"travel_backoffice_backend/internal/http/router"
	"travel_backoffice_backend/internal/wizard"
	"travel_backoffice_backend/platform/config"
	"travel_backoffice_backend/platform/logger"
	"travel_backoffice_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	agencyClient := agency.New(cfg, log)

	rdb, err := newRedisClient(cfg)
	if err != nil {
		log.Error("failed to configure redis", "error", err)
		panic("failed to configure redis: " + err.Error())
	}
	defer rdb.Close()

	catalogCache := catalog.NewCache(rdb, cfg.GetCatalogCacheTTL())
	catalogSvc := catalog.New(agencyClient, catalogCache, cfg, eventBus, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	auditRecorder := audit.New(log)
	auditRecorder.Register(eventBus)

	wizardModule := wizard.NewModule(cfg, agencyClient, catalogSvc, eventBus, val, log)

	// Evict idle wizard sessions in the background.
	go wizardModule.Registry().Sweep(ctx, time.Minute)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   agencyClient,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			wizardModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
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
