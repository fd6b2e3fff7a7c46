package scheduler

import (
	"crypto/tls"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"travel_backoffice_backend/platform/config"
	"travel_backoffice_backend/platform/logger"
)

// Periodic registers the recurring catalog refresh with the asynq scheduler.
type Periodic struct {
	scheduler *asynq.Scheduler
	queue     string
	log       *logger.Logger
}

// NewPeriodic creates the periodic job registrar.
func NewPeriodic(cfg config.SchedulerConfig, refreshCfg config.CatalogConfig, log *logger.Logger) (*Periodic, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{})

	p := &Periodic{scheduler: scheduler, queue: queue, log: log}

	task, err := NewCatalogRefreshTask(CatalogRefreshPayload{Reason: "periodic"})
	if err != nil {
		return nil, err
	}
	interval := refreshCfg.GetCatalogRefreshInterval()
	if _, err := scheduler.Register(fmt.Sprintf("@every %s", interval), task, asynq.Queue(queue)); err != nil {
		return nil, fmt.Errorf("register catalog refresh: %w", err)
	}

	return p, nil
}

// Run blocks until the scheduler stops.
func (p *Periodic) Run() error {
	if p == nil || p.scheduler == nil {
		return nil
	}
	p.log.Info("periodic scheduler starting")
	return p.scheduler.Run()
}

// Shutdown stops the scheduler.
func (p *Periodic) Shutdown() {
	if p != nil && p.scheduler != nil {
		p.scheduler.Shutdown()
	}
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
