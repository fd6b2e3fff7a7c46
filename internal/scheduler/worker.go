package scheduler

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"travel_backoffice_backend/internal/catalog"
	"travel_backoffice_backend/platform/config"
	"travel_backoffice_backend/platform/logger"
)

// Worker consumes scheduled tasks and executes them against the catalog
// service.
type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	catalog *catalog.Service
	log     *logger.Logger
}

// NewWorker creates the asynq worker.
func NewWorker(cfg config.SchedulerConfig, catalogSvc *catalog.Service, log *logger.Logger) (*Worker, error) {
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

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		catalog: catalogSvc,
		log:     log,
	}

	mux.HandleFunc(TaskCatalogRefresh, w.handleCatalogRefresh)

	return w, nil
}

func (w *Worker) handleCatalogRefresh(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseCatalogRefreshPayload(task)
	if err != nil {
		return err
	}

	if err := w.catalog.Refresh(ctx); err != nil {
		w.log.Warn("catalog refresh failed", "reason", payload.Reason, "error", err)
		return err
	}
	return nil
}

// Run blocks serving tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
