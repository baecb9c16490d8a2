package jobs

import (
	"context"
	"errors"

	"go-hardware-pos/internal/logger"

	"github.com/hibiken/asynq"
)

// Worker wraps the Asynq server.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewWorker constructs a Worker that serves forecast tasks.
func NewWorker(addr string, concurrency int, forecasts *ForecastHandler) *Worker {
	if concurrency < 1 {
		concurrency = 2
	}
	log := logger.WithComponent("jobs")
	srv := asynq.NewServer(RedisOpt(addr), asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueDefault: 1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Error().Err(err).Str("type", task.Type()).Msg("task failed")
		}),
	})
	mux := asynq.NewServeMux()
	mux.Handle(TaskForecastGenerate, forecasts)
	return &Worker{server: srv, mux: mux}
}

// Run starts processing jobs until context cancellation.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
