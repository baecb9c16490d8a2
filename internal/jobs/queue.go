package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
)

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Dispatcher queues forecast refreshes. A burst of sales in one branch
// collapses into a single pending task.
type Dispatcher struct {
	queue  Enqueuer
	unique time.Duration
}

func NewDispatcher(queue Enqueuer) *Dispatcher {
	return &Dispatcher{queue: queue, unique: time.Minute}
}

func (d *Dispatcher) DispatchForecast(ctx context.Context, branchID uint) error {
	task, err := NewForecastTask(branchID)
	if err != nil {
		return err
	}
	_, err = d.queue.EnqueueContext(ctx, task,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
		asynq.Unique(d.unique),
	)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

// RequestForecast queues a refresh someone asked for explicitly. It skips the
// dedupe window so a request right after a sale still gets its own run.
func (d *Dispatcher) RequestForecast(ctx context.Context, branchID uint) error {
	task, err := NewForecastTask(branchID)
	if err != nil {
		return err
	}
	_, err = d.queue.EnqueueContext(ctx, task,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
	)
	return err
}

// RedisOpt turns a host:port into asynq connection options.
func RedisOpt(addr string) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: addr}
}

// NewClient constructs an Asynq client.
func NewClient(addr string) *asynq.Client {
	return asynq.NewClient(RedisOpt(addr))
}
