package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Enqueuer schedules background work.
type Enqueuer interface {
	EnqueueWelcomeEmail(ctx context.Context, recipient, projectName, projectID, projectCode string) error
	EnqueueRetrySweep(ctx context.Context) error
	EnqueuePollSweep(ctx context.Context) error
}

// QueueEnqueuer pushes tasks onto the Redis-backed queue for at-least-once
// processing by a Worker.
type QueueEnqueuer struct {
	client *asynq.Client
}

// NewQueueEnqueuer connects an enqueuer to the queue at redisAddr.
func NewQueueEnqueuer(redisAddr string) *QueueEnqueuer {
	return &QueueEnqueuer{client: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})}
}

// Close releases the queue connection.
func (q *QueueEnqueuer) Close() error {
	return q.client.Close()
}

// EnqueueWelcomeEmail schedules one welcome email delivery.
func (q *QueueEnqueuer) EnqueueWelcomeEmail(ctx context.Context, recipient, projectName, projectID, projectCode string) error {
	payload, err := json.Marshal(WelcomeEmailPayload{
		Recipient:   recipient,
		ProjectName: projectName,
		ProjectID:   projectID,
		ProjectCode: projectCode,
	})
	if err != nil {
		return fmt.Errorf("failed to encode welcome email payload: %w", err)
	}
	task := asynq.NewTask(TypeWelcomeEmail, payload)
	if _, err := q.client.EnqueueContext(ctx, task, asynq.MaxRetry(5), asynq.Timeout(time.Minute)); err != nil {
		return fmt.Errorf("failed to enqueue welcome email: %w", err)
	}
	return nil
}

// EnqueueRetrySweep schedules one retry pass over unlinked bookings.
func (q *QueueEnqueuer) EnqueueRetrySweep(ctx context.Context) error {
	task := asynq.NewTask(TypeRetryUnlinked, nil)
	if _, err := q.client.EnqueueContext(ctx, task, asynq.MaxRetry(3)); err != nil {
		return fmt.Errorf("failed to enqueue retry sweep: %w", err)
	}
	return nil
}

// EnqueuePollSweep schedules one provider sync pass.
func (q *QueueEnqueuer) EnqueuePollSweep(ctx context.Context) error {
	task := asynq.NewTask(TypePollEvents, nil)
	if _, err := q.client.EnqueueContext(ctx, task, asynq.MaxRetry(3)); err != nil {
		return fmt.Errorf("failed to enqueue poll sweep: %w", err)
	}
	return nil
}

// Worker consumes queued tasks.
type Worker struct {
	server   *asynq.Server
	handlers *Handlers
}

// NewWorker builds a queue worker over the configured Redis instance.
func NewWorker(redisAddr string, handlers *Handlers) *Worker {
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{Concurrency: 5},
	)
	return &Worker{server: server, handlers: handlers}
}

// Run processes tasks until Shutdown is called. It blocks.
func (w *Worker) Run() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeWelcomeEmail, w.handlers.handleWelcomeEmail)
	mux.HandleFunc(TypeRetryUnlinked, w.handlers.handleRetryUnlinked)
	mux.HandleFunc(TypePollEvents, w.handlers.handlePollEvents)
	return w.server.Run(mux)
}

// Shutdown drains the worker.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

// InlineDispatcher runs tasks in-process when no queue is configured. It
// trades the queue's at-least-once durability for zero infrastructure,
// which matches single-instance deployments.
type InlineDispatcher struct {
	handlers *Handlers
	timeout  time.Duration
	logger   *slog.Logger
}

// NewInlineDispatcher builds the queueless fallback dispatcher.
func NewInlineDispatcher(handlers *Handlers, timeout time.Duration, logger *slog.Logger) *InlineDispatcher {
	if timeout <= 0 {
		timeout = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InlineDispatcher{handlers: handlers, timeout: timeout, logger: logger}
}

// EnqueueWelcomeEmail sends the welcome email in a background goroutine.
// The task is detached from the request context so an early client
// disconnect does not cancel the delivery.
func (d *InlineDispatcher) EnqueueWelcomeEmail(ctx context.Context, recipient, projectName, projectID, projectCode string) error {
	payload := WelcomeEmailPayload{
		Recipient:   recipient,
		ProjectName: projectName,
		ProjectID:   projectID,
		ProjectCode: projectCode,
	}
	d.dispatch(TypeWelcomeEmail, func(ctx context.Context) error {
		return d.handlers.SendWelcome(ctx, payload)
	})
	return nil
}

// EnqueueRetrySweep runs the retry sweep in a background goroutine.
func (d *InlineDispatcher) EnqueueRetrySweep(ctx context.Context) error {
	d.dispatch(TypeRetryUnlinked, d.handlers.RunRetrySweep)
	return nil
}

// EnqueuePollSweep runs the provider sync in a background goroutine.
func (d *InlineDispatcher) EnqueuePollSweep(ctx context.Context) error {
	d.dispatch(TypePollEvents, d.handlers.RunPollSweep)
	return nil
}

func (d *InlineDispatcher) dispatch(taskType string, fn func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			d.logger.Error("inline task failed", "task", taskType, "error", err)
		}
	}()
}
