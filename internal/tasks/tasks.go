package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/selfcast/onboarding/internal/application"
	"github.com/selfcast/onboarding/internal/mailer"
)

// Task type names shared by the enqueuer and the worker.
const (
	TypeWelcomeEmail  = "email:welcome"
	TypeRetryUnlinked = "bookings:retry"
	TypePollEvents    = "bookings:poll"
)

// WelcomeEmailPayload is the serialized form of a welcome email task.
type WelcomeEmailPayload struct {
	Recipient   string `json:"recipient"`
	ProjectName string `json:"projectName"`
	ProjectID   string `json:"projectId"`
	ProjectCode string `json:"projectCode"`
}

// RetrySweeper runs one reconciliation sweep over unlinked bookings.
type RetrySweeper interface {
	RetryUnlinked(ctx context.Context) (application.RetrySummary, error)
}

// EventSyncer runs one provider sync.
type EventSyncer interface {
	Sync(ctx context.Context) (application.SyncResults, error)
}

// Handlers holds the typed task implementations, shared by the queue-backed
// worker and the inline dispatcher.
type Handlers struct {
	Mailer  mailer.Mailer
	Sweeper RetrySweeper
	Syncer  EventSyncer
	Logger  *slog.Logger
}

func (h *Handlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// SendWelcome delivers one welcome email.
func (h *Handlers) SendWelcome(ctx context.Context, payload WelcomeEmailPayload) error {
	if h.Mailer == nil {
		h.logger().WarnContext(ctx, "no mailer configured, dropping welcome email",
			"project_id", payload.ProjectID)
		return nil
	}
	return h.Mailer.SendWelcome(ctx, mailer.WelcomeMessage{
		Recipient:   payload.Recipient,
		ProjectName: payload.ProjectName,
		ProjectID:   payload.ProjectID,
		ProjectCode: payload.ProjectCode,
	})
}

// RunRetrySweep runs one retry pass over unlinked bookings.
func (h *Handlers) RunRetrySweep(ctx context.Context) error {
	summary, err := h.Sweeper.RetryUnlinked(ctx)
	if err != nil {
		return err
	}
	h.logger().InfoContext(ctx, "retry sweep finished",
		"scanned", summary.Scanned, "linked", summary.Linked,
		"skipped", summary.Skipped, "errors", summary.Errors)
	return nil
}

// RunPollSweep runs one provider sync pass.
func (h *Handlers) RunPollSweep(ctx context.Context) error {
	results, err := h.Syncer.Sync(ctx)
	if err != nil {
		return err
	}
	h.logger().InfoContext(ctx, "poll sweep finished",
		"total", results.Total, "new", results.New,
		"updated", results.Updated, "errors", results.Errors)
	return nil
}

func (h *Handlers) handleWelcomeEmail(ctx context.Context, task *asynq.Task) error {
	var payload WelcomeEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("malformed welcome email payload: %w", err)
	}
	return h.SendWelcome(ctx, payload)
}

func (h *Handlers) handleRetryUnlinked(ctx context.Context, task *asynq.Task) error {
	return h.RunRetrySweep(ctx)
}

func (h *Handlers) handlePollEvents(ctx context.Context, task *asynq.Task) error {
	return h.RunPollSweep(ctx)
}
