package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/selfcast/onboarding/internal/persistence"
)

// ProjectDirectory captures the project-side persistence operations the
// reconciler needs.
type ProjectDirectory interface {
	GetProjectByEmail(ctx context.Context, email string) (persistence.Project, error)
	GetProjectByEmailFold(ctx context.Context, email string) (persistence.Project, error)
	LinkBooking(ctx context.Context, projectID, bookingID string) error
}

// BookingStore captures the booking-side persistence operations the
// reconciler needs.
type BookingStore interface {
	ListUnlinked(ctx context.Context) ([]persistence.BookingRecord, error)
	MarkLinked(ctx context.Context, bookingID, projectID string) error
	RecordAttempt(ctx context.Context, bookingID string, at time.Time) error
}

// Reconciler matches unlinked booking records to projects by invitee email.
// The per-record transition from unlinked to linked is one-way; a record that
// cannot be matched stays retryable forever, because a project may be
// created arbitrarily long after its booking.
type Reconciler struct {
	projects ProjectDirectory
	bookings BookingStore
	now      func() time.Time
	logger   *slog.Logger
}

// NewReconciler wires dependencies for the reconciler.
func NewReconciler(projects ProjectDirectory, bookings BookingStore, now func() time.Time, logger *slog.Logger) *Reconciler {
	if now == nil {
		now = time.Now
	}
	return &Reconciler{projects: projects, bookings: bookings, now: now, logger: defaultLogger(logger)}
}

// LinkOnIngest attempts to link a just-created booking record by exact
// owner-email match. A missing project is an expected outcome, not an
// error: the record stays unlinked and nil is returned.
func (r *Reconciler) LinkOnIngest(ctx context.Context, record persistence.BookingRecord) (*persistence.Project, error) {
	logger := serviceLogger(ctx, r.logger, "Reconciler", "LinkOnIngest", "booking_id", record.ID)

	if !IsMatchableEmail(record.InviteeEmail) {
		logger.InfoContext(ctx, "booking has no matchable invitee email, leaving unlinked")
		reconcilerMisses.WithLabelValues("ingest").Inc()
		return nil, nil
	}

	project, err := r.projects.GetProjectByEmail(ctx, record.InviteeEmail)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			reconcilerMisses.WithLabelValues("ingest").Inc()
			return nil, nil
		}
		return nil, err
	}

	if err := r.link(ctx, record.ID, project.ProjectID); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "booking linked on ingest", "project_id", project.ProjectID)
	reconcilerLinks.WithLabelValues("ingest").Inc()
	return &project, nil
}

// LinkOnProjectCreate links every unlinked booking whose invitee email
// equals the new project's owner email. It covers the booking-before-project
// ordering and tolerates zero matches silently. Failures on individual
// records are isolated; the count of linked records and the first error are
// returned.
func (r *Reconciler) LinkOnProjectCreate(ctx context.Context, project persistence.Project) (int, error) {
	logger := serviceLogger(ctx, r.logger, "Reconciler", "LinkOnProjectCreate", "project_id", project.ProjectID)

	unlinked, err := r.bookings.ListUnlinked(ctx)
	if err != nil {
		return 0, err
	}

	var linked int
	var firstErr error
	for _, record := range unlinked {
		if record.InviteeEmail != project.OwnerEmail {
			continue
		}
		if err := r.link(ctx, record.ID, project.ProjectID); err != nil {
			logger.ErrorContext(ctx, "failed to link booking at project creation",
				"booking_id", record.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		linked++
		reconcilerLinks.WithLabelValues("project_create").Inc()
	}

	if linked > 0 {
		logger.InfoContext(ctx, "linked existing bookings at project creation", "linked", linked)
	}
	return linked, firstErr
}

// RetryUnlinked sweeps all unlinked records and re-attempts matching. The
// stored invitee email is normalized first (an embedded address extracted
// from noisy provider text), matched exactly, then matched case-insensitively
// as a fallback. A record that still has no match gets its attempt counter
// bumped and stays retryable; one record's failure never aborts the sweep.
func (r *Reconciler) RetryUnlinked(ctx context.Context) (RetrySummary, error) {
	logger := serviceLogger(ctx, r.logger, "Reconciler", "RetryUnlinked")

	unlinked, err := r.bookings.ListUnlinked(ctx)
	if err != nil {
		return RetrySummary{}, err
	}

	summary := RetrySummary{Scanned: len(unlinked)}
	for _, record := range unlinked {
		if !IsMatchableEmail(record.InviteeEmail) {
			summary.Skipped++
			continue
		}

		email := ExtractEmailAddress(record.InviteeEmail)
		project, err := r.projects.GetProjectByEmail(ctx, email)
		if errors.Is(err, persistence.ErrNotFound) {
			project, err = r.projects.GetProjectByEmailFold(ctx, strings.ToLower(email))
		}
		if err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				if attemptErr := r.bookings.RecordAttempt(ctx, record.ID, r.now()); attemptErr != nil {
					logger.ErrorContext(ctx, "failed to record processing attempt",
						"booking_id", record.ID, "error", attemptErr)
					summary.Errors++
				}
				reconcilerMisses.WithLabelValues("retry").Inc()
				continue
			}
			logger.ErrorContext(ctx, "project lookup failed during retry sweep",
				"booking_id", record.ID, "error", err)
			summary.Errors++
			continue
		}

		if err := r.link(ctx, record.ID, project.ProjectID); err != nil {
			logger.ErrorContext(ctx, "failed to link booking during retry sweep",
				"booking_id", record.ID, "project_id", project.ProjectID, "error", err)
			summary.Errors++
			continue
		}

		logger.InfoContext(ctx, "booking linked during retry sweep",
			"booking_id", record.ID, "project_id", project.ProjectID)
		reconcilerLinks.WithLabelValues("retry").Inc()
		summary.Linked++
	}

	return summary, nil
}

// link performs the two-step transition: booking first, then the project's
// scheduled-events membership. MarkLinked is the one-way step; if the
// membership insert fails afterwards the booking stays linked without a
// membership row and the error is surfaced to the caller. Sweeps only visit
// unlinked records, so such a row needs operator attention.
func (r *Reconciler) link(ctx context.Context, bookingID, projectID string) error {
	if err := r.bookings.MarkLinked(ctx, bookingID, projectID); err != nil {
		return err
	}
	return r.projects.LinkBooking(ctx, projectID, bookingID)
}
