package persistence

import (
	"context"
	"time"
)

// ProjectRepository exposes persistence operations for projects and their
// companion user records.
type ProjectRepository interface {
	// CreateProjectAndUser persists both records as a single atomic unit.
	CreateProjectAndUser(ctx context.Context, project Project, user User) error
	GetProject(ctx context.Context, projectID string) (Project, error)
	// GetProjectByEmail performs an exact owner-email match.
	GetProjectByEmail(ctx context.Context, email string) (Project, error)
	// GetProjectByEmailFold performs a case-insensitive partial match, used
	// only by the retry sweep fallback.
	GetProjectByEmailFold(ctx context.Context, email string) (Project, error)
	// GetProjectByCode returns ErrNotFound for a syntactically invalid code.
	GetProjectByCode(ctx context.Context, code string) (Project, error)
	// CodeExists reports whether a project code is already allocated.
	CodeExists(ctx context.Context, code string) (bool, error)
	// LinkBooking appends the booking to the project's scheduled events.
	// Re-linking an already-present booking is a no-op.
	LinkBooking(ctx context.Context, projectID, bookingID string) error
}

// BookingRepository stores scheduling-event records and their linked state.
type BookingRepository interface {
	// UpsertByProviderURI inserts a new unlinked record keyed by the
	// provider-native event URI. When a record with that URI already exists
	// the existing record is returned unchanged and created is false.
	UpsertByProviderURI(ctx context.Context, record BookingRecord) (BookingRecord, bool, error)
	// Insert always creates a new record; used by the email-parse path which
	// has no provider-native identity.
	Insert(ctx context.Context, record BookingRecord) (BookingRecord, error)
	GetBooking(ctx context.Context, id string) (BookingRecord, error)
	// ListUnlinked returns all unlinked records in creation order.
	ListUnlinked(ctx context.Context) ([]BookingRecord, error)
	// MarkLinked performs the one-way unlinked-to-linked transition. Calling it
	// again with the same project is a no-op; a different project yields
	// ErrAlreadyLinked.
	MarkLinked(ctx context.Context, bookingID, projectID string) error
	// RecordAttempt increments the processing counter after a failed match.
	RecordAttempt(ctx context.Context, bookingID string, at time.Time) error
}
