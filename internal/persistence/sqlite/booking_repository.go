package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/selfcast/onboarding/internal/persistence"
)

// BookingRepository implements persistence.BookingRepository using SQLite.
type BookingRepository struct {
	pool *ConnectionPool
}

// NewBookingRepository creates a new SQLite booking repository.
func NewBookingRepository(pool *ConnectionPool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

const bookingColumns = `id, provider_event_uri, event_type_uri, event_type_name,
	invitee_email, invitee_name, invitee_phone,
	scheduled_at, end_at, timezone, status, source,
	project_linked, project_id, processing_attempts, last_processing_attempt,
	created_at, updated_at`

// UpsertByProviderURI inserts a record keyed by the provider event URI. An
// existing record with the same URI is returned unchanged; this suppresses
// duplicate ingestion when polling overlaps with webhook delivery.
func (r *BookingRepository) UpsertByProviderURI(ctx context.Context, record persistence.BookingRecord) (persistence.BookingRecord, bool, error) {
	if record.ProviderEventURI == "" {
		return persistence.BookingRecord{}, false, persistence.ErrConstraintViolation
	}

	existing, err := r.getByProviderURI(ctx, record.ProviderEventURI)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, persistence.ErrNotFound) {
		return persistence.BookingRecord{}, false, err
	}

	inserted, err := r.Insert(ctx, record)
	if err != nil {
		// Lost a race with a concurrent ingest of the same event.
		if errors.Is(err, persistence.ErrDuplicate) {
			existing, getErr := r.getByProviderURI(ctx, record.ProviderEventURI)
			if getErr == nil {
				return existing, false, nil
			}
		}
		return persistence.BookingRecord{}, false, err
	}

	return inserted, true, nil
}

// Insert creates a new booking record.
func (r *BookingRepository) Insert(ctx context.Context, record persistence.BookingRecord) (persistence.BookingRecord, error) {
	if record.ID == "" {
		return persistence.BookingRecord{}, persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = record.CreatedAt

	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID,
		nullableString(record.ProviderEventURI),
		record.EventTypeURI,
		record.EventTypeName,
		record.InviteeEmail,
		record.InviteeName,
		record.InviteePhone,
		record.ScheduledAt.UTC().Format(time.RFC3339Nano),
		nullableTime(record.EndAt),
		record.Timezone,
		string(record.Status),
		string(record.Source),
		boolToInt(record.ProjectLinked),
		nullableString(record.ProjectID),
		record.ProcessingAttempts,
		nullableTimePtr(record.LastProcessingAttempt),
		record.CreatedAt.UTC().Format(time.RFC3339Nano),
		record.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return persistence.BookingRecord{}, mapError(err)
	}

	return record, nil
}

// GetBooking retrieves a booking record by its identifier.
func (r *BookingRepository) GetBooking(ctx context.Context, id string) (persistence.BookingRecord, error) {
	if id == "" {
		return persistence.BookingRecord{}, persistence.ErrNotFound
	}
	return r.queryBooking(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
}

// ListUnlinked returns all unlinked records in creation order.
func (r *BookingRepository) ListUnlinked(ctx context.Context) ([]persistence.BookingRecord, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE project_linked = 0
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var records []persistence.BookingRecord
	for rows.Next() {
		record, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return records, nil
}

// MarkLinked transitions a booking from unlinked to linked. The transition is
// one-way: re-linking to the same project is a no-op, a different project is
// rejected with ErrAlreadyLinked.
func (r *BookingRepository) MarkLinked(ctx context.Context, bookingID, projectID string) error {
	if bookingID == "" || projectID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var linked int
		var current sql.NullString
		err := tx.QueryRowContext(ctx, `
			SELECT project_linked, project_id FROM bookings WHERE id = ?
		`, bookingID).Scan(&linked, &current)
		if err != nil {
			return mapError(err)
		}

		if linked != 0 {
			if current.Valid && current.String == projectID {
				return nil
			}
			return persistence.ErrAlreadyLinked
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE bookings
			SET project_linked = 1, project_id = ?, updated_at = ?
			WHERE id = ?
		`, projectID, time.Now().UTC().Format(time.RFC3339Nano), bookingID)
		if err != nil {
			return mapError(err)
		}

		return nil
	})
}

// RecordAttempt increments the processing counter after a failed match.
func (r *BookingRepository) RecordAttempt(ctx context.Context, bookingID string, at time.Time) error {
	if bookingID == "" {
		return persistence.ErrNotFound
	}

	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE bookings
		SET processing_attempts = processing_attempts + 1,
		    last_processing_attempt = ?,
		    updated_at = ?
		WHERE id = ?
	`,
		at.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339Nano),
		bookingID,
	)
	if err != nil {
		return mapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

func (r *BookingRepository) getByProviderURI(ctx context.Context, uri string) (persistence.BookingRecord, error) {
	return r.queryBooking(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE provider_event_uri = ?`, uri)
}

func (r *BookingRepository) queryBooking(ctx context.Context, query string, args ...any) (persistence.BookingRecord, error) {
	row := r.pool.db.QueryRowContext(ctx, query, args...)
	return scanBooking(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (persistence.BookingRecord, error) {
	var record persistence.BookingRecord
	var providerURI, endAt, projectID, lastAttempt sql.NullString
	var status, source string
	var linked int
	var scheduledAt, createdAt, updatedAt string

	err := row.Scan(
		&record.ID,
		&providerURI,
		&record.EventTypeURI,
		&record.EventTypeName,
		&record.InviteeEmail,
		&record.InviteeName,
		&record.InviteePhone,
		&scheduledAt,
		&endAt,
		&record.Timezone,
		&status,
		&source,
		&linked,
		&projectID,
		&record.ProcessingAttempts,
		&lastAttempt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.BookingRecord{}, mapError(err)
	}

	record.ProviderEventURI = providerURI.String
	record.ProjectID = projectID.String
	record.Status = persistence.BookingStatus(status)
	record.Source = persistence.BookingSource(source)
	record.ProjectLinked = linked != 0

	if record.ScheduledAt, err = time.Parse(time.RFC3339Nano, scheduledAt); err != nil {
		return persistence.BookingRecord{}, fmt.Errorf("failed to parse scheduled_at: %w", err)
	}
	if endAt.Valid {
		if record.EndAt, err = time.Parse(time.RFC3339Nano, endAt.String); err != nil {
			return persistence.BookingRecord{}, fmt.Errorf("failed to parse end_at: %w", err)
		}
	}
	if lastAttempt.Valid {
		parsed, err := time.Parse(time.RFC3339Nano, lastAttempt.String)
		if err != nil {
			return persistence.BookingRecord{}, fmt.Errorf("failed to parse last_processing_attempt: %w", err)
		}
		record.LastProcessingAttempt = &parsed
	}
	if record.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return persistence.BookingRecord{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if record.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return persistence.BookingRecord{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return record, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func nullableTimePtr(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}
