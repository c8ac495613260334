package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/selfcast/onboarding/internal/persistence"
)

// BookingWriter is the persistence surface the ingest service writes to.
type BookingWriter interface {
	UpsertByProviderURI(ctx context.Context, record persistence.BookingRecord) (persistence.BookingRecord, bool, error)
	Insert(ctx context.Context, record persistence.BookingRecord) (persistence.BookingRecord, error)
}

// IngestLinker attempts an immediate link for a freshly stored booking.
type IngestLinker interface {
	LinkOnIngest(ctx context.Context, record persistence.BookingRecord) (*persistence.Project, error)
}

// IngestService converts normalized booking events from any transport into
// stored records and triggers the immediate link attempt.
type IngestService struct {
	bookings    BookingWriter
	reconciler  IngestLinker
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewIngestService wires dependencies for the ingest service.
func NewIngestService(bookings BookingWriter, reconciler IngestLinker, idGenerator func() string, now func() time.Time, logger *slog.Logger) *IngestService {
	if now == nil {
		now = time.Now
	}
	return &IngestService{
		bookings:    bookings,
		reconciler:  reconciler,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// NormalizeAndStore persists one event and attempts the immediate link.
// Events carrying a provider URI are deduplicated on it; the email-parse
// path has no provider identity and always inserts. A record that already
// exists is returned unchanged with Created false and is not re-linked.
func (s *IngestService) NormalizeAndStore(ctx context.Context, event NormalizedBookingEvent, source persistence.BookingSource) (IngestResult, error) {
	logger := serviceLogger(ctx, s.logger, "IngestService", "NormalizeAndStore", "source", string(source))

	record := persistence.BookingRecord{
		ID:               s.idGenerator(),
		ProviderEventURI: event.ProviderEventURI,
		EventTypeURI:     event.EventTypeURI,
		EventTypeName:    event.EventTypeName,
		InviteeEmail:     event.InviteeEmail,
		InviteeName:      event.InviteeName,
		InviteePhone:     event.InviteePhone,
		ScheduledAt:      event.ScheduledAt,
		EndAt:            event.EndAt,
		Timezone:         event.Timezone,
		Status:           event.Status,
		Source:           source,
		CreatedAt:        s.now().UTC(),
	}
	if record.Status == "" {
		record.Status = persistence.BookingStatusScheduled
	}
	if record.Timezone == "" {
		record.Timezone = "UTC"
	}
	record.UpdatedAt = record.CreatedAt

	var stored persistence.BookingRecord
	var created bool
	var err error
	if record.ProviderEventURI != "" {
		stored, created, err = s.bookings.UpsertByProviderURI(ctx, record)
	} else {
		stored, err = s.bookings.Insert(ctx, record)
		created = true
	}
	if err != nil {
		return IngestResult{}, fmt.Errorf("failed to store booking: %w", err)
	}

	result := IngestResult{Booking: stored, Created: created}
	if !created {
		logger.InfoContext(ctx, "booking already known, skipping link attempt",
			"booking_id", stored.ID, "provider_event_uri", stored.ProviderEventURI)
		return result, nil
	}

	ingestedBookings.WithLabelValues(string(source)).Inc()
	logger.InfoContext(ctx, "booking stored", "booking_id", stored.ID)

	project, err := s.reconciler.LinkOnIngest(ctx, stored)
	if err != nil {
		logger.ErrorContext(ctx, "immediate link attempt failed, record stays retryable",
			"booking_id", stored.ID, "error", err)
		return result, nil
	}
	result.Project = project
	return result, nil
}
