package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/selfcast/onboarding/internal/persistence"
)

// EventLister is the provider-side read surface the sync service pulls from.
type EventLister interface {
	ListScheduledEvents(ctx context.Context, from, to time.Time) ([]NormalizedBookingEvent, error)
}

// EventIngester stores one normalized event.
type EventIngester interface {
	NormalizeAndStore(ctx context.Context, event NormalizedBookingEvent, source persistence.BookingSource) (IngestResult, error)
}

// SyncService reconciles the provider's view of scheduled events with the
// local booking records. It is the manual catch-up path for events missed by
// the webhook, so one broken event must never abort the rest of the run.
type SyncService struct {
	provider  EventLister
	ingester  EventIngester
	lookback  time.Duration
	lookahead time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// NewSyncService wires dependencies for the sync service. The window spans
// lookback into the past and lookahead into the future around each run.
func NewSyncService(provider EventLister, ingester EventIngester, lookback, lookahead time.Duration, now func() time.Time, logger *slog.Logger) *SyncService {
	if now == nil {
		now = time.Now
	}
	return &SyncService{
		provider:  provider,
		ingester:  ingester,
		lookback:  lookback,
		lookahead: lookahead,
		now:       now,
		logger:    defaultLogger(logger),
	}
}

// Sync pulls the provider's events over the configured window and stores
// each one. Already-known events count as updated, fresh ones as new, and
// per-event failures are collected instead of propagated.
func (s *SyncService) Sync(ctx context.Context) (SyncResults, error) {
	return s.SyncRange(ctx, time.Time{}, time.Time{})
}

// SyncRange runs a sync over an explicit window. A zero bound falls back to
// the configured lookback or lookahead around the current time.
func (s *SyncService) SyncRange(ctx context.Context, from, to time.Time) (SyncResults, error) {
	logger := serviceLogger(ctx, s.logger, "SyncService", "Sync")

	reference := s.now().UTC()
	if from.IsZero() {
		from = reference.Add(-s.lookback)
	}
	if to.IsZero() {
		to = reference.Add(s.lookahead)
	}

	events, err := s.provider.ListScheduledEvents(ctx, from, to)
	if err != nil {
		return SyncResults{}, err
	}

	results := SyncResults{Total: len(events), ErrorDetails: []SyncError{}}
	for _, event := range events {
		ingested, err := s.ingester.NormalizeAndStore(ctx, event, persistence.BookingSourcePoll)
		if err != nil {
			logger.ErrorContext(ctx, "failed to store synced event",
				"provider_event_uri", event.ProviderEventURI, "error", err)
			results.Errors++
			results.ErrorDetails = append(results.ErrorDetails, SyncError{
				EventURI: event.ProviderEventURI,
				Error:    err.Error(),
			})
			continue
		}
		if ingested.Created {
			results.New++
		} else {
			results.Updated++
		}
	}

	logger.InfoContext(ctx, "sync run finished",
		"total", results.Total, "new", results.New, "updated", results.Updated, "errors", results.Errors)
	return results, nil
}
