package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/selfcast/onboarding/internal/persistence"
)

type stubEventLister struct {
	events []NormalizedBookingEvent
	err    error
	from   time.Time
	to     time.Time
}

func (s *stubEventLister) ListScheduledEvents(ctx context.Context, from, to time.Time) ([]NormalizedBookingEvent, error) {
	s.from, s.to = from, to
	return s.events, s.err
}

type scriptedIngester struct {
	created map[string]bool
	failing map[string]error
	calls   int
}

func (s *scriptedIngester) NormalizeAndStore(ctx context.Context, event NormalizedBookingEvent, source persistence.BookingSource) (IngestResult, error) {
	s.calls++
	if err := s.failing[event.ProviderEventURI]; err != nil {
		return IngestResult{}, err
	}
	return IngestResult{Created: s.created[event.ProviderEventURI]}, nil
}

func TestSyncWindow(t *testing.T) {
	lister := &stubEventLister{}
	now := time.Date(2025, 5, 28, 12, 0, 0, 0, time.UTC)
	svc := NewSyncService(lister, &scriptedIngester{}, 30*24*time.Hour, 90*24*time.Hour, fixedClock(now), nil)

	if _, err := svc.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if want := now.Add(-30 * 24 * time.Hour); !lister.from.Equal(want) {
		t.Errorf("window start = %v, want %v", lister.from, want)
	}
	if want := now.Add(90 * 24 * time.Hour); !lister.to.Equal(want) {
		t.Errorf("window end = %v, want %v", lister.to, want)
	}
}

func TestSyncRangeHonorsExplicitBounds(t *testing.T) {
	lister := &stubEventLister{}
	now := time.Date(2025, 5, 28, 12, 0, 0, 0, time.UTC)
	svc := NewSyncService(lister, &scriptedIngester{}, 30*24*time.Hour, 90*24*time.Hour, fixedClock(now), nil)

	from := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if _, err := svc.SyncRange(context.Background(), from, to); err != nil {
		t.Fatalf("SyncRange: %v", err)
	}
	if !lister.from.Equal(from) || !lister.to.Equal(to) {
		t.Errorf("window = %v / %v, want %v / %v", lister.from, lister.to, from, to)
	}

	// A zero bound falls back to the configured window around now.
	if _, err := svc.SyncRange(context.Background(), from, time.Time{}); err != nil {
		t.Fatalf("SyncRange: %v", err)
	}
	if want := now.Add(90 * 24 * time.Hour); !lister.to.Equal(want) {
		t.Errorf("window end = %v, want %v", lister.to, want)
	}
	if !lister.from.Equal(from) {
		t.Errorf("window start = %v, want %v", lister.from, from)
	}
}

func TestSyncCountsNewUpdatedAndErrors(t *testing.T) {
	lister := &stubEventLister{events: []NormalizedBookingEvent{
		{ProviderEventURI: "uri-new"},
		{ProviderEventURI: "uri-known"},
		{ProviderEventURI: "uri-broken"},
	}}
	ingester := &scriptedIngester{
		created: map[string]bool{"uri-new": true},
		failing: map[string]error{"uri-broken": errors.New("constraint violated")},
	}
	svc := NewSyncService(lister, ingester, time.Hour, time.Hour, nil, nil)

	results, err := svc.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if results.Total != 3 || results.New != 1 || results.Updated != 1 || results.Errors != 1 {
		t.Fatalf("results = %+v", results)
	}
	if len(results.ErrorDetails) != 1 || results.ErrorDetails[0].EventURI != "uri-broken" {
		t.Fatalf("error details = %+v", results.ErrorDetails)
	}
	if ingester.calls != 3 {
		t.Errorf("ingest calls = %d, want 3 (errors must not abort the run)", ingester.calls)
	}
}

func TestSyncPropagatesListingFailure(t *testing.T) {
	lister := &stubEventLister{err: errors.New("provider unreachable")}
	svc := NewSyncService(lister, &scriptedIngester{}, time.Hour, time.Hour, nil, nil)

	if _, err := svc.Sync(context.Background()); err == nil {
		t.Fatal("expected listing failure to propagate")
	}
}
