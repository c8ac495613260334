package application

import (
	"context"
	"testing"
	"time"

	"github.com/selfcast/onboarding/internal/persistence"
)

func TestLinkOnIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("links when a project owns the invitee email", func(t *testing.T) {
		store := newFakeStore()
		store.addProject(persistence.Project{ProjectID: "jon-doe-7", OwnerEmail: "jon@example.com"})
		store.addBooking(persistence.BookingRecord{ID: "b1", InviteeEmail: "jon@example.com"})

		r := NewReconciler(store, store, nil, nil)
		project, err := r.LinkOnIngest(ctx, *store.bookings["b1"])
		if err != nil {
			t.Fatalf("LinkOnIngest: %v", err)
		}
		if project == nil || project.ProjectID != "jon-doe-7" {
			t.Fatalf("expected jon-doe-7, got %+v", project)
		}
		if !store.bookings["b1"].ProjectLinked {
			t.Error("booking should be marked linked")
		}
		if got := store.project("jon-doe-7").ScheduledEvents; len(got) != 1 || got[0] != "b1" {
			t.Errorf("scheduled events = %v, want [b1]", got)
		}
	})

	t.Run("no matching project leaves the record unlinked without error", func(t *testing.T) {
		store := newFakeStore()
		store.addBooking(persistence.BookingRecord{ID: "b1", InviteeEmail: "nobody@example.com"})

		r := NewReconciler(store, store, nil, nil)
		project, err := r.LinkOnIngest(ctx, *store.bookings["b1"])
		if err != nil {
			t.Fatalf("LinkOnIngest: %v", err)
		}
		if project != nil {
			t.Fatalf("expected no project, got %+v", project)
		}
		if store.bookings["b1"].ProjectLinked {
			t.Error("booking must stay unlinked")
		}
	})

	t.Run("a failed membership insert surfaces the error after marking the booking", func(t *testing.T) {
		store := newFakeStore()
		store.addProject(persistence.Project{ProjectID: "jon-doe-7", OwnerEmail: "jon@example.com"})
		store.addBooking(persistence.BookingRecord{ID: "b1", InviteeEmail: "jon@example.com"})
		store.linkBookingErr = persistence.ErrNotFound

		r := NewReconciler(store, store, nil, nil)
		if _, err := r.LinkOnIngest(ctx, *store.bookings["b1"]); err == nil {
			t.Fatal("expected the membership failure to surface")
		}
		// The booking transition happens first and is not rolled back;
		// callers count the surfaced error.
		if !store.bookings["b1"].ProjectLinked {
			t.Error("booking stays marked linked after the membership failure")
		}
		if got := store.project("jon-doe-7").ScheduledEvents; len(got) != 0 {
			t.Errorf("scheduled events = %v, want none", got)
		}
	})

	t.Run("placeholder invitee email is never matched", func(t *testing.T) {
		store := newFakeStore()
		store.addProject(persistence.Project{ProjectID: "p", OwnerEmail: PlaceholderInviteeValue})
		store.addBooking(persistence.BookingRecord{ID: "b1", InviteeEmail: PlaceholderInviteeValue})

		r := NewReconciler(store, store, nil, nil)
		project, err := r.LinkOnIngest(ctx, *store.bookings["b1"])
		if err != nil {
			t.Fatalf("LinkOnIngest: %v", err)
		}
		if project != nil {
			t.Fatal("placeholder value must not link to anything")
		}
	})
}

func TestLinkOnProjectCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("attaches bookings that arrived before the project", func(t *testing.T) {
		store := newFakeStore()
		store.addBooking(persistence.BookingRecord{ID: "b1", InviteeEmail: "amy@example.com"})
		store.addBooking(persistence.BookingRecord{ID: "b2", InviteeEmail: "other@example.com"})
		store.addBooking(persistence.BookingRecord{ID: "b3", InviteeEmail: "amy@example.com"})
		store.addProject(persistence.Project{ProjectID: "amy-site-3", OwnerEmail: "amy@example.com"})

		r := NewReconciler(store, store, nil, nil)
		linked, err := r.LinkOnProjectCreate(ctx, *store.project("amy-site-3"))
		if err != nil {
			t.Fatalf("LinkOnProjectCreate: %v", err)
		}
		if linked != 2 {
			t.Fatalf("linked = %d, want 2", linked)
		}
		if got := store.project("amy-site-3").ScheduledEvents; len(got) != 2 || got[0] != "b1" || got[1] != "b3" {
			t.Errorf("scheduled events = %v, want [b1 b3]", got)
		}
		if store.bookings["b2"].ProjectLinked {
			t.Error("unrelated booking must stay unlinked")
		}
	})

	t.Run("zero matches is silent", func(t *testing.T) {
		store := newFakeStore()
		store.addProject(persistence.Project{ProjectID: "p", OwnerEmail: "amy@example.com"})

		r := NewReconciler(store, store, nil, nil)
		linked, err := r.LinkOnProjectCreate(ctx, *store.project("p"))
		if err != nil {
			t.Fatalf("LinkOnProjectCreate: %v", err)
		}
		if linked != 0 {
			t.Fatalf("linked = %d, want 0", linked)
		}
	})
}

func TestRetryUnlinked(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 28, 12, 0, 0, 0, time.UTC)

	t.Run("extracts embedded addresses and falls back to folded match", func(t *testing.T) {
		store := newFakeStore()
		store.addProject(persistence.Project{ProjectID: "amy-site-3", OwnerEmail: "amy@example.com"})
		store.addProject(persistence.Project{ProjectID: "bob-shop-9", OwnerEmail: "Bob@Example.com"})
		store.addBooking(persistence.BookingRecord{ID: "b1", InviteeEmail: "Amy Jones [amy@example.com]"})
		store.addBooking(persistence.BookingRecord{ID: "b2", InviteeEmail: "bob@example.com"})
		store.addBooking(persistence.BookingRecord{ID: "b3", InviteeEmail: "stranger@example.com"})
		store.addBooking(persistence.BookingRecord{ID: "b4", InviteeEmail: PlaceholderInviteeValue})

		r := NewReconciler(store, store, fixedClock(now), nil)
		summary, err := r.RetryUnlinked(ctx)
		if err != nil {
			t.Fatalf("RetryUnlinked: %v", err)
		}
		want := RetrySummary{Scanned: 4, Linked: 2, Skipped: 1, Errors: 0}
		if summary != want {
			t.Fatalf("summary = %+v, want %+v", summary, want)
		}
		if store.bookings["b1"].ProjectID != "amy-site-3" {
			t.Errorf("b1 linked to %q, want amy-site-3", store.bookings["b1"].ProjectID)
		}
		if store.bookings["b2"].ProjectID != "bob-shop-9" {
			t.Errorf("b2 linked to %q, want bob-shop-9", store.bookings["b2"].ProjectID)
		}
		if got := store.bookings["b3"].ProcessingAttempts; got != 1 {
			t.Errorf("b3 attempts = %d, want 1", got)
		}
		if store.bookings["b3"].LastProcessingAttempt == nil || !store.bookings["b3"].LastProcessingAttempt.Equal(now) {
			t.Error("b3 last attempt timestamp not recorded")
		}
		if got := store.bookings["b4"].ProcessingAttempts; got != 0 {
			t.Errorf("placeholder record attempts = %d, want 0", got)
		}
	})

	t.Run("a second sweep is a no-op for linked records", func(t *testing.T) {
		store := newFakeStore()
		store.addProject(persistence.Project{ProjectID: "amy-site-3", OwnerEmail: "amy@example.com"})
		store.addBooking(persistence.BookingRecord{ID: "b1", InviteeEmail: "amy@example.com"})

		r := NewReconciler(store, store, fixedClock(now), nil)
		if _, err := r.RetryUnlinked(ctx); err != nil {
			t.Fatalf("first sweep: %v", err)
		}
		summary, err := r.RetryUnlinked(ctx)
		if err != nil {
			t.Fatalf("second sweep: %v", err)
		}
		if summary.Scanned != 0 || summary.Linked != 0 {
			t.Fatalf("second sweep = %+v, want empty", summary)
		}
		if got := store.project("amy-site-3").ScheduledEvents; len(got) != 1 {
			t.Errorf("scheduled events = %v, want exactly one entry", got)
		}
	})

	t.Run("one failing record does not abort the sweep", func(t *testing.T) {
		store := newFakeStore()
		store.addProject(persistence.Project{ProjectID: "amy-site-3", OwnerEmail: "amy@example.com"})
		store.addProject(persistence.Project{ProjectID: "cora-art-1", OwnerEmail: "cora@example.com"})
		store.addBooking(persistence.BookingRecord{ID: "b1", InviteeEmail: "amy@example.com"})
		store.addBooking(persistence.BookingRecord{ID: "b2", InviteeEmail: "cora@example.com"})
		store.markLinkedErr = map[string]error{"b1": persistence.ErrAlreadyLinked}

		r := NewReconciler(store, store, fixedClock(now), nil)
		summary, err := r.RetryUnlinked(ctx)
		if err != nil {
			t.Fatalf("RetryUnlinked: %v", err)
		}
		want := RetrySummary{Scanned: 2, Linked: 1, Skipped: 0, Errors: 1}
		if summary != want {
			t.Fatalf("summary = %+v, want %+v", summary, want)
		}
		if store.bookings["b2"].ProjectID != "cora-art-1" {
			t.Errorf("b2 linked to %q, want cora-art-1", store.bookings["b2"].ProjectID)
		}
	})
}
