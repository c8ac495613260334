package ingest

import (
	"errors"
	"testing"
	"time"

	"github.com/selfcast/onboarding/internal/application"
	"github.com/selfcast/onboarding/internal/persistence"
)

const sampleNotification = `Hi there,

A new event has been scheduled.

Event Type: Brand Workshop
Invitee: Jon Doe
Invitee Email: jon@example.com
Event Date/Time: 12:00pm - Wednesday, May 28, 2025
Location: Zoom

Powered by Calendly
`

func TestParseNotification(t *testing.T) {
	event, err := ParseNotification(sampleNotification)
	if err != nil {
		t.Fatalf("ParseNotification: %v", err)
	}
	if event.InviteeEmail != "jon@example.com" {
		t.Errorf("invitee email = %q", event.InviteeEmail)
	}
	if event.InviteeName != "Jon Doe" {
		t.Errorf("invitee name = %q", event.InviteeName)
	}
	if event.EventTypeName != "Brand Workshop" {
		t.Errorf("event type = %q", event.EventTypeName)
	}
	want := time.Date(2025, 5, 28, 12, 0, 0, 0, time.UTC)
	if !event.ScheduledAt.Equal(want) {
		t.Errorf("scheduled at = %v, want %v", event.ScheduledAt, want)
	}
	if event.Status != persistence.BookingStatusScheduled {
		t.Errorf("status = %q", event.Status)
	}
	if event.ProviderEventURI != "" {
		t.Errorf("email-sourced events carry no provider URI, got %q", event.ProviderEventURI)
	}
}

func TestParseNotificationBracketedEmail(t *testing.T) {
	body := `Invitee: Jon Doe
Invitee Email: Jon Doe [jon@example.com]
Event Date/Time: 9:30am - Monday, June 2, 2025
`
	event, err := ParseNotification(body)
	if err != nil {
		t.Fatalf("ParseNotification: %v", err)
	}
	if event.InviteeEmail != "jon@example.com" {
		t.Errorf("invitee email = %q, want extracted address", event.InviteeEmail)
	}
}

func TestParseNotificationMissingEmailUsesPlaceholder(t *testing.T) {
	body := `Invitee: Jon Doe
Event Date/Time: 9:30am - Monday, June 2, 2025
`
	event, err := ParseNotification(body)
	if err != nil {
		t.Fatalf("ParseNotification: %v", err)
	}
	if event.InviteeEmail != application.PlaceholderInviteeValue {
		t.Errorf("invitee email = %q, want placeholder", event.InviteeEmail)
	}
}

func TestParseNotificationRejectsUnrelatedMail(t *testing.T) {
	_, err := ParseNotification("Your invoice for May is attached.\n")
	if !errors.Is(err, ErrNotANotification) {
		t.Fatalf("err = %v, want ErrNotANotification", err)
	}
}

func TestParseNotificationUnparseableTime(t *testing.T) {
	body := `Invitee Email: jon@example.com
Event Date/Time: sometime next week
`
	if _, err := ParseNotification(body); err == nil {
		t.Fatal("expected an error for an unparseable event time")
	}
}
