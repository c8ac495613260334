package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/selfcast/onboarding/internal/application"
	"github.com/selfcast/onboarding/internal/calendly"
	"github.com/selfcast/onboarding/internal/persistence"
)

type fakeEventAPI struct {
	events      []calendly.Event
	invitees    map[string][]calendly.Invitee
	inviteesErr error
	userCalls   int
}

func (f *fakeEventAPI) CurrentUserURI(ctx context.Context) (string, error) {
	f.userCalls++
	return "https://api.calendly.com/users/me", nil
}

func (f *fakeEventAPI) ListScheduledEvents(ctx context.Context, userURI string, from, to time.Time) ([]calendly.Event, error) {
	return f.events, nil
}

func (f *fakeEventAPI) ListInvitees(ctx context.Context, eventURI string) ([]calendly.Invitee, error) {
	if f.inviteesErr != nil {
		return nil, f.inviteesErr
	}
	return f.invitees[eventURI], nil
}

func TestPollSourceNormalizesEvents(t *testing.T) {
	start := time.Date(2025, 5, 28, 12, 0, 0, 0, time.UTC)
	api := &fakeEventAPI{
		events: []calendly.Event{{
			URI:       "https://api.calendly.com/scheduled_events/abc",
			Name:      "Brand Workshop",
			Status:    "active",
			StartTime: start,
			EndTime:   start.Add(30 * time.Minute),
			EventType: "https://api.calendly.com/event_types/workshop",
		}},
		invitees: map[string][]calendly.Invitee{
			"https://api.calendly.com/scheduled_events/abc": {{
				Email:    "jon@example.com",
				Name:     "Jon Doe",
				Status:   "active",
				Timezone: "Europe/Copenhagen",
				QuestionsAndAnswers: []calendly.QuestionAndAnswer{
					{Question: "Phone number", Answer: "+45 12 34 56 78"},
				},
			}},
		},
	}

	source := NewPollSource(api, nil)
	events, err := source.ListScheduledEvents(context.Background(), start.Add(-time.Hour), start.Add(time.Hour))
	if err != nil {
		t.Fatalf("ListScheduledEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	got := events[0]
	if got.InviteeEmail != "jon@example.com" || got.InviteeName != "Jon Doe" {
		t.Errorf("invitee = %q / %q", got.InviteeEmail, got.InviteeName)
	}
	if got.InviteePhone != "+45 12 34 56 78" {
		t.Errorf("invitee phone = %q", got.InviteePhone)
	}
	if got.Timezone != "Europe/Copenhagen" {
		t.Errorf("timezone = %q", got.Timezone)
	}
	if got.Status != persistence.BookingStatusScheduled {
		t.Errorf("status = %q", got.Status)
	}
}

func TestPollSourceExtractsIdentityFromQuestionAnswers(t *testing.T) {
	api := &fakeEventAPI{
		events: []calendly.Event{{URI: "https://api.calendly.com/scheduled_events/abc"}},
		invitees: map[string][]calendly.Invitee{
			"https://api.calendly.com/scheduled_events/abc": {{
				Status: "active",
				QuestionsAndAnswers: []calendly.QuestionAndAnswer{
					{Question: "What is your name?", Answer: "Jon Doe"},
					{Question: "What is your email?", Answer: "jon@example.com"},
				},
			}},
		},
	}

	source := NewPollSource(api, nil)
	events, err := source.ListScheduledEvents(context.Background(), time.Now(), time.Now())
	if err != nil {
		t.Fatalf("ListScheduledEvents: %v", err)
	}
	if events[0].InviteeEmail != "jon@example.com" {
		t.Errorf("invitee email = %q, want jon@example.com extracted from question answers", events[0].InviteeEmail)
	}
	if events[0].InviteeName != "Jon Doe" {
		t.Errorf("invitee name = %q, want Jon Doe extracted from question answers", events[0].InviteeName)
	}
}

func TestPollSourceExtractsEmailFromAnswerText(t *testing.T) {
	api := &fakeEventAPI{
		events: []calendly.Event{{URI: "https://api.calendly.com/scheduled_events/abc"}},
		invitees: map[string][]calendly.Invitee{
			"https://api.calendly.com/scheduled_events/abc": {{
				Status: "active",
				QuestionsAndAnswers: []calendly.QuestionAndAnswer{
					{Question: "How should we reach you?", Answer: "amy@example.com"},
				},
			}},
		},
	}

	source := NewPollSource(api, nil)
	events, err := source.ListScheduledEvents(context.Background(), time.Now(), time.Now())
	if err != nil {
		t.Fatalf("ListScheduledEvents: %v", err)
	}
	if events[0].InviteeEmail != "amy@example.com" {
		t.Errorf("invitee email = %q, want amy@example.com", events[0].InviteeEmail)
	}
}

func TestPollSourceKeepsPlaceholderOnInviteeFailure(t *testing.T) {
	api := &fakeEventAPI{
		events:      []calendly.Event{{URI: "https://api.calendly.com/scheduled_events/abc"}},
		inviteesErr: errors.New("upgrade required"),
	}

	source := NewPollSource(api, nil)
	events, err := source.ListScheduledEvents(context.Background(), time.Now(), time.Now())
	if err != nil {
		t.Fatalf("ListScheduledEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1 (event must not be dropped)", len(events))
	}
	if events[0].InviteeEmail != application.PlaceholderInviteeValue {
		t.Errorf("invitee email = %q, want placeholder", events[0].InviteeEmail)
	}
}

func TestPollSourceCachesUserResolution(t *testing.T) {
	api := &fakeEventAPI{}
	source := NewPollSource(api, nil)

	for i := 0; i < 3; i++ {
		if _, err := source.ListScheduledEvents(context.Background(), time.Now(), time.Now()); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if api.userCalls != 1 {
		t.Errorf("user lookups = %d, want 1", api.userCalls)
	}
}

func TestPollSourceMapsCanceledStatus(t *testing.T) {
	api := &fakeEventAPI{
		events: []calendly.Event{{URI: "https://api.calendly.com/scheduled_events/abc", Status: "canceled"}},
	}
	source := NewPollSource(api, nil)
	events, err := source.ListScheduledEvents(context.Background(), time.Now(), time.Now())
	if err != nil {
		t.Fatalf("ListScheduledEvents: %v", err)
	}
	if events[0].Status != persistence.BookingStatusCanceled {
		t.Errorf("status = %q, want canceled", events[0].Status)
	}
}
