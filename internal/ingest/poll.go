package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/selfcast/onboarding/internal/application"
	"github.com/selfcast/onboarding/internal/calendly"
	"github.com/selfcast/onboarding/internal/persistence"
)

// EventAPI is the provider read surface the poll source depends on.
type EventAPI interface {
	CurrentUserURI(ctx context.Context) (string, error)
	ListScheduledEvents(ctx context.Context, userURI string, from, to time.Time) ([]calendly.Event, error)
	ListInvitees(ctx context.Context, eventURI string) ([]calendly.Invitee, error)
}

// PollSource lists the provider's scheduled events and resolves each one to
// a normalized booking event, filling invitee details where the API tier
// exposes them.
type PollSource struct {
	api    EventAPI
	logger *slog.Logger

	mu      sync.Mutex
	userURI string
}

// NewPollSource wires a poll source over the provider API.
func NewPollSource(api EventAPI, logger *slog.Logger) *PollSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &PollSource{api: api, logger: logger}
}

// ListScheduledEvents implements the provider listing the sync service
// pulls from. Invitee lookups that fail leave the placeholder value in
// place rather than dropping the event: an unmatched record is recoverable
// later, a dropped one is not.
func (p *PollSource) ListScheduledEvents(ctx context.Context, from, to time.Time) ([]application.NormalizedBookingEvent, error) {
	userURI, err := p.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	events, err := p.api.ListScheduledEvents(ctx, userURI, from, to)
	if err != nil {
		return nil, err
	}

	normalized := make([]application.NormalizedBookingEvent, 0, len(events))
	for _, event := range events {
		out := application.NormalizedBookingEvent{
			ProviderEventURI: event.URI,
			EventTypeURI:     event.EventType,
			EventTypeName:    event.Name,
			InviteeEmail:     application.PlaceholderInviteeValue,
			ScheduledAt:      event.StartTime,
			EndAt:            event.EndTime,
			Timezone:         "UTC",
			Status:           mapEventStatus(event.Status),
		}

		invitees, err := p.api.ListInvitees(ctx, event.URI)
		if err != nil {
			p.logger.WarnContext(ctx, "failed to list invitees, keeping placeholder details",
				"event_uri", event.URI, "error", err)
			normalized = append(normalized, out)
			continue
		}
		if invitee, ok := firstActiveInvitee(invitees); ok {
			applyInvitee(&out, invitee)
		}
		normalized = append(normalized, out)
	}
	return normalized, nil
}

func (p *PollSource) currentUser(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.userURI != "" {
		return p.userURI, nil
	}
	uri, err := p.api.CurrentUserURI(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to resolve provider user: %w", err)
	}
	p.userURI = uri
	return uri, nil
}

func firstActiveInvitee(invitees []calendly.Invitee) (calendly.Invitee, bool) {
	for _, invitee := range invitees {
		if invitee.Status == "" || invitee.Status == "active" {
			return invitee, true
		}
	}
	if len(invitees) > 0 {
		return invitees[0], true
	}
	return calendly.Invitee{}, false
}

func applyInvitee(out *application.NormalizedBookingEvent, invitee calendly.Invitee) {
	if invitee.Email != "" {
		out.InviteeEmail = invitee.Email
	} else if email := answeredEmail(invitee.QuestionsAndAnswers); email != "" {
		out.InviteeEmail = email
	}
	out.InviteeName = invitee.Name
	if out.InviteeName == "" {
		out.InviteeName = answeredName(invitee.QuestionsAndAnswers)
	}
	if invitee.Timezone != "" {
		out.Timezone = invitee.Timezone
	}
	out.InviteePhone = inviteePhone(invitee)
}

// answeredEmail mines custom question answers for an email address.
// Restricted account tiers hide the structured invitee identity, leaving the
// booking form answers as the only place it may still appear.
func answeredEmail(qas []calendly.QuestionAndAnswer) string {
	for _, qa := range qas {
		answer := strings.TrimSpace(qa.Answer)
		if answer == "" {
			continue
		}
		if strings.Contains(strings.ToLower(qa.Question), "email") || strings.Contains(answer, "@") {
			return answer
		}
	}
	return ""
}

func answeredName(qas []calendly.QuestionAndAnswer) string {
	for _, qa := range qas {
		if strings.Contains(strings.ToLower(qa.Question), "name") && strings.TrimSpace(qa.Answer) != "" {
			return strings.TrimSpace(qa.Answer)
		}
	}
	return ""
}

// inviteePhone prefers the SMS reminder number and falls back to a form
// answer whose question mentions a phone number.
func inviteePhone(invitee calendly.Invitee) string {
	if invitee.TextReminderNumber != "" {
		return invitee.TextReminderNumber
	}
	for _, qa := range invitee.QuestionsAndAnswers {
		if strings.Contains(strings.ToLower(qa.Question), "phone") && qa.Answer != "" {
			return strings.TrimSpace(qa.Answer)
		}
	}
	return ""
}

func mapEventStatus(status string) persistence.BookingStatus {
	switch status {
	case "canceled":
		return persistence.BookingStatusCanceled
	default:
		return persistence.BookingStatusScheduled
	}
}
