package ingest

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/selfcast/onboarding/internal/application"
	"github.com/selfcast/onboarding/internal/persistence"
)

// Notification emails carry labeled lines in a fixed layout, e.g.
//
//	Invitee: Jon Doe
//	Invitee Email: jon@example.com
//	Event Type: Brand Workshop
//	Event Date/Time: 12:00pm - Wednesday, May 28, 2025
//	Location: Zoom
const notificationTimeLayout = "3:04pm - Monday, January 2, 2006"

// ErrNotANotification is returned for mail bodies that do not carry the
// labeled booking lines. Such messages are skipped, not failed.
var ErrNotANotification = fmt.Errorf("ingest: message is not a booking notification")

// ParseNotification extracts a normalized booking event from the plain-text
// body of a provider notification email. The email path has no
// provider-native event identity, so the returned event carries no URI.
func ParseNotification(body string) (application.NormalizedBookingEvent, error) {
	fields := map[string]string{}
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		for _, label := range []string{"Invitee Email:", "Invitee:", "Event Type:", "Event Date/Time:", "Location:"} {
			if value, found := strings.CutPrefix(line, label); found {
				key := strings.TrimSuffix(label, ":")
				if _, taken := fields[key]; !taken {
					fields[key] = strings.TrimSpace(value)
				}
				break
			}
		}
	}

	if fields["Invitee Email"] == "" && fields["Event Date/Time"] == "" {
		return application.NormalizedBookingEvent{}, ErrNotANotification
	}

	scheduledAt, err := time.Parse(notificationTimeLayout, fields["Event Date/Time"])
	if err != nil {
		return application.NormalizedBookingEvent{}, fmt.Errorf("ingest: unparseable event time %q: %w", fields["Event Date/Time"], err)
	}

	email := application.ExtractEmailAddress(fields["Invitee Email"])
	if email == "" {
		email = application.PlaceholderInviteeValue
	}

	return application.NormalizedBookingEvent{
		EventTypeName: fields["Event Type"],
		InviteeEmail:  email,
		InviteeName:   fields["Invitee"],
		ScheduledAt:   scheduledAt.UTC(),
		Timezone:      "UTC",
		Status:        persistence.BookingStatusScheduled,
	}, nil
}
