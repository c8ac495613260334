package testfixtures

import (
	"time"

	"github.com/selfcast/onboarding/internal/persistence"
)

// Project returns a populated project fixture. Overrides mutate the fixture
// before it is returned.
func Project(overrides ...func(*persistence.Project)) persistence.Project {
	project := persistence.Project{
		ProjectID:       "jon-doe-s-brand-site-42",
		ProjectCode:     "4217",
		Name:            "Jon Doe's Brand Site",
		OwnerName:       "Jon Doe",
		OwnerEmail:      "jon@example.com",
		PhoneNumber:     "+45 12 34 56 78",
		ColorPreference: "#4a6fa5",
		StylePackage:    "standard-professional",
		CreatedAt:       ReferenceTime(),
		UpdatedAt:       ReferenceTime(),
	}
	for _, override := range overrides {
		override(&project)
	}
	return project
}

// User returns a populated client user fixture.
func User(overrides ...func(*persistence.User)) persistence.User {
	user := persistence.User{
		ID:           "u-1",
		Email:        "jon@example.com",
		PasswordHash: "$2a$10$fakefakefakefakefakefake",
		Role:         "client",
		ProjectID:    "jon-doe-s-brand-site-42",
		CreatedAt:    ReferenceTime(),
	}
	for _, override := range overrides {
		override(&user)
	}
	return user
}

// Booking returns a populated unlinked booking fixture.
func Booking(overrides ...func(*persistence.BookingRecord)) persistence.BookingRecord {
	booking := persistence.BookingRecord{
		ID:               "bk-1",
		ProviderEventURI: "https://api.calendly.com/scheduled_events/abc",
		EventTypeName:    "Brand Workshop",
		InviteeEmail:     "jon@example.com",
		InviteeName:      "Jon Doe",
		ScheduledAt:      ReferenceTime(),
		EndAt:            ReferenceTime().Add(30 * time.Minute),
		Timezone:         "UTC",
		Status:           persistence.BookingStatusScheduled,
		Source:           persistence.BookingSourceWebhook,
		CreatedAt:        ReferenceTime(),
		UpdatedAt:        ReferenceTime(),
	}
	for _, override := range overrides {
		override(&booking)
	}
	return booking
}
