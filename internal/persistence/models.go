package persistence

import "time"

// BookingStatus tracks the provider-side lifecycle of a booking.
type BookingStatus string

const (
	BookingStatusScheduled   BookingStatus = "scheduled"
	BookingStatusCanceled    BookingStatus = "canceled"
	BookingStatusRescheduled BookingStatus = "rescheduled"
	BookingStatusCompleted   BookingStatus = "completed"
)

// BookingSource identifies which ingestion path produced a booking record.
type BookingSource string

const (
	BookingSourceWebhook BookingSource = "webhook"
	BookingSourcePoll    BookingSource = "poll"
	BookingSourceEmail   BookingSource = "email"
)

// Project represents an onboarded client record.
type Project struct {
	ProjectID         string
	ProjectCode       string
	Name              string
	OwnerName         string
	OwnerEmail        string
	PhoneNumber       string
	ColorPreference   string
	StylePackage      string
	SocialMedia       SocialLinks
	WorkshopResponses WorkshopResponses
	HasScheduledEvent bool
	ScheduledEvents   []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// SocialLinks holds the optional social profile URLs collected at onboarding.
type SocialLinks struct {
	LinkedIn  string
	Instagram string
	Facebook  string
	Twitter   string
}

// WorkshopResponses holds the optional workshop questionnaire answers.
type WorkshopResponses struct {
	SuccessDefinition string
	ContentGoals      string
	Challenges        string
}

// User represents the credential holder created alongside a project.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	ProjectID    string
	CreatedAt    time.Time
}

// BookingRecord represents one externally scheduled appointment, linked or
// not yet linked to a project.
type BookingRecord struct {
	ID                    string
	ProviderEventURI      string
	EventTypeURI          string
	EventTypeName         string
	InviteeEmail          string
	InviteeName           string
	InviteePhone          string
	ScheduledAt           time.Time
	EndAt                 time.Time
	Timezone              string
	Status                BookingStatus
	Source                BookingSource
	ProjectLinked         bool
	ProjectID             string
	ProcessingAttempts    int
	LastProcessingAttempt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
