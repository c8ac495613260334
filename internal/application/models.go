package application

import (
	"time"

	"github.com/selfcast/onboarding/internal/persistence"
)

// OnboardingInput captures the fields submitted by the onboarding form.
type OnboardingInput struct {
	ClientName        string
	ClientEmail       string
	PhoneNumber       string
	ProjectName       string
	ColorPreference   string
	StylePackage      string
	SocialMedia       persistence.SocialLinks
	WorkshopResponses persistence.WorkshopResponses
}

// OnboardingResult reports the identifiers created for a submission.
type OnboardingResult struct {
	ProjectID       string
	ProjectCode     string
	ProjectObjectID string
	UserObjectID    string
	LinkedBookings  int
}

// NormalizedBookingEvent is the uniform output shape of every ingestion
// path, regardless of transport.
type NormalizedBookingEvent struct {
	ProviderEventURI string
	EventTypeURI     string
	EventTypeName    string
	InviteeEmail     string
	InviteeName      string
	InviteePhone     string
	ScheduledAt      time.Time
	EndAt            time.Time
	Timezone         string
	Status           persistence.BookingStatus
}

// IngestResult reports what happened to one ingested event.
type IngestResult struct {
	Booking persistence.BookingRecord
	Created bool
	// Project is non-nil when the booking was linked on ingest.
	Project *persistence.Project
}

// RetrySummary reports the outcome of one retry sweep over unlinked records.
type RetrySummary struct {
	Scanned int
	Linked  int
	Skipped int
	Errors  int
}

// SyncResults reports the outcome of a manual provider sync.
type SyncResults struct {
	Total        int         `json:"total"`
	New          int         `json:"new"`
	Updated      int         `json:"updated"`
	Errors       int         `json:"errors"`
	ErrorDetails []SyncError `json:"errorDetails"`
}

// SyncError records one event that failed during a sync run.
type SyncError struct {
	EventURI string `json:"eventUri"`
	Error    string `json:"error"`
}
