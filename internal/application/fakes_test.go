package application

import (
	"context"
	"strings"
	"time"

	"github.com/selfcast/onboarding/internal/persistence"
	"github.com/selfcast/onboarding/internal/testfixtures"
)

// fakeStore is an in-memory stand-in for both repository surfaces, good
// enough to exercise the matching and linking logic without a database.
type fakeStore struct {
	projects []persistence.Project
	bookings map[string]*persistence.BookingRecord
	order    []string

	projectLookupErr error
	markLinkedErr    map[string]error
	linkBookingErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{bookings: make(map[string]*persistence.BookingRecord)}
}

func (f *fakeStore) addProject(p persistence.Project) {
	f.projects = append(f.projects, p)
}

func (f *fakeStore) addBooking(b persistence.BookingRecord) {
	record := b
	f.bookings[b.ID] = &record
	f.order = append(f.order, b.ID)
}

func (f *fakeStore) GetProjectByEmail(ctx context.Context, email string) (persistence.Project, error) {
	if f.projectLookupErr != nil {
		return persistence.Project{}, f.projectLookupErr
	}
	for _, p := range f.projects {
		if p.OwnerEmail == email {
			return p, nil
		}
	}
	return persistence.Project{}, persistence.ErrNotFound
}

func (f *fakeStore) GetProjectByEmailFold(ctx context.Context, email string) (persistence.Project, error) {
	if f.projectLookupErr != nil {
		return persistence.Project{}, f.projectLookupErr
	}
	needle := strings.ToLower(email)
	for _, p := range f.projects {
		if strings.Contains(strings.ToLower(p.OwnerEmail), needle) {
			return p, nil
		}
	}
	return persistence.Project{}, persistence.ErrNotFound
}

func (f *fakeStore) LinkBooking(ctx context.Context, projectID, bookingID string) error {
	if f.linkBookingErr != nil {
		return f.linkBookingErr
	}
	for i := range f.projects {
		if f.projects[i].ProjectID != projectID {
			continue
		}
		for _, existing := range f.projects[i].ScheduledEvents {
			if existing == bookingID {
				return nil
			}
		}
		f.projects[i].ScheduledEvents = append(f.projects[i].ScheduledEvents, bookingID)
		f.projects[i].HasScheduledEvent = true
		return nil
	}
	return persistence.ErrNotFound
}

func (f *fakeStore) ListUnlinked(ctx context.Context) ([]persistence.BookingRecord, error) {
	var out []persistence.BookingRecord
	for _, id := range f.order {
		if b := f.bookings[id]; !b.ProjectLinked {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkLinked(ctx context.Context, bookingID, projectID string) error {
	if err := f.markLinkedErr[bookingID]; err != nil {
		return err
	}
	b, ok := f.bookings[bookingID]
	if !ok {
		return persistence.ErrNotFound
	}
	if b.ProjectLinked {
		if b.ProjectID == projectID {
			return nil
		}
		return persistence.ErrAlreadyLinked
	}
	b.ProjectLinked = true
	b.ProjectID = projectID
	return nil
}

func (f *fakeStore) RecordAttempt(ctx context.Context, bookingID string, at time.Time) error {
	b, ok := f.bookings[bookingID]
	if !ok {
		return persistence.ErrNotFound
	}
	b.ProcessingAttempts++
	stamp := at
	b.LastProcessingAttempt = &stamp
	return nil
}

func (f *fakeStore) project(id string) *persistence.Project {
	for i := range f.projects {
		if f.projects[i].ProjectID == id {
			return &f.projects[i]
		}
	}
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return testfixtures.NewClock(t).NowFunc()
}

func sequentialIDs(prefix string) func() string {
	return testfixtures.NewIDGenerator(prefix).NextFunc()
}
