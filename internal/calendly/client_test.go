package calendly

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestListScheduledEventsFollowsPagination(t *testing.T) {
	var authHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		if r.URL.Path != "/scheduled_events" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page_token") == "" {
			w.Write([]byte(`{
				"collection": [{"uri": "https://api.calendly.com/scheduled_events/one", "name": "Workshop", "status": "active", "start_time": "2025-05-28T12:00:00Z", "end_time": "2025-05-28T12:30:00Z"}],
				"pagination": {"next_page_token": "page2"}
			}`))
			return
		}
		w.Write([]byte(`{
			"collection": [{"uri": "https://api.calendly.com/scheduled_events/two", "name": "Workshop", "status": "active", "start_time": "2025-05-29T12:00:00Z", "end_time": "2025-05-29T12:30:00Z"}],
			"pagination": {"next_page_token": ""}
		}`))
	}))
	defer server.Close()

	client := NewClient("token-123", server.Client()).WithBaseURL(server.URL)
	events, err := client.ListScheduledEvents(context.Background(),
		"https://api.calendly.com/users/me", time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("ListScheduledEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[1].URI != "https://api.calendly.com/scheduled_events/two" {
		t.Errorf("second event = %q", events[1].URI)
	}
	if authHeader != "Bearer token-123" {
		t.Errorf("authorization header = %q", authHeader)
	}
}

func TestListInvitees(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/scheduled_events/abc/invitees" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"collection": [{
				"email": "jon@example.com",
				"name": "Jon Doe",
				"status": "active",
				"timezone": "Europe/Copenhagen",
				"questions_and_answers": [{"question": "Phone", "answer": "+45 12 34 56 78"}]
			}]
		}`))
	}))
	defer server.Close()

	client := NewClient("token-123", server.Client())
	invitees, err := client.ListInvitees(context.Background(), server.URL+"/scheduled_events/abc")
	if err != nil {
		t.Fatalf("ListInvitees: %v", err)
	}
	if len(invitees) != 1 {
		t.Fatalf("invitees = %d, want 1", len(invitees))
	}
	if invitees[0].Email != "jon@example.com" || invitees[0].QuestionsAndAnswers[0].Answer != "+45 12 34 56 78" {
		t.Errorf("invitee = %+v", invitees[0])
	}
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"title": "Unauthenticated"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient("bad-token", server.Client()).WithBaseURL(server.URL)
	if _, err := client.CurrentUserURI(context.Background()); err == nil {
		t.Fatal("expected an error for a 401 response")
	}
}
