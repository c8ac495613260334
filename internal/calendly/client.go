package calendly

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.calendly.com"

// Client is a minimal Calendly v2 API client covering the read surface the
// sync and poll paths need.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient builds a client authenticating with a personal access token.
// httpClient may be nil.
func NewClient(token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{httpClient: httpClient, baseURL: defaultBaseURL, token: token}
}

// WithBaseURL overrides the API endpoint, used by tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// Event is one scheduled event as the provider reports it.
type Event struct {
	URI       string    `json:"uri"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	EventType string    `json:"event_type"`
}

// Invitee is one attendee of a scheduled event.
type Invitee struct {
	URI                 string              `json:"uri"`
	Email               string              `json:"email"`
	Name                string              `json:"name"`
	Status              string              `json:"status"`
	Timezone            string              `json:"timezone"`
	TextReminderNumber  string              `json:"text_reminder_number"`
	QuestionsAndAnswers []QuestionAndAnswer `json:"questions_and_answers"`
}

// QuestionAndAnswer is one custom form answer attached to an invitee.
type QuestionAndAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type pagination struct {
	NextPageToken string `json:"next_page_token"`
}

// CurrentUserURI resolves the authenticated user's resource URI, required as
// the scoping parameter for event listings.
func (c *Client) CurrentUserURI(ctx context.Context) (string, error) {
	var out struct {
		Resource struct {
			URI string `json:"uri"`
		} `json:"resource"`
	}
	if err := c.get(ctx, "/users/me", nil, &out); err != nil {
		return "", fmt.Errorf("failed to resolve current user: %w", err)
	}
	return out.Resource.URI, nil
}

// ListScheduledEvents returns all scheduled events for the user within the
// given window, following pagination to the end.
func (c *Client) ListScheduledEvents(ctx context.Context, userURI string, from, to time.Time) ([]Event, error) {
	params := url.Values{}
	params.Set("user", userURI)
	params.Set("min_start_time", from.UTC().Format(time.RFC3339))
	params.Set("max_start_time", to.UTC().Format(time.RFC3339))
	params.Set("count", "100")

	var events []Event
	for {
		var out struct {
			Collection []Event    `json:"collection"`
			Pagination pagination `json:"pagination"`
		}
		if err := c.get(ctx, "/scheduled_events", params, &out); err != nil {
			return nil, fmt.Errorf("failed to list scheduled events: %w", err)
		}
		events = append(events, out.Collection...)
		if out.Pagination.NextPageToken == "" {
			return events, nil
		}
		params.Set("page_token", out.Pagination.NextPageToken)
	}
}

// GetEvent fetches one scheduled event by its full resource URI.
func (c *Client) GetEvent(ctx context.Context, eventURI string) (Event, error) {
	var out struct {
		Resource Event `json:"resource"`
	}
	if err := c.getAbsolute(ctx, eventURI, nil, &out); err != nil {
		return Event{}, fmt.Errorf("failed to fetch event: %w", err)
	}
	return out.Resource, nil
}

// ListInvitees returns the invitees of one scheduled event.
func (c *Client) ListInvitees(ctx context.Context, eventURI string) ([]Invitee, error) {
	var out struct {
		Collection []Invitee `json:"collection"`
	}
	if err := c.getAbsolute(ctx, eventURI+"/invitees", nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list invitees: %w", err)
	}
	return out.Collection, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	return c.getAbsolute(ctx, c.baseURL+path, params, out)
}

func (c *Client) getAbsolute(ctx context.Context, rawURL string, params url.Values, out any) error {
	if len(params) > 0 {
		rawURL = rawURL + "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("provider returned %d: %s", resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
