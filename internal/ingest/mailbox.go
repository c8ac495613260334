package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/mail"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"github.com/selfcast/onboarding/internal/application"
)

// MailboxConfig describes the IMAP account receiving provider notification
// emails.
type MailboxConfig struct {
	// Addr is the IMAP host:port, TLS implied.
	Addr     string
	Username string
	Password string
	// FromAddress filters on the provider's notification sender.
	FromAddress string
	// BookingAddress filters on the recipient alias bookings arrive at.
	// Empty means no recipient filter.
	BookingAddress string
}

// MailboxSource pulls unread provider notification emails over IMAP and
// parses each one into a normalized booking event. It is the fallback path
// for plans without webhook or API access to invitee data.
type MailboxSource struct {
	config MailboxConfig
	logger *slog.Logger
}

// NewMailboxSource wires a mailbox source.
func NewMailboxSource(config MailboxConfig, logger *slog.Logger) *MailboxSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &MailboxSource{config: config, logger: logger}
}

// FetchNotifications connects to the mailbox, parses every unseen
// notification, and marks successfully parsed messages as seen so the next
// run does not re-ingest them. Unparseable messages stay unseen and are
// logged.
func (m *MailboxSource) FetchNotifications(ctx context.Context) ([]application.NormalizedBookingEvent, error) {
	c, err := client.DialTLS(m.config.Addr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mailbox: %w", err)
	}
	defer c.Logout()

	if err := c.Login(m.config.Username, m.config.Password); err != nil {
		return nil, fmt.Errorf("failed to authenticate with mailbox: %w", err)
	}
	if _, err := c.Select("INBOX", false); err != nil {
		return nil, fmt.Errorf("failed to select inbox: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	criteria.Header.Add("From", m.config.FromAddress)
	if m.config.BookingAddress != "" {
		criteria.Header.Add("To", m.config.BookingAddress)
	}
	ids, err := c.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search inbox: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)
	section := &imap.BodySectionName{}
	messages := make(chan *imap.Message, len(ids))
	fetchDone := make(chan error, 1)
	go func() {
		fetchDone <- c.Fetch(seqset, []imap.FetchItem{imap.FetchUid, section.FetchItem()}, messages)
	}()

	var events []application.NormalizedBookingEvent
	processed := new(imap.SeqSet)
	for msg := range messages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		event, err := m.parseMessage(body)
		if err != nil {
			if !errors.Is(err, ErrNotANotification) {
				m.logger.WarnContext(ctx, "skipping unparseable notification email",
					"uid", msg.Uid, "error", err)
			}
			continue
		}
		events = append(events, event)
		processed.AddNum(msg.SeqNum)
	}
	if err := <-fetchDone; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	if !processed.Empty() {
		flags := imap.FormatFlagsOp(imap.AddFlags, true)
		if err := c.Store(processed, flags, []interface{}{imap.SeenFlag}, nil); err != nil {
			m.logger.WarnContext(ctx, "failed to mark notifications as seen", "error", err)
		}
	}
	return events, nil
}

func (m *MailboxSource) parseMessage(r io.Reader) (application.NormalizedBookingEvent, error) {
	parsed, err := mail.ReadMessage(r)
	if err != nil {
		return application.NormalizedBookingEvent{}, fmt.Errorf("malformed message: %w", err)
	}
	body, err := io.ReadAll(parsed.Body)
	if err != nil {
		return application.NormalizedBookingEvent{}, fmt.Errorf("failed to read message body: %w", err)
	}
	return ParseNotification(string(body))
}
