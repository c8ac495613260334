package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wneessen/go-mail"
)

// Mailer sends transactional mail.
type Mailer interface {
	SendWelcome(ctx context.Context, msg WelcomeMessage) error
}

// WelcomeMessage carries everything the welcome email template needs.
type WelcomeMessage struct {
	Recipient   string
	ProjectName string
	ProjectID   string
	ProjectCode string
}

// SMTPConfig describes the outbound mail account.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends mail through an authenticated SMTP relay.
type SMTPMailer struct {
	client *mail.Client
	from   string
	logger *slog.Logger
}

// NewSMTPMailer builds a mailer over the configured relay.
func NewSMTPMailer(config SMTPConfig, logger *slog.Logger) (*SMTPMailer, error) {
	client, err := mail.NewClient(config.Host,
		mail.WithPort(config.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(config.Username),
		mail.WithPassword(config.Password),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to configure mail client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPMailer{client: client, from: config.From, logger: logger}, nil
}

// SendWelcome delivers the post-onboarding welcome email.
func (m *SMTPMailer) SendWelcome(ctx context.Context, msg WelcomeMessage) error {
	message := mail.NewMsg()
	if err := message.From(m.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := message.To(msg.Recipient); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	message.Subject(WelcomeSubject(msg))
	message.SetBodyString(mail.TypeTextPlain, WelcomeBody(msg))

	if err := m.client.DialAndSend(message); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}
	m.logger.InfoContext(ctx, "welcome email sent", "project_id", msg.ProjectID)
	return nil
}

// WelcomeSubject builds the welcome email subject line.
func WelcomeSubject(msg WelcomeMessage) string {
	return fmt.Sprintf("Welcome! Your project %s is ready", msg.ProjectName)
}

// WelcomeBody builds the plain-text welcome email body. The project code is
// spelled out because clients read it back during the workshop call.
func WelcomeBody(msg WelcomeMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi,\n\n")
	fmt.Fprintf(&b, "Thanks for getting started. Your project %q has been created.\n\n", msg.ProjectName)
	fmt.Fprintf(&b, "Project ID:   %s\n", msg.ProjectID)
	fmt.Fprintf(&b, "Project code: %s\n\n", msg.ProjectCode)
	fmt.Fprintf(&b, "Keep the 4-digit project code handy. We will ask for it at the start of your workshop call.\n\n")
	fmt.Fprintf(&b, "If you have not booked your workshop yet, you can do so from your confirmation page.\n")
	return b.String()
}
