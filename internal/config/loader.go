package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the
// onboarding service.
type Config struct {
	HTTPPort  int
	SQLiteDSN string

	// CalendlyToken authenticates provider API calls. Empty disables the
	// poll path; the webhook and email paths still work.
	CalendlyToken string
	// WebhookSigningKey authenticates webhook deliveries. Empty disables
	// signature verification, intended only for local development.
	WebhookSigningKey string
	// SyncLookback and SyncLookahead bound the provider sync window.
	SyncLookback  time.Duration
	SyncLookahead time.Duration

	// RedisAddr enables the durable task queue. Empty falls back to the
	// in-process dispatcher.
	RedisAddr string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	IMAPAddr           string
	IMAPUsername       string
	IMAPPassword       string
	NotificationSender string
	BookingAddress     string
}

// Load parses configuration values from the current process environment.
//
// The loader applies defaults for optional fields while validating required
// values, accumulating every problem into a single error.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:           8080,
		SQLiteDSN:          "file:onboarding.db?_foreign_keys=on",
		SyncLookback:       30 * 24 * time.Hour,
		SyncLookahead:      90 * 24 * time.Hour,
		SMTPPort:           587,
		NotificationSender: "notifications@calendly.com",
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("ONBOARD_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "ONBOARD_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("ONBOARD_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	cfg.CalendlyToken = strings.TrimSpace(os.Getenv("ONBOARD_CALENDLY_TOKEN"))
	cfg.WebhookSigningKey = strings.TrimSpace(os.Getenv("ONBOARD_WEBHOOK_SIGNING_KEY"))
	cfg.RedisAddr = strings.TrimSpace(os.Getenv("ONBOARD_REDIS_ADDR"))

	if value := strings.TrimSpace(os.Getenv("ONBOARD_SYNC_LOOKBACK")); value != "" {
		d, err := time.ParseDuration(value)
		if err != nil || d < 0 {
			invalid = append(invalid, "ONBOARD_SYNC_LOOKBACK")
		} else {
			cfg.SyncLookback = d
		}
	}
	if value := strings.TrimSpace(os.Getenv("ONBOARD_SYNC_LOOKAHEAD")); value != "" {
		d, err := time.ParseDuration(value)
		if err != nil || d < 0 {
			invalid = append(invalid, "ONBOARD_SYNC_LOOKAHEAD")
		} else {
			cfg.SyncLookahead = d
		}
	}

	cfg.SMTPHost = strings.TrimSpace(os.Getenv("ONBOARD_SMTP_HOST"))
	if portValue := strings.TrimSpace(os.Getenv("ONBOARD_SMTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "ONBOARD_SMTP_PORT")
		} else {
			cfg.SMTPPort = port
		}
	}
	cfg.SMTPUsername = strings.TrimSpace(os.Getenv("ONBOARD_SMTP_USERNAME"))
	cfg.SMTPPassword = strings.TrimSpace(os.Getenv("ONBOARD_SMTP_PASSWORD"))
	cfg.MailFrom = strings.TrimSpace(os.Getenv("ONBOARD_MAIL_FROM"))
	if cfg.SMTPHost != "" && cfg.MailFrom == "" {
		missing = append(missing, "ONBOARD_MAIL_FROM")
	}

	cfg.IMAPAddr = strings.TrimSpace(os.Getenv("ONBOARD_IMAP_ADDR"))
	cfg.IMAPUsername = strings.TrimSpace(os.Getenv("ONBOARD_IMAP_USERNAME"))
	cfg.IMAPPassword = strings.TrimSpace(os.Getenv("ONBOARD_IMAP_PASSWORD"))
	if sender := strings.TrimSpace(os.Getenv("ONBOARD_NOTIFICATION_SENDER")); sender != "" {
		cfg.NotificationSender = sender
	}
	cfg.BookingAddress = strings.TrimSpace(os.Getenv("ONBOARD_BOOKING_ADDRESS"))
	if cfg.IMAPAddr != "" && (cfg.IMAPUsername == "" || cfg.IMAPPassword == "") {
		missing = append(missing, "ONBOARD_IMAP_USERNAME/ONBOARD_IMAP_PASSWORD")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// MailConfigured reports whether outbound mail can be sent.
func (c Config) MailConfigured() bool {
	return c.SMTPHost != ""
}

// MailboxConfigured reports whether the notification mailbox can be polled.
func (c Config) MailboxConfigured() bool {
	return c.IMAPAddr != ""
}

// ProviderConfigured reports whether provider API calls can be made.
func (c Config) ProviderConfigured() bool {
	return c.CalendlyToken != ""
}
