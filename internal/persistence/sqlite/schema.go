package sqlite

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		project_id         TEXT PRIMARY KEY,
		project_code       TEXT NOT NULL UNIQUE CHECK (length(project_code) = 4),
		name               TEXT NOT NULL,
		owner_name         TEXT NOT NULL,
		owner_email        TEXT NOT NULL,
		phone_number       TEXT NOT NULL,
		color_preference   TEXT NOT NULL DEFAULT '',
		style_package      TEXT NOT NULL DEFAULT '',
		social_linkedin    TEXT NOT NULL DEFAULT '',
		social_instagram   TEXT NOT NULL DEFAULT '',
		social_facebook    TEXT NOT NULL DEFAULT '',
		social_twitter     TEXT NOT NULL DEFAULT '',
		workshop_success   TEXT NOT NULL DEFAULT '',
		workshop_goals     TEXT NOT NULL DEFAULT '',
		workshop_challenge TEXT NOT NULL DEFAULT '',
		has_scheduled_event INTEGER NOT NULL DEFAULT 0,
		created_at         TEXT NOT NULL,
		updated_at         TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_owner_email ON projects (owner_email)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL,
		project_id    TEXT NOT NULL REFERENCES projects (project_id),
		created_at    TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id                      TEXT PRIMARY KEY,
		provider_event_uri      TEXT,
		event_type_uri          TEXT NOT NULL DEFAULT '',
		event_type_name         TEXT NOT NULL DEFAULT '',
		invitee_email           TEXT NOT NULL DEFAULT '',
		invitee_name            TEXT NOT NULL DEFAULT '',
		invitee_phone           TEXT NOT NULL DEFAULT '',
		scheduled_at            TEXT NOT NULL,
		end_at                  TEXT,
		timezone                TEXT NOT NULL DEFAULT 'UTC',
		status                  TEXT NOT NULL CHECK (status IN ('scheduled', 'canceled', 'rescheduled', 'completed')),
		source                  TEXT NOT NULL CHECK (source IN ('webhook', 'poll', 'email')),
		project_linked          INTEGER NOT NULL DEFAULT 0,
		project_id              TEXT REFERENCES projects (project_id),
		processing_attempts     INTEGER NOT NULL DEFAULT 0,
		last_processing_attempt TEXT,
		created_at              TEXT NOT NULL,
		updated_at              TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_provider_uri
		ON bookings (provider_event_uri) WHERE provider_event_uri IS NOT NULL AND provider_event_uri != ''`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_unlinked ON bookings (project_linked, created_at)`,
	// Link membership table: the primary key makes a double append
	// impossible, and rowid preserves insertion order.
	`CREATE TABLE IF NOT EXISTS project_bookings (
		project_id TEXT NOT NULL REFERENCES projects (project_id),
		booking_id TEXT NOT NULL REFERENCES bookings (id),
		created_at TEXT NOT NULL,
		PRIMARY KEY (project_id, booking_id)
	)`,
}

// Migrate applies the schema. Statements are idempotent so it is safe to run
// at every process start.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := cp.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
