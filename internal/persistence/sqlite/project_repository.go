package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/selfcast/onboarding/internal/persistence"
)

var projectCodePattern = regexp.MustCompile(`^\d{4}$`)

// ProjectRepository implements persistence.ProjectRepository using SQLite.
type ProjectRepository struct {
	pool *ConnectionPool
}

// NewProjectRepository creates a new SQLite project repository.
func NewProjectRepository(pool *ConnectionPool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

const projectColumns = `project_id, project_code, name, owner_name, owner_email, phone_number,
	color_preference, style_package,
	social_linkedin, social_instagram, social_facebook, social_twitter,
	workshop_success, workshop_goals, workshop_challenge,
	has_scheduled_event, created_at, updated_at`

// CreateProjectAndUser persists the project and its user inside a single
// transaction. Both rows commit together or neither does.
func (r *ProjectRepository) CreateProjectAndUser(ctx context.Context, project persistence.Project, user persistence.User) error {
	if project.ProjectID == "" || user.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO projects (`+projectColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			project.ProjectID,
			project.ProjectCode,
			project.Name,
			project.OwnerName,
			project.OwnerEmail,
			project.PhoneNumber,
			project.ColorPreference,
			project.StylePackage,
			project.SocialMedia.LinkedIn,
			project.SocialMedia.Instagram,
			project.SocialMedia.Facebook,
			project.SocialMedia.Twitter,
			project.WorkshopResponses.SuccessDefinition,
			project.WorkshopResponses.ContentGoals,
			project.WorkshopResponses.Challenges,
			boolToInt(project.HasScheduledEvent),
			project.CreatedAt.UTC().Format(time.RFC3339Nano),
			project.UpdatedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return mapError(err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO users (id, email, password_hash, role, project_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			user.ID,
			user.Email,
			user.PasswordHash,
			user.Role,
			user.ProjectID,
			user.CreatedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return mapError(err)
		}

		return nil
	})
}

// GetProject retrieves a project by its slug identifier.
func (r *ProjectRepository) GetProject(ctx context.Context, projectID string) (persistence.Project, error) {
	if projectID == "" {
		return persistence.Project{}, persistence.ErrNotFound
	}
	return r.queryProject(ctx, `SELECT `+projectColumns+` FROM projects WHERE project_id = ?`, projectID)
}

// GetProjectByEmail performs an exact owner-email lookup. When multiple
// projects share an owner email the earliest created wins.
func (r *ProjectRepository) GetProjectByEmail(ctx context.Context, email string) (persistence.Project, error) {
	if email == "" {
		return persistence.Project{}, persistence.ErrNotFound
	}
	return r.queryProject(ctx, `
		SELECT `+projectColumns+` FROM projects
		WHERE owner_email = ?
		ORDER BY created_at ASC, project_id ASC
		LIMIT 1
	`, email)
}

// GetProjectByEmailFold performs a case-insensitive partial owner-email
// match, the retry sweep's last-resort lookup.
func (r *ProjectRepository) GetProjectByEmailFold(ctx context.Context, email string) (persistence.Project, error) {
	needle := strings.ToLower(strings.TrimSpace(email))
	if needle == "" {
		return persistence.Project{}, persistence.ErrNotFound
	}
	return r.queryProject(ctx, `
		SELECT `+projectColumns+` FROM projects
		WHERE instr(lower(owner_email), ?) > 0
		ORDER BY created_at ASC, project_id ASC
		LIMIT 1
	`, needle)
}

// GetProjectByCode looks a project up by its 4-digit code. A syntactically
// invalid code yields ErrNotFound without touching the database.
func (r *ProjectRepository) GetProjectByCode(ctx context.Context, code string) (persistence.Project, error) {
	if !projectCodePattern.MatchString(code) {
		return persistence.Project{}, persistence.ErrNotFound
	}
	return r.queryProject(ctx, `SELECT `+projectColumns+` FROM projects WHERE project_code = ?`, code)
}

// CodeExists reports whether a project code is already allocated.
func (r *ProjectRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int
	err := r.pool.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects WHERE project_code = ?`, code).Scan(&count)
	if err != nil {
		return false, mapError(err)
	}
	return count > 0, nil
}

// LinkBooking records booking membership in the project's scheduled events.
// The link table primary key makes repeated calls idempotent.
func (r *ProjectRepository) LinkBooking(ctx context.Context, projectID, bookingID string) error {
	if projectID == "" || bookingID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE projects SET has_scheduled_event = 1, updated_at = ?
			WHERE project_id = ?
		`, now, projectID)
		if err != nil {
			return mapError(err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}

		_, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO project_bookings (project_id, booking_id, created_at)
			VALUES (?, ?, ?)
		`, projectID, bookingID, now)
		if err != nil {
			return mapError(err)
		}

		return nil
	})
}

func (r *ProjectRepository) queryProject(ctx context.Context, query string, args ...any) (persistence.Project, error) {
	var project persistence.Project
	var hasScheduled int
	var createdAt, updatedAt string

	err := r.pool.db.QueryRowContext(ctx, query, args...).Scan(
		&project.ProjectID,
		&project.ProjectCode,
		&project.Name,
		&project.OwnerName,
		&project.OwnerEmail,
		&project.PhoneNumber,
		&project.ColorPreference,
		&project.StylePackage,
		&project.SocialMedia.LinkedIn,
		&project.SocialMedia.Instagram,
		&project.SocialMedia.Facebook,
		&project.SocialMedia.Twitter,
		&project.WorkshopResponses.SuccessDefinition,
		&project.WorkshopResponses.ContentGoals,
		&project.WorkshopResponses.Challenges,
		&hasScheduled,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Project{}, mapError(err)
	}

	project.HasScheduledEvent = hasScheduled != 0
	if project.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return persistence.Project{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if project.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return persistence.Project{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	events, err := r.scheduledEvents(ctx, project.ProjectID)
	if err != nil {
		return persistence.Project{}, err
	}
	project.ScheduledEvents = events

	return project, nil
}

// scheduledEvents returns linked booking ids in insertion order.
func (r *ProjectRepository) scheduledEvents(ctx context.Context, projectID string) ([]string, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT booking_id FROM project_bookings
		WHERE project_id = ?
		ORDER BY rowid ASC
	`, projectID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return ids, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
