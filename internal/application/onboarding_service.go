package application

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"

	"github.com/selfcast/onboarding/internal/persistence"
)

var submittedEmailPattern = regexp.MustCompile(`^[^\s\[\]]+@[^\s\[\]]+\.[^\s\[\]]+$`)

// FormOptions configures which optional onboarding fields a deployment
// collects and the defaults applied when a field is left empty.
type FormOptions struct {
	DefaultProjectNameSuffix string
	DefaultColorPreference   string
	DefaultStylePackage      string
	CollectSocialMedia       bool
	CollectWorkshopResponses bool
}

// DefaultFormOptions returns the stock form configuration.
func DefaultFormOptions() FormOptions {
	return FormOptions{
		DefaultProjectNameSuffix: "'s Brand Site",
		DefaultColorPreference:   "#4a6fa5",
		DefaultStylePackage:      "standard-professional",
		CollectSocialMedia:       true,
		CollectWorkshopResponses: true,
	}
}

// ProjectWriter is the persistence surface the onboarding service writes to.
type ProjectWriter interface {
	CreateProjectAndUser(ctx context.Context, project persistence.Project, user persistence.User) error
}

// CodeAllocator produces the 4-digit project code for a new submission.
type CodeAllocator interface {
	Generate(ctx context.Context) (string, error)
}

// CreationLinker attaches any bookings that arrived before the project did.
type CreationLinker interface {
	LinkOnProjectCreate(ctx context.Context, project persistence.Project) (int, error)
}

// WelcomeMailEnqueuer schedules the post-onboarding welcome email.
type WelcomeMailEnqueuer interface {
	EnqueueWelcomeEmail(ctx context.Context, recipient, projectName, projectID, projectCode string) error
}

// OnboardingService turns a validated form submission into a project, a
// credential-holding user, and the follow-up side effects.
type OnboardingService struct {
	projects    ProjectWriter
	codes       CodeAllocator
	reconciler  CreationLinker
	mailQueue   WelcomeMailEnqueuer
	options     FormOptions
	idGenerator func() string
	intn        func(n int) int
	now         func() time.Time
	logger      *slog.Logger
}

// NewOnboardingService wires dependencies for the onboarding service. The
// idGenerator is required; intn and now may be nil.
func NewOnboardingService(
	projects ProjectWriter,
	codes CodeAllocator,
	reconciler CreationLinker,
	mailQueue WelcomeMailEnqueuer,
	options FormOptions,
	idGenerator func() string,
	intn func(n int) int,
	now func() time.Time,
	logger *slog.Logger,
) *OnboardingService {
	if intn == nil {
		intn = rand.Intn
	}
	if now == nil {
		now = time.Now
	}
	return &OnboardingService{
		projects:    projects,
		codes:       codes,
		reconciler:  reconciler,
		mailQueue:   mailQueue,
		options:     options,
		idGenerator: idGenerator,
		intn:        intn,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// Onboard validates the submission, allocates identifiers, persists the
// project and its user atomically, then links any pre-existing bookings and
// queues the welcome email. Linking and mail failures are logged but do not
// fail the submission: the client already has a project at that point.
func (s *OnboardingService) Onboard(ctx context.Context, input OnboardingInput) (OnboardingResult, error) {
	logger := serviceLogger(ctx, s.logger, "OnboardingService", "Onboard")

	if err := s.validate(input); err != nil {
		onboardingSubmissions.WithLabelValues("validation_failed").Inc()
		return OnboardingResult{}, err
	}

	projectName := strings.TrimSpace(input.ProjectName)
	if projectName == "" {
		projectName = strings.TrimSpace(input.ClientName) + s.options.DefaultProjectNameSuffix
	}

	code, err := s.codes.Generate(ctx)
	if err != nil {
		onboardingSubmissions.WithLabelValues("error").Inc()
		return OnboardingResult{}, fmt.Errorf("failed to allocate project code: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(s.idGenerator()), bcrypt.DefaultCost)
	if err != nil {
		onboardingSubmissions.WithLabelValues("error").Inc()
		return OnboardingResult{}, fmt.Errorf("failed to hash generated password: %w", err)
	}

	now := s.now().UTC()
	project := persistence.Project{
		ProjectID:       s.projectIdentifier(projectName),
		ProjectCode:     code,
		Name:            projectName,
		OwnerName:       strings.TrimSpace(input.ClientName),
		OwnerEmail:      strings.TrimSpace(input.ClientEmail),
		PhoneNumber:     strings.TrimSpace(input.PhoneNumber),
		ColorPreference: s.options.DefaultColorPreference,
		StylePackage:    s.options.DefaultStylePackage,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if input.ColorPreference != "" {
		project.ColorPreference = input.ColorPreference
	}
	if input.StylePackage != "" {
		project.StylePackage = input.StylePackage
	}
	if s.options.CollectSocialMedia {
		project.SocialMedia = input.SocialMedia
	}
	if s.options.CollectWorkshopResponses {
		project.WorkshopResponses = input.WorkshopResponses
	}

	user := persistence.User{
		ID:           s.idGenerator(),
		Email:        project.OwnerEmail,
		PasswordHash: string(passwordHash),
		Role:         "client",
		ProjectID:    project.ProjectID,
		CreatedAt:    now,
	}

	if err := s.projects.CreateProjectAndUser(ctx, project, user); err != nil {
		onboardingSubmissions.WithLabelValues("error").Inc()
		return OnboardingResult{}, fmt.Errorf("failed to create project: %w", err)
	}
	logger.InfoContext(ctx, "project created",
		"project_id", project.ProjectID, "project_code", project.ProjectCode)

	linked, err := s.reconciler.LinkOnProjectCreate(ctx, project)
	if err != nil {
		logger.ErrorContext(ctx, "failed to link existing bookings after creation",
			"project_id", project.ProjectID, "error", err)
	}

	if s.mailQueue != nil {
		if err := s.mailQueue.EnqueueWelcomeEmail(ctx, project.OwnerEmail, project.Name, project.ProjectID, project.ProjectCode); err != nil {
			logger.ErrorContext(ctx, "failed to enqueue welcome email",
				"project_id", project.ProjectID, "error", err)
		}
	}

	onboardingSubmissions.WithLabelValues("created").Inc()
	return OnboardingResult{
		ProjectID:       project.ProjectID,
		ProjectCode:     project.ProjectCode,
		ProjectObjectID: project.ProjectID,
		UserObjectID:    user.ID,
		LinkedBookings:  linked,
	}, nil
}

// projectIdentifier derives the URL-safe project identifier from the project
// name plus a small random suffix to keep repeat names distinct.
func (s *OnboardingService) projectIdentifier(name string) string {
	return fmt.Sprintf("%s-%d", slug.Make(name), s.intn(100))
}

func (s *OnboardingService) validate(input OnboardingInput) error {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.ClientName) == "" {
		vErr.add("clientName", "client name is required")
	}
	email := strings.TrimSpace(input.ClientEmail)
	if email == "" {
		vErr.add("clientEmail", "client email is required")
	} else if !submittedEmailPattern.MatchString(email) {
		vErr.add("clientEmail", "client email must be a valid email address")
	}
	if strings.TrimSpace(input.PhoneNumber) == "" {
		vErr.add("phoneNumber", "phone number is required")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}
