package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/selfcast/onboarding/internal/application"
	"github.com/selfcast/onboarding/internal/persistence"
)

type onboardingService interface {
	Onboard(ctx context.Context, input application.OnboardingInput) (application.OnboardingResult, error)
}

// OnboardingHandler serves the client onboarding form submission.
type OnboardingHandler struct {
	service   onboardingService
	responder responder
	logger    *slog.Logger
}

// NewOnboardingHandler wires dependencies for the onboarding handler.
func NewOnboardingHandler(service onboardingService, logger *slog.Logger) *OnboardingHandler {
	base := defaultLogger(logger)
	return &OnboardingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *OnboardingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "OnboardingHandler", operation, attrs...)
}

// Create handles POST /api/onboarding.
func (h *OnboardingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req onboardingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode onboarding request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create")

	result, err := h.service.Onboard(r.Context(), req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "onboarding failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("project_id", result.ProjectID, "project_code", result.ProjectCode).InfoContext(r.Context(), "client onboarded")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, onboardingResponse{
		ProjectID:       result.ProjectID,
		ProjectCode:     result.ProjectCode,
		ProjectObjectID: result.ProjectObjectID,
		UserObjectID:    result.UserObjectID,
	})
}

type onboardingRequest struct {
	ClientName      string `json:"clientName"`
	ClientEmail     string `json:"clientEmail"`
	PhoneNumber     string `json:"phoneNumber"`
	ProjectName     string `json:"projectName"`
	ColorPreference string `json:"colorPreference"`
	StylePackage    string `json:"stylePackage"`
	SocialMedia     struct {
		LinkedIn  string `json:"linkedin"`
		Instagram string `json:"instagram"`
		Facebook  string `json:"facebook"`
		Twitter   string `json:"twitter"`
	} `json:"socialMedia"`
	WorkshopResponses struct {
		SuccessDefinition string `json:"successDefinition"`
		ContentGoals      string `json:"contentGoals"`
		Challenges        string `json:"challenges"`
	} `json:"workshopResponses"`
}

func (r onboardingRequest) toInput() application.OnboardingInput {
	return application.OnboardingInput{
		ClientName:      strings.TrimSpace(r.ClientName),
		ClientEmail:     strings.TrimSpace(r.ClientEmail),
		PhoneNumber:     strings.TrimSpace(r.PhoneNumber),
		ProjectName:     strings.TrimSpace(r.ProjectName),
		ColorPreference: strings.TrimSpace(r.ColorPreference),
		StylePackage:    strings.TrimSpace(r.StylePackage),
		SocialMedia: persistence.SocialLinks{
			LinkedIn:  strings.TrimSpace(r.SocialMedia.LinkedIn),
			Instagram: strings.TrimSpace(r.SocialMedia.Instagram),
			Facebook:  strings.TrimSpace(r.SocialMedia.Facebook),
			Twitter:   strings.TrimSpace(r.SocialMedia.Twitter),
		},
		WorkshopResponses: persistence.WorkshopResponses{
			SuccessDefinition: strings.TrimSpace(r.WorkshopResponses.SuccessDefinition),
			ContentGoals:      strings.TrimSpace(r.WorkshopResponses.ContentGoals),
			Challenges:        strings.TrimSpace(r.WorkshopResponses.Challenges),
		},
	}
}

type onboardingResponse struct {
	ProjectID       string `json:"projectId"`
	ProjectCode     string `json:"projectCode"`
	ProjectObjectID string `json:"projectObjectId"`
	UserObjectID    string `json:"userObjectId"`
}
