package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/selfcast/onboarding/internal/application"
	"github.com/selfcast/onboarding/internal/calendly"
	"github.com/selfcast/onboarding/internal/persistence"
)

// signatureHeader is the header carrying the webhook signature.
const signatureHeader = "Calendly-Webhook-Signature"

const maxWebhookBodySize = 1 << 20

// webhookPayloadSchema constrains deliveries to the shape the handler can
// process. Anything else is rejected before any business logic runs.
const webhookPayloadSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["payload"],
	"properties": {
		"event": {"type": "string"},
		"payload": {
			"type": "object",
			"required": ["event"],
			"properties": {
				"event": {
					"type": "object",
					"required": ["uri", "start_time"],
					"properties": {
						"uri": {"type": "string", "minLength": 1},
						"start_time": {"type": "string"},
						"end_time": {"type": "string"},
						"timezone": {"type": "string"}
					}
				},
				"event_type": {
					"type": "object",
					"properties": {
						"uri": {"type": "string"},
						"name": {"type": "string"}
					}
				},
				"invitee": {
					"type": "object",
					"properties": {
						"email": {"type": "string"},
						"name": {"type": "string"},
						"phone": {"type": "string"}
					}
				}
			}
		}
	}
}`

type webhookIngestService interface {
	NormalizeAndStore(ctx context.Context, event application.NormalizedBookingEvent, source persistence.BookingSource) (application.IngestResult, error)
}

// providerReader resolves event and invitee details for deliveries that
// omit them.
type providerReader interface {
	GetEvent(ctx context.Context, eventURI string) (calendly.Event, error)
	ListInvitees(ctx context.Context, eventURI string) ([]calendly.Invitee, error)
}

// WebhookHandler receives provider webhook deliveries.
type WebhookHandler struct {
	ingest     webhookIngestService
	provider   providerReader
	schema     *jsonschema.Schema
	signingKey string
	tolerance  time.Duration
	now        func() time.Time
	responder  responder
	logger     *slog.Logger
}

// NewWebhookHandler wires dependencies for the webhook handler. An empty
// signingKey disables signature verification; provider may be nil when no
// provider API credentials are configured.
func NewWebhookHandler(ingest webhookIngestService, provider providerReader, signingKey string, now func() time.Time, logger *slog.Logger) (*WebhookHandler, error) {
	compiler := jsonschema.NewCompiler()
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(webhookPayloadSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload schema: %w", err)
	}
	if err := compiler.AddResource("webhook.json", doc); err != nil {
		return nil, fmt.Errorf("failed to register webhook payload schema: %w", err)
	}
	schema, err := compiler.Compile("webhook.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile webhook payload schema: %w", err)
	}

	if now == nil {
		now = time.Now
	}
	base := defaultLogger(logger)
	return &WebhookHandler{
		ingest:     ingest,
		provider:   provider,
		schema:     schema,
		signingKey: signingKey,
		tolerance:  calendly.DefaultSignatureTolerance,
		now:        now,
		responder:  newResponder(base),
		logger:     base,
	}, nil
}

func (h *WebhookHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "WebhookHandler", operation, attrs...)
}

// Receive handles POST /api/calendly-webhook.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.ingest == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodySize))
	if err != nil {
		h.log(r.Context(), "Receive", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to read webhook body", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	if h.signingKey != "" {
		header := r.Header.Get(signatureHeader)
		if header == "" {
			h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSignature)
			return
		}
		if err := calendly.VerifySignature(header, body, h.signingKey, h.now(), h.tolerance); err != nil {
			h.log(r.Context(), "Receive", "error_kind", "unauthorized").ErrorContext(r.Context(), "webhook signature rejected", "error", err)
			h.responder.handleServiceError(r.Context(), w, application.ErrUnauthorized)
			return
		}
	}

	event, err := h.parseDelivery(r.Context(), body)
	if err != nil {
		h.log(r.Context(), "Receive", "error_kind", "bad_request").ErrorContext(r.Context(), "webhook payload rejected", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errPayloadSchemaMismatch)
		return
	}

	logger := h.log(r.Context(), "Receive", "event_uri", event.ProviderEventURI)

	result, err := h.ingest.NormalizeAndStore(r.Context(), event, persistence.BookingSourceWebhook)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to process webhook event", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("booking_id", result.Booking.ID, "created", result.Created).InfoContext(r.Context(), "webhook event processed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, webhookResponse{
		Message: "Event processed",
		EventID: result.Booking.ID,
	})
}

type webhookDelivery struct {
	Event   string `json:"event"`
	Payload struct {
		Event struct {
			URI       string `json:"uri"`
			StartTime string `json:"start_time"`
			EndTime   string `json:"end_time"`
			Timezone  string `json:"timezone"`
		} `json:"event"`
		EventType struct {
			URI  string `json:"uri"`
			Name string `json:"name"`
		} `json:"event_type"`
		Invitee struct {
			Email string `json:"email"`
			Name  string `json:"name"`
			Phone string `json:"phone"`
		} `json:"invitee"`
	} `json:"payload"`
}

func (h *WebhookHandler) parseDelivery(ctx context.Context, body []byte) (application.NormalizedBookingEvent, error) {
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return application.NormalizedBookingEvent{}, fmt.Errorf("malformed JSON: %w", err)
	}
	if err := h.schema.Validate(instance); err != nil {
		return application.NormalizedBookingEvent{}, fmt.Errorf("schema violation: %w", err)
	}

	var delivery webhookDelivery
	if err := json.Unmarshal(body, &delivery); err != nil {
		return application.NormalizedBookingEvent{}, fmt.Errorf("malformed delivery: %w", err)
	}

	startTime, err := time.Parse(time.RFC3339, delivery.Payload.Event.StartTime)
	if err != nil {
		return application.NormalizedBookingEvent{}, fmt.Errorf("unparseable start time %q: %w", delivery.Payload.Event.StartTime, err)
	}
	var endTime time.Time
	if delivery.Payload.Event.EndTime != "" {
		endTime, err = time.Parse(time.RFC3339, delivery.Payload.Event.EndTime)
		if err != nil {
			return application.NormalizedBookingEvent{}, fmt.Errorf("unparseable end time %q: %w", delivery.Payload.Event.EndTime, err)
		}
	}

	event := application.NormalizedBookingEvent{
		ProviderEventURI: delivery.Payload.Event.URI,
		EventTypeURI:     delivery.Payload.EventType.URI,
		EventTypeName:    delivery.Payload.EventType.Name,
		InviteeEmail:     strings.TrimSpace(delivery.Payload.Invitee.Email),
		InviteeName:      strings.TrimSpace(delivery.Payload.Invitee.Name),
		InviteePhone:     strings.TrimSpace(delivery.Payload.Invitee.Phone),
		ScheduledAt:      startTime,
		EndAt:            endTime,
		Timezone:         delivery.Payload.Event.Timezone,
		Status:           persistence.BookingStatusScheduled,
	}
	if event.EventTypeName == "" {
		h.resolveEventDetail(ctx, &event)
	}
	if event.InviteeEmail == "" {
		h.resolveInvitee(ctx, &event)
	}
	return event, nil
}

// resolveEventDetail fills event type detail from the provider API when the
// delivery omits it.
func (h *WebhookHandler) resolveEventDetail(ctx context.Context, event *application.NormalizedBookingEvent) {
	if h.provider == nil {
		return
	}

	detail, err := h.provider.GetEvent(ctx, event.ProviderEventURI)
	if err != nil {
		h.log(ctx, "Receive").WarnContext(ctx, "failed to resolve event detail",
			"event_uri", event.ProviderEventURI, "error", err)
		return
	}
	event.EventTypeName = detail.Name
	if event.EventTypeURI == "" {
		event.EventTypeURI = detail.EventType
	}
	if event.EndAt.IsZero() {
		event.EndAt = detail.EndTime
	}
}

// resolveInvitee fills invitee details from the provider API when the
// delivery omits them. API tiers without invitee access leave the
// placeholder in place.
func (h *WebhookHandler) resolveInvitee(ctx context.Context, event *application.NormalizedBookingEvent) {
	event.InviteeEmail = application.PlaceholderInviteeValue
	if h.provider == nil {
		return
	}

	invitees, err := h.provider.ListInvitees(ctx, event.ProviderEventURI)
	if err != nil {
		h.log(ctx, "Receive").WarnContext(ctx, "failed to resolve invitee details",
			"event_uri", event.ProviderEventURI, "error", err)
		return
	}
	for _, invitee := range invitees {
		if invitee.Email == "" {
			continue
		}
		event.InviteeEmail = invitee.Email
		event.InviteeName = invitee.Name
		if invitee.Timezone != "" {
			event.Timezone = invitee.Timezone
		}
		return
	}
}

type webhookResponse struct {
	Message string `json:"message"`
	EventID string `json:"eventId"`
}
