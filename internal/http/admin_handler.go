package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/selfcast/onboarding/internal/application"
)

type syncService interface {
	SyncRange(ctx context.Context, from, to time.Time) (application.SyncResults, error)
}

type retryService interface {
	RetryUnlinked(ctx context.Context) (application.RetrySummary, error)
}

// AdminHandler serves the operational endpoints: the manual provider sync
// and the retry sweep over unlinked bookings.
type AdminHandler struct {
	sync      syncService
	retry     retryService
	responder responder
	logger    *slog.Logger
}

// NewAdminHandler wires dependencies for the admin handler.
func NewAdminHandler(sync syncService, retry retryService, logger *slog.Logger) *AdminHandler {
	base := defaultLogger(logger)
	return &AdminHandler{sync: sync, retry: retry, responder: newResponder(base), logger: base}
}

func (h *AdminHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AdminHandler", operation, attrs...)
}

// SyncEvents handles GET /api/sync-events. The optional startDate and
// endDate query parameters narrow the sync window; absent bounds fall back
// to the configured window.
func (h *AdminHandler) SyncEvents(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.sync == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "SyncEvents")

	from, err := parseDateParam(r.URL.Query().Get("startDate"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, &application.ValidationError{
			FieldErrors: map[string]string{"startDate": "startDate must be an RFC 3339 timestamp or a YYYY-MM-DD date"},
		})
		return
	}
	to, err := parseDateParam(r.URL.Query().Get("endDate"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, &application.ValidationError{
			FieldErrors: map[string]string{"endDate": "endDate must be an RFC 3339 timestamp or a YYYY-MM-DD date"},
		})
		return
	}

	results, err := h.sync.SyncRange(r.Context(), from, to)
	if err != nil {
		logger.ErrorContext(r.Context(), "sync run failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("total", results.Total, "new", results.New, "errors", results.Errors).InfoContext(r.Context(), "sync run completed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, results)
}

// RetryBookings handles POST /api/bookings/retry.
func (h *AdminHandler) RetryBookings(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.retry == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "RetryBookings")
	summary, err := h.retry.RetryUnlinked(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "retry sweep failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("scanned", summary.Scanned, "linked", summary.Linked).InfoContext(r.Context(), "retry sweep completed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, retryResponse{
		Scanned: summary.Scanned,
		Linked:  summary.Linked,
		Skipped: summary.Skipped,
		Errors:  summary.Errors,
	})
}

// parseDateParam accepts an RFC 3339 timestamp or a bare date. An empty
// value means the bound was not supplied and yields the zero time.
func parseDateParam(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

type retryResponse struct {
	Scanned int `json:"scanned"`
	Linked  int `json:"linked"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}
