package http

import (
	"net/http"
	"strings"
)

// RouterConfig lists the handlers the router mounts. Nil entries leave the
// corresponding routes unmounted.
type RouterConfig struct {
	Onboarding *OnboardingHandler
	Webhook    *WebhookHandler
	Admin      *AdminHandler
	// Metrics is mounted at /metrics when non-nil, typically promhttp.Handler().
	Metrics    http.Handler
	Middleware []func(http.Handler) http.Handler
}

// NewRouter assembles the HTTP surface. Middleware entries wrap the whole
// mux, first entry outermost.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Onboarding != nil {
		mux.HandleFunc("/api/onboarding", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Onboarding.Create(w, r)
		})
	}

	if cfg.Webhook != nil {
		mux.HandleFunc("/api/calendly-webhook", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Webhook.Receive(w, r)
		})
	}

	if cfg.Admin != nil {
		mux.HandleFunc("/api/sync-events", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Admin.SyncEvents(w, r)
		})
		mux.HandleFunc("/api/bookings/retry", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Admin.RetryBookings(w, r)
		})
	}

	if cfg.Metrics != nil {
		mux.Handle("/metrics", cfg.Metrics)
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
