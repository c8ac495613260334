// Package http provides HTTP handlers and middleware for the onboarding API.
//
// The router exposes the following endpoints:
//   - POST /api/onboarding: creates a project and its client user from the
//     onboarding form. Body: the `onboardingRequest` payload defined in
//     onboarding_handler.go. Response: {"projectId","projectCode",
//     "projectObjectId","userObjectId"}.
//   - POST /api/calendly-webhook: receives scheduling webhook deliveries.
//     Deliveries are authenticated with the `Calendly-Webhook-Signature`
//     header and validated against a JSON schema before processing.
//   - GET /api/sync-events: pulls the provider's scheduled events and
//     reconciles them with local booking records. Optional startDate and
//     endDate query parameters bound the window. Response:
//     {"total","new","updated","errors","errorDetails"}.
//   - POST /api/bookings/retry: runs one matching sweep over unlinked
//     bookings. Response: {"scanned","linked","skipped","errors"}.
//   - GET /metrics: Prometheus metrics.
//
// Request/response DTOs live alongside their respective handlers so tests
// and documentation share the same ground truth.
package http
