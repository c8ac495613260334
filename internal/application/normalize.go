package application

import (
	"regexp"
	"strings"
)

// PlaceholderInviteeValue is the sentinel the provider's restricted API tier
// returns instead of real invitee data. It is stored verbatim but is never
// matchable.
const PlaceholderInviteeValue = "Not available with free plan"

// Provider payloads sometimes wrap the address in brackets or prose, e.g.
// "Jon Doe [jon@example.com]".
var embeddedEmailPattern = regexp.MustCompile(`[^\s\[\]]+@[^\s\[\]]+\.[^\s\[\]]+`)

// ExtractEmailAddress pulls an address-like substring out of noisy provider
// text. It returns the trimmed input unchanged when no embedded address is
// found.
func ExtractEmailAddress(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if match := embeddedEmailPattern.FindString(trimmed); match != "" {
		return match
	}
	return trimmed
}

// IsMatchableEmail reports whether the value can participate in
// reconciliation: non-empty and not the provider's placeholder sentinel.
func IsMatchableEmail(value string) bool {
	trimmed := strings.TrimSpace(value)
	return trimmed != "" && trimmed != PlaceholderInviteeValue
}
