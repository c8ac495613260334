package application

import "testing"

func TestExtractEmailAddress(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain address", "amy@example.com", "amy@example.com"},
		{"bracketed", "Amy Jones [amy@example.com]", "amy@example.com"},
		{"surrounded by prose", "reply to amy@example.com please", "amy@example.com"},
		{"whitespace trimmed", "  amy@example.com  ", "amy@example.com"},
		{"no address returns trimmed input", "  not an address  ", "not an address"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractEmailAddress(tc.in); got != tc.want {
				t.Errorf("ExtractEmailAddress(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestIsMatchableEmail(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"amy@example.com", true},
		{"Amy Jones [amy@example.com]", true},
		{"", false},
		{"   ", false},
		{PlaceholderInviteeValue, false},
		{"  " + PlaceholderInviteeValue + "  ", false},
	}
	for _, tc := range cases {
		if got := IsMatchableEmail(tc.in); got != tc.want {
			t.Errorf("IsMatchableEmail(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
