package mailer

import (
	"strings"
	"testing"
)

func TestWelcomeComposition(t *testing.T) {
	msg := WelcomeMessage{
		Recipient:   "jon@example.com",
		ProjectName: "Jon Doe's Brand Site",
		ProjectID:   "jon-doe-s-brand-site-42",
		ProjectCode: "4217",
	}

	subject := WelcomeSubject(msg)
	if !strings.Contains(subject, "Jon Doe's Brand Site") {
		t.Errorf("subject = %q, want project name included", subject)
	}

	body := WelcomeBody(msg)
	for _, want := range []string{"4217", "jon-doe-s-brand-site-42", "Jon Doe's Brand Site"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}
