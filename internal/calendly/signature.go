package calendly

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// DefaultSignatureTolerance bounds how old a webhook timestamp may be before
// the delivery is treated as a replay.
const DefaultSignatureTolerance = 5 * time.Minute

var (
	// ErrSignatureMalformed is returned when the signature header cannot be
	// parsed into a timestamp and digest.
	ErrSignatureMalformed = errors.New("calendly: malformed signature header")
	// ErrSignatureMismatch is returned when the digest does not match the
	// payload.
	ErrSignatureMismatch = errors.New("calendly: signature mismatch")
	// ErrSignatureExpired is returned when the timestamp falls outside the
	// tolerance window.
	ErrSignatureExpired = errors.New("calendly: signature timestamp outside tolerance")
)

// Signature is the parsed form of the webhook signature header, formatted as
// "t=<unix seconds>,v1=<hex hmac-sha256>".
type Signature struct {
	Timestamp time.Time
	Digest    string
}

// ParseSignatureHeader splits the header into its timestamp and digest.
func ParseSignatureHeader(header string) (Signature, error) {
	var sig Signature
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			return Signature{}, ErrSignatureMalformed
		}
		switch key {
		case "t":
			seconds, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return Signature{}, ErrSignatureMalformed
			}
			sig.Timestamp = time.Unix(seconds, 0)
		case "v1":
			sig.Digest = value
		}
	}
	if sig.Timestamp.IsZero() || sig.Digest == "" {
		return Signature{}, ErrSignatureMalformed
	}
	return sig, nil
}

// VerifySignature checks a webhook delivery against the shared signing key.
// The signed message is the timestamp and the raw body joined by a period,
// and the comparison is constant time. A valid digest with a stale timestamp
// still fails, so captured deliveries cannot be replayed later.
func VerifySignature(header string, body []byte, signingKey string, now time.Time, tolerance time.Duration) error {
	sig, err := ParseSignatureHeader(header)
	if err != nil {
		return err
	}

	mac := hmac.New(sha256.New, []byte(signingKey))
	mac.Write([]byte(strconv.FormatInt(sig.Timestamp.Unix(), 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(sig.Digest)) {
		return ErrSignatureMismatch
	}
	if now.Sub(sig.Timestamp) > tolerance || sig.Timestamp.Sub(now) > tolerance {
		return ErrSignatureExpired
	}
	return nil
}
