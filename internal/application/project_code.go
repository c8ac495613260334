package application

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"regexp"
	"time"
)

const codeMaxAttempts = 100

var codePattern = regexp.MustCompile(`^\d{4}$`)

// CodeIndex is the persistence view the generator needs: whether a code is
// already allocated to some project.
type CodeIndex interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

// ProjectCodeGenerator allocates 4-digit project codes, the human-speakable
// identifiers clients read out during the workshop interview call. Codes are
// not secrets and the generator is deliberately not cryptographic.
type ProjectCodeGenerator struct {
	codes  CodeIndex
	intn   func(n int) int
	now    func() time.Time
	logger *slog.Logger
}

// NewProjectCodeGenerator wires dependencies for the code generator. intn
// and now may be nil, in which case math/rand and time.Now are used.
func NewProjectCodeGenerator(codes CodeIndex, intn func(n int) int, now func() time.Time, logger *slog.Logger) *ProjectCodeGenerator {
	if intn == nil {
		intn = rand.Intn
	}
	if now == nil {
		now = time.Now
	}
	return &ProjectCodeGenerator{codes: codes, intn: intn, now: now, logger: defaultLogger(logger)}
}

// Generate returns a 4-digit code in 1000-9999 that is not currently
// allocated. After codeMaxAttempts collisions it falls back to the low-order
// digits of the current time rather than failing the surrounding onboarding
// operation; the caller tolerates the vanishingly rare non-unique result.
func (g *ProjectCodeGenerator) Generate(ctx context.Context) (string, error) {
	logger := serviceLogger(ctx, g.logger, "ProjectCodeGenerator", "Generate")

	for attempt := 0; attempt < codeMaxAttempts; attempt++ {
		code := fmt.Sprintf("%04d", 1000+g.intn(9000))

		exists, err := g.codes.CodeExists(ctx, code)
		if err != nil {
			logger.WarnContext(ctx, "code uniqueness check failed, returning potentially non-unique code", "error", err)
			return code, nil
		}
		if !exists {
			return code, nil
		}
	}

	fallback := timestampCode(g.now())
	logger.WarnContext(ctx, "exhausted code generation attempts, using timestamp-based code",
		"attempts", codeMaxAttempts, "code", fallback)
	return fallback, nil
}

// IsValidProjectCode checks the 4-digit format only, independent of
// persistence.
func IsValidProjectCode(code string) bool {
	return codePattern.MatchString(code)
}

// timestampCode derives a code from the low-order decimal digits of the
// current time in milliseconds.
func timestampCode(now time.Time) string {
	return fmt.Sprintf("%04d", now.UnixMilli()%10000)
}
