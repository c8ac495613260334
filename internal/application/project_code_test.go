package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeCodeIndex struct {
	taken map[string]bool
	err   error
	calls int
}

func (f *fakeCodeIndex) CodeExists(ctx context.Context, code string) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.taken[code], nil
}

func TestGenerateProducesFourDigitCode(t *testing.T) {
	index := &fakeCodeIndex{}
	gen := NewProjectCodeGenerator(index, nil, nil, nil)

	for i := 0; i < 50; i++ {
		code, err := gen.Generate(context.Background())
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if !IsValidProjectCode(code) {
			t.Fatalf("code %q is not a 4-digit code", code)
		}
		if code < "1000" || code > "9999" {
			t.Fatalf("code %q outside the 1000-9999 range", code)
		}
	}
}

func TestGenerateSkipsAllocatedCodes(t *testing.T) {
	index := &fakeCodeIndex{taken: map[string]bool{"1000": true, "1001": true}}
	sequence := []int{0, 1, 2}
	var pos int
	intn := func(n int) int {
		v := sequence[pos]
		pos++
		return v
	}

	gen := NewProjectCodeGenerator(index, intn, nil, nil)
	code, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if code != "1002" {
		t.Fatalf("code = %q, want 1002", code)
	}
	if index.calls != 3 {
		t.Fatalf("uniqueness checks = %d, want 3", index.calls)
	}
}

func TestGenerateFallsBackToTimestampWhenExhausted(t *testing.T) {
	index := &fakeCodeIndex{taken: map[string]bool{"5000": true}}
	now := time.UnixMilli(1748433607891)

	gen := NewProjectCodeGenerator(index, func(n int) int { return 4000 }, fixedClock(now), nil)
	code, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if code != "7891" {
		t.Fatalf("fallback code = %q, want 7891", code)
	}
	if index.calls != codeMaxAttempts {
		t.Fatalf("uniqueness checks = %d, want %d", index.calls, codeMaxAttempts)
	}
}

func TestGenerateToleratesIndexFailure(t *testing.T) {
	index := &fakeCodeIndex{err: errors.New("index down")}

	gen := NewProjectCodeGenerator(index, func(n int) int { return 500 }, nil, nil)
	code, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate must not propagate index errors, got %v", err)
	}
	if code != "1500" {
		t.Fatalf("code = %q, want 1500", code)
	}
	if index.calls != 1 {
		t.Fatalf("uniqueness checks = %d, want 1", index.calls)
	}
}

func TestIsValidProjectCode(t *testing.T) {
	cases := []struct {
		code string
		want bool
	}{
		{"1000", true},
		{"9999", true},
		{"0042", true},
		{"123", false},
		{"12345", false},
		{"12a4", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsValidProjectCode(tc.code); got != tc.want {
			t.Errorf("IsValidProjectCode(%q) = %v, want %v", tc.code, got, tc.want)
		}
	}
}
