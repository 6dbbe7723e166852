package behavioral

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pthm/behavioral/lib/encoding"
)

func TestSentinelErrors(t *testing.T) {
	// Verify sentinel errors are distinct
	errs := []error{
		ErrInvalidDefinition,
		ErrUnknownBehavior,
		ErrBehaviorFailed,
		ErrDetachedUpgrade,
		ErrInvalidCommand,
		ErrPayload,
	}

	for i, err1 := range errs {
		for j, err2 := range errs {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Sentinel errors should be distinct: %v and %v", err1, err2)
			}
		}
	}
}

func TestIsDefinitionError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect bool
	}{
		{"nil error", nil, false},
		{"sentinel", ErrInvalidDefinition, true},
		{"DefinitionError", &DefinitionError{Behavior: "x", Reason: "bad"}, true},
		{"wrapped", fmt.Errorf("register: %w", &DefinitionError{Behavior: "x", Reason: "bad"}), true},
		{"other", ErrUnknownBehavior, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDefinitionError(tt.err); got != tt.expect {
				t.Errorf("IsDefinitionError(%v) = %v, want %v", tt.err, got, tt.expect)
			}
		})
	}
}

func TestBehaviorError(t *testing.T) {
	cause := errors.New("no config")
	err := &BehaviorError{Behavior: "reveal", Element: "div#panel", Phase: PhaseFactory, Err: cause}

	if !IsBehaviorFailure(err) {
		t.Error("IsBehaviorFailure should match BehaviorError")
	}
	if !errors.Is(err, cause) {
		t.Error("BehaviorError should unwrap to its cause")
	}
	for _, want := range []string{`"reveal"`, "div#panel", "factory", "no config"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Error() = %q, missing %q", err.Error(), want)
		}
	}
}

func TestIsUnknownBehavior(t *testing.T) {
	if !IsUnknownBehavior(unknownBehavior("nope")) {
		t.Error("unknownBehavior should match ErrUnknownBehavior")
	}
	if IsUnknownBehavior(ErrPayload) {
		t.Error("ErrPayload should not match ErrUnknownBehavior")
	}
}

func TestPanicError(t *testing.T) {
	cause := errors.New("boom")
	if err := panicError(cause); !errors.Is(err, cause) {
		t.Errorf("panicError(error) = %v, should wrap the error", err)
	}
	if err := panicError("text"); err.Error() != "panic: text" {
		t.Errorf("panicError(string) = %q", err.Error())
	}
}

func TestWrapPayloadError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		isPayload bool
	}{
		{"nil", nil, false},
		{"format", encoding.ErrInvalidFormat, true},
		{"signature", encoding.ErrSignatureInvalid, true},
		{"decrypt", encoding.ErrDecryptFailed, true},
		{"too large", encoding.ErrTooLarge, true},
		{"other", errors.New("io"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wrapPayloadError(tt.err)
			if got := errors.Is(err, ErrPayload); got != tt.isPayload {
				t.Errorf("errors.Is(ErrPayload) = %v, want %v", got, tt.isPayload)
			}
			if tt.err != nil && !errors.Is(err, tt.err) {
				t.Error("wrapped error lost its cause")
			}
		})
	}
}
