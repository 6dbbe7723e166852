package behavioral

import (
	"errors"
	"fmt"
)

// Sentinel errors for runtime operations.
var (
	ErrInvalidDefinition = errors.New("behavioral: invalid behavior definition")
	ErrUnknownBehavior   = errors.New("behavioral: unknown behavior")
	ErrBehaviorFailed    = errors.New("behavioral: behavior failed")
	ErrDetachedUpgrade   = errors.New("behavioral: element has no parent, marked without upgrade")
	ErrInvalidCommand    = errors.New("behavioral: invalid command token")
	ErrPayload           = errors.New("behavioral: command payload rejected")
)

// DefinitionError reports a behavior definition that violates the naming or
// key identity rules. It is raised while constructing a definition and is
// never recovered from at runtime.
type DefinitionError struct {
	Behavior string
	Key      string
	Reason   string
}

func (e *DefinitionError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("behavioral: definition %q: %s", e.Behavior, e.Reason)
	}
	return fmt.Sprintf("behavioral: definition %q: key %q: %s", e.Behavior, e.Key, e.Reason)
}

func (e *DefinitionError) Unwrap() error {
	return ErrInvalidDefinition
}

// Phase names the invocation boundary at which a behavior failed.
type Phase string

const (
	PhaseFactory          Phase = "factory"
	PhaseListeners        Phase = "listeners"
	PhaseConnected        Phase = "connected"
	PhaseDisconnected     Phase = "disconnected"
	PhaseAttributeChanged Phase = "attributeChanged"
	PhaseCommand          Phase = "command"
	PhaseEvent            Phase = "event"
)

// BehaviorError reports a factory or handler failure on one element. The
// failure is isolated to the behavior named in Behavior.
type BehaviorError struct {
	Behavior string
	Element  string
	Phase    Phase
	Err      error
}

func (e *BehaviorError) Error() string {
	return fmt.Sprintf("behavioral: behavior %q on %s failed in %s: %v", e.Behavior, e.Element, e.Phase, e.Err)
}

func (e *BehaviorError) Unwrap() []error {
	return []error{ErrBehaviorFailed, e.Err}
}

// IsDefinitionError checks if err is a definition error.
func IsDefinitionError(err error) bool {
	return errors.Is(err, ErrInvalidDefinition)
}

// IsUnknownBehavior checks if err reports an unregistered behavior name.
func IsUnknownBehavior(err error) bool {
	return errors.Is(err, ErrUnknownBehavior)
}

// IsBehaviorFailure checks if err is an isolated behavior failure.
func IsBehaviorFailure(err error) bool {
	return errors.Is(err, ErrBehaviorFailed)
}

// panicError converts a recovered panic value into an error.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}
