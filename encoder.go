package behavioral

import (
	"errors"
	"fmt"

	"github.com/pthm/behavioral/lib/encoding"
)

// Encoder seals command payloads. See package encoding.
type Encoder = encoding.Encoder

// PayloadMode selects how EncodePayload protects a payload.
type PayloadMode = encoding.Mode

const (
	// SignedPayloads leaves the payload readable in the markup.
	SignedPayloads = encoding.Signed
	// SealedPayloads encrypts the payload.
	SealedPayloads = encoding.Sealed
)

// NewEncoder creates a payload encoder from secret.
func NewEncoder(secret []byte) (*Encoder, error) {
	return encoding.NewEncoder(secret)
}

// wrapPayloadError maps encoding package errors onto ErrPayload.
func wrapPayloadError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, encoding.ErrInvalidFormat) ||
		errors.Is(err, encoding.ErrSignatureInvalid) ||
		errors.Is(err, encoding.ErrDecryptFailed) ||
		errors.Is(err, encoding.ErrTooLarge) {
		return fmt.Errorf("%w: %w", ErrPayload, err)
	}
	return err
}
