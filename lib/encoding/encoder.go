// Package encoding seals command payloads into attribute-safe strings.
//
// A payload is bound to the command token it was issued for. An encoded
// value copied from a "--show" invoker onto a "--delete" invoker fails to
// open. Two modes are supported and the encoded form records which one was
// used, so Open needs no hint:
//
//	s.<msgpack, base64url>.<hmac>   signed: readable but tamper-evident
//	e.<nonce+ciphertext, base64url> sealed: AES-256-GCM, fully opaque
package encoding

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Sentinel errors returned by Open.
var (
	ErrInvalidFormat    = errors.New("encoding: invalid format")
	ErrSignatureInvalid = errors.New("encoding: signature verification failed")
	ErrDecryptFailed    = errors.New("encoding: decryption failed")
	ErrTooLarge         = errors.New("encoding: payload too large")
)

// Mode selects how a payload is protected.
type Mode byte

const (
	Signed Mode = 's'
	Sealed Mode = 'e'
)

func (m Mode) String() string {
	switch m {
	case Signed:
		return "signed"
	case Sealed:
		return "sealed"
	}
	return fmt.Sprintf("Mode(%q)", byte(m))
}

// MaxEncodedLen bounds encoded values in both directions.
const MaxEncodedLen = 4096

const macLen = 16

var b64 = base64.RawURLEncoding

// Encoder seals and opens payloads with keys derived from one secret.
type Encoder struct {
	macKey []byte
	aead   cipher.AEAD
}

// NewEncoder derives independent signing and cipher keys from secret.
// Any non-empty secret is accepted.
func NewEncoder(secret []byte) (*Encoder, error) {
	if len(secret) == 0 {
		return nil, errors.New("encoding: empty key")
	}

	block, err := aes.NewCipher(derive("cipher", secret))
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Encoder{macKey: derive("mac", secret), aead: aead}, nil
}

func derive(label string, secret []byte) []byte {
	h := sha256.New()
	h.Write([]byte("behavioral/" + label + "\x00"))
	h.Write(secret)
	return h.Sum(nil)
}

// Seal encodes payload for command using mode.
func (e *Encoder) Seal(command string, payload map[string]any, mode Mode) (string, error) {
	packed, err := msgpack.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding: %w", err)
	}

	var out string
	switch mode {
	case Signed:
		out = "s." + b64.EncodeToString(packed) + "." + b64.EncodeToString(e.mac(command, packed))
	case Sealed:
		nonce := make([]byte, e.aead.NonceSize())
		if _, err := rand.Read(nonce); err != nil {
			return "", err
		}
		out = "e." + b64.EncodeToString(e.aead.Seal(nonce, nonce, packed, []byte(command)))
	default:
		return "", fmt.Errorf("encoding: unknown %s", mode)
	}

	if len(out) > MaxEncodedLen {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLarge, len(out))
	}
	return out, nil
}

// Open verifies or decrypts encoded, which must have been sealed for
// command, and returns the payload with the mode it was sealed in.
func (e *Encoder) Open(command, encoded string) (map[string]any, Mode, error) {
	if len(encoded) > MaxEncodedLen {
		return nil, 0, ErrTooLarge
	}
	prefix, body, ok := strings.Cut(encoded, ".")
	if !ok || len(prefix) != 1 {
		return nil, 0, ErrInvalidFormat
	}

	mode := Mode(prefix[0])
	var packed []byte
	var err error
	switch mode {
	case Signed:
		packed, err = e.verify(command, body)
	case Sealed:
		packed, err = e.decrypt(command, body)
	default:
		return nil, 0, ErrInvalidFormat
	}
	if err != nil {
		return nil, mode, err
	}

	var payload map[string]any
	if err := msgpack.Unmarshal(packed, &payload); err != nil {
		return nil, mode, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return payload, mode, nil
}

// mac covers the command token and the packed payload.
func (e *Encoder) mac(command string, packed []byte) []byte {
	m := hmac.New(sha256.New, e.macKey)
	m.Write([]byte(command))
	m.Write([]byte{0})
	m.Write(packed)
	return m.Sum(nil)[:macLen]
}

func (e *Encoder) verify(command, body string) ([]byte, error) {
	data, sig, ok := strings.Cut(body, ".")
	if !ok {
		return nil, ErrInvalidFormat
	}
	packed, err := b64.DecodeString(data)
	if err != nil {
		return nil, ErrInvalidFormat
	}
	got, err := b64.DecodeString(sig)
	if err != nil || !hmac.Equal(got, e.mac(command, packed)) {
		return nil, ErrSignatureInvalid
	}
	return packed, nil
}

func (e *Encoder) decrypt(command, body string) ([]byte, error) {
	raw, err := b64.DecodeString(body)
	if err != nil {
		return nil, ErrInvalidFormat
	}
	n := e.aead.NonceSize()
	if len(raw) < n+e.aead.Overhead() {
		return nil, ErrInvalidFormat
	}
	plain, err := e.aead.Open(nil, raw[:n], raw[n:], []byte(command))
	if err != nil {
		return nil, ErrDecryptFailed
	}
	return plain, nil
}
