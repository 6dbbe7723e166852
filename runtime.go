package behavioral

import (
	"crypto/rand"
	"fmt"
	"log/slog"
)

// Runtime binds a Registry to documents: it defines behavioral hosts,
// delivers commands and runs the auto-loader. A runtime holds no per-document
// state, so one runtime can serve any number of documents.
type Runtime struct {
	registry *Registry
	encoder  *Encoder
	mode     PayloadMode
	logger   *slog.Logger
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the runtime's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

// WithEncoder sets the encoder used for command payloads.
func WithEncoder(enc *Encoder) Option {
	return func(rt *Runtime) {
		rt.encoder = enc
	}
}

// WithPayloadMode sets how EncodePayload protects payloads. The default is
// SignedPayloads. Decoding accepts either mode.
func WithPayloadMode(mode PayloadMode) Option {
	return func(rt *Runtime) {
		rt.mode = mode
	}
}

// WithPayloadKey creates the payload encoder from key.
// Panics if the encoder cannot be created.
func WithPayloadKey(key []byte) Option {
	return func(rt *Runtime) {
		enc, err := NewEncoder(key)
		if err != nil {
			panic(fmt.Sprintf("behavioral: failed to create encoder: %v", err))
		}
		rt.encoder = enc
	}
}

// New creates a runtime over reg. A nil reg gets a fresh registry. Without a
// payload key a random one is generated, so payloads only round-trip within
// this process.
func New(reg *Registry, opts ...Option) *Runtime {
	if reg == nil {
		reg = NewRegistry()
	}
	rt := &Runtime{
		registry: reg,
		mode:     SignedPayloads,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(rt)
	}

	if rt.encoder == nil {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(fmt.Sprintf("behavioral: failed to generate random key: %v", err))
		}
		WithPayloadKey(key)(rt)
	}
	return rt
}

// Registry returns the runtime's registry.
func (rt *Runtime) Registry() *Registry {
	return rt.registry
}

// Logger returns the runtime's logger.
func (rt *Runtime) Logger() *slog.Logger {
	return rt.logger
}

// Encoder returns the payload encoder.
func (rt *Runtime) Encoder() *Encoder {
	return rt.encoder
}
