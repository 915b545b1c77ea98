// Package host exposes enrichment operations to an embedding host by name,
// with JSON requests and responses.
package host

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/goccy/go-json"
)

var (
	// ErrUnknownOperation is returned by Call for an unregistered name.
	ErrUnknownOperation = errors.New("unknown operation")
	// ErrDuplicateOperation is returned when a name is registered twice.
	ErrDuplicateOperation = errors.New("operation already registered")
)

// Handler runs one operation on a JSON request and returns a value to encode.
type Handler func(payload []byte) (any, error)

// Registry maps operation names to handlers. Handlers are registered
// explicitly during initialization; there is no package-level registry.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds name to h.
func (r *Registry) Register(name string, h Handler) error {
	if _, ok := r.handlers[name]; ok {
		return fmt.Errorf("%q: %w", name, ErrDuplicateOperation)
	}
	r.handlers[name] = h
	return nil
}

// Names returns the registered operation names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call runs the named operation and returns its JSON-encoded response.
func (r *Registry) Call(name string, payload []byte) ([]byte, error) {
	h, ok := r.handlers[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownOperation)
	}
	resp, err := h(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	out, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("%s: encode response: %w", name, err)
	}
	return out, nil
}

// decode strictly unmarshals a JSON request into v.
func decode(payload []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}
