// Package codec converts events to and from their JSON wire form.
//
// An encoded event is a JSON object whose "type" field holds the event type:
//
//	{"type": "order.created", "id": "o-1"}
//
// Decoding looks up the Go type registered for the "type" field. Events of
// unregistered types decode to [actor.Raw], which re-encodes to the same
// bytes, so a relay can forward events it does not understand.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/codewandler/xsystem-go/core/actor"
)

const typeField = "type"

// ErrNotAnEvent is returned when a payload is not a JSON object with a
// non-empty string "type" field.
var ErrNotAnEvent = errors.New("codec: not an event")

// Codec encodes and decodes events.
type Codec interface {
	Encode(ev actor.Event) ([]byte, error)
	Decode(data []byte) (actor.Event, error)
}

type decodeFunc func(data []byte) (actor.Event, error)

// Registry is a Codec that maps event types to Go types. The zero value is
// not usable; use NewRegistry.
type Registry struct {
	mu    sync.RWMutex
	types map[string]decodeFunc
}

func NewRegistry() *Registry {
	return &Registry{types: make(map[string]decodeFunc)}
}

// Register makes r decode events of E's type into E. The event type is taken
// from the zero value of E, so EventType must not depend on fields.
func Register[E actor.Event](r *Registry) {
	var zero E
	RegisterAs[E](r, zero.EventType())
}

// RegisterAs makes r decode events with the given type into E.
func RegisterAs[E actor.Event](r *Registry, eventType string) {
	if eventType == "" {
		panic("codec: empty event type")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[eventType] = func(data []byte) (actor.Event, error) {
		var e E
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", eventType, err)
		}
		return e, nil
	}
}

// Encode marshals ev to JSON and sets its "type" field. Events that do not
// marshal to an object (for example actor.Named) encode as {"type": ...}.
func (r *Registry) Encode(ev actor.Event) ([]byte, error) {
	if ev == nil {
		return nil, ErrNotAnEvent
	}
	if raw, ok := ev.(actor.Raw); ok && len(raw.Data) > 0 {
		return raw.Data, nil
	}

	b, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ev.EventType(), err)
	}
	if !gjson.ParseBytes(b).IsObject() {
		b = []byte(`{}`)
	}
	return sjson.SetBytes(b, typeField, ev.EventType())
}

// Decode parses data into the registered Go type for its "type" field, or
// into actor.Raw when the type is unknown.
func (r *Registry) Decode(data []byte) (actor.Event, error) {
	et, err := PeekType(data)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	decode, ok := r.types[et]
	r.mu.RUnlock()
	if !ok {
		return actor.Raw{Type: et, Data: append(json.RawMessage(nil), data...)}, nil
	}
	return decode(data)
}

// Known reports whether eventType has a registered Go type.
func (r *Registry) Known(eventType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[eventType]
	return ok
}

// PeekType returns the "type" field of an encoded event without decoding it.
func PeekType(data []byte) (string, error) {
	if !gjson.ValidBytes(data) {
		return "", fmt.Errorf("%w: invalid json", ErrNotAnEvent)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return "", fmt.Errorf("%w: not an object", ErrNotAnEvent)
	}
	t := doc.Get(typeField)
	if t.Type != gjson.String || t.Str == "" {
		return "", fmt.Errorf("%w: missing type", ErrNotAnEvent)
	}
	return t.Str, nil
}

var _ Codec = (*Registry)(nil)
