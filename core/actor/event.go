package actor

import "encoding/json"

type (
	// Event is anything that can be delivered to an actor. EventType names the
	// event for dispatch and topic matching; it must be constant per Go type.
	Event interface {
		EventType() string
	}

	// Ref is a handle that accepts events. Refs are compared by identity, so
	// implementations must have comparable dynamic types (use pointers).
	Ref interface {
		Send(ev Event)
	}
)

// Raw is an event whose Go type is unknown to the receiver, e.g. an event
// decoded from the wire without a registered type.
type Raw struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"-"`
}

func (r Raw) EventType() string { return r.Type }

// MarshalJSON returns the original payload.
func (r Raw) MarshalJSON() ([]byte, error) {
	if len(r.Data) == 0 {
		return json.Marshal(struct {
			Type string `json:"type"`
		}{r.Type})
	}
	return r.Data, nil
}

// Named is a payload-less event identified by its type only.
type Named string

func (n Named) EventType() string { return string(n) }

type funcRef struct {
	fn func(Event)
}

func (r *funcRef) Send(ev Event) { r.fn(ev) }

// NewRef wraps fn into a Ref. Every call returns a distinct handle.
func NewRef(fn func(Event)) Ref { return &funcRef{fn: fn} }
