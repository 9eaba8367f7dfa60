package registry

import "github.com/codewandler/xsystem-go/core/actor"

const (
	RegisterType         = "xsystem.registry.register"
	RegisterResponseType = "xsystem.registry.register.response"
	UnregisterType       = "xsystem.registry.unregister"
	LookupType           = "xsystem.registry.request"
	LookupResponseType   = "xsystem.registry.response"
)

type Status string

const (
	Success       Status = "success"
	AlreadyExists Status = "already_exists"
	Failed        Status = "failed"
)

type (
	// RegisterRequest stores Ref under ID. Origin, if set, receives a
	// RegisterResponse.
	RegisterRequest struct {
		ID     string
		Ref    actor.Ref
		Origin actor.Ref
	}

	RegisterResponse struct {
		ID     string
		Status Status
	}

	Unregister struct {
		ID string
	}

	// LookupRequest asks for the ref stored under ID. Requestor receives a
	// LookupResponse carrying RequestID.
	LookupRequest struct {
		ID        string
		RequestID string
		Requestor actor.Ref
	}

	LookupResponse struct {
		RequestID string
		Ref       actor.Ref
		Found     bool
	}

	// gone is sent to the registry when a registered ref is done.
	gone struct {
		id  string
		ref actor.Ref
	}
)

func (RegisterRequest) EventType() string  { return RegisterType }
func (RegisterResponse) EventType() string { return RegisterResponseType }
func (Unregister) EventType() string       { return UnregisterType }
func (LookupRequest) EventType() string    { return LookupType }
func (LookupResponse) EventType() string   { return LookupResponseType }
func (gone) EventType() string             { return "xsystem.internal.registry.gone" }
