package registry

import (
	"context"

	"github.com/google/uuid"

	"github.com/codewandler/xsystem-go/core/actor"
)

// Register stores ref under id in the registry reg and waits for the
// answer. It reports whether the registration succeeded.
func Register(ctx context.Context, reg actor.Ref, id string, ref actor.Ref) (bool, error) {
	replies := make(chan RegisterResponse, 1)
	origin := actor.NewRef(func(ev actor.Event) {
		if r, ok := ev.(RegisterResponse); ok {
			select {
			case replies <- r:
			default:
			}
		}
	})

	reg.Send(RegisterRequest{ID: id, Ref: ref, Origin: origin})

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case r := <-replies:
		return r.Status == Success, nil
	}
}

// Lookup returns the ref stored under id in the registry reg.
func Lookup(ctx context.Context, reg actor.Ref, id string) (actor.Ref, bool, error) {
	requestID := uuid.NewString()
	replies := make(chan LookupResponse, 1)
	requestor := actor.NewRef(func(ev actor.Event) {
		if r, ok := ev.(LookupResponse); ok && r.RequestID == requestID {
			select {
			case replies <- r:
			default:
			}
		}
	})

	reg.Send(LookupRequest{ID: id, RequestID: requestID, Requestor: requestor})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case r := <-replies:
		return r.Ref, r.Found, nil
	}
}
