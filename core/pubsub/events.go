package pubsub

import (
	"github.com/codewandler/xsystem-go/core/actor"
	"github.com/codewandler/xsystem-go/core/topic"
)

const (
	SubscribeType   = "xsystem.subscribe"
	UnsubscribeType = "xsystem.unsubscribe"
)

type (
	// Subscribe registers Ref for every pattern in Patterns. Empty Patterns
	// subscribes to everything.
	Subscribe struct {
		Ref      actor.Ref
		Patterns []string
	}

	// Unsubscribe removes Ref from every pattern it was registered under.
	Unsubscribe struct {
		Ref actor.Ref
	}
)

func (Subscribe) EventType() string   { return SubscribeType }
func (Unsubscribe) EventType() string { return UnsubscribeType }

// SubscribeTo returns a Subscribe event for ref. Without patterns the ref is
// subscribed to the global wildcard.
func SubscribeTo(ref actor.Ref, patterns ...string) Subscribe {
	if len(patterns) == 0 {
		patterns = []string{topic.Wildcard}
	}
	return Subscribe{Ref: ref, Patterns: patterns}
}

// UnsubscribeFrom returns an Unsubscribe event for ref.
func UnsubscribeFrom(ref actor.Ref) Unsubscribe {
	return Unsubscribe{Ref: ref}
}
