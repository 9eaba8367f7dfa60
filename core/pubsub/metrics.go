package pubsub

// Metrics records subscription and fan-out activity.
type Metrics interface {
	Subscribed(patterns int)
	Unsubscribed(found bool)
	Published(eventType string, deliveries int)
}

type nopMetrics struct{}

func (nopMetrics) Subscribed(int) {}

func (nopMetrics) Unsubscribed(bool) {}

func (nopMetrics) Published(string, int) {}

// NopMetrics returns a no-op Metrics implementation.
func NopMetrics() Metrics { return nopMetrics{} }
