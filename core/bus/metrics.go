package bus

const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Metrics records traffic between a bus and its transport.
type Metrics interface {
	Relayed(direction string)
	RelayFailed(direction string)
	EchoDiscarded()
}

type nopMetrics struct{}

func (nopMetrics) Relayed(string) {}

func (nopMetrics) RelayFailed(string) {}

func (nopMetrics) EchoDiscarded() {}

func NopMetrics() Metrics { return nopMetrics{} }
