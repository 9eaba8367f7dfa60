package async

type Metrics interface {
	// EpochStarted is called for every transition that mints a new epoch.
	EpochStarted()
	// StaleDiscarded is called when a superseded settlement is dropped.
	StaleDiscarded()
	// Settled is called when a future's result becomes visible.
	Settled(status Status)
}

type nopMetrics struct{}

func (nopMetrics) EpochStarted() {}

func (nopMetrics) StaleDiscarded() {}

func (nopMetrics) Settled(Status) {}

func NopMetrics() Metrics { return nopMetrics{} }
