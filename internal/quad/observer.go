package quad

import "time"

// Observer receives timing reports from integration calls.
// Implementations must be safe for concurrent use: ObserveSpan is called
// from worker goroutines.
type Observer interface {
	// ObserveSpan reports one finished span (successful or not).
	ObserveSpan(class WeightClass, samples int, elapsed time.Duration, err error)

	// ObserveIntegration reports one finished call.
	ObserveIntegration(mode string, tier Tier, elapsed time.Duration, err error)
}

// NopObserver discards all reports.
type NopObserver struct{}

func (NopObserver) ObserveSpan(WeightClass, int, time.Duration, error) {}

func (NopObserver) ObserveIntegration(string, Tier, time.Duration, error) {}
