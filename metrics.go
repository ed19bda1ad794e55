package dali

import "time"

// MetricsReporter receives counters/observations from a Session
// (including its dispatcher's batch flushes) and a Discoverer. When no
// reporter is installed they use a no-op reporter, so the core never
// forces a Prometheus dependency onto a caller who does not want one;
// internal/metrics.Collector implements this interface for hosts that do.
type MetricsReporter interface {
	SessionConnected(gwSN string, connected bool)
	DispatcherBatchFlushed(cmd string, size int)
	DiscoveryCompleted(found int, duration time.Duration)
	EventDispatched(kind EventKind)
}

type noopReporter struct{}

func (noopReporter) SessionConnected(string, bool)         {}
func (noopReporter) DispatcherBatchFlushed(string, int)    {}
func (noopReporter) DiscoveryCompleted(int, time.Duration) {}
func (noopReporter) EventDispatched(EventKind)             {}
