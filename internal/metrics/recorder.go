package metrics

import "time"

// ResultLabel enumerates operation result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailure ResultLabel = "failure"
)

// ReadOutcome labels how a slot read resolved.
type ReadOutcome string

const (
	ReadFound       ReadOutcome = "found"
	ReadNotFound    ReadOutcome = "not_found"
	ReadCorrupted   ReadOutcome = "corrupted"
	ReadUnavailable ReadOutcome = "unavailable"
)

// Recorder defines observability hooks for the shared state bus. Implementations
// may forward to Prometheus, OpenTelemetry, etc.
type Recorder interface {
	IncSlotRead(key string, outcome ReadOutcome)
	IncSlotWrite(key string, result ResultLabel)
	ObserveWriteDuration(backend string, d time.Duration)
	IncWriteRetry(key string)
	IncNotification(transport, direction string) // direction: sent|received
	IncHandlerPanic(key string)
	IncSessionOutcome(mode string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncSlotRead(string, ReadOutcome) {}
func (NoopRecorder) IncSlotWrite(string, ResultLabel) {}
func (NoopRecorder) ObserveWriteDuration(string, time.Duration) {}
func (NoopRecorder) IncWriteRetry(string) {}
func (NoopRecorder) IncNotification(string, string) {}
func (NoopRecorder) IncHandlerPanic(string) {}
func (NoopRecorder) IncSessionOutcome(string) {}
