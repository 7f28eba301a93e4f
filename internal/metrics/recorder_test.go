package metrics

import "testing"

func TestNoopRecorderSatisfiesInterface(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncSlotRead("k", ReadCorrupted)
	r.IncSessionOutcome("break")
}
