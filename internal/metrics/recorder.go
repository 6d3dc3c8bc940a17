package metrics

import "time"

// ResultLabel enumerates duty trigger result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultSkipped ResultLabel = "skipped"
	ResultFailed  ResultLabel = "failed"
	ResultFatal   ResultLabel = "fatal"
)

// Recorder defines observability hooks for duties and the control channel.
type Recorder interface {
	IncDutyTrigger(duty string, result ResultLabel)
	ObserveDutyDuration(duty string, d time.Duration)
	IncControlCommand(command string, ok bool)
	SetRunning(running bool)
	IncFramesPruned(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncDutyTrigger(string, ResultLabel)         {}
func (NoopRecorder) ObserveDutyDuration(string, time.Duration) {}
func (NoopRecorder) IncControlCommand(string, bool)            {}
func (NoopRecorder) SetRunning(bool)                           {}
func (NoopRecorder) IncFramesPruned(int)                       {}

// OrNoop returns r, or a NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
