package ports

import "time"

type EventLevel int

const (
	LevelInfo EventLevel = iota
	LevelWarn
	LevelError
)

func (l EventLevel) String() string {
	switch l {
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// EventSink receives structured events from the scheduler and the cycle
// orchestrator. The UI layer subscribes through an implementation.
type EventSink interface {
	Emit(level EventLevel, message string)
}

// RunLog captures per-run event boundaries: the buffer is reset when a run
// starts and persisted when it finishes.
type RunLog interface {
	Reset()
	Persist(startedAt, finishedAt time.Time) error
}

type NopSink struct{}

func (NopSink) Emit(EventLevel, string) {}

type NopRunLog struct{}

func (NopRunLog) Reset() {}

func (NopRunLog) Persist(time.Time, time.Time) error { return nil }
