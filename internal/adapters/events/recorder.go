package events

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/keeperbot/monzoo-keeper/internal/ports"
)

// DefaultCap bounds the in-memory event buffer for one run.
const DefaultCap = 1000

type Entry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

type lastRunDocument struct {
	StartedAt  *time.Time `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt"`
	Entries    []Entry    `json:"entries"`
}

// Recorder buffers the current run's events in memory, bounded to capacity,
// and persists them as the last-run log when the run finishes. It implements
// both the EventSink and RunLog ports.
type Recorder struct {
	capacity    int
	clock       ports.Clock
	lastRunPath string

	mu      sync.Mutex
	entries []Entry
}

var (
	_ ports.EventSink = (*Recorder)(nil)
	_ ports.RunLog    = (*Recorder)(nil)
)

func NewRecorder(capacity int, clock ports.Clock, lastRunPath string) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Recorder{capacity: capacity, clock: clock, lastRunPath: lastRunPath}
}

func (r *Recorder) Emit(level ports.EventLevel, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, Entry{
		Time:    r.clock.Now(),
		Level:   level.String(),
		Message: message,
	})
	if len(r.entries) > r.capacity {
		r.entries = r.entries[len(r.entries)-r.capacity:]
	}
}

// Reset clears the buffer so it only ever holds one run's events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}

// Entries returns up to limit of the buffered events, oldest first; a
// non-positive limit returns them all.
func (r *Recorder) Entries(limit int) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 || limit > len(r.entries) {
		limit = len(r.entries)
	}

	out := make([]Entry, limit)
	copy(out, r.entries[len(r.entries)-limit:])
	return out
}

// Persist writes the buffered events as the last-run log document.
func (r *Recorder) Persist(startedAt, finishedAt time.Time) error {
	if r.lastRunPath == "" {
		return nil
	}

	doc := lastRunDocument{
		StartedAt:  timeRef(startedAt),
		FinishedAt: timeRef(finishedAt),
		Entries:    r.Entries(0),
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode last-run log: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.lastRunPath), 0o700); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	if err := os.WriteFile(r.lastRunPath, data, 0o600); err != nil {
		return fmt.Errorf("write last-run log: %w", err)
	}

	return nil
}

// ReadLastRun loads a previously persisted last-run log.
func ReadLastRun(path string) (started, finished time.Time, entries []Entry, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return time.Time{}, time.Time{}, nil, fmt.Errorf("read last-run log: %w", err)
	}

	var doc lastRunDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return time.Time{}, time.Time{}, nil, fmt.Errorf("decode last-run log: %w", err)
	}

	return timeDeref(doc.StartedAt), timeDeref(doc.FinishedAt), doc.Entries, nil
}

func timeRef(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func timeDeref(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
