package domain

import (
	"strings"
	"time"
)

// Period is one of the two daily windows that gate run-once execution.
type Period string

const (
	PeriodMorning   Period = "am"
	PeriodAfternoon Period = "pm"
)

// Label returns the period name as shown in history messages.
func (p Period) Label() string {
	return strings.ToUpper(string(p))
}

// HistoryLimit caps the persisted history, most-recent-first.
const HistoryLimit = 20

type HistoryEntry struct {
	Time    time.Time
	Message string
}

// RunState is the durable scheduling document: the last successful run per
// period plus a short activity history.
type RunState struct {
	LastRun map[Period]time.Time
	History []HistoryEntry
}

func NewRunState() RunState {
	return RunState{LastRun: make(map[Period]time.Time)}
}

// LastRunFor returns the recorded success for the period, zero if none.
func (s *RunState) LastRunFor(p Period) time.Time {
	return s.LastRun[p]
}

// RecordRun stamps a successful run for the period.
func (s *RunState) RecordRun(p Period, finishedAt time.Time) {
	if s.LastRun == nil {
		s.LastRun = make(map[Period]time.Time)
	}
	s.LastRun[p] = finishedAt
}

// AddHistory prepends an entry and trims to HistoryLimit.
func (s *RunState) AddHistory(entry HistoryEntry) {
	s.History = append([]HistoryEntry{entry}, s.History...)
	if len(s.History) > HistoryLimit {
		s.History = s.History[:HistoryLimit]
	}
}

// Settings is the operator-controlled schedule configuration.
type Settings struct {
	ScheduleEnabled    bool
	RunMinute          int
	MorningStartHour   int
	AfternoonStartHour int
	AccountName        string
}

func DefaultSettings() Settings {
	return Settings{
		ScheduleEnabled:    true,
		RunMinute:          10,
		MorningStartHour:   0,
		AfternoonStartHour: 14,
	}
}

// Normalized clamps the schedule fields into their valid ranges.
func (s Settings) Normalized() Settings {
	s.RunMinute = clamp(s.RunMinute, 0, 59)
	s.MorningStartHour = clamp(s.MorningStartHour, 0, 23)
	s.AfternoonStartHour = clamp(s.AfternoonStartHour, 0, 23)
	return s
}

// VaultKey is the fixed credential-vault reference for the configured
// account. The secret never lives in the persisted JSON documents.
func (s Settings) VaultKey() string {
	account := s.AccountName
	if account == "" {
		account = "default"
	}
	return "monzoo/" + account + "/password"
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
