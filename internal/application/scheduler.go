package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/keeperbot/monzoo-keeper/internal/domain"
	"github.com/keeperbot/monzoo-keeper/internal/ports"
)

var (
	ErrRunInProgress    = errors.New("a run is already in progress")
	ErrPeriodSatisfied  = errors.New("period already satisfied")
	ErrScheduleDisabled = errors.New("schedule is disabled")
)

type RunReason string

const (
	ReasonScheduled RunReason = "scheduled"
	ReasonManual    RunReason = "manual"
)

// Scheduler gates cycle execution to at most one successful run per half-day
// period, records history, and persists scheduling state after every
// mutation. A single in-progress flag serializes runs; concurrent triggers
// are no-ops, never queued.
type Scheduler struct {
	states   ports.RunStateRepository
	settings ports.SettingsRepository
	secrets  ports.SecretStore
	runner   ports.CycleRunner
	clock    ports.Clock
	events   ports.EventSink
	runLog   ports.RunLog

	mu      sync.Mutex
	running bool
}

func NewScheduler(
	states ports.RunStateRepository,
	settings ports.SettingsRepository,
	secrets ports.SecretStore,
	runner ports.CycleRunner,
	clock ports.Clock,
	events ports.EventSink,
	runLog ports.RunLog,
) *Scheduler {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if events == nil {
		events = ports.NopSink{}
	}
	if runLog == nil {
		runLog = ports.NopRunLog{}
	}

	return &Scheduler{
		states:   states,
		settings: settings,
		secrets:  secrets,
		runner:   runner,
		clock:    clock,
		events:   events,
		runLog:   runLog,
	}
}

// CurrentPeriod partitions the day at the configured afternoon start hour.
func CurrentPeriod(now time.Time, settings domain.Settings) domain.Period {
	if now.Hour() < settings.AfternoonStartHour {
		return domain.PeriodMorning
	}
	return domain.PeriodAfternoon
}

// PeriodStart is the configured start of the current period on now's date.
func PeriodStart(now time.Time, settings domain.Settings) time.Time {
	hour := settings.MorningStartHour
	if CurrentPeriod(now, settings) == domain.PeriodAfternoon {
		hour = settings.AfternoonStartHour
	}
	return time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
}

// isDue reports whether the current period still lacks a successful run.
// A recorded success from before the period start does not count, which is
// what makes restarts catch up safely.
func isDue(state *domain.RunState, settings domain.Settings, now time.Time) bool {
	last := state.LastRunFor(CurrentPeriod(now, settings))
	return last.IsZero() || last.Before(PeriodStart(now, settings))
}

// nextOccurrence is the first time at or after now whose minute matches.
func nextOccurrence(now time.Time, minute int) time.Time {
	at := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), minute, 0, 0, now.Location())
	if at.Before(now.Truncate(time.Minute)) {
		at = at.Add(time.Hour)
	}
	return at
}

func nextPeriodStart(now time.Time, settings domain.Settings) time.Time {
	if CurrentPeriod(now, settings) == domain.PeriodMorning {
		return time.Date(now.Year(), now.Month(), now.Day(), settings.AfternoonStartHour, 0, 0, 0, now.Location())
	}
	next := now.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(), settings.MorningStartHour, 0, 0, 0, now.Location())
}

// IsDue reports whether a scheduled run is warranted right now.
func (s *Scheduler) IsDue(ctx context.Context) (bool, error) {
	settings, state, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	return isDue(&state, settings, s.clock.Now()), nil
}

// NextTrigger computes the next eligible trigger time for display and for
// the watch loop. The second return is false when scheduling is disabled.
func (s *Scheduler) NextTrigger(ctx context.Context) (time.Time, bool, error) {
	settings, state, err := s.load(ctx)
	if err != nil {
		return time.Time{}, false, err
	}
	if !settings.ScheduleEnabled {
		return time.Time{}, false, nil
	}

	now := s.clock.Now()
	if isDue(&state, settings, now) {
		return nextOccurrence(now, settings.RunMinute), true, nil
	}
	return nextOccurrence(nextPeriodStart(now, settings), settings.RunMinute), true, nil
}

// History returns the most recent entries, newest first.
func (s *Scheduler) History(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	state, err := s.states.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load run state: %w", err)
	}
	if limit <= 0 || limit > len(state.History) {
		limit = len(state.History)
	}
	return state.History[:limit], nil
}

// Running reports whether a cycle is currently in flight.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Trigger runs one cycle. Scheduled triggers are gated by the period check
// and record a skip entry when the period is already satisfied; manual
// triggers bypass the gate but still respect the in-progress flag.
func (s *Scheduler) Trigger(ctx context.Context, reason RunReason) (domain.CycleSummary, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return domain.CycleSummary{}, ErrRunInProgress
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	settings, state, err := s.load(ctx)
	if err != nil {
		return domain.CycleSummary{}, err
	}

	now := s.clock.Now()
	period := CurrentPeriod(now, settings)

	if reason == ReasonScheduled {
		if !settings.ScheduleEnabled {
			return domain.CycleSummary{}, ErrScheduleDisabled
		}
		if !isDue(&state, settings, now) {
			s.appendHistory(ctx, &state, domain.HistoryEntry{
				Time:    now,
				Message: fmt.Sprintf("Skipped (already ran this %s)", period.Label()),
			})
			return domain.CycleSummary{}, ErrPeriodSatisfied
		}
	}

	s.runLog.Reset()
	s.appendHistory(ctx, &state, domain.HistoryEntry{
		Time:    now,
		Message: fmt.Sprintf("Run started (%s)", reason),
	})

	summary := s.runCycle(ctx, settings)
	finished := s.clock.Now()

	if summary.OK {
		state.RecordRun(period, finished)
		s.appendHistory(ctx, &state, domain.HistoryEntry{
			Time: finished,
			Message: fmt.Sprintf("Success: added %d type(s), %d already safe",
				len(summary.ItemsAdded), len(summary.ItemsSafe)),
		})
	} else {
		s.appendHistory(ctx, &state, domain.HistoryEntry{
			Time:    finished,
			Message: "Failed: " + strings.Join(summary.Errors, "; "),
		})
	}

	if err := s.runLog.Persist(summary.StartedAt, summary.FinishedAt); err != nil {
		s.events.Emit(ports.LevelWarn, fmt.Sprintf("persist run log: %v", err))
	}

	return summary, nil
}

// runCycle resolves the vault credential and hands off to the runner. A
// missing credential fails the cycle without touching the network.
func (s *Scheduler) runCycle(ctx context.Context, settings domain.Settings) domain.CycleSummary {
	now := s.clock.Now()

	secret, err := s.secrets.Get(ctx, settings.VaultKey())
	if err != nil {
		message := fmt.Sprintf("load credentials for %q: %v", settings.AccountName, err)
		s.events.Emit(ports.LevelError, message)
		return domain.CycleSummary{
			StartedAt:  now,
			FinishedAt: s.clock.Now(),
			Errors:     []string{message},
		}
	}

	return s.runner.Run(ctx, settings.AccountName, secret)
}

// Watch evaluates the schedule once per minute and triggers a run when the
// configured minute arrives in an unsatisfied period. It returns when the
// context is cancelled.
func (s *Scheduler) Watch(ctx context.Context) error {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	s.evaluateTick(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.evaluateTick(ctx)
		}
	}
}

func (s *Scheduler) evaluateTick(ctx context.Context) {
	settings, err := s.settings.Load(ctx)
	if err != nil {
		s.events.Emit(ports.LevelError, fmt.Sprintf("load settings: %v", err))
		return
	}
	settings = settings.Normalized()

	if !settings.ScheduleEnabled || s.clock.Now().Minute() != settings.RunMinute {
		return
	}

	_, err = s.Trigger(ctx, ReasonScheduled)
	switch {
	case err == nil:
	case errors.Is(err, ErrPeriodSatisfied), errors.Is(err, ErrRunInProgress), errors.Is(err, ErrScheduleDisabled):
	default:
		s.events.Emit(ports.LevelError, fmt.Sprintf("scheduled trigger: %v", err))
	}
}

func (s *Scheduler) load(ctx context.Context) (domain.Settings, domain.RunState, error) {
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return domain.Settings{}, domain.RunState{}, fmt.Errorf("load settings: %w", err)
	}
	state, err := s.states.Load(ctx)
	if err != nil {
		return domain.Settings{}, domain.RunState{}, fmt.Errorf("load run state: %w", err)
	}
	return settings.Normalized(), state, nil
}

func (s *Scheduler) appendHistory(ctx context.Context, state *domain.RunState, entry domain.HistoryEntry) {
	state.AddHistory(entry)
	s.events.Emit(ports.LevelInfo, entry.Message)
	if err := s.states.Save(ctx, *state); err != nil {
		s.events.Emit(ports.LevelError, fmt.Sprintf("persist run state: %v", err))
	}
}
