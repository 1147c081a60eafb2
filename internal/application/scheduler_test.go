package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/keeperbot/monzoo-keeper/internal/application"
	"github.com/keeperbot/monzoo-keeper/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type memStateRepo struct {
	mu    sync.Mutex
	state domain.RunState
	saves int
}

func (r *memStateRepo) Load(context.Context) (domain.RunState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, nil
}

func (r *memStateRepo) Save(_ context.Context, state domain.RunState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state
	r.saves++
	return nil
}

type memSettingsRepo struct {
	settings domain.Settings
}

func (r *memSettingsRepo) Load(context.Context) (domain.Settings, error) {
	return r.settings, nil
}

func (r *memSettingsRepo) Save(_ context.Context, settings domain.Settings) error {
	r.settings = settings
	return nil
}

type memSecrets struct {
	values map[string]string
}

func (s *memSecrets) Get(_ context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", errors.New("secret not found")
	}
	return value, nil
}

func (s *memSecrets) Put(_ context.Context, key, value string) error {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	return nil
}

func (s *memSecrets) Delete(_ context.Context, key string) error {
	delete(s.values, key)
	return nil
}

type stubRunner struct {
	mu       sync.Mutex
	runs     int
	ok       bool
	lastUser string
	lastPass string
	onRun    func()
}

func (r *stubRunner) Run(_ context.Context, account, secret string) domain.CycleSummary {
	r.mu.Lock()
	r.runs++
	r.lastUser = account
	r.lastPass = secret
	hook := r.onRun
	r.mu.Unlock()

	if hook != nil {
		hook()
	}

	summary := domain.CycleSummary{OK: r.ok}
	if !r.ok {
		summary.Errors = []string{"boom"}
	}
	return summary
}

func (r *stubRunner) Runs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

func newTestScheduler(t *testing.T, now time.Time, ok bool) (*application.Scheduler, *memStateRepo, *stubRunner, *fakeClock) {
	t.Helper()

	clock := &fakeClock{now: now}
	states := &memStateRepo{state: domain.NewRunState()}
	settings := &memSettingsRepo{settings: domain.DefaultSettings()}
	secrets := &memSecrets{values: map[string]string{
		domain.DefaultSettings().VaultKey(): "hunter2",
	}}
	runner := &stubRunner{ok: ok}

	scheduler := application.NewScheduler(states, settings, secrets, runner, clock, nil, nil)
	return scheduler, states, runner, clock
}

func TestCurrentPeriod(t *testing.T) {
	t.Parallel()

	settings := domain.DefaultSettings()

	morning := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	afternoon := time.Date(2026, time.March, 2, 14, 0, 0, 0, time.UTC)

	assert.Equal(t, domain.PeriodMorning, application.CurrentPeriod(morning, settings))
	assert.Equal(t, domain.PeriodAfternoon, application.CurrentPeriod(afternoon, settings))
}

func TestPeriodStart(t *testing.T) {
	t.Parallel()

	settings := domain.DefaultSettings()
	now := time.Date(2026, time.March, 2, 16, 42, 0, 0, time.UTC)

	assert.Equal(t,
		time.Date(2026, time.March, 2, 14, 0, 0, 0, time.UTC),
		application.PeriodStart(now, settings))

	morning := time.Date(2026, time.March, 2, 7, 5, 0, 0, time.UTC)
	assert.Equal(t,
		time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC),
		application.PeriodStart(morning, settings))
}

func TestSchedulerIsDueWithNoHistory(t *testing.T) {
	t.Parallel()

	scheduler, _, _, _ := newTestScheduler(t, time.Date(2026, time.March, 2, 9, 10, 0, 0, time.UTC), true)

	due, err := scheduler.IsDue(context.Background())
	require.NoError(t, err)
	assert.True(t, due)
}

func TestSchedulerSuccessSatisfiesPeriodUntilNextOne(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, time.March, 2, 9, 10, 0, 0, time.UTC)
	scheduler, _, runner, clock := newTestScheduler(t, start, true)
	ctx := context.Background()

	summary, err := scheduler.Trigger(ctx, application.ReasonScheduled)
	require.NoError(t, err)
	assert.True(t, summary.OK)
	assert.Equal(t, 1, runner.Runs())

	due, err := scheduler.IsDue(ctx)
	require.NoError(t, err)
	assert.False(t, due)

	// Afternoon opens a fresh period.
	clock.Set(time.Date(2026, time.March, 2, 14, 10, 0, 0, time.UTC))
	due, err = scheduler.IsDue(ctx)
	require.NoError(t, err)
	assert.True(t, due)

	_, err = scheduler.Trigger(ctx, application.ReasonScheduled)
	require.NoError(t, err)
	assert.Equal(t, 2, runner.Runs())

	// Next morning is due again even though a morning success exists.
	clock.Set(time.Date(2026, time.March, 3, 0, 10, 0, 0, time.UTC))
	due, err = scheduler.IsDue(ctx)
	require.NoError(t, err)
	assert.True(t, due)
}

func TestSchedulerScheduledSkipWhenSatisfied(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, time.March, 2, 9, 10, 0, 0, time.UTC)
	scheduler, states, runner, _ := newTestScheduler(t, start, true)
	ctx := context.Background()

	_, err := scheduler.Trigger(ctx, application.ReasonScheduled)
	require.NoError(t, err)

	_, err = scheduler.Trigger(ctx, application.ReasonScheduled)
	require.ErrorIs(t, err, application.ErrPeriodSatisfied)
	assert.Equal(t, 1, runner.Runs())

	require.NotEmpty(t, states.state.History)
	assert.Equal(t, "Skipped (already ran this AM)", states.state.History[0].Message)
}

func TestSchedulerFailureDoesNotSatisfyPeriod(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, time.March, 2, 9, 10, 0, 0, time.UTC)
	scheduler, states, runner, _ := newTestScheduler(t, start, false)
	ctx := context.Background()

	summary, err := scheduler.Trigger(ctx, application.ReasonScheduled)
	require.NoError(t, err)
	assert.False(t, summary.OK)

	due, err := scheduler.IsDue(ctx)
	require.NoError(t, err)
	assert.True(t, due)

	_, err = scheduler.Trigger(ctx, application.ReasonScheduled)
	require.NoError(t, err)
	assert.Equal(t, 2, runner.Runs())

	assert.True(t, states.state.LastRunFor(domain.PeriodMorning).IsZero())
	assert.Equal(t, "Failed: boom", states.state.History[0].Message)
}

func TestSchedulerManualBypassesPeriodGate(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, time.March, 2, 9, 10, 0, 0, time.UTC)
	scheduler, _, runner, _ := newTestScheduler(t, start, true)
	ctx := context.Background()

	_, err := scheduler.Trigger(ctx, application.ReasonScheduled)
	require.NoError(t, err)

	_, err = scheduler.Trigger(ctx, application.ReasonManual)
	require.NoError(t, err)
	assert.Equal(t, 2, runner.Runs())
}

func TestSchedulerScheduledRespectsDisabledFlag(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, time.March, 2, 9, 10, 0, 0, time.UTC)
	clock := &fakeClock{now: start}
	settings := domain.DefaultSettings()
	settings.ScheduleEnabled = false
	scheduler := application.NewScheduler(
		&memStateRepo{state: domain.NewRunState()},
		&memSettingsRepo{settings: settings},
		&memSecrets{},
		&stubRunner{ok: true},
		clock, nil, nil,
	)

	_, err := scheduler.Trigger(context.Background(), application.ReasonScheduled)
	assert.ErrorIs(t, err, application.ErrScheduleDisabled)
}

func TestSchedulerConcurrentTriggerIsNoOp(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, time.March, 2, 9, 10, 0, 0, time.UTC)
	scheduler, _, runner, _ := newTestScheduler(t, start, true)
	ctx := context.Background()

	release := make(chan struct{})
	entered := make(chan struct{})
	runner.onRun = func() {
		close(entered)
		<-release
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := scheduler.Trigger(ctx, application.ReasonManual)
		assert.NoError(t, err)
	}()

	<-entered
	assert.True(t, scheduler.Running())

	_, err := scheduler.Trigger(ctx, application.ReasonManual)
	assert.ErrorIs(t, err, application.ErrRunInProgress)

	close(release)
	<-done
	assert.False(t, scheduler.Running())
	assert.Equal(t, 1, runner.Runs())
}

func TestSchedulerMissingSecretFailsWithoutRunner(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, time.March, 2, 9, 10, 0, 0, time.UTC)
	clock := &fakeClock{now: start}
	runner := &stubRunner{ok: true}
	scheduler := application.NewScheduler(
		&memStateRepo{state: domain.NewRunState()},
		&memSettingsRepo{settings: domain.DefaultSettings()},
		&memSecrets{},
		runner,
		clock, nil, nil,
	)

	summary, err := scheduler.Trigger(context.Background(), application.ReasonManual)
	require.NoError(t, err)
	assert.False(t, summary.OK)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "load credentials")
	assert.Zero(t, runner.Runs())
}

func TestSchedulerPassesAccountAndSecretToRunner(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, time.March, 2, 9, 10, 0, 0, time.UTC)
	clock := &fakeClock{now: start}
	runner := &stubRunner{ok: true}
	settings := domain.DefaultSettings()
	settings.AccountName = "zookeeper"
	scheduler := application.NewScheduler(
		&memStateRepo{state: domain.NewRunState()},
		&memSettingsRepo{settings: settings},
		&memSecrets{values: map[string]string{"monzoo/zookeeper/password": "hunter2"}},
		runner,
		clock, nil, nil,
	)

	_, err := scheduler.Trigger(context.Background(), application.ReasonManual)
	require.NoError(t, err)
	assert.Equal(t, "zookeeper", runner.lastUser)
	assert.Equal(t, "hunter2", runner.lastPass)
}

func TestNextTrigger(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("due now targets the next matching minute", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, time.March, 2, 9, 5, 0, 0, time.UTC)
		scheduler, _, _, _ := newTestScheduler(t, now, true)

		next, enabled, err := scheduler.NextTrigger(ctx)
		require.NoError(t, err)
		assert.True(t, enabled)
		assert.Equal(t, time.Date(2026, time.March, 2, 9, 10, 0, 0, time.UTC), next)
	})

	t.Run("minute already passed rolls to the next hour", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, time.March, 2, 9, 25, 0, 0, time.UTC)
		scheduler, _, _, _ := newTestScheduler(t, now, true)

		next, enabled, err := scheduler.NextTrigger(ctx)
		require.NoError(t, err)
		assert.True(t, enabled)
		assert.Equal(t, time.Date(2026, time.March, 2, 10, 10, 0, 0, time.UTC), next)
	})

	t.Run("satisfied morning targets the afternoon opening", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, time.March, 2, 9, 10, 0, 0, time.UTC)
		scheduler, _, _, _ := newTestScheduler(t, now, true)

		_, err := scheduler.Trigger(ctx, application.ReasonScheduled)
		require.NoError(t, err)

		next, enabled, err := scheduler.NextTrigger(ctx)
		require.NoError(t, err)
		assert.True(t, enabled)
		assert.Equal(t, time.Date(2026, time.March, 2, 14, 10, 0, 0, time.UTC), next)
	})

	t.Run("satisfied afternoon targets next morning", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, time.March, 2, 15, 10, 0, 0, time.UTC)
		scheduler, _, _, _ := newTestScheduler(t, now, true)

		_, err := scheduler.Trigger(ctx, application.ReasonScheduled)
		require.NoError(t, err)

		next, enabled, err := scheduler.NextTrigger(ctx)
		require.NoError(t, err)
		assert.True(t, enabled)
		assert.Equal(t, time.Date(2026, time.March, 3, 0, 10, 0, 0, time.UTC), next)
	})

	t.Run("disabled schedule has no trigger", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, time.March, 2, 9, 5, 0, 0, time.UTC)
		clock := &fakeClock{now: now}
		settings := domain.DefaultSettings()
		settings.ScheduleEnabled = false
		scheduler := application.NewScheduler(
			&memStateRepo{state: domain.NewRunState()},
			&memSettingsRepo{settings: settings},
			&memSecrets{},
			&stubRunner{ok: true},
			clock, nil, nil,
		)

		next, enabled, err := scheduler.NextTrigger(ctx)
		require.NoError(t, err)
		assert.False(t, enabled)
		assert.True(t, next.IsZero())
	})
}

func TestSchedulerHistoryWording(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, time.March, 2, 9, 10, 0, 0, time.UTC)
	scheduler, states, _, _ := newTestScheduler(t, start, true)
	ctx := context.Background()

	_, err := scheduler.Trigger(ctx, application.ReasonScheduled)
	require.NoError(t, err)

	require.Len(t, states.state.History, 2)
	assert.Equal(t, "Success: added 0 type(s), 0 already safe", states.state.History[0].Message)
	assert.Equal(t, "Run started (scheduled)", states.state.History[1].Message)

	entries, err := scheduler.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, states.state.History[0].Message, entries[0].Message)
}

func TestSchedulerPersistsStateAfterEveryMutation(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, time.March, 2, 9, 10, 0, 0, time.UTC)
	scheduler, states, _, _ := newTestScheduler(t, start, true)

	_, err := scheduler.Trigger(context.Background(), application.ReasonScheduled)
	require.NoError(t, err)

	// One save for the start entry, one for the success entry.
	assert.Equal(t, 2, states.saves)
	assert.False(t, states.state.LastRunFor(domain.PeriodMorning).IsZero())
}
