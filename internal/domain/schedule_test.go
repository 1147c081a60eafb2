package domain_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/keeperbot/monzoo-keeper/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStateRecordRun(t *testing.T) {
	t.Parallel()

	state := domain.NewRunState()
	assert.True(t, state.LastRunFor(domain.PeriodMorning).IsZero())

	stamp := time.Date(2026, time.March, 2, 0, 10, 0, 0, time.UTC)
	state.RecordRun(domain.PeriodMorning, stamp)

	assert.Equal(t, stamp, state.LastRunFor(domain.PeriodMorning))
	assert.True(t, state.LastRunFor(domain.PeriodAfternoon).IsZero())
}

func TestRunStateRecordRunOnZeroValue(t *testing.T) {
	t.Parallel()

	var state domain.RunState
	stamp := time.Date(2026, time.March, 2, 14, 10, 0, 0, time.UTC)

	state.RecordRun(domain.PeriodAfternoon, stamp)

	assert.Equal(t, stamp, state.LastRunFor(domain.PeriodAfternoon))
}

func TestAddHistoryPrependsAndTrims(t *testing.T) {
	t.Parallel()

	state := domain.NewRunState()
	base := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	for i := 0; i < domain.HistoryLimit+5; i++ {
		state.AddHistory(domain.HistoryEntry{
			Time:    base.Add(time.Duration(i) * time.Minute),
			Message: fmt.Sprintf("entry %d", i),
		})
	}

	require.Len(t, state.History, domain.HistoryLimit)
	assert.Equal(t, "entry 24", state.History[0].Message)
	assert.Equal(t, "entry 5", state.History[len(state.History)-1].Message)
}

func TestDefaultSettings(t *testing.T) {
	t.Parallel()

	settings := domain.DefaultSettings()

	assert.True(t, settings.ScheduleEnabled)
	assert.Equal(t, 10, settings.RunMinute)
	assert.Equal(t, 0, settings.MorningStartHour)
	assert.Equal(t, 14, settings.AfternoonStartHour)
	assert.Empty(t, settings.AccountName)
}

func TestSettingsNormalizedClamps(t *testing.T) {
	t.Parallel()

	settings := domain.Settings{
		RunMinute:          75,
		MorningStartHour:   -3,
		AfternoonStartHour: 30,
	}.Normalized()

	assert.Equal(t, 59, settings.RunMinute)
	assert.Equal(t, 0, settings.MorningStartHour)
	assert.Equal(t, 23, settings.AfternoonStartHour)
}

func TestSettingsVaultKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "monzoo/zookeeper/password", domain.Settings{AccountName: "zookeeper"}.VaultKey())
	assert.Equal(t, "monzoo/default/password", domain.Settings{}.VaultKey())
}

func TestPeriodLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "AM", domain.PeriodMorning.Label())
	assert.Equal(t, "PM", domain.PeriodAfternoon.Label())
}
