package jsonfile

import (
	"time"

	"github.com/keeperbot/monzoo-keeper/internal/domain"
)

// The JSON shapes mirror the documents the desktop app wrote, so an existing
// run-state.json or settings.json keeps working unchanged.

type runStateSchema struct {
	LastRun lastRunSchema       `json:"lastRun"`
	History []historyItemSchema `json:"history"`
}

type lastRunSchema struct {
	Morning   *string `json:"am"`
	Afternoon *string `json:"pm"`
}

type historyItemSchema struct {
	Time    string `json:"time"`
	Message string `json:"message"`
}

type settingsSchema struct {
	ScheduleEnabled    bool   `json:"scheduleEnabled"`
	RunMinute          int    `json:"runMinute"`
	MorningStartHour   int    `json:"amStartHour"`
	AfternoonStartHour int    `json:"pmStartHour"`
	AccountName        string `json:"username"`
}

func toRunStateSchema(state domain.RunState) runStateSchema {
	out := runStateSchema{
		History: make([]historyItemSchema, 0, len(state.History)),
	}
	out.LastRun.Morning = formatTimeRef(state.LastRunFor(domain.PeriodMorning))
	out.LastRun.Afternoon = formatTimeRef(state.LastRunFor(domain.PeriodAfternoon))

	for _, entry := range state.History {
		out.History = append(out.History, historyItemSchema{
			Time:    entry.Time.Format(time.RFC3339),
			Message: entry.Message,
		})
	}

	return out
}

func fromRunStateSchema(in runStateSchema) domain.RunState {
	state := domain.NewRunState()

	if t := parseTimeRef(in.LastRun.Morning); !t.IsZero() {
		state.RecordRun(domain.PeriodMorning, t)
	}
	if t := parseTimeRef(in.LastRun.Afternoon); !t.IsZero() {
		state.RecordRun(domain.PeriodAfternoon, t)
	}

	state.History = make([]domain.HistoryEntry, 0, len(in.History))
	for _, item := range in.History {
		state.History = append(state.History, domain.HistoryEntry{
			Time:    parseTime(item.Time),
			Message: item.Message,
		})
	}

	return state
}

func toSettingsSchema(settings domain.Settings) settingsSchema {
	return settingsSchema{
		ScheduleEnabled:    settings.ScheduleEnabled,
		RunMinute:          settings.RunMinute,
		MorningStartHour:   settings.MorningStartHour,
		AfternoonStartHour: settings.AfternoonStartHour,
		AccountName:        settings.AccountName,
	}
}

func fromSettingsSchema(in settingsSchema) domain.Settings {
	return domain.Settings{
		ScheduleEnabled:    in.ScheduleEnabled,
		RunMinute:          in.RunMinute,
		MorningStartHour:   in.MorningStartHour,
		AfternoonStartHour: in.AfternoonStartHour,
		AccountName:        in.AccountName,
	}.Normalized()
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func parseTimeRef(raw *string) time.Time {
	if raw == nil {
		return time.Time{}
	}
	return parseTime(*raw)
}

func formatTimeRef(value time.Time) *string {
	if value.IsZero() {
		return nil
	}

	formatted := value.Format(time.RFC3339)
	return &formatted
}
