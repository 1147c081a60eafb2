package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/keeperbot/monzoo-keeper/internal/domain"
)

// View is everything the status command shows: scheduler state, next
// trigger, last successful run per period and recent history.
type View struct {
	Running         bool
	ScheduleEnabled bool
	AccountName     string
	NextTrigger     time.Time
	LastMorning     time.Time
	LastAfternoon   time.Time
	History         []domain.HistoryEntry
	Now             time.Time
}

const historyShown = 5

func renderView(v View, s styles) string {
	lines := []string{
		s.title.Render("MonZoo Keeper"),
		accountLine(v, s),
		stateLine(v, s),
		scheduleLine(v, s),
		lastRunLine("last AM run:", v.LastMorning, s),
		lastRunLine("last PM run:", v.LastAfternoon, s),
	}

	lines = append(lines, s.section.Render(s.label.Render("Recent activity")))
	lines = append(lines, historyLines(v.History, s)...)

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func accountLine(v View, s styles) string {
	account := v.AccountName
	if account == "" {
		account = "(not configured)"
	}
	return s.label.Render("account: ") + s.entry.Render(account)
}

func stateLine(v View, s styles) string {
	if v.Running {
		return s.running.Render("Status: Running")
	}
	return s.idle.Render("Status: Idle")
}

func scheduleLine(v View, s styles) string {
	if !v.ScheduleEnabled {
		return s.disabled.Render("Schedule: Disabled")
	}
	if v.NextTrigger.IsZero() {
		return s.schedule.Render("Next run: unknown")
	}
	return s.schedule.Render("Next run: " + v.NextTrigger.Format("Mon 2 Jan 15:04"))
}

func lastRunLine(label string, t time.Time, s styles) string {
	value := "never"
	if !t.IsZero() {
		value = t.Format("Mon 2 Jan 15:04")
	}
	return s.label.Render(label+" ") + s.entry.Render(value)
}

func historyLines(history []domain.HistoryEntry, s styles) []string {
	if len(history) == 0 {
		return []string{s.empty.Render("No recent activity")}
	}

	if len(history) > historyShown {
		history = history[:historyShown]
	}

	lines := make([]string, 0, len(history))
	for _, entry := range history {
		line := fmt.Sprintf("%s  %s", entry.Time.Format("02 Jan 15:04"), entry.Message)
		style := s.entry
		if strings.HasPrefix(entry.Message, "Failed") {
			style = s.failed
		}
		lines = append(lines, style.Render(line))
	}

	return lines
}
