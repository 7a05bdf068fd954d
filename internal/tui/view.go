package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitual/internal/constants"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateToday:
		content = m.viewToday()
	case StateTasks:
		content = m.viewTasks()
	}

	parts := []string{
		lipgloss.JoinHorizontal(lipgloss.Top, m.viewTabs(), m.viewHeader()),
		docStyle.Render(content),
	}
	if m.toast != "" {
		parts = append(parts, toastStyle.Render(m.toast))
	}
	parts = append(parts, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) viewTabs() string {
	var tabs []string
	for i, title := range tabTitles {
		if m.state == SessionState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewHeader() string {
	if m.day == "" {
		return headerStyle.Render(m.user.Name)
	}
	return headerStyle.Render(m.user.Name + " · " + m.day)
}

func (m Model) pointer(state SessionState, i int) string {
	if m.cursor[state] == i {
		return cursorStyle.Render(">")
	}
	return " "
}

func (m Model) viewToday() string {
	if !m.loaded {
		return "Loading..."
	}
	if len(m.habits) == 0 {
		return "No habits yet.\nAdd one with 'habitual habit add'."
	}

	var b strings.Builder
	for i, o := range m.habits {
		var mark string
		switch o.Status {
		case constants.StatusCompleted:
			mark = doneStyle.Render("[x]")
		case constants.StatusFailed:
			mark = failedStyle.Render("[!]")
		case constants.StatusNotRequired:
			mark = mutedStyle.Render("[-]")
		default:
			mark = "[ ]"
		}
		fmt.Fprintf(&b, "%s %s %s %s\n",
			m.pointer(StateToday, i),
			mark,
			o.Habit.Title,
			mutedStyle.Render(fmt.Sprintf("%s · streak %d · week %d/%d",
				o.Habit.Frequency, o.Streak, o.Week.Completed, o.Week.Target)),
		)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) viewTasks() string {
	if !m.loaded {
		return "Loading..."
	}
	if len(m.tasks) == 0 {
		return "No tasks for today.\nAdd one with 'habitual task add'."
	}

	var b strings.Builder
	for i, t := range m.tasks {
		mark := "[ ]"
		title := t.Title
		if t.Completed {
			mark = doneStyle.Render("[x]")
			title = mutedStyle.Render(title)
		}
		fmt.Fprintf(&b, "%s %s %s %s\n",
			m.pointer(StateTasks, i),
			mark,
			title,
			mutedStyle.Render(string(t.Priority)),
		)
	}
	return strings.TrimRight(b.String(), "\n")
}
