package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case loadedMsg:
		if msg.err != nil {
			logger.Error("Failed to load today's data", "user", m.user.ID, "error", msg.err)
			return m, m.showToast(apperrors.Format(msg.err))
		}
		m.day = msg.day
		m.habits = msg.habits
		m.tasks = msg.tasks
		m.loaded = true
		m.clampCursor()

	case habitToggledMsg:
		if m.inflight[msg.habitID] > 0 {
			m.inflight[msg.habitID]--
		}
		i := m.habitIndex(msg.habitID)
		if msg.err != nil {
			logger.Warn("Habit toggle failed, reverting", "habit", msg.habitID, "error", msg.err)
			if i >= 0 {
				m.habits[i].Status = msg.prev
			}
			return m, m.showToast("Could not update habit: " + msg.err.Error())
		}
		if i >= 0 {
			m.habits[i].Streak = msg.streak
			m.habits[i].Habit.Streak = msg.streak
		}
		if m.inflight[msg.habitID] == 0 {
			return m, m.refreshHabit(msg.habitID)
		}

	case habitRefreshedMsg:
		if msg.err != nil {
			logger.Warn("Failed to refresh habit", "habit", msg.habitID, "error", msg.err)
			break
		}
		// A toggle issued after the refresh started wins until it lands.
		if !msg.found || m.inflight[msg.habitID] > 0 {
			break
		}
		if i := m.habitIndex(msg.habitID); i >= 0 {
			m.habits[i] = msg.overview
		}

	case taskToggledMsg:
		i := m.taskIndex(msg.taskID)
		if msg.err != nil {
			logger.Warn("Task toggle failed, reverting", "task", msg.taskID, "error", msg.err)
			if i >= 0 {
				m.tasks[i].Completed = msg.prev
			}
			return m, m.showToast("Could not update task: " + msg.err.Error())
		}
		// Later toggles may still be in flight, so only adopt the stored
		// timestamp when it agrees with what is on screen.
		if i >= 0 && m.tasks[i].Completed == msg.task.Completed {
			m.tasks[i].CompletedAt = msg.task.CompletedAt
		}

	case clearToastMsg:
		if msg.seq == m.toastSeq {
			m.toast = ""
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.state = (m.state + 1) % stateCount
		case key.Matches(msg, m.keys.ShiftTab):
			m.state = (m.state - 1 + stateCount) % stateCount
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Refresh):
			return m, m.load()
		case key.Matches(msg, m.keys.Up):
			if m.cursor[m.state] > 0 {
				m.cursor[m.state]--
			}
		case key.Matches(msg, m.keys.Down):
			m.cursor[m.state]++
			m.clampCursor()
		case key.Matches(msg, m.keys.Toggle):
			if !m.loaded {
				return m, nil
			}
			if m.state == StateToday {
				return m, m.toggleHabit()
			}
			return m, m.toggleTask()
		}
	}

	return m, nil
}
