package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/service"
)

type SessionState int

const (
	StateToday SessionState = iota
	StateTasks
	stateCount
)

var tabTitles = []string{"Today", "Tasks"}

// Model is the root bubbletea model. Toggles are applied to the local copy
// first and rolled back if the service call fails. Once the last in-flight
// toggle of a habit lands, its row is re-read from the service.
type Model struct {
	ctx      context.Context
	svc      *service.Service
	user     models.User
	day      string
	state    SessionState
	keys     KeyMap
	help     help.Model
	habits   []models.HabitOverview
	inflight map[string]int // habit ID -> unsaved toggles
	tasks    []models.DailyTask
	cursor   [stateCount]int
	toast    string
	toastSeq int
	loaded   bool
	quitting bool
	width    int
	height   int
}

func NewModel(ctx context.Context, svc *service.Service, user models.User) Model {
	return Model{
		ctx:  ctx,
		svc:  svc,
		user:     user,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		inflight: make(map[string]int),
	}
}

func (m Model) Init() tea.Cmd {
	return m.load()
}

type loadedMsg struct {
	day    string
	habits []models.HabitOverview
	tasks  []models.DailyTask
	err    error
}

type habitToggledMsg struct {
	habitID string
	prev    constants.HabitStatus
	logged  bool
	streak  int
	err     error
}

type habitRefreshedMsg struct {
	habitID  string
	overview models.HabitOverview
	found    bool
	err      error
}

type taskToggledMsg struct {
	taskID string
	prev   bool
	task   models.DailyTask
	err    error
}

type clearToastMsg struct {
	seq int
}

func (m Model) load() tea.Cmd {
	ctx, svc, uid := m.ctx, m.svc, m.user.ID
	return func() tea.Msg {
		day, err := svc.Today()
		if err != nil {
			return loadedMsg{err: err}
		}
		habits, err := svc.TodayOverview(ctx, uid)
		if err != nil {
			return loadedMsg{err: err}
		}
		tasks, err := svc.ListTasks(ctx, uid, day)
		if err != nil {
			return loadedMsg{err: err}
		}
		return loadedMsg{day: day, habits: habits, tasks: tasks}
	}
}

// toggleHabit flips the habit under the cursor and returns the command that
// persists the change.
func (m *Model) toggleHabit() tea.Cmd {
	i := m.cursor[StateToday]
	if i >= len(m.habits) {
		return nil
	}
	h := &m.habits[i]
	prev := h.Status
	if prev == constants.StatusCompleted {
		h.Status = constants.StatusPending
	} else {
		h.Status = constants.StatusCompleted
	}

	ctx, svc, uid, day, id := m.ctx, m.svc, m.user.ID, m.day, h.Habit.ID
	m.inflight[id]++
	return func() tea.Msg {
		logged, streak, err := svc.ToggleHabitLog(ctx, uid, id, day)
		return habitToggledMsg{habitID: id, prev: prev, logged: logged, streak: streak, err: err}
	}
}

// refreshHabit re-reads today's overview and picks out one habit, so rules
// the optimistic flip cannot know (weekly windows, week progress) show up.
func (m Model) refreshHabit(id string) tea.Cmd {
	ctx, svc, uid := m.ctx, m.svc, m.user.ID
	return func() tea.Msg {
		overview, err := svc.TodayOverview(ctx, uid)
		if err != nil {
			return habitRefreshedMsg{habitID: id, err: err}
		}
		for _, o := range overview {
			if o.Habit.ID == id {
				return habitRefreshedMsg{habitID: id, overview: o, found: true}
			}
		}
		return habitRefreshedMsg{habitID: id}
	}
}

func (m *Model) toggleTask() tea.Cmd {
	i := m.cursor[StateTasks]
	if i >= len(m.tasks) {
		return nil
	}
	t := &m.tasks[i]
	prev := t.Completed
	t.Completed = !prev

	ctx, svc, uid, id := m.ctx, m.svc, m.user.ID, t.ID
	return func() tea.Msg {
		task, err := svc.ToggleTask(ctx, uid, id)
		return taskToggledMsg{taskID: id, prev: prev, task: task, err: err}
	}
}

func (m Model) habitIndex(id string) int {
	for i, h := range m.habits {
		if h.Habit.ID == id {
			return i
		}
	}
	return -1
}

func (m Model) taskIndex(id string) int {
	for i, t := range m.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// showToast displays text until constants.ToastDuration passes or a newer
// toast replaces it.
func (m *Model) showToast(text string) tea.Cmd {
	m.toastSeq++
	seq := m.toastSeq
	m.toast = text
	return tea.Tick(constants.ToastDuration, func(time.Time) tea.Msg {
		return clearToastMsg{seq: seq}
	})
}

func (m *Model) clampCursor() {
	counts := [stateCount]int{len(m.habits), len(m.tasks)}
	for i, n := range counts {
		if m.cursor[i] >= n {
			m.cursor[i] = max(n-1, 0)
		}
	}
}
