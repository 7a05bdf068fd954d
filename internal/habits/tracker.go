package habits

import (
	"fmt"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
)

// Tracker derives statuses, streaks and progress for one habit from its
// frequency rule, creation day and log history. It performs no I/O and
// holds no clock: every query takes "today" explicitly.
//
// Days are handled as UTC midnights so that day arithmetic never crosses
// a DST boundary. Callers convert to the user's timezone before building
// day strings.
type Tracker struct {
	freq    Frequency
	created time.Time
	logs    map[time.Time]struct{}
}

// NewTracker builds a Tracker from a frequency rule, a YYYY-MM-DD creation
// day and the logged days.
func NewTracker(freq Frequency, createdDay string, logDays []string) (*Tracker, error) {
	created, err := parseDay(createdDay)
	if err != nil {
		return nil, fmt.Errorf("invalid creation day: %w", err)
	}

	t := &Tracker{
		freq:    freq,
		created: created,
		logs:    make(map[time.Time]struct{}, len(logDays)),
	}
	for _, day := range logDays {
		d, err := parseDay(day)
		if err != nil {
			return nil, fmt.Errorf("invalid log day %q: %w", day, err)
		}
		t.logs[d] = struct{}{}
	}
	return t, nil
}

// FromHabit builds a Tracker for a stored habit and its logs, taking the
// creation day in loc.
func FromHabit(h models.Habit, logs []models.HabitLog, loc *time.Location) (*Tracker, error) {
	freq, err := ParseFrequency(h.Frequency)
	if err != nil {
		return nil, err
	}
	days := make([]string, 0, len(logs))
	for _, l := range logs {
		days = append(days, l.Day)
	}
	return NewTracker(freq, h.CreatedDay(loc), days)
}

// Frequency returns the tracker's rule.
func (t *Tracker) Frequency() Frequency {
	return t.freq
}

// Status returns the status of the habit on day as seen from today.
func (t *Tracker) Status(day, today string) (constants.HabitStatus, error) {
	d, err := parseDay(day)
	if err != nil {
		return "", err
	}
	now, err := parseDay(today)
	if err != nil {
		return "", err
	}
	return t.status(d, now), nil
}

func (t *Tracker) status(d, today time.Time) constants.HabitStatus {
	if t.logged(d) {
		return constants.StatusCompleted
	}
	if d.Before(t.created) {
		return constants.StatusNotRequired
	}

	switch {
	case t.freq.fixedDays():
		if !t.freq.requiredOn(d.Weekday()) {
			return constants.StatusNotRequired
		}
		return missed(d, today)

	case t.freq.Kind == KindWeekly || t.freq.Kind == KindTimesPerWeek:
		// Rolling seven-day window ending on d, clipped to the creation day.
		// The target is prorated (rounded down) while the window is short.
		// Logs from before creation never count toward it.
		from := d.AddDate(0, 0, -6)
		if from.Before(t.created) {
			from = t.created
		}
		span := daysBetween(from, d) + 1
		target := t.freq.Times * span / 7
		if t.countBetween(from, d) >= target {
			return constants.StatusNotRequired
		}
		return missed(d, today)

	case t.freq.Kind == KindMonthly:
		first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		last := first.AddDate(0, 1, -1)
		if t.countBetween(first, last) > 0 {
			return constants.StatusNotRequired
		}
		if last.Before(today) {
			return constants.StatusFailed
		}
		return constants.StatusPending
	}

	return constants.StatusNotRequired
}

// CurrentStreak counts completed days walking back from today to the
// creation day. Pending and not-required days are skipped; the first failed
// day ends the streak.
func (t *Tracker) CurrentStreak(today string) (int, error) {
	now, err := parseDay(today)
	if err != nil {
		return 0, err
	}

	streak := 0
	for i, d := 0, now; i < constants.MaxStreakLookback && !d.Before(t.created); i, d = i+1, d.AddDate(0, 0, -1) {
		switch t.status(d, now) {
		case constants.StatusCompleted:
			streak++
		case constants.StatusFailed:
			return streak, nil
		}
	}
	return streak, nil
}

// LongestStreak returns the longest run of completed days between the
// creation day and today, with the same skipping rules as CurrentStreak.
func (t *Tracker) LongestStreak(today string) (int, error) {
	now, err := parseDay(today)
	if err != nil {
		return 0, err
	}

	from := t.created
	if limit := now.AddDate(0, 0, -constants.MaxStreakLookback); from.Before(limit) {
		from = limit
	}

	best, run := 0, 0
	for d := from; !d.After(now); d = d.AddDate(0, 0, 1) {
		switch t.status(d, now) {
		case constants.StatusCompleted:
			run++
			if run > best {
				best = run
			}
		case constants.StatusFailed:
			run = 0
		}
	}
	return best, nil
}

// Week returns per-day statuses and completion progress for the calendar
// week containing day.
func (t *Tracker) Week(day string, weekStart time.Weekday, today string) (models.WeekProgress, error) {
	d, err := parseDay(day)
	if err != nil {
		return models.WeekProgress{}, err
	}
	now, err := parseDay(today)
	if err != nil {
		return models.WeekProgress{}, err
	}

	offset := (int(d.Weekday()) - int(weekStart) + 7) % 7
	first := d.AddDate(0, 0, -offset)

	progress := models.WeekProgress{
		Days:   make([]models.HabitDay, 0, 7),
		Target: t.freq.WeeklyTarget(),
	}
	for i := 0; i < 7; i++ {
		cur := first.AddDate(0, 0, i)
		status := t.status(cur, now)
		if status == constants.StatusCompleted {
			progress.Completed++
		}
		progress.Days = append(progress.Days, models.HabitDay{
			Day:    cur.Format(constants.DateFormat),
			Status: status,
		})
	}
	progress.Percent = percent(progress.Completed, progress.Target)
	return progress, nil
}

// CompletionRate is completed / (completed + failed) over [from, to] as a
// percentage. Days that were never required do not count against it.
func (t *Tracker) CompletionRate(from, to, today string) (float64, error) {
	start, err := parseDay(from)
	if err != nil {
		return 0, err
	}
	end, err := parseDay(to)
	if err != nil {
		return 0, err
	}
	now, err := parseDay(today)
	if err != nil {
		return 0, err
	}
	if end.Before(start) {
		return 0, fmt.Errorf("range end %s is before start %s", to, from)
	}
	if limit := end.AddDate(0, 0, -constants.MaxStreakLookback); start.Before(limit) {
		start = limit
	}

	completed, failed := 0, 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		switch t.status(d, now) {
		case constants.StatusCompleted:
			completed++
		case constants.StatusFailed:
			failed++
		}
	}
	if completed+failed == 0 {
		return 0, nil
	}
	return float64(completed) * 100 / float64(completed+failed), nil
}

// TotalCompletions is the number of distinct logged days.
func (t *Tracker) TotalCompletions() int {
	return len(t.logs)
}

func (t *Tracker) logged(d time.Time) bool {
	_, ok := t.logs[d]
	return ok
}

func (t *Tracker) countBetween(from, to time.Time) int {
	n := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if t.logged(d) {
			n++
		}
	}
	return n
}

func missed(d, today time.Time) constants.HabitStatus {
	if d.Before(today) {
		return constants.StatusFailed
	}
	return constants.StatusPending
}

func parseDay(s string) (time.Time, error) {
	return time.Parse(constants.DateFormat, s)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func percent(done, target int) int {
	if target <= 0 {
		return 0
	}
	p := done * 100 / target
	if p > 100 {
		return 100
	}
	return p
}
