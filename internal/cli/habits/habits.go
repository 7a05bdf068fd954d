package habits

import (
	"fmt"
	"strings"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/service"
)

type HabitCmd struct {
	Add       HabitAddCmd       `cmd:"" help:"Add a habit. Opens a form when no title is given."`
	List      HabitListCmd      `cmd:"" help:"List habits."`
	Show      HabitShowCmd      `cmd:"" help:"Show a habit's streaks and completion rate."`
	Edit      HabitEditCmd      `cmd:"" help:"Edit a habit."`
	Toggle    HabitToggleCmd    `cmd:"" help:"Mark or unmark a habit for a day."`
	Status    HabitStatusCmd    `cmd:"" help:"Show a habit's status for a day."`
	Week      HabitWeekCmd      `cmd:"" help:"Show a habit's week."`
	Today     HabitTodayCmd     `cmd:"" help:"Show today's habits."`
	Archive   HabitArchiveCmd   `cmd:"" help:"Archive a habit."`
	Unarchive HabitUnarchiveCmd `cmd:"" help:"Unarchive a habit."`
	Delete    HabitDeleteCmd    `cmd:"" help:"Delete a habit (soft delete)."`
	Restore   HabitRestoreCmd   `cmd:"" help:"Restore a deleted habit by ID."`
}

type HabitAddCmd struct {
	Title       string `arg:"" optional:"" help:"Habit title."`
	Category    string `help:"Category." default:"general"`
	Frequency   string `short:"f" help:"daily, weekdays, weekends, weekly, monthly or Nx_week." default:"daily"`
	Description string `help:"Optional description."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}

	in := service.HabitInput{
		Title:       c.Title,
		Category:    c.Category,
		Frequency:   c.Frequency,
		Description: c.Description,
	}
	if strings.TrimSpace(in.Title) == "" {
		if err := NewHabitForm(&in).Run(); err != nil {
			return err
		}
	}

	h, err := ctx.Service.CreateHabit(ctx.Context(), user.ID, in)
	if err != nil {
		return err
	}
	fmt.Printf("Added habit: %s (%s, %s)\n", h.Title, h.Frequency, cli.ShortID(h.ID))
	return nil
}

type HabitListCmd struct {
	Archived bool `help:"Include archived habits."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	habits, err := ctx.Service.ListHabits(ctx.Context(), user.ID, c.Archived)
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		fmt.Println("No habits found.")
		return nil
	}
	for _, h := range habits {
		status := ""
		if h.ArchivedAt != nil {
			status = " [ARCHIVED]"
		}
		fmt.Printf("%s  %-30s %-10s %-10s streak %d%s\n", cli.ShortID(h.ID), h.Title, h.Category, h.Frequency, h.Streak, status)
	}
	return nil
}

type HabitShowCmd struct {
	Habit string `arg:"" help:"Habit title or ID."`
}

func (c *HabitShowCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	h, err := ctx.FindHabit(user.ID, c.Habit)
	if err != nil {
		return err
	}
	s, err := ctx.Service.HabitSummary(ctx.Context(), user.ID, h.ID)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", s.Habit.Title)
	if s.Habit.Description != "" {
		fmt.Printf("  %s\n", s.Habit.Description)
	}
	fmt.Printf("  Schedule:        %s\n", s.Schedule)
	fmt.Printf("  Category:        %s\n", s.Habit.Category)
	fmt.Printf("  Today:           %s\n", s.Status)
	fmt.Printf("  Current streak:  %d\n", s.CurrentStreak)
	fmt.Printf("  Longest streak:  %d\n", s.LongestStreak)
	fmt.Printf("  Completions:     %d\n", s.Completions)
	fmt.Printf("  Last 30 days:    %.0f%%\n", s.CompletionRate*100)
	return nil
}

type HabitEditCmd struct {
	Habit       string  `arg:"" help:"Habit title or ID."`
	Title       *string `help:"New title."`
	Category    *string `help:"New category."`
	Frequency   *string `short:"f" help:"New frequency."`
	Description *string `help:"New description."`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	h, err := ctx.FindHabit(user.ID, c.Habit)
	if err != nil {
		return err
	}
	patch := service.HabitPatch{
		Title:       c.Title,
		Category:    c.Category,
		Frequency:   c.Frequency,
		Description: c.Description,
	}
	if patch == (service.HabitPatch{}) {
		fmt.Println("No changes specified.")
		return nil
	}
	updated, err := ctx.Service.UpdateHabit(ctx.Context(), user.ID, h.ID, patch)
	if err != nil {
		return err
	}
	fmt.Printf("Updated habit: %s\n", updated.Title)
	return nil
}

type HabitToggleCmd struct {
	Habit string `arg:"" help:"Habit title or ID."`
	Day   string `help:"Day in YYYY-MM-DD format (default: today)."`
}

func (c *HabitToggleCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	h, err := ctx.FindHabit(user.ID, c.Habit)
	if err != nil {
		return err
	}
	done, streak, err := ctx.Service.ToggleHabitLog(ctx.Context(), user.ID, h.ID, c.Day)
	if err != nil {
		return err
	}
	day := c.Day
	if day == "" {
		day = "today"
	}
	if done {
		fmt.Printf("Marked %q for %s (streak %d)\n", h.Title, day, streak)
	} else {
		fmt.Printf("Unmarked %q for %s (streak %d)\n", h.Title, day, streak)
	}
	return nil
}

type HabitStatusCmd struct {
	Habit string `arg:"" help:"Habit title or ID."`
	Day   string `help:"Day in YYYY-MM-DD format (default: today)."`
}

func (c *HabitStatusCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	h, err := ctx.FindHabit(user.ID, c.Habit)
	if err != nil {
		return err
	}
	status, err := ctx.Service.HabitStatus(ctx.Context(), user.ID, h.ID, c.Day)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s: %s\n", cli.StatusMark(status), h.Title, status)
	return nil
}

type HabitWeekCmd struct {
	Habit string `arg:"" help:"Habit title or ID."`
	Day   string `help:"Any day of the week to show (default: today)."`
}

func (c *HabitWeekCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	h, err := ctx.FindHabit(user.ID, c.Habit)
	if err != nil {
		return err
	}
	week, err := ctx.Service.HabitWeek(ctx.Context(), user.ID, h.ID, c.Day)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", h.Title)
	for _, d := range week.Days {
		fmt.Printf("  %s %s %s\n", d.Day, cli.StatusMark(d.Status), d.Status)
	}
	fmt.Printf("Completed %d/%d (%d%%)\n", week.Completed, week.Target, week.Percent)
	return nil
}

type HabitTodayCmd struct{}

func (c *HabitTodayCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	overview, err := ctx.Service.TodayOverview(ctx.Context(), user.ID)
	if err != nil {
		return err
	}
	if len(overview) == 0 {
		fmt.Println("No habits found.")
		return nil
	}
	today, err := ctx.Service.Today()
	if err != nil {
		return err
	}

	fmt.Printf("Habits for %s:\n\n", today)
	done, due := 0, 0
	for _, o := range overview {
		fmt.Printf("%s %-30s streak %-3d week %d/%d\n", cli.StatusMark(o.Status), o.Habit.Title, o.Streak, o.Week.Completed, o.Week.Target)
		switch o.Status {
		case constants.StatusCompleted:
			done++
			due++
		case constants.StatusPending:
			due++
		}
	}
	fmt.Printf("\nDone: %d/%d\n", done, due)
	return nil
}

type HabitArchiveCmd struct {
	Habit string `arg:"" help:"Habit title or ID."`
}

func (c *HabitArchiveCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	h, err := ctx.FindHabit(user.ID, c.Habit)
	if err != nil {
		return err
	}
	if err := ctx.Service.ArchiveHabit(ctx.Context(), user.ID, h.ID); err != nil {
		return err
	}
	fmt.Printf("Archived habit: %s\n", h.Title)
	return nil
}

type HabitUnarchiveCmd struct {
	Habit string `arg:"" help:"Habit title or ID."`
}

func (c *HabitUnarchiveCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	h, err := ctx.FindHabit(user.ID, c.Habit)
	if err != nil {
		return err
	}
	if err := ctx.Service.UnarchiveHabit(ctx.Context(), user.ID, h.ID); err != nil {
		return err
	}
	fmt.Printf("Unarchived habit: %s\n", h.Title)
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit title or ID."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	h, err := ctx.FindHabit(user.ID, c.Habit)
	if err != nil {
		return err
	}
	if err := ctx.Service.DeleteHabit(ctx.Context(), user.ID, h.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted habit: %s\n", h.Title)
	fmt.Printf("Restore it with: habitual habit restore %s\n", h.ID)
	return nil
}

type HabitRestoreCmd struct {
	ID string `arg:"" help:"ID of the deleted habit."`
}

func (c *HabitRestoreCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	h, err := ctx.Service.RestoreHabit(ctx.Context(), user.ID, c.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Restored habit: %s\n", h.Title)
	return nil
}
