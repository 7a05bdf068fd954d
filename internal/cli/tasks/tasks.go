package tasks

import (
	"fmt"

	"github.com/julianstephens/habitual/internal/cli"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/service"
)

type TaskCmd struct {
	Add    TaskAddCmd    `cmd:"" help:"Add a task for a day."`
	List   TaskListCmd   `cmd:"" help:"List a day's tasks."`
	Done   TaskDoneCmd   `cmd:"" help:"Toggle a task's completion."`
	Edit   TaskEditCmd   `cmd:"" help:"Edit a task."`
	Move   TaskMoveCmd   `cmd:"" help:"Move a task to another day or position."`
	Delete TaskDeleteCmd `cmd:"" help:"Delete a task."`
	Carry  TaskCarryCmd  `cmd:"" help:"Carry unfinished tasks over to another day."`
}

type TaskAddCmd struct {
	Title    string `arg:"" help:"Task title."`
	Priority string `short:"p" help:"low, medium or high." default:"medium" enum:"low,medium,high"`
	Day      string `help:"Day in YYYY-MM-DD format (default: today)."`
}

func (c *TaskAddCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	t, err := ctx.Service.AddTask(ctx.Context(), user.ID, service.TaskInput{
		Title:    c.Title,
		Priority: c.Priority,
		Day:      c.Day,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Added task: %s (%s, %s)\n", t.Title, t.Priority, t.Day)
	return nil
}

type TaskListCmd struct {
	Day string `help:"Day in YYYY-MM-DD format (default: today)."`
}

func (c *TaskListCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	tasks, err := ctx.Service.ListTasks(ctx.Context(), user.ID, c.Day)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks found.")
		return nil
	}
	fmt.Printf("Tasks for %s:\n\n", tasks[0].Day)
	done := 0
	for i, t := range tasks {
		fmt.Printf("%2d. %s\n", i+1, formatTask(t))
		if t.Completed {
			done++
		}
	}
	fmt.Printf("\nDone: %d/%d\n", done, len(tasks))
	return nil
}

func formatTask(t models.DailyTask) string {
	mark := "[ ]"
	if t.Completed {
		mark = "[x]"
	}
	suffix := ""
	if t.AISuggested {
		suffix = " (coach)"
	}
	return fmt.Sprintf("%s %-40s %-6s %s%s", mark, t.Title, t.Priority, cli.ShortID(t.ID), suffix)
}

type TaskDoneCmd struct {
	Task string `arg:"" help:"Task title or ID."`
	Day  string `help:"Day the task is on (default: today)."`
}

func (c *TaskDoneCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	t, err := ctx.FindTask(user.ID, c.Day, c.Task)
	if err != nil {
		return err
	}
	t, err = ctx.Service.ToggleTask(ctx.Context(), user.ID, t.ID)
	if err != nil {
		return err
	}
	if t.Completed {
		fmt.Printf("Completed: %s\n", t.Title)
	} else {
		fmt.Printf("Reopened: %s\n", t.Title)
	}
	return nil
}

type TaskEditCmd struct {
	Task     string  `arg:"" help:"Task title or ID."`
	Day      string  `help:"Day the task is on (default: today)."`
	Title    *string `help:"New title."`
	Priority *string `short:"p" help:"New priority."`
}

func (c *TaskEditCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	t, err := ctx.FindTask(user.ID, c.Day, c.Task)
	if err != nil {
		return err
	}
	patch := service.TaskPatch{Title: c.Title, Priority: c.Priority}
	if patch == (service.TaskPatch{}) {
		fmt.Println("No changes specified.")
		return nil
	}
	t, err = ctx.Service.UpdateTask(ctx.Context(), user.ID, t.ID, patch)
	if err != nil {
		return err
	}
	fmt.Printf("Updated task: %s\n", formatTask(t))
	return nil
}

type TaskMoveCmd struct {
	Task     string `arg:"" help:"Task title or ID."`
	Day      string `help:"Day the task is on (default: today)."`
	To       string `help:"Move the task to this day (YYYY-MM-DD)."`
	Position int    `help:"Move the task to this 1-based position within its day."`
}

func (c *TaskMoveCmd) Run(ctx *cli.Context) error {
	if c.To == "" && c.Position == 0 {
		return apperrors.Invalidf("pass --to or --position")
	}
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	t, err := ctx.FindTask(user.ID, c.Day, c.Task)
	if err != nil {
		return err
	}

	if c.To != "" {
		t, err = ctx.Service.UpdateTask(ctx.Context(), user.ID, t.ID, service.TaskPatch{Day: &c.To})
		if err != nil {
			return err
		}
		fmt.Printf("Moved %q to %s\n", t.Title, t.Day)
	}
	if c.Position == 0 {
		return nil
	}

	tasks, err := ctx.Service.ListTasks(ctx.Context(), user.ID, t.Day)
	if err != nil {
		return err
	}
	ids, err := reorder(tasks, t.ID, c.Position)
	if err != nil {
		return err
	}
	if err := ctx.Service.ReorderTasks(ctx.Context(), user.ID, t.Day, ids); err != nil {
		return err
	}
	fmt.Printf("Moved %q to position %d\n", t.Title, c.Position)
	return nil
}

// reorder returns the IDs of tasks with id moved to the 1-based position.
func reorder(tasks []models.DailyTask, id string, position int) ([]string, error) {
	if position < 1 || position > len(tasks) {
		return nil, apperrors.Invalidf("position must be between 1 and %d", len(tasks))
	}
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != id {
			ids = append(ids, t.ID)
		}
	}
	if len(ids) == len(tasks) {
		return nil, apperrors.NotFoundf("task %s is not on this day", id)
	}
	ids = append(ids[:position-1], append([]string{id}, ids[position-1:]...)...)
	return ids, nil
}

type TaskDeleteCmd struct {
	Task string `arg:"" help:"Task title or ID."`
	Day  string `help:"Day the task is on (default: today)."`
}

func (c *TaskDeleteCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	t, err := ctx.FindTask(user.ID, c.Day, c.Task)
	if err != nil {
		return err
	}
	if err := ctx.Service.DeleteTask(ctx.Context(), user.ID, t.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted task: %s\n", t.Title)
	return nil
}

type TaskCarryCmd struct {
	From string `help:"Day to carry from (default: yesterday)."`
	To   string `help:"Day to carry to (default: today)."`
}

func (c *TaskCarryCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	n, err := ctx.Service.CarryOverTasks(ctx.Context(), user.ID, c.From, c.To)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Println("Nothing to carry over.")
		return nil
	}
	fmt.Printf("Carried over %d task(s).\n", n)
	return nil
}
