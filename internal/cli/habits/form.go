package habits

import (
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitual/internal/service"
	"github.com/julianstephens/habitual/internal/validation"
)

// NewHabitForm asks for the fields of a new habit, writing them into in.
func NewHabitForm(in *service.HabitInput) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Habit").
				Value(&in.Title).
				Validate(func(s string) error {
					_, err := validation.HabitTitle(s)
					return err
				}),
			huh.NewSelect[string]().
				Title("Frequency").
				Options(
					huh.NewOption("Every day", "daily"),
					huh.NewOption("Weekdays", "weekdays"),
					huh.NewOption("Weekends", "weekends"),
					huh.NewOption("Once a week", "weekly"),
					huh.NewOption("3 times a week", "3x_week"),
					huh.NewOption("Once a month", "monthly"),
				).
				Value(&in.Frequency),
			huh.NewInput().
				Title("Category").
				Value(&in.Category),
			huh.NewText().
				Title("Description").
				Value(&in.Description).
				Validate(func(s string) error {
					_, err := validation.Description(s)
					return err
				}),
		),
	).WithTheme(huh.ThemeDracula())
}
