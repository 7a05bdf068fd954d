package settings

import (
	"fmt"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/constants"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	Timezone     *string `help:"IANA timezone name, or Local."`
	WeekStart    *string `help:"First day of the week." enum:"monday,sunday"`
	ReminderTime *string `help:"Daily reminder time (HH:MM)."`
	CoachModel   *string `help:"Gemini model used by the coach."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	updates := []struct {
		key   string
		value *string
	}{
		{constants.SettingTimezone, c.Timezone},
		{constants.SettingWeekStart, c.WeekStart},
		{constants.SettingReminderTime, c.ReminderTime},
		{constants.SettingCoachModel, c.CoachModel},
	}

	updated := false
	for _, u := range updates {
		if u.value == nil {
			continue
		}
		if err := ctx.Service.UpdateSetting(ctx.Context(), u.key, *u.value); err != nil {
			return fmt.Errorf("failed to update %s: %w", u.key, err)
		}
		updated = true
	}

	if updated {
		fmt.Println("Settings updated successfully.")
		if !c.List {
			return nil
		}
	} else if !c.List {
		fmt.Println("No changes specified. Use --list to view settings or flags to update them.")
		return nil
	}

	settings, err := ctx.Service.Settings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	defaultUser := "(none)"
	if settings.DefaultUser != "" {
		if u, err := ctx.Service.ResolveUser(ctx.Context(), settings.DefaultUser); err == nil {
			defaultUser = u.Name
		}
	}
	fmt.Println("Current Settings:")
	fmt.Printf("  Timezone:       %s\n", settings.Timezone)
	fmt.Printf("  Week Start:     %s\n", settings.WeekStart)
	fmt.Printf("  Reminder Time:  %s\n", settings.ReminderTime)
	fmt.Printf("  Coach Model:    %s\n", settings.CoachModel)
	fmt.Printf("  Default User:   %s\n", defaultUser)
	return nil
}
