package system

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/habitual/internal/backup"
	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/keyring"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
	"github.com/julianstephens/habitual/internal/utils"
	"github.com/julianstephens/habitual/internal/validation"
)

type DoctorCmd struct{}

type check struct {
	name string
	run  func(*cli.Context) error
	// needsDB checks are skipped when the database is unreachable.
	needsDB bool
	// warn checks report problems without failing the run.
	warn bool
}

var checks = []check{
	{name: "Database reachable", run: checkDBReachable},
	{name: "Schema version", run: checkSchemaVersion, needsDB: true},
	{name: "Settings", run: checkSettings, needsDB: true},
	{name: "Data validation", run: checkValidation, needsDB: true},
	{name: "Backups present", run: checkBackupsPresent, warn: true},
	{name: "OS keyring", run: checkKeyring, warn: true},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false
	dbReachable := true
	for _, c := range checks {
		if c.needsDB && !dbReachable {
			fmt.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			fmt.Printf("✓ %s: OK\n", c.name)
		case c.warn:
			fmt.Printf("⚠ %s: WARNING\n", c.name)
			fmt.Printf("   %s\n", indent(err.Error()))
		default:
			fmt.Printf("❌ %s: FAIL\n", c.name)
			fmt.Printf("   Error: %s\n", indent(err.Error()))
			hasError = true
			if c.name == "Database reachable" {
				dbReachable = false
			}
		}
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return errors.New("one or more health checks failed")
	}
	fmt.Println("All diagnostics passed!")
	return nil
}

func indent(s string) string {
	return strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n   ")
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	return ctx.Store.Ping()
}

func checkSchemaVersion(ctx *cli.Context) error {
	m, ok := ctx.Store.(storage.Migrator)
	if !ok {
		return nil
	}
	current, latest, err := m.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	switch {
	case current > latest:
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	case current < latest:
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d (run 'habitual migrate')", current, latest)
	}
	return nil
}

func checkSettings(ctx *cli.Context) error {
	settings, err := ctx.Service.Settings()
	if err != nil {
		return err
	}
	if _, err := utils.LoadLocation(settings.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", settings.Timezone, err)
	}
	if !utils.ValidateTimeFormat(settings.ReminderTime) {
		return fmt.Errorf("invalid reminder_time %q", settings.ReminderTime)
	}
	if settings.DefaultUser != "" {
		if _, err := ctx.Store.GetUser(settings.DefaultUser); err != nil {
			return fmt.Errorf("default_user %s does not exist", settings.DefaultUser)
		}
	}
	return nil
}

// checkValidation runs the validator over every user's habits and today's
// tasks.
func checkValidation(ctx *cli.Context) error {
	settings, err := ctx.Service.Settings()
	if err != nil {
		return err
	}
	loc, err := utils.LoadLocation(settings.Timezone)
	if err != nil {
		return err
	}
	today, err := ctx.Service.Today()
	if err != nil {
		return err
	}
	v := validation.New(today, loc)

	users, err := ctx.Store.GetAllUsers()
	if err != nil {
		return err
	}
	var reports []string
	for _, u := range users {
		habits, err := ctx.Store.GetHabitsByUser(u.ID, true, false)
		if err != nil {
			return err
		}
		data := make([]validation.HabitData, 0, len(habits))
		for _, h := range habits {
			logs, err := ctx.Store.GetHabitLogs(h.ID)
			if err != nil {
				return err
			}
			data = append(data, validation.HabitData{Habit: h, Logs: logs})
		}
		tasks, err := ctx.Store.GetTasksByDay(u.ID, today)
		if err != nil {
			return err
		}

		for _, res := range []validation.ValidationResult{v.ValidateHabits(data), v.ValidateTasks(tasks)} {
			if res.HasConflicts() {
				reports = append(reports, fmt.Sprintf("%s: %s", u.Name, res.FormatReport()))
			}
		}
	}
	if len(reports) > 0 {
		return errors.New(strings.Join(reports, "\n"))
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	if _, ok := ctx.Store.(*sqlite.Store); !ok {
		return nil
	}
	backups, err := backup.NewManager(ctx.Store.GetConfigPath()).List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return errors.New("no backups found - consider creating one with 'habitual backup create'")
	}
	return nil
}

func checkKeyring(_ *cli.Context) error {
	if !keyring.IsAvailable() {
		return errors.New("OS keyring is not available; secrets must come from the environment")
	}
	return nil
}
