package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/cli/backups"
	"github.com/julianstephens/habitual/internal/cli/challenges"
	"github.com/julianstephens/habitual/internal/cli/coaching"
	"github.com/julianstephens/habitual/internal/cli/groups"
	"github.com/julianstephens/habitual/internal/cli/habits"
	"github.com/julianstephens/habitual/internal/cli/settings"
	"github.com/julianstephens/habitual/internal/cli/system"
	"github.com/julianstephens/habitual/internal/cli/tasks"
	"github.com/julianstephens/habitual/internal/cli/users"
	"github.com/julianstephens/habitual/internal/coach"
	"github.com/julianstephens/habitual/internal/constants"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/keyring"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/service"
	"github.com/julianstephens/habitual/internal/storage"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"SQLite database path or PostgreSQL connection string. PostgreSQL credentials must NOT be embedded; store the connection string in the OS keyring or use .pgpass." env:"HABITUAL_CONFIG" default:"${default_config}"`
	User    string `help:"Act as this user (ID or name). Defaults to the default_user setting." env:"HABITUAL_USER"`
	Addr    string `help:"Address of the habitual server." env:"HABITUAL_ADDR" default:"${default_addr}"`
	Debug   bool   `help:"Enable debug logging to stderr."`

	Init      system.InitCmd          `cmd:"" help:"Initialize habitual storage."`
	Migrate   system.MigrateCmd       `cmd:"" help:"Run database migrations."`
	Doctor    system.DoctorCmd        `cmd:"" help:"Run health checks and diagnostics."`
	Serve     system.ServeCmd         `cmd:"" help:"Run the HTTP/WebSocket server, scheduler and notifications."`
	Tui       system.TuiCmd           `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Users     users.UserCmd           `cmd:"" name:"user" help:"Manage users."`
	Habit     habits.HabitCmd         `cmd:"" help:"Manage habits and habit tracking."`
	Task      tasks.TaskCmd           `cmd:"" help:"Manage daily tasks."`
	Group     groups.GroupCmd         `cmd:"" help:"Manage groups and shared habits."`
	Challenge challenges.ChallengeCmd `cmd:"" help:"Manage group challenges."`
	Coach     coaching.CoachCmd       `cmd:"" help:"Get routine suggestions."`
	Settings  settings.SettingsCmd    `cmd:"" help:"Manage application settings."`
	Keyring   system.KeyringCmd       `cmd:"" help:"Manage secrets in the OS keyring."`
	Backup    struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
}

// commands that manage storage themselves or do not need it.
var skipLoad = map[string]bool{
	"init":    true,
	"doctor":  true,
	"keyring": true,
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit tracking with groups, challenges and a coach."),
		kong.UsageOnError(),
		kong.Configuration(kong.JSON, "~/.config/habitual/config.json"),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":        constants.Version,
			"default_config": constants.DefaultConfigPath,
			"default_addr":   constants.DefaultServerAddr,
		},
	)
	command := ""
	if fields := strings.Fields(kctx.Command()); len(fields) > 0 {
		command = fields[0]
	}

	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: configDir(CLI.Config),
		Stderr:    command == "serve",
	}); err != nil {
		apperrors.Fatalf("failed to initialize logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config := CLI.Config
	if config == "" {
		connStr, err := keyring.GetConnectionString()
		if err != nil {
			apperrors.Fatalf("no --config given and no connection string in the keyring: %v", err)
		}
		config = connStr
	}

	store, err := storage.Open(config)
	if err != nil {
		apperrors.Fatal(err)
	}
	defer store.Close()

	model := constants.DefaultCoachModel
	if !skipLoad[command] {
		if err := store.Load(); err != nil {
			apperrors.Fatal(err)
		}
		model = coachModel(store)
	}

	opts := []service.Option{
		service.WithCoach(coach.New(ctx, coach.ResolveAPIKey(), model)),
	}
	appCtx := &cli.Context{
		Base:    ctx,
		Store:   store,
		Service: service.New(store, opts...),
		User:    CLI.User,
		Addr:    CLI.Addr,
		Options: opts,
	}

	logger.Debug("Running command", "command", kctx.Command())
	if err := kctx.Run(appCtx); err != nil {
		stop()
		store.Close()
		apperrors.Fatal(err)
	}
}

// configDir is where logs live: next to a SQLite database, or the default
// config directory for PostgreSQL.
func configDir(config string) string {
	path := config
	if path == "" || strings.Contains(path, "://") || strings.Contains(path, "=") {
		path = constants.DefaultConfigPath
	}
	expanded, err := storage.ExpandPath(path)
	if err != nil {
		return "."
	}
	return filepath.Dir(expanded)
}

func coachModel(store storage.Provider) string {
	s, err := service.New(store).Settings()
	if err != nil || s.CoachModel == "" {
		return constants.DefaultCoachModel
	}
	return s.CoachModel
}
