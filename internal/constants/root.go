package constants

import "time"

const (
	AppName            = "habitual"
	DefaultKeyringUser = "database-connection"
	CoachKeyringUser   = "coach-api-key"
	DefaultConfigPath  = "~/.config/habitual/habitual.db"
	Version            = "v0.1.0"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "habitual-"
	BackupFileSuffix = ".db"

	// Notify constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "habitual-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.habitual"

	// Server constants
	DefaultServerAddr   = "127.0.0.1:8420"
	UserHeader          = "X-User-ID"
	ShutdownTimeout     = 10 * time.Second
	WSPingInterval      = 30 * time.Second
	WSWriteTimeout      = 10 * time.Second
	RedisChannelPrefix  = "habitual:group:"
	ToastDuration       = 3 * time.Second
	InviteCodeLength    = 8
	InviteCodeAlphabet  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	InviteCodeMaxTries  = 5
	MaxStreakLookback   = 3660
	DefaultCoachModel   = "gemini-2.5-flash"
	CoachMaxSuggestions = 5
)
