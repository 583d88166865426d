package common

// Environment variable keys
const (
	EnvConfigFile      = "SERVICEPREDICT_CONFIG"
	EnvLogLevel        = "LOG_LEVEL"
	EnvArtifactTimeout = "ARTIFACT_TIMEOUT"
	EnvMetricsFile     = "METRICS_FILE"
	EnvJournalPath     = "JOURNAL_PATH"
	EnvDefaultDays     = "DEFAULT_DAYS"
	EnvDotEnvFile      = "SERVICEPREDICT_ENV_FILE"
)

// Configuration defaults
const (
	DefaultLogLevel        = "warn"
	DefaultArtifactTimeout = "10s"
	DefaultDotEnvFile      = ".env"
	DefaultHistoryLimit    = 20
)

// Process exit codes
const (
	ExitOK    = 0
	ExitError = 1
)
