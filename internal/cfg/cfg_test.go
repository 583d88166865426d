package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servicepredict/internal/common"
	"servicepredict/internal/vehicle"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearTestEnv(t)

	settings, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "warn", settings.LogLevel)
	assert.Equal(t, 10*time.Second, settings.ArtifactTimeout)
	assert.Empty(t, settings.MetricsFile)
	assert.Empty(t, settings.JournalPath)
	assert.Equal(t, 180.0, settings.Fallback.DefaultDays)
	assert.Equal(t, 7500.0, settings.Fallback.BaseIntervals["truck"])
	assert.Equal(t, zerolog.WarnLevel, settings.Level())
}

func TestLoadFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		wantErr  bool
		validate func(t *testing.T, settings Settings)
	}{
		{
			name: "overrides",
			envVars: map[string]string{
				common.EnvLogLevel:        "debug",
				common.EnvArtifactTimeout: "2s",
				common.EnvMetricsFile:     "/tmp/servicepredict.prom",
				common.EnvJournalPath:     "/tmp/journal.db",
				common.EnvDefaultDays:     "90",
			},
			validate: func(t *testing.T, settings Settings) {
				assert.Equal(t, zerolog.DebugLevel, settings.Level())
				assert.Equal(t, 2*time.Second, settings.ArtifactTimeout)
				assert.Equal(t, "/tmp/servicepredict.prom", settings.MetricsFile)
				assert.Equal(t, "/tmp/journal.db", settings.JournalPath)
				assert.Equal(t, 90.0, settings.Fallback.DefaultDays)
			},
		},
		{
			name:    "unparseable duration keeps default",
			envVars: map[string]string{common.EnvArtifactTimeout: "soon"},
			validate: func(t *testing.T, settings Settings) {
				assert.Equal(t, 10*time.Second, settings.ArtifactTimeout)
			},
		},
		{
			name:    "unknown log level",
			envVars: map[string]string{common.EnvLogLevel: "chatty"},
			wantErr: true,
		},
		{
			name:    "timeout out of range",
			envVars: map[string]string{common.EnvArtifactTimeout: "1h"},
			wantErr: true,
		},
		{
			name:    "negative default days",
			envVars: map[string]string{common.EnvDefaultDays: "-1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnv(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			settings, err := Load("")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		wantErr  bool
		validate func(t *testing.T, settings Settings)
	}{
		{
			name: "full file",
			yaml: `
system:
  logLevel: info
  metricsFile: /var/lib/node_exporter/servicepredict.prom
  journalPath: /var/lib/servicepredict/journal.db
artifact:
  timeout: 3s
fallback:
  baseIntervals:
    Truck: 8000
    van: 7000
  fuelBonuses:
    diesel: 2000
  defaultDays: 120
`,
			validate: func(t *testing.T, settings Settings) {
				assert.Equal(t, "info", settings.LogLevel)
				assert.Equal(t, 3*time.Second, settings.ArtifactTimeout)
				assert.Equal(t, "/var/lib/servicepredict/journal.db", settings.JournalPath)

				fb := settings.Fallback
				assert.Equal(t, 8000.0, fb.BaseIntervals["truck"])
				assert.Equal(t, 7000.0, fb.BaseIntervals["van"])
				assert.Equal(t, 6000.0, fb.BaseIntervals["suv"], "untouched entries keep defaults")
				assert.Equal(t, 2000.0, fb.FuelBonuses["diesel"])
				assert.Equal(t, 2500.0, fb.FuelBonuses["electric"])
				assert.Equal(t, 120.0, fb.DefaultDays)
				assert.Equal(t, 2015, fb.YearPivot)
			},
		},
		{
			name: "empty file keeps defaults",
			yaml: "",
			validate: func(t *testing.T, settings Settings) {
				assert.Equal(t, Defaults(), settings)
			},
		},
		{
			name:    "bad duration",
			yaml:    "artifact:\n  timeout: later\n",
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			yaml:    "system: [unclosed",
			wantErr: true,
		},
		{
			name:    "invalid fallback table",
			yaml:    "fallback:\n  baseIntervals:\n    truck: -5\n",
			wantErr: true,
		},
		{
			name:    "inverted year factor bounds",
			yaml:    "fallback:\n  minYearFactor: 1.5\n  maxYearFactor: 1.1\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnv(t)
			path := writeFile(t, "config.yaml", tt.yaml)

			settings, err := Load(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validate(t, settings)
		})
	}
}

func TestLoad_ConfigPathPrecedence(t *testing.T) {
	clearTestEnv(t)
	fromEnv := writeFile(t, "env.yaml", "system:\n  logLevel: error\n")
	explicit := writeFile(t, "explicit.yaml", "system:\n  logLevel: info\n")
	t.Setenv(common.EnvConfigFile, fromEnv)

	settings, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "error", settings.LogLevel)

	settings, err = Load(explicit)
	require.NoError(t, err)
	assert.Equal(t, "info", settings.LogLevel)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	clearTestEnv(t)
	path := writeFile(t, "config.yaml", "system:\n  journalPath: /from/yaml.db\nfallback:\n  defaultDays: 100\n")
	t.Setenv(common.EnvJournalPath, "/from/env.db")
	t.Setenv(common.EnvDefaultDays, "45")

	settings, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env.db", settings.JournalPath)
	assert.Equal(t, 45.0, settings.Fallback.DefaultDays)
}

func TestLoad_MissingFile(t *testing.T) {
	clearTestEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_DotEnv(t *testing.T) {
	clearTestEnv(t)
	envFile := writeFile(t, "test.env", "LOG_LEVEL=error\nJOURNAL_PATH=/from/dotenv.db\n")
	t.Setenv(common.EnvDotEnvFile, envFile)
	t.Setenv(common.EnvJournalPath, "/from/process.db")
	// godotenv only fills unset variables; t.Setenv restores LOG_LEVEL afterwards.
	t.Setenv(common.EnvLogLevel, "")
	require.NoError(t, os.Unsetenv(common.EnvLogLevel))

	settings, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "error", settings.LogLevel)
	assert.Equal(t, "/from/process.db", settings.JournalPath, "process environment wins")
}

func TestSettings_FallbackConfig(t *testing.T) {
	settings := Defaults()
	settings.Fallback.BaseIntervals["Van "] = 7000
	settings.Fallback.FuelBonuses["LPG"] = 500

	fc := settings.FallbackConfig()
	assert.Equal(t, 7500.0, fc.BaseIntervals[vehicle.TypeTruck])
	assert.Equal(t, 7000.0, fc.BaseIntervals[vehicle.VehicleType("van")])
	assert.Equal(t, 500.0, fc.FuelBonuses[vehicle.FuelType("lpg")])
	assert.Equal(t, 180.0, fc.DefaultDays)
	assert.Equal(t, 0.8, fc.MinYearFactor)
	assert.Equal(t, 1.2, fc.MaxYearFactor)
}

func TestSettings_LevelFallsBackToWarn(t *testing.T) {
	s := Settings{LogLevel: "nonsense"}
	assert.Equal(t, zerolog.WarnLevel, s.Level())
}

func clearTestEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		common.EnvConfigFile,
		common.EnvLogLevel,
		common.EnvArtifactTimeout,
		common.EnvMetricsFile,
		common.EnvJournalPath,
		common.EnvDefaultDays,
	}
	for _, key := range envVars {
		t.Setenv(key, "")
	}
	t.Setenv(common.EnvDotEnvFile, filepath.Join(t.TempDir(), "missing.env"))
}
