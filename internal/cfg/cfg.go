package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"servicepredict/internal/common"
	"servicepredict/internal/ml"
	"servicepredict/internal/vehicle"
)

type Settings struct {
	LogLevel        string
	ArtifactTimeout time.Duration
	MetricsFile     string
	JournalPath     string
	Fallback        FallbackSettings
}

// FallbackSettings mirrors ml.FallbackConfig with plain string keys.
type FallbackSettings struct {
	BaseIntervals   map[string]float64 `yaml:"baseIntervals"`
	DefaultInterval float64            `yaml:"defaultInterval"`
	FuelBonuses     map[string]float64 `yaml:"fuelBonuses"`
	YearPivot       int                `yaml:"yearPivot"`
	YearSpan        float64            `yaml:"yearSpan"`
	MinYearFactor   float64            `yaml:"minYearFactor"`
	MaxYearFactor   float64            `yaml:"maxYearFactor"`
	DefaultDays     float64            `yaml:"defaultDays"`
}

type ConfigFile struct {
	System struct {
		LogLevel    string `yaml:"logLevel"`
		MetricsFile string `yaml:"metricsFile"`
		JournalPath string `yaml:"journalPath"`
	} `yaml:"system"`

	Artifact struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"artifact"`

	Fallback *FallbackSettings `yaml:"fallback"`
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Settings {
	timeout, _ := time.ParseDuration(common.DefaultArtifactTimeout)
	return Settings{
		LogLevel:        common.DefaultLogLevel,
		ArtifactTimeout: timeout,
		Fallback:        fallbackFromConfig(ml.DefaultFallbackConfig()),
	}
}

// Load reads the optional .env file, the YAML file at path (or the one named
// by SERVICEPREDICT_CONFIG when path is empty), then applies environment
// overrides.
func Load(path string) (Settings, error) {
	if err := loadDotEnv(); err != nil {
		return Settings{}, err
	}

	if path == "" {
		path = os.Getenv(common.EnvConfigFile)
	}

	settings := Defaults()
	if path != "" {
		if err := loadFromYAML(path, &settings); err != nil {
			return Settings{}, err
		}
	}

	applyEnv(&settings)

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// Existing process environment always wins over .env values. A missing
// file is not an error.
func loadDotEnv() error {
	file := getEnvOrDefault(common.EnvDotEnvFile, common.DefaultDotEnvFile)
	if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", file, err)
	}
	return nil
}

func loadFromYAML(path string, settings *Settings) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if config.System.LogLevel != "" {
		settings.LogLevel = config.System.LogLevel
	}
	settings.MetricsFile = config.System.MetricsFile
	settings.JournalPath = config.System.JournalPath

	if config.Artifact.Timeout != "" {
		timeout, err := time.ParseDuration(config.Artifact.Timeout)
		if err != nil {
			return fmt.Errorf("invalid artifact timeout %q: %w", config.Artifact.Timeout, err)
		}
		settings.ArtifactTimeout = timeout
	}

	if config.Fallback != nil {
		settings.Fallback = mergeFallback(settings.Fallback, *config.Fallback)
	}
	return nil
}

func applyEnv(settings *Settings) {
	settings.LogLevel = getEnvOrDefault(common.EnvLogLevel, settings.LogLevel)
	settings.ArtifactTimeout = getDurationOrDefault(common.EnvArtifactTimeout, settings.ArtifactTimeout)
	settings.MetricsFile = getEnvOrDefault(common.EnvMetricsFile, settings.MetricsFile)
	settings.JournalPath = getEnvOrDefault(common.EnvJournalPath, settings.JournalPath)
	settings.Fallback.DefaultDays = getFloatOrDefault(common.EnvDefaultDays, settings.Fallback.DefaultDays)
}

// Zero-valued fields in the file keep their defaults; table entries are
// merged key by key.
func mergeFallback(base, override FallbackSettings) FallbackSettings {
	out := base
	out.BaseIntervals = mergeTable(base.BaseIntervals, override.BaseIntervals)
	out.FuelBonuses = mergeTable(base.FuelBonuses, override.FuelBonuses)
	if override.DefaultInterval != 0 {
		out.DefaultInterval = override.DefaultInterval
	}
	if override.YearPivot != 0 {
		out.YearPivot = override.YearPivot
	}
	if override.YearSpan != 0 {
		out.YearSpan = override.YearSpan
	}
	if override.MinYearFactor != 0 {
		out.MinYearFactor = override.MinYearFactor
	}
	if override.MaxYearFactor != 0 {
		out.MaxYearFactor = override.MaxYearFactor
	}
	if override.DefaultDays != 0 {
		out.DefaultDays = override.DefaultDays
	}
	return out
}

func mergeTable(base, override map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

// FallbackConfig converts the configured tables into heuristic rules.
func (s Settings) FallbackConfig() ml.FallbackConfig {
	f := s.Fallback
	out := ml.FallbackConfig{
		BaseIntervals:   make(map[vehicle.VehicleType]float64, len(f.BaseIntervals)),
		DefaultInterval: f.DefaultInterval,
		FuelBonuses:     make(map[vehicle.FuelType]float64, len(f.FuelBonuses)),
		YearPivot:       f.YearPivot,
		YearSpan:        f.YearSpan,
		MinYearFactor:   f.MinYearFactor,
		MaxYearFactor:   f.MaxYearFactor,
		DefaultDays:     f.DefaultDays,
	}
	for k, v := range f.BaseIntervals {
		out.BaseIntervals[vehicle.NormalizeType(k)] = v
	}
	for k, v := range f.FuelBonuses {
		out.FuelBonuses[vehicle.NormalizeFuel(k)] = v
	}
	return out
}

func fallbackFromConfig(c ml.FallbackConfig) FallbackSettings {
	f := FallbackSettings{
		BaseIntervals:   make(map[string]float64, len(c.BaseIntervals)),
		DefaultInterval: c.DefaultInterval,
		FuelBonuses:     make(map[string]float64, len(c.FuelBonuses)),
		YearPivot:       c.YearPivot,
		YearSpan:        c.YearSpan,
		MinYearFactor:   c.MinYearFactor,
		MaxYearFactor:   c.MaxYearFactor,
		DefaultDays:     c.DefaultDays,
	}
	for k, v := range c.BaseIntervals {
		f.BaseIntervals[string(k)] = v
	}
	for k, v := range c.FuelBonuses {
		f.FuelBonuses[string(k)] = v
	}
	return f
}

// Level returns the zerolog level for LogLevel.
func (s Settings) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(s.LogLevel))
	if err != nil {
		return zerolog.WarnLevel
	}
	return lvl
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// Bounds keep fallback mileage well inside the int64 output range.
const (
	maxInterval   = 1e6
	maxYearFactor = 10
)

// validateSettings checks ranges of every configured value
func validateSettings(settings *Settings) error {
	if _, err := zerolog.ParseLevel(strings.ToLower(settings.LogLevel)); err != nil {
		return fmt.Errorf("unknown log level %q", settings.LogLevel)
	}

	if settings.ArtifactTimeout < 100*time.Millisecond || settings.ArtifactTimeout > 5*time.Minute {
		return fmt.Errorf("artifact timeout must be between 100ms and 5m, got %v", settings.ArtifactTimeout)
	}

	f := settings.Fallback
	for name, v := range f.BaseIntervals {
		if !positive(v) || v > maxInterval {
			return fmt.Errorf("base interval for %q must be in (0, %.0f], got %f", name, float64(maxInterval), v)
		}
	}
	if !positive(f.DefaultInterval) || f.DefaultInterval > maxInterval {
		return fmt.Errorf("default interval must be in (0, %.0f], got %f", float64(maxInterval), f.DefaultInterval)
	}
	for name, v := range f.FuelBonuses {
		if v < 0 || v > maxInterval || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("fuel bonus for %q must be in [0, %.0f], got %f", name, float64(maxInterval), v)
		}
	}
	if f.YearSpan < 0 {
		return fmt.Errorf("year span must not be negative, got %f", f.YearSpan)
	}
	if !positive(f.MinYearFactor) || f.MaxYearFactor < f.MinYearFactor || f.MaxYearFactor > maxYearFactor {
		return fmt.Errorf("year factor bounds must satisfy 0 < min <= max <= %.0f, got %f..%f",
			float64(maxYearFactor), f.MinYearFactor, f.MaxYearFactor)
	}
	if !positive(f.DefaultDays) {
		return fmt.Errorf("default days must be positive, got %f", f.DefaultDays)
	}

	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
