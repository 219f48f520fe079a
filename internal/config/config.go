// Package config loads knoldeck settings from defaults, a YAML file, the
// environment and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/conorfennell/knoldeck/internal/apkg"
	"github.com/conorfennell/knoldeck/internal/scheduler"
)

// EnvPrefix marks environment variables read as configuration. Nested keys
// use a double underscore, e.g. KNOLDECK_SCHEDULER__POLICY.
const EnvPrefix = "KNOLDECK_"

// Config holds all settings.
type Config struct {
	Log       LogConfig       `koanf:"log"`
	Import    ImportConfig    `koanf:"import"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Progress  ProgressConfig  `koanf:"progress"`
	Review    ReviewConfig    `koanf:"review"`
}

// LogConfig selects the logger level and output format.
type LogConfig struct {
	Level  string `koanf:"level" validate:"required,oneof=debug info warn error"`
	Format string `koanf:"format" validate:"required,oneof=text json"`
}

// ImportConfig controls how card text is cleaned during import.
type ImportConfig struct {
	ScratchDir       string `koanf:"scratch_dir"`
	StripHTML        bool   `koanf:"strip_html"`
	NormalizeUnicode bool   `koanf:"normalize_unicode"`
}

// SchedulerConfig mirrors scheduler.Params.
type SchedulerConfig struct {
	AgainDelay  time.Duration `koanf:"again_delay" validate:"gte=10m"`
	Policy      string        `koanf:"policy" validate:"required,oneof=compute-then-double double-then-compute"`
	MaxInterval int           `koanf:"max_interval" validate:"gte=1,lte=36500"`
}

// ProgressConfig picks where progress is stored.
type ProgressConfig struct {
	Backend string `koanf:"backend" validate:"required,oneof=file sqlite"`
	// Path is a directory for the file backend and a database file for sqlite.
	Path string `koanf:"path" validate:"required"`
}

// ReviewConfig caps the cards judged per calendar day.
type ReviewConfig struct {
	DailyNew    int `koanf:"daily_new" validate:"gte=1"`
	DailyReview int `koanf:"daily_review" validate:"gte=1"`
}

// Default returns the built-in configuration.
func Default() Config {
	params := scheduler.DefaultParams()
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Scheduler: SchedulerConfig{
			AgainDelay:  params.AgainDelay,
			Policy:      string(params.Policy),
			MaxInterval: params.MaxInterval,
		},
		Progress: ProgressConfig{
			Backend: "file",
			Path:    "data",
		},
		Review: ReviewConfig{
			DailyNew:    20,
			DailyReview: 50,
		},
	}
}

// RegisterFlags adds a flag for every setting, named by its dotted key.
func RegisterFlags(flags *pflag.FlagSet) {
	d := Default()
	flags.String("log.level", d.Log.Level, "log level: debug, info, warn or error")
	flags.String("log.format", d.Log.Format, "log format: text or json")
	flags.String("import.scratch_dir", d.Import.ScratchDir, "parent directory for temporary extraction")
	flags.Bool("import.strip_html", d.Import.StripHTML, "remove HTML markup from card text")
	flags.Bool("import.normalize_unicode", d.Import.NormalizeUnicode, "convert card text to Unicode NFC")
	flags.Duration("scheduler.again_delay", d.Scheduler.AgainDelay, "delay before a failed card is shown again")
	flags.String("scheduler.policy", d.Scheduler.Policy, "interval growth policy: compute-then-double or double-then-compute")
	flags.Int("scheduler.max_interval", d.Scheduler.MaxInterval, "maximum interval in days")
	flags.String("progress.backend", d.Progress.Backend, "progress store: file or sqlite")
	flags.String("progress.path", d.Progress.Path, "progress directory (file) or database path (sqlite)")
	flags.Int("review.daily_new", d.Review.DailyNew, "new cards per day")
	flags.Int("review.daily_review", d.Review.DailyReview, "cards judged per day, new ones included")
}

// Load builds the configuration. path may be empty; a missing file is only an
// error when explicitly named. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to read flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// SchedulerParams converts the scheduler section.
func (c *Config) SchedulerParams() *scheduler.Params {
	return &scheduler.Params{
		AgainDelay:  c.Scheduler.AgainDelay,
		Policy:      scheduler.Policy(c.Scheduler.Policy),
		MaxInterval: c.Scheduler.MaxInterval,
	}
}

// ImportOptions converts the import section.
func (c *Config) ImportOptions() apkg.Options {
	return apkg.Options{
		ScratchDir:       c.Import.ScratchDir,
		StripHTML:        c.Import.StripHTML,
		NormalizeUnicode: c.Import.NormalizeUnicode,
	}
}
