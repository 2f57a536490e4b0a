// Package config loads termflow settings from defaults, an optional YAML
// file, an optional .env file and TERMFLOW_ environment variables, in
// increasing order of precedence.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/lguimbarda/termflow/flow/combine"
	"github.com/lguimbarda/termflow/flow/core"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "TERMFLOW"

// Log configures the process logger.
type Log struct {
	Level     string `mapstructure:"level" validate:"oneof=trace debug info warn error disabled"`
	Format    string `mapstructure:"format" validate:"oneof=console json"`
	Output    string `mapstructure:"output" validate:"oneof=stdout stderr"`
	NoColor   bool   `mapstructure:"no_color"`
	Timestamp bool   `mapstructure:"timestamp"`
}

// Run configures how pipelines are driven.
type Run struct {
	// Limit caps the number of elements collected from a run; 0 means
	// unbounded.
	Limit int64 `mapstructure:"limit" validate:"gte=0"`
	// Timeout bounds a whole run; 0 means no timeout.
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
	// Metrics enables OpenTelemetry run metrics.
	Metrics bool `mapstructure:"metrics"`
}

// Settings is the complete termflow configuration.
type Settings struct {
	Log    Log             `mapstructure:"log"`
	SetOps combine.Options `mapstructure:"setops"`
	Run    Run             `mapstructure:"run"`
}

// Default returns the settings used when nothing else is configured.
func Default() Settings {
	return Settings{
		Log: Log{
			Level:     "info",
			Format:    "console",
			Output:    "stderr",
			Timestamp: true,
		},
		SetOps: combine.DefaultOptions(),
	}
}

// Validate checks the settings against their struct tags.
func (s Settings) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(s); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) {
			msgs := make([]string, 0, len(fields))
			for _, f := range fields {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (got %v)", f.Namespace(), f.Tag(), f.Value()))
			}
			return fmt.Errorf("invalid settings: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// Context attaches the library-side settings to ctx, where set operations
// and flow.Run pick them up.
func (s Settings) Context(ctx context.Context) context.Context {
	ctx = combine.WithContextOptions(ctx, s.SetOps)
	return core.WithConfig(ctx, s.Run)
}

// LoaderOptions holds optional file locations for Load.
type LoaderOptions struct {
	ConfigFile string // YAML file; required to exist when set
	EnvFile    string // .env file; ignored when missing
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderOptions)

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(o *LoaderOptions) { o.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(o *LoaderOptions) { o.EnvFile = path }
}

// Load resolves and validates Settings.
func Load(opts ...LoaderOption) (Settings, error) {
	var o LoaderOptions
	for _, opt := range opts {
		opt(&o)
	}

	v := viper.New()
	setDefaults(v, Default())

	if o.ConfigFile != "" {
		v.SetConfigFile(o.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("failed to read config file %s: %w", o.ConfigFile, err)
		}
	}

	if o.EnvFile != "" {
		if _, err := os.Stat(o.EnvFile); err == nil {
			if err := godotenv.Load(o.EnvFile); err != nil {
				return Settings{}, fmt.Errorf("failed to load env file %s: %w", o.EnvFile, err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// setDefaults registers every key so that AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d Settings) {
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", d.Log.Output)
	v.SetDefault("log.no_color", d.Log.NoColor)
	v.SetDefault("log.timestamp", d.Log.Timestamp)

	v.SetDefault("setops.filter_threshold", d.SetOps.FilterThreshold)
	v.SetDefault("setops.side_threshold", d.SetOps.SideThreshold)
	v.SetDefault("setops.buckets_per_element", d.SetOps.BucketsPerElement)
	v.SetDefault("setops.max_buckets", d.SetOps.MaxBuckets)
	v.SetDefault("setops.chunk_size", d.SetOps.ChunkSize)

	v.SetDefault("run.limit", d.Run.Limit)
	v.SetDefault("run.timeout", d.Run.Timeout)
	v.SetDefault("run.metrics", d.Run.Metrics)
}
