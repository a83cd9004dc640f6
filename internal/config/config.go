// Package config loads the runtime configuration of the hybridx tools.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/comalice/hybridx"
	"github.com/comalice/hybridx/realtime"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "HYBRIDX_"

type Config struct {
	Scheduler     SchedulerConfig                `toml:"scheduler"`
	Interpolation map[string]InterpolationConfig `toml:"interpolation"`
	Convergence   ConvergenceConfig              `toml:"convergence"`
	Log           LogConfig                      `toml:"log"`
	Definitions   DefinitionsConfig              `toml:"definitions"`
	Robot         RobotConfig                    `toml:"robot"`
}

type SchedulerConfig struct {
	Period          float64 `toml:"period"` // seconds
	QueueMode       string  `toml:"queue_mode"`
	MaxPending      int     `toml:"max_pending"`
	Workers         int     `toml:"workers"`
	UpdateThreshold float64 `toml:"update_threshold"`
	StartPaused     bool    `toml:"start_paused"`
	ServoDisabled   bool    `toml:"servo_disabled"`
}

type InterpolationConfig struct {
	MaxVelocity     float64 `toml:"max_velocity"`
	AngularVelocity float64 `toml:"angular_velocity,omitempty"`
	MinTime         float64 `toml:"min_time"`
}

type ConvergenceConfig struct {
	Epsilon float64 `toml:"epsilon"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text or json
}

type DefinitionsConfig struct {
	Dirs          []string `toml:"dirs"`
	Initial       string   `toml:"initial,omitempty"` // definition file adopted at startup
	ExprCacheSize int      `toml:"expr_cache_size"`   // compiled expr conditions kept
}

// RobotConfig describes the simulated robot.
type RobotConfig struct {
	Dof     int       `toml:"dof"`
	Initial []float64 `toml:"initial,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	cfg := Config{
		Scheduler: SchedulerConfig{
			Period:          0.001,
			QueueMode:       "replace",
			MaxPending:      16,
			Workers:         2,
			UpdateThreshold: 0.01,
		},
		Interpolation: map[string]InterpolationConfig{},
		Convergence:   ConvergenceConfig{Epsilon: hybridx.DefaultEpsilon},
		Log:           LogConfig{Level: "info", Format: "text"},
		Definitions:   DefinitionsConfig{ExprCacheSize: 256},
		Robot:         RobotConfig{Dof: 3},
	}
	for c, d := range hybridx.DefaultInterpolation() {
		cfg.Interpolation[string(c)] = InterpolationConfig{
			MaxVelocity:     d.MaxVelocity,
			AngularVelocity: d.AngularVelocity,
			MinTime:         d.MinTime,
		}
	}
	return cfg
}

// Load reads path on top of the defaults and applies environment
// overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		if err := Parse(data, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Parse decodes TOML data into cfg. Keys absent from data keep their
// current value.
func Parse(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		keys := make([]string, len(undec))
		for i, k := range undec {
			keys[i] = k.String()
		}
		return fmt.Errorf("parsing config: unknown keys %s", strings.Join(keys, ", "))
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *float64) {
		if v, ok := lookup(EnvPrefix + key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = f
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}

	num("PERIOD", &c.Scheduler.Period)
	str("QUEUE_MODE", &c.Scheduler.QueueMode)
	integer("MAX_PENDING", &c.Scheduler.MaxPending)
	integer("WORKERS", &c.Scheduler.Workers)
	num("UPDATE_THRESHOLD", &c.Scheduler.UpdateThreshold)
	num("EPSILON", &c.Convergence.Epsilon)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	integer("EXPR_CACHE_SIZE", &c.Definitions.ExprCacheSize)
	integer("DOF", &c.Robot.Dof)
	if v, ok := lookup(EnvPrefix + "DEFINITION_DIRS"); ok {
		c.Definitions.Dirs = strings.Split(v, string(os.PathListSeparator))
	}
	return errors.Join(errs...)
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if c.Scheduler.Period <= 0 {
		return fmt.Errorf("scheduler.period must be positive, got %g", c.Scheduler.Period)
	}
	if _, err := realtime.ParseQueueMode(c.Scheduler.QueueMode); err != nil {
		return fmt.Errorf("scheduler.queue_mode: %w", err)
	}
	if c.Convergence.Epsilon < 0 {
		return fmt.Errorf("convergence.epsilon must not be negative, got %g", c.Convergence.Epsilon)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	for name, ic := range c.Interpolation {
		if ic.MaxVelocity < 0 || ic.MinTime < 0 || ic.AngularVelocity < 0 {
			return fmt.Errorf("interpolation.%s: values must not be negative", name)
		}
	}
	if c.Definitions.ExprCacheSize <= 0 {
		return fmt.Errorf("definitions.expr_cache_size must be positive, got %d", c.Definitions.ExprCacheSize)
	}
	if c.Robot.Dof <= 0 {
		return fmt.Errorf("robot.dof must be positive, got %d", c.Robot.Dof)
	}
	if n := len(c.Robot.Initial); n > 0 && n != c.Robot.Dof {
		return fmt.Errorf("robot.initial has %d values, dof is %d", n, c.Robot.Dof)
	}
	return nil
}

// RealtimeConfig converts the scheduler section.
func (c Config) RealtimeConfig() realtime.Config {
	mode, _ := realtime.ParseQueueMode(c.Scheduler.QueueMode)
	return realtime.Config{
		Period:          time.Duration(c.Scheduler.Period * float64(time.Second)),
		QueueMode:       mode,
		MaxPending:      c.Scheduler.MaxPending,
		Workers:         c.Scheduler.Workers,
		UpdateThreshold: c.Scheduler.UpdateThreshold,
		StartPaused:     c.Scheduler.StartPaused,
		ServoDisabled:   c.Scheduler.ServoDisabled,
	}
}

// InterpolationDefaults converts the interpolation sections. Categories
// missing from the file keep the stock defaults.
func (c Config) InterpolationDefaults() hybridx.InterpolationDefaults {
	out := hybridx.DefaultInterpolation()
	for name, ic := range c.Interpolation {
		out[hybridx.Category(name)] = hybridx.CategoryDefaults{
			MaxVelocity:     ic.MaxVelocity,
			AngularVelocity: ic.AngularVelocity,
			MinTime:         ic.MinTime,
		}
	}
	return out
}

// SlogLevel resolves the level name.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", l.Level)
	}
}

// Logger builds a logger writing to w in the configured format.
func (l LogConfig) Logger(w io.Writer) *slog.Logger {
	level, _ := l.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
