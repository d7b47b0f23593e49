// ABOUTME: Configuration loading and parsing for booking-gateway
// ABOUTME: YAML with environment variable expansion, duration and time parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete booking-gateway configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Bookings BookingsConfig `yaml:"bookings"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Agent    AgentConfig    `yaml:"agent"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// TelegramConfig holds Bot API connection settings.
type TelegramConfig struct {
	Token   string `yaml:"token"`
	APIBase string `yaml:"api_base"`

	PollTimeout    time.Duration `yaml:"-"`
	PollTimeoutRaw string        `yaml:"poll_timeout"`
}

// OpeningConfig is one bookable window in the schedule.
type OpeningConfig struct {
	Begin time.Time `yaml:"-"`
	End   time.Time `yaml:"-"`

	BeginRaw string `yaml:"begin"`
	EndRaw   string `yaml:"end"`
}

// ScheduleConfig describes the bookable slots.
type ScheduleConfig struct {
	SlotDuration    time.Duration `yaml:"-"`
	SlotDurationRaw string        `yaml:"slot_duration"`

	Openings []OpeningConfig `yaml:"openings"`
}

// BookingsConfig holds booked-slot persistence settings.
type BookingsConfig struct {
	Dir string `yaml:"dir"`
}

// LedgerConfig holds the transcript database location.
type LedgerConfig struct {
	Path string `yaml:"path"`
}

// AgentConfig holds booking dialogue settings.
type AgentConfig struct {
	// LocaleFile optionally overrides the built-in reply strings (TOML).
	LocaleFile string `yaml:"locale_file"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings and RFC 3339 timestamps are parsed into their typed forms.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseTyped(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables expand to the empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// parseTyped converts raw duration and timestamp strings into typed values.
func parseTyped(cfg *Config) error {
	var err error

	if cfg.Telegram.PollTimeoutRaw != "" {
		cfg.Telegram.PollTimeout, err = time.ParseDuration(cfg.Telegram.PollTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing poll_timeout %q: %w", cfg.Telegram.PollTimeoutRaw, err)
		}
	}

	if cfg.Schedule.SlotDurationRaw != "" {
		cfg.Schedule.SlotDuration, err = time.ParseDuration(cfg.Schedule.SlotDurationRaw)
		if err != nil {
			return fmt.Errorf("parsing slot_duration %q: %w", cfg.Schedule.SlotDurationRaw, err)
		}
	}

	for i := range cfg.Schedule.Openings {
		o := &cfg.Schedule.Openings[i]
		o.Begin, err = time.Parse(time.RFC3339, o.BeginRaw)
		if err != nil {
			return fmt.Errorf("parsing opening %d begin %q: %w", i, o.BeginRaw, err)
		}
		o.End, err = time.Parse(time.RFC3339, o.EndRaw)
		if err != nil {
			return fmt.Errorf("parsing opening %d end %q: %w", i, o.EndRaw, err)
		}
	}

	return nil
}

// Validate checks that all required configuration fields are present and
// valid. Returns an error describing the first failure encountered.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required")
	}

	if c.Schedule.SlotDuration <= 0 {
		return fmt.Errorf("schedule.slot_duration must be a positive duration")
	}
	if len(c.Schedule.Openings) == 0 {
		return fmt.Errorf("schedule.openings must list at least one interval")
	}
	for i, o := range c.Schedule.Openings {
		if !o.Begin.Before(o.End) {
			return fmt.Errorf("schedule.openings[%d]: begin must be before end", i)
		}
	}

	if c.Bookings.Dir == "" {
		return fmt.Errorf("bookings.dir is required")
	}
	if c.Ledger.Path == "" {
		return fmt.Errorf("ledger.path is required")
	}

	return nil
}
