package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level sensorkit configuration.
type Config struct {
	Timezone    string      `mapstructure:"timezone"`
	Workers     int         `mapstructure:"workers"`
	WorkSession WorkSession `mapstructure:"work_session"`
	Subsession  Subsession  `mapstructure:"subsession"`
	EarlyOften  EarlyOften  `mapstructure:"early_often"`
	Loader      Loader      `mapstructure:"loader"`
	Output      Output      `mapstructure:"output"`
	Store       Store       `mapstructure:"store"`
}

// WorkSession configures gap-based session splitting.
type WorkSession struct {
	Gap   time.Duration `mapstructure:"gap"`
	Reset string        `mapstructure:"reset"`
}

// Subsession configures delimiter-based splitting inside work sessions.
type Subsession struct {
	Delimiters      []string `mapstructure:"delimiters"`
	Direction       string   `mapstructure:"direction"`
	CollapseRepeats bool     `mapstructure:"collapse_repeats"`
	Reset           string   `mapstructure:"reset"`
}

// EarlyOften configures the early/often indices.
type EarlyOften struct {
	LateCutoffDays int    `mapstructure:"late_cutoff_days"`
	Reset          string `mapstructure:"reset"`
	DueDates       string `mapstructure:"due_dates"`
}

// Loader configures event loading.
type Loader struct {
	RequireCleaned bool `mapstructure:"require_cleaned"`
}

// Output defines output preferences.
type Output struct {
	Color bool `mapstructure:"color"`
}

// Store configures run history.
type Store struct {
	Record bool   `mapstructure:"record"`
	Path   string `mapstructure:"path"`
}

// Location resolves Timezone, falling back to time.Local when it is empty.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location)
// and returns a Config with all defaults applied.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("timezone", DefaultTimezone)
	v.SetDefault("workers", 0)
	v.SetDefault("work_session.gap", DefaultWorkSession.Gap)
	v.SetDefault("work_session.reset", DefaultWorkSession.Reset)
	v.SetDefault("subsession.delimiters", DefaultSubsession.Delimiters)
	v.SetDefault("subsession.direction", DefaultSubsession.Direction)
	v.SetDefault("subsession.collapse_repeats", DefaultSubsession.CollapseRepeats)
	v.SetDefault("subsession.reset", DefaultSubsession.Reset)
	v.SetDefault("early_often.late_cutoff_days", DefaultEarlyOften.LateCutoffDays)
	v.SetDefault("early_often.reset", DefaultEarlyOften.Reset)
	v.SetDefault("early_often.due_dates", "")
	v.SetDefault("loader.require_cleaned", false)
	v.SetDefault("output.color", DefaultOutput.Color)
	v.SetDefault("store.record", false)
	v.SetDefault("store.path", DBPath())

	v.SetEnvPrefix("SENSORKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		configDir := expandPath(DefaultConfigDir)
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Read config file if it exists; missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Store.Path = expandPath(cfg.Store.Path)
	cfg.EarlyOften.DueDates = expandPath(cfg.EarlyOften.DueDates)

	return &cfg, nil
}

// DBPath returns the default path to the SQLite database.
func DBPath() string {
	return filepath.Join(expandPath(DefaultConfigDir), DefaultDBName)
}
