// Package config loads engine and server configuration from config.yaml
// with environment-variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/skycruzer/fleet-management-v2-sub008/leave"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type DatabaseConfig struct {
	// Path is the SQLite database file; ":memory:" for ephemeral runs.
	Path string `mapstructure:"path"`
}

type EngineConfig struct {
	// MinimumCaptains / MinimumFirstOfficers: pilots of each rank that must
	// remain on duty every single day.
	MinimumCaptains      int `mapstructure:"minimum_captains"`
	MinimumFirstOfficers int `mapstructure:"minimum_first_officers"`

	// LateRequestWindowDays before the roster period start.
	LateRequestWindowDays int `mapstructure:"late_request_window_days"`

	LockTimeout time.Duration `mapstructure:"lock_timeout"`
	LockRetries int           `mapstructure:"lock_retries"`

	// RosterPeriodEpoch is the start date (YYYY-MM-DD) of a known roster
	// period; RosterPeriodDays is the fixed window length.
	RosterPeriodEpoch string `mapstructure:"roster_period_epoch"`
	RosterPeriodDays  int    `mapstructure:"roster_period_days"`
}

type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads config.yaml from the working directory or ./config, then
// applies environment overrides.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional: defaults plus env cover dev runs.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnvVariables(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("database.path", "crew.db")
	v.SetDefault("engine.minimum_captains", 10)
	v.SetDefault("engine.minimum_first_officers", 10)
	v.SetDefault("engine.late_request_window_days", 21)
	v.SetDefault("engine.lock_timeout", 5*time.Second)
	v.SetDefault("engine.lock_retries", 2)
	v.SetDefault("engine.roster_period_epoch", "2025-01-04")
	v.SetDefault("engine.roster_period_days", 28)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}

func bindEnvVariables(v *viper.Viper) {
	v.BindEnv("server.host", "SERVER_HOST")
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("database.path", "DB_PATH")
	v.BindEnv("engine.minimum_captains", "MIN_CAPTAINS")
	v.BindEnv("engine.minimum_first_officers", "MIN_FIRST_OFFICERS")
	v.BindEnv("engine.late_request_window_days", "LATE_REQUEST_WINDOW_DAYS")
	v.BindEnv("engine.lock_timeout", "LOCK_TIMEOUT")
	v.BindEnv("engine.lock_retries", "LOCK_RETRIES")
	v.BindEnv("logger.level", "LOG_LEVEL")
	v.BindEnv("logger.format", "LOG_FORMAT")
}

// Address returns host:port for the HTTP server.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// MinimumRequired maps the per-rank floors into the engine's shape.
func (c *EngineConfig) MinimumRequired() map[leave.Rank]int {
	return map[leave.Rank]int{
		leave.RankCaptain:      c.MinimumCaptains,
		leave.RankFirstOfficer: c.MinimumFirstOfficers,
	}
}

// RosterPeriods builds the period table from the configured epoch.
func (c *EngineConfig) RosterPeriods() (leave.RosterPeriodTable, error) {
	epoch, err := leave.ParseDate(c.RosterPeriodEpoch)
	if err != nil {
		return leave.RosterPeriodTable{}, fmt.Errorf("invalid roster_period_epoch: %w", err)
	}
	return leave.RosterPeriodTable{Epoch: epoch, LengthDays: c.RosterPeriodDays}, nil
}
