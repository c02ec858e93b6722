package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Study     StudyConfig     `mapstructure:"study"     validate:"required"`
	Insights  InsightsConfig  `mapstructure:"insights"  validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
// An empty URL selects the in-memory store (development and tests).
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// SchedulerConfig exposes the tunable scheduling thresholds. The defaults
// match the documented algorithm; the repetition and interval thresholds are
// deliberately configurable rather than a hidden second behavior.
type SchedulerConfig struct {
	GraduationIntervalDays int `mapstructure:"graduation_interval_days" validate:"required,gte=1,lte=365"`
	ReviewStageRepetitions int `mapstructure:"review_stage_repetitions" validate:"required,gte=1"`
	MatureIntervalDays     int `mapstructure:"mature_interval_days"     validate:"required,gte=1,lte=365"`
}

// StudyConfig contains settings for due-card selection and session packing.
type StudyConfig struct {
	DefaultDueLimit    int `mapstructure:"default_due_limit"    validate:"required,gt=0"`
	UpcomingWindowDays int `mapstructure:"upcoming_window_days" validate:"required,gte=0,lte=30"`
}

// InsightsConfig contains settings for the retention analytics service.
type InsightsConfig struct {
	CacheTTL        time.Duration `mapstructure:"cache_ttl"        validate:"required"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval" validate:"required"`
}
