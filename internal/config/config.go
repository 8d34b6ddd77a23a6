package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server       ServerConfig       `mapstructure:"server" validate:"required"`
	Database     DatabaseConfig     `mapstructure:"database" validate:"required"`
	Job          JobConfig          `mapstructure:"job" validate:"required"`
	Notification NotificationConfig `mapstructure:"notification" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// JobConfig contains the bulk job worker pool settings.
type JobConfig struct {
	// WorkerCount determines how many bulk jobs execute concurrently.
	WorkerCount int `mapstructure:"worker_count" validate:"required,gte=1,lte=32"`

	// QueueSize is the buffer size of the in-memory job queue. Submissions
	// past this size are backlogged, never rejected.
	QueueSize int `mapstructure:"queue_size" validate:"required,gte=1"`

	// Timeout is the wall-clock budget for a single bulk job.
	Timeout time.Duration `mapstructure:"timeout" validate:"required"`
}

// NotificationConfig contains the review reminder sweep settings.
type NotificationConfig struct {
	// SweepInterval is how often the reminder checker scans for users whose
	// notification slot has arrived.
	SweepInterval time.Duration `mapstructure:"sweep_interval" validate:"required"`
}
