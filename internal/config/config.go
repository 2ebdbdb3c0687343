package config

import "time"

// Config holds all worker configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Worker   WorkerConfig   `mapstructure:"worker" validate:"required"`
	Mailgun  MailgunConfig  `mapstructure:"mailgun"`
	Redis    RedisConfig    `mapstructure:"redis"`
	AMQP     AMQPConfig     `mapstructure:"amqp"`
}

// ServerConfig contains settings for the monitoring HTTP server and logging.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// WorkerConfig controls reminder cadence, selection window and send volume.
type WorkerConfig struct {
	CheckIntervalMinutes    int  `mapstructure:"check_interval_minutes" validate:"required,gt=0"`
	DueDateLookaheadHours   int  `mapstructure:"due_date_lookahead_hours" validate:"required,gt=0"`
	MaxEmailsPerRun         int  `mapstructure:"max_emails_per_run" validate:"required,gt=0"`
	DailyEmailQuota         int  `mapstructure:"daily_email_quota" validate:"required,gt=0"`
	EnableEmailSending      bool `mapstructure:"enable_email_sending"`
	StartupDelaySeconds     int  `mapstructure:"startup_delay_seconds" validate:"gte=0"`
	SendDelayMilliseconds   int  `mapstructure:"send_delay_milliseconds" validate:"gte=0"`
	SendTimeoutSeconds      int  `mapstructure:"send_timeout_seconds" validate:"required,gt=0"`
	HealthStaleAfterMinutes int  `mapstructure:"health_stale_after_minutes" validate:"required,gt=0"`
}

// CheckInterval is the pause between the end of one cycle and the start of the next.
func (w WorkerConfig) CheckInterval() time.Duration {
	return time.Duration(w.CheckIntervalMinutes) * time.Minute
}

// Lookahead is the forward window in which a due date qualifies a task.
func (w WorkerConfig) Lookahead() time.Duration {
	return time.Duration(w.DueDateLookaheadHours) * time.Hour
}

// StartupDelay is the warm-up wait before the first cycle.
func (w WorkerConfig) StartupDelay() time.Duration {
	return time.Duration(w.StartupDelaySeconds) * time.Second
}

// SendDelay is the pause between consecutive send attempts.
func (w WorkerConfig) SendDelay() time.Duration {
	return time.Duration(w.SendDelayMilliseconds) * time.Millisecond
}

// SendTimeout bounds a single send plus its event append.
func (w WorkerConfig) SendTimeout() time.Duration {
	return time.Duration(w.SendTimeoutSeconds) * time.Second
}

// HealthStaleAfter is how long after the last successful cycle the worker
// still reports healthy.
func (w WorkerConfig) HealthStaleAfter() time.Duration {
	return time.Duration(w.HealthStaleAfterMinutes) * time.Minute
}

// MailgunConfig contains the email provider settings.
// All fields except FromName and AppURL are required when sending is enabled.
type MailgunConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Domain    string `mapstructure:"domain"`
	BaseURL   string `mapstructure:"base_url" validate:"omitempty,url"`
	FromEmail string `mapstructure:"from_email" validate:"omitempty,email"`
	FromName  string `mapstructure:"from_name"`
	AppURL    string `mapstructure:"app_url" validate:"omitempty,url"`
}

// RedisConfig enables cross-replica send claims. Empty Addr disables them.
type RedisConfig struct {
	Addr            string `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password        string `mapstructure:"password"`
	DB              int    `mapstructure:"db" validate:"gte=0"`
	ClaimTTLMinutes int    `mapstructure:"claim_ttl_minutes" validate:"required,gt=0"`
}

// Enabled reports whether a Redis address is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// ClaimTTL is how long a claim blocks other replicas from the same task.
func (r RedisConfig) ClaimTTL() time.Duration {
	return time.Duration(r.ClaimTTLMinutes) * time.Minute
}

// AMQPConfig enables publishing reminder.sent events. Empty URL disables it.
type AMQPConfig struct {
	URL      string `mapstructure:"url" validate:"omitempty,url"`
	Exchange string `mapstructure:"exchange" validate:"required"`
}

// Enabled reports whether a broker URL is configured.
func (a AMQPConfig) Enabled() bool {
	return a.URL != ""
}
