package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the loader reads,
// e.g. TASKTRACKER_WORKER_DAILY_EMAIL_QUOTA.
const EnvPrefix = "TASKTRACKER"

// keys lists every setting so environment variables are honoured even for
// keys that have no default.
var keys = []string{
	"server.port",
	"server.log_level",
	"database.url",
	"worker.check_interval_minutes",
	"worker.due_date_lookahead_hours",
	"worker.max_emails_per_run",
	"worker.daily_email_quota",
	"worker.enable_email_sending",
	"worker.startup_delay_seconds",
	"worker.send_delay_milliseconds",
	"worker.send_timeout_seconds",
	"worker.health_stale_after_minutes",
	"mailgun.api_key",
	"mailgun.domain",
	"mailgun.base_url",
	"mailgun.from_email",
	"mailgun.from_name",
	"mailgun.app_url",
	"redis.addr",
	"redis.password",
	"redis.db",
	"redis.claim_ttl_minutes",
	"amqp.url",
	"amqp.exchange",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8081)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("worker.check_interval_minutes", 30)
	v.SetDefault("worker.due_date_lookahead_hours", 24)
	v.SetDefault("worker.max_emails_per_run", 50)
	v.SetDefault("worker.daily_email_quota", 90)
	v.SetDefault("worker.enable_email_sending", true)
	v.SetDefault("worker.startup_delay_seconds", 10)
	v.SetDefault("worker.send_delay_milliseconds", 500)
	v.SetDefault("worker.send_timeout_seconds", 30)
	v.SetDefault("worker.health_stale_after_minutes", 120)

	v.SetDefault("mailgun.base_url", "https://api.mailgun.net/v3")
	v.SetDefault("mailgun.from_name", "TaskTracker")
	v.SetDefault("mailgun.app_url", "http://localhost:3000")

	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.claim_ttl_minutes", 60)

	v.SetDefault("amqp.exchange", "tasktracker.events")
}

// Load reads configuration from defaults, an optional config.yaml in the
// working directory (or ./config), and environment variables.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return load("")
}

// LoadFile behaves like Load but reads the given config file, which must exist.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config file path cannot be empty")
	}
	return load(path)
}

func load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct tags and the cross-field rules on cfg.
func Validate(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterStructValidation(validateMailgun, Config{})

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// validateMailgun requires the provider settings only when emails are really sent;
// a dry-run worker can start without them.
func validateMailgun(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)
	if !cfg.Worker.EnableEmailSending {
		return
	}

	required := map[string]string{
		"APIKey":    cfg.Mailgun.APIKey,
		"Domain":    cfg.Mailgun.Domain,
		"BaseURL":   cfg.Mailgun.BaseURL,
		"FromEmail": cfg.Mailgun.FromEmail,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			sl.ReportError(value, "Mailgun."+field, field, "required_when_sending", "")
		}
	}
}
