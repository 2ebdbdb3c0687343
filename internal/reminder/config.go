package reminder

import "time"

// Config holds the reminder pipeline settings.
type Config struct {
	// CheckInterval is the pause between the end of a cycle and the next one.
	CheckInterval time.Duration

	// Lookahead is how far ahead of now a due date qualifies a task.
	Lookahead time.Duration

	// MaxEmailsPerRun caps the candidates handled in one cycle.
	MaxEmailsPerRun int

	// DailyEmailQuota caps reminder events per UTC day.
	DailyEmailQuota int

	// EnableEmailSending turns dry run off. In dry run no email is sent but
	// reminder events are still appended.
	EnableEmailSending bool

	// StartupDelay is waited once before the first cycle.
	StartupDelay time.Duration

	// SendDelay separates consecutive send attempts.
	SendDelay time.Duration

	// SendTimeout bounds one send plus its event append. That work is not
	// interrupted by shutdown, so it must be bounded.
	SendTimeout time.Duration

	// HealthStaleAfter is how long a successful cycle keeps the worker healthy.
	HealthStaleAfter time.Duration
}

// DefaultConfig returns a Config with the production defaults.
func DefaultConfig() Config {
	return Config{
		CheckInterval:      30 * time.Minute,
		Lookahead:          24 * time.Hour,
		MaxEmailsPerRun:    50,
		DailyEmailQuota:    90,
		EnableEmailSending: true,
		StartupDelay:       10 * time.Second,
		SendDelay:          500 * time.Millisecond,
		SendTimeout:        30 * time.Second,
		HealthStaleAfter:   120 * time.Minute,
	}
}

// StartOfUTCDay truncates t to midnight UTC of its day.
func StartOfUTCDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
