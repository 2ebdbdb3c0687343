package mailgun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tasktracker/reminder-worker/internal/config"
	"github.com/tasktracker/reminder-worker/internal/domain"
	"github.com/tasktracker/reminder-worker/internal/platform/logger"
	"github.com/tasktracker/reminder-worker/internal/redact"
	"github.com/tasktracker/reminder-worker/internal/reminder"
)

// maxErrorBody caps how much of a failed response is kept for the error message.
const maxErrorBody = 512

// Configuration errors returned by NewSender.
var (
	ErrMissingAPIKey    = errors.New("mailgun API key is required")
	ErrMissingDomain    = errors.New("mailgun domain is required")
	ErrMissingFromEmail = errors.New("mailgun from email is required")
)

// Sender posts reminder emails to Mailgun.
type Sender struct {
	client   *http.Client
	endpoint string
	apiKey   string
	from     string
	appURL   string
	logger   *slog.Logger
	now      func() time.Time
}

// Compile-time check that Sender implements reminder.EmailSender.
var _ reminder.EmailSender = (*Sender)(nil)

// NewSender creates a Sender from the Mailgun configuration.
// A nil client falls back to http.DefaultClient; per-message deadlines come
// from the caller's context.
func NewSender(cfg config.MailgunConfig, client *http.Client, log *slog.Logger) (*Sender, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(cfg.Domain) == "" {
		return nil, ErrMissingDomain
	}
	if strings.TrimSpace(cfg.FromEmail) == "" {
		return nil, ErrMissingFromEmail
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.mailgun.net/v3"
	}

	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = slog.Default()
	}

	from := cfg.FromEmail
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromEmail)
	}

	return &Sender{
		client:   client,
		endpoint: baseURL + "/" + url.PathEscape(cfg.Domain) + "/messages",
		apiKey:   cfg.APIKey,
		from:     from,
		appURL:   cfg.AppURL,
		logger:   log.With(slog.String("component", "mailgun_sender")),
		now:      time.Now,
	}, nil
}

// SendReminder renders and posts one reminder email.
func (s *Sender) SendReminder(ctx context.Context, email domain.ReminderEmail) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	html, text, err := RenderBodies(email, s.appURL, s.now().UTC())
	if err != nil {
		return fmt.Errorf("%w: %v", reminder.ErrEmailSendFailed, err)
	}

	form := url.Values{}
	form.Set("from", s.from)
	form.Set("to", email.ToEmail)
	form.Set("subject", Subject(email.TaskTitle))
	form.Set("html", html)
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", reminder.ErrEmailSendFailed, err)
	}
	req.SetBasicAuth("api", s.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		log.Error("mailgun request failed",
			slog.String("task_id", email.TaskID.String()),
			slog.String("to", redact.Email(email.ToEmail)),
			slog.String("error", redact.Error(err)))
		return fmt.Errorf("%w: %s", reminder.ErrEmailSendFailed, redact.Error(err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Error("mailgun rejected message",
			slog.String("task_id", email.TaskID.String()),
			slog.String("to", redact.Email(email.ToEmail)),
			slog.Int("status", resp.StatusCode),
			slog.String("response", redact.String(string(body))))
		return fmt.Errorf("%w: status %d", reminder.ErrEmailSendFailed, resp.StatusCode)
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	log.Info("reminder email sent",
		slog.String("task_id", email.TaskID.String()),
		slog.String("to", redact.Email(email.ToEmail)))
	return nil
}
