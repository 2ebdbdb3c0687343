package mailgun

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"

	"github.com/tasktracker/reminder-worker/internal/domain"
)

// dueDateLayout renders due dates as "Tuesday, June 10, 2025 at 2:30 PM".
const dueDateLayout = "Monday, January 02, 2006 at 3:04 PM"

const defaultPriorityColor = "#6b7280"

var priorityColors = map[string]string{
	domain.TaskPriorityCritical.String(): "#dc2626",
	domain.TaskPriorityHigh.String():     "#ea580c",
	domain.TaskPriorityMedium.String():   "#ca8a04",
	domain.TaskPriorityLow.String():      "#16a34a",
}

// PriorityColor returns the badge color for a priority label.
func PriorityColor(priority string) string {
	if c, ok := priorityColors[priority]; ok {
		return c
	}
	return defaultPriorityColor
}

// Urgency describes how close the due date is.
func Urgency(remaining time.Duration) string {
	switch {
	case remaining < 2*time.Hour:
		return "URGENT: Due in less than 2 hours!"
	case remaining < 6*time.Hour:
		return "Due very soon!"
	default:
		return "Upcoming task reminder"
	}
}

// FormatTimeRemaining renders a duration the way recipients read it.
func FormatTimeRemaining(d time.Duration) string {
	if d < 0 {
		return "OVERDUE"
	}
	if d < time.Hour {
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % 60
		return fmt.Sprintf("%d hours, %d minutes", hours, minutes)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%d %s, %d %s", days, plural(days, "day"), hours, plural(hours, "hour"))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// Subject returns the email subject for a task title.
func Subject(title string) string {
	return "Task Reminder: " + title
}

// templateData is the view model shared by both bodies.
type templateData struct {
	DisplayName   string
	TaskTitle     string
	DueDate       string
	Priority      string
	PriorityColor string
	Urgency       string
	TimeRemaining string
	AppURL        string
	Year          int
}

func newTemplateData(email domain.ReminderEmail, appURL string, now time.Time) templateData {
	remaining := email.DueDate.Sub(now)
	return templateData{
		DisplayName:   email.DisplayName,
		TaskTitle:     email.TaskTitle,
		DueDate:       email.DueDate.UTC().Format(dueDateLayout) + " UTC",
		Priority:      email.Priority,
		PriorityColor: PriorityColor(email.Priority),
		Urgency:       Urgency(remaining),
		TimeRemaining: FormatTimeRemaining(remaining),
		AppURL:        appURL,
		Year:          now.Year(),
	}
}

var htmlTemplate = htmltemplate.Must(htmltemplate.New("reminder.html").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin:0;padding:0;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Arial,sans-serif;background-color:#f3f4f6;">
<table width="100%" cellpadding="0" cellspacing="0" style="background-color:#f3f4f6;padding:40px 20px;">
<tr><td align="center">
<table width="600" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:8px;">
<tr><td style="background:#667eea;padding:30px;border-radius:8px 8px 0 0;">
<h1 style="margin:0;color:#ffffff;font-size:28px;">TaskTracker Reminder</h1>
</td></tr>
<tr><td style="padding:40px 30px;">
<p style="margin:0 0 20px;font-size:16px;color:#374151;">Hi <strong>{{.DisplayName}}</strong>,</p>
<div style="background-color:#fef3c7;border-left:4px solid #f59e0b;padding:16px;margin:20px 0;">
<p style="margin:0;font-size:15px;color:#92400e;">{{.Urgency}}</p>
</div>
<div style="background-color:#f9fafb;border-radius:8px;padding:24px;margin:24px 0;">
<h2 style="margin:0 0 16px;font-size:20px;color:#111827;">{{.TaskTitle}}</h2>
<table width="100%" cellpadding="8" cellspacing="0">
<tr><td style="color:#6b7280;font-size:14px;"><strong>Due Date:</strong></td>
<td style="color:#111827;font-size:14px;text-align:right;">{{.DueDate}}</td></tr>
<tr><td style="color:#6b7280;font-size:14px;"><strong>Priority:</strong></td>
<td style="text-align:right;"><span style="background-color:{{.PriorityColor}};color:white;padding:4px 12px;border-radius:12px;font-size:13px;">{{.Priority}}</span></td></tr>
<tr><td style="color:#6b7280;font-size:14px;"><strong>Time Remaining:</strong></td>
<td style="color:#111827;font-size:14px;text-align:right;">{{.TimeRemaining}}</td></tr>
</table>
</div>
<p style="margin:24px 0;font-size:15px;color:#4b5563;">Don't forget to complete this task before the deadline.</p>
<div style="text-align:center;margin:30px 0;">
<a href="{{.AppURL}}" style="display:inline-block;background:#667eea;color:white;text-decoration:none;padding:14px 32px;border-radius:6px;font-weight:600;">View Task in TaskTracker</a>
</div>
</td></tr>
<tr><td style="background-color:#f9fafb;padding:24px 30px;border-top:1px solid #e5e7eb;">
<p style="margin:0;font-size:13px;color:#6b7280;text-align:center;">This is an automated reminder from TaskTracker</p>
<p style="margin:8px 0 0;font-size:13px;color:#9ca3af;text-align:center;">&copy; {{.Year}} TaskTracker</p>
</td></tr>
</table>
</td></tr>
</table>
</body>
</html>
`))

var textTemplate = texttemplate.Must(texttemplate.New("reminder.txt").Parse(`TaskTracker Reminder
====================

Hi {{.DisplayName}},

You have an upcoming task that needs your attention:

Task: {{.TaskTitle}}
Due Date: {{.DueDate}}
Priority: {{.Priority}}
Time Remaining: {{.TimeRemaining}}

Don't forget to complete this task before the deadline.

View your tasks at: {{.AppURL}}

---
This is an automated reminder from TaskTracker
`))

// RenderBodies renders the HTML and plain-text bodies for a reminder.
func RenderBodies(email domain.ReminderEmail, appURL string, now time.Time) (html string, text string, err error) {
	data := newTemplateData(email, appURL, now)

	var hb bytes.Buffer
	if err := htmlTemplate.Execute(&hb, data); err != nil {
		return "", "", fmt.Errorf("render html body: %w", err)
	}

	var tb bytes.Buffer
	if err := textTemplate.Execute(&tb, data); err != nil {
		return "", "", fmt.Errorf("render text body: %w", err)
	}

	return hb.String(), tb.String(), nil
}
