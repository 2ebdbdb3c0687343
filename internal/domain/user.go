package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Recipient is the owning user of a task, as seen by the reminder worker.
// It is read-only here; users are managed by the task-management API.
type Recipient struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

// DisplayName returns the name used to greet the recipient.
// Falls back to the email address when no first name is set.
func (r Recipient) DisplayName() string {
	if name := strings.TrimSpace(r.FirstName); name != "" {
		return name
	}
	return r.Email
}
