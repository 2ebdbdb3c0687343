package reminder

import "errors"

// ErrEmailSendFailed is wrapped by EmailSender implementations when the
// provider rejects or cannot accept a message.
var ErrEmailSendFailed = errors.New("reminder email send failed")

// ErrReminderNotRecorded means an email went out but its reminder event could
// not be appended. The cycle aborts; the task may be reminded again.
var ErrReminderNotRecorded = errors.New("reminder sent but not recorded")
