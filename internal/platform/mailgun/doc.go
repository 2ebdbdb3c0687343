// Package mailgun delivers task reminder emails through the Mailgun HTTP API.
//
// Sender implements reminder.EmailSender. Each reminder is rendered into an
// HTML and a plain-text body and posted as a form to the domain's messages
// endpoint using basic authentication. Any transport failure or non-2xx
// response is reported as an error wrapping reminder.ErrEmailSendFailed.
package mailgun
