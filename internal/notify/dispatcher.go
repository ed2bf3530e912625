// Package notify delivers schedule notifications over two channels: transactional
// email (SendGrid) and templated WhatsApp messages. Senders report success as a bool
// and never retry; callers tally outcomes.
package notify

import "context"

// EmailMessage is one transactional email to a single recipient.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// TemplateMessage is one templated instant message to a normalized phone number.
type TemplateMessage struct {
	To       string
	Template string
	Params   []string
}

// Mailer sends channel A messages. Non-2xx responses and timeouts yield false.
type Mailer interface {
	SendEmail(ctx context.Context, msg EmailMessage) bool
}

// Messenger sends channel B messages. Non-2xx responses and timeouts yield false.
type Messenger interface {
	SendTemplate(ctx context.Context, msg TemplateMessage) bool
}
