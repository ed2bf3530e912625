package notify

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// ConsoleDispatcher logs notifications instead of delivering them. It is used in
// development (NOTIFY_DRIVER=console) and keeps every message for inspection.
type ConsoleDispatcher struct {
	log zerolog.Logger

	mu       sync.Mutex
	emails   []EmailMessage
	messages []TemplateMessage
}

var (
	_ Mailer    = (*ConsoleDispatcher)(nil)
	_ Messenger = (*ConsoleDispatcher)(nil)
)

// NewConsoleDispatcher creates a dispatcher that writes to log.
func NewConsoleDispatcher(log zerolog.Logger) *ConsoleDispatcher {
	return &ConsoleDispatcher{log: log.With().Str("component", "console_dispatcher").Logger()}
}

func (d *ConsoleDispatcher) SendEmail(ctx context.Context, msg EmailMessage) bool {
	if ctx.Err() != nil {
		return false
	}
	d.mu.Lock()
	d.emails = append(d.emails, msg)
	d.mu.Unlock()

	d.log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg(msg.Text)
	return true
}

func (d *ConsoleDispatcher) SendTemplate(ctx context.Context, msg TemplateMessage) bool {
	if ctx.Err() != nil {
		return false
	}
	d.mu.Lock()
	d.messages = append(d.messages, msg)
	d.mu.Unlock()

	d.log.Info().
		Str("to", msg.To).
		Str("template", msg.Template).
		Msg(strings.Join(msg.Params, " | "))
	return true
}

// Emails returns a copy of every email sent so far.
func (d *ConsoleDispatcher) Emails() []EmailMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]EmailMessage(nil), d.emails...)
}

// Messages returns a copy of every template message sent so far.
func (d *ConsoleDispatcher) Messages() []TemplateMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]TemplateMessage(nil), d.messages...)
}
