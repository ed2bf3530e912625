package notify

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridMailer delivers channel A email through the SendGrid v3 API.
type SendGridMailer struct {
	client     *sendgrid.Client
	from       *sgmail.Email
	subjPrefix string
	timeout    time.Duration
	log        zerolog.Logger
}

var _ Mailer = (*SendGridMailer)(nil)

// NewSendGridMailer creates a mailer sending as fromName <fromAddress>.
func NewSendGridMailer(apiKey, fromName, fromAddress string, timeout time.Duration, log zerolog.Logger) *SendGridMailer {
	return &SendGridMailer{
		client:     sendgrid.NewSendClient(apiKey),
		from:       sgmail.NewEmail(fromName, fromAddress),
		subjPrefix: "[" + fromName + "] ",
		timeout:    timeout,
		log:        log.With().Str("component", "sendgrid_mailer").Logger(),
	}
}

// SendEmail sends one message and reports whether SendGrid accepted it.
func (m *SendGridMailer) SendEmail(ctx context.Context, msg EmailMessage) bool {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	res, err := m.client.SendWithContext(ctx, m.prepare(msg))
	if err != nil {
		m.log.Warn().Err(err).Str("to", msg.To).Msg("SendGrid request failed")
		return false
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		m.log.Warn().
			Int("status", res.StatusCode).
			Str("to", msg.To).
			Str("body", res.Body).
			Msg("SendGrid rejected message")
		return false
	}
	return true
}

func (m *SendGridMailer) prepare(msg EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = m.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.To))

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(m.from)
	v3.Subject = p.Subject
	v3.AddPersonalizations(p)

	v3.AddContent(sgmail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		v3.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}
	return v3
}
