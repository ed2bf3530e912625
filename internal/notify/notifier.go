package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/stemsi/cohortsched-backend/internal/batch"
	"github.com/stemsi/cohortsched-backend/internal/model"
)

var (
	errEmailFailed    = errors.New("email not delivered")
	errWhatsAppFailed = errors.New("whatsapp not delivered")
)

// Tally reports exact per-channel outcomes of one audience fan-out.
type Tally struct {
	Recipients      int             `json:"recipients"`
	Email           int             `json:"email"`
	WhatsApp        int             `json:"whatsapp"`
	EmailFailed     int             `json:"email_failed"`
	WhatsAppFailed  int             `json:"whatsapp_failed"`
	EmailSkipped    int             `json:"email_skipped"`
	WhatsAppSkipped int             `json:"whatsapp_skipped"`
	NotAttempted    int             `json:"not_attempted"`
	Failures        []batch.Failure `json:"failures,omitempty"`
}

// Degraded reports whether any recipient was not fully served: a channel failed or
// the fan-out stopped before reaching them.
func (t Tally) Degraded() bool {
	return t.EmailFailed > 0 || t.WhatsAppFailed > 0 || t.NotAttempted > 0 || len(t.Failures) > 0
}

// Notifier sends one notice per recipient over both channels.
type Notifier struct {
	mailer      Mailer
	messenger   Messenger
	countryCode string
	log         zerolog.Logger
}

// NewNotifier creates a Notifier. countryCode is used for phone normalization.
func NewNotifier(mailer Mailer, messenger Messenger, countryCode string, log zerolog.Logger) *Notifier {
	return &Notifier{
		mailer:      mailer,
		messenger:   messenger,
		countryCode: countryCode,
		log:         log.With().Str("component", "notifier").Logger(),
	}
}

// Broadcast notifies recipients one after another, waiting on pacer before each one.
// Both channels of a single recipient are attempted concurrently. Missing contacts and
// phones that fail normalization are skipped without an attempt. Failures never stop
// the fan-out.
func (n *Notifier) Broadcast(ctx context.Context, recipients []model.Recipient, pacer Pacer, compose func(model.Recipient) RescheduleNotice) Tally {
	var (
		tally Tally
		mu    sync.Mutex
	)
	count := func(f func(t *Tally)) {
		mu.Lock()
		f(&tally)
		mu.Unlock()
	}

	report := batch.Run(ctx, n.log, recipients, recipientLabel, func(ctx context.Context, r model.Recipient) error {
		if err := pacer.Wait(ctx); err != nil {
			count(func(t *Tally) { t.NotAttempted++ })
			return fmt.Errorf("not attempted: %w", err)
		}
		notice := compose(r)

		var (
			wg              sync.WaitGroup
			emailErr, waErr error
		)

		if email := strings.TrimSpace(r.Email); email == "" {
			count(func(t *Tally) { t.EmailSkipped++ })
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				emailErr = n.sendEmail(ctx, notice, email)
				count(func(t *Tally) {
					if emailErr != nil {
						t.EmailFailed++
					} else {
						t.Email++
					}
				})
			}()
		}

		if phone, ok := NormalizePhone(r.Phone, n.countryCode); !ok {
			if r.Phone != "" {
				n.log.Debug().Str("recipient", recipientLabel(r)).Str("phone", r.Phone).Msg("Skipping unusable phone number")
			}
			count(func(t *Tally) { t.WhatsAppSkipped++ })
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if !n.messenger.SendTemplate(ctx, notice.Template(phone)) {
					waErr = errWhatsAppFailed
				}
				count(func(t *Tally) {
					if waErr != nil {
						t.WhatsAppFailed++
					} else {
						t.WhatsApp++
					}
				})
			}()
		}

		wg.Wait()
		return errors.Join(emailErr, waErr)
	})

	tally.Recipients = report.Attempted
	tally.Failures = report.Failures
	return tally
}

func (n *Notifier) sendEmail(ctx context.Context, notice RescheduleNotice, email string) error {
	msg, err := notice.Email(email)
	if err != nil {
		return fmt.Errorf("compose email: %w", err)
	}
	if !n.mailer.SendEmail(ctx, msg) {
		return errEmailFailed
	}
	return nil
}

func recipientLabel(r model.Recipient) string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}
