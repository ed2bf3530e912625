package notify

import (
	"bytes"
	"embed"
	"fmt"
	htmltmpl "html/template"
	texttmpl "text/template"
)

// WhatsApp template registered with the provider for reschedule notices.
// Body parameters, in order: recipient, cohort, action, week, session,
// previous slot, new slot, acting mentor.
const RescheduleTemplate = "class_rescheduled"

//go:embed templates/*
var templateFS embed.FS

var (
	rescheduleText = texttmpl.Must(texttmpl.New("reschedule").Option("missingkey=error").
			ParseFS(templateFS, "templates/layout.txt", "templates/reschedule.txt"))
	rescheduleHTML = htmltmpl.Must(htmltmpl.New("reschedule").Option("missingkey=error").
			ParseFS(templateFS, "templates/layout.gohtml", "templates/reschedule.gohtml"))
)

// Slot is a rendered point in the schedule.
type Slot struct {
	Date string `json:"date"`
	Day  string `json:"day"`
	Time string `json:"time,omitempty"`
}

func (s Slot) String() string {
	if s.Time == "" {
		return fmt.Sprintf("%s, %s", s.Day, s.Date)
	}
	return fmt.Sprintf("%s, %s at %s", s.Day, s.Date, s.Time)
}

// RescheduleNotice carries everything a reschedule message mentions.
type RescheduleNotice struct {
	Sender        string
	RecipientName string
	Coordinator   bool
	CohortName    string
	Action        string
	ActionPast    string
	MentorName    string
	WeekNumber    int
	SessionNumber int
	Previous      Slot
	Next          Slot
}

// Subject returns the email subject line.
func (n RescheduleNotice) Subject() string {
	return fmt.Sprintf("%s: week %d session %d %s", n.CohortName, n.WeekNumber, n.SessionNumber, n.ActionPast)
}

// Email renders the channel A message addressed to email.
func (n RescheduleNotice) Email(email string) (EmailMessage, error) {
	var text, html bytes.Buffer
	if err := rescheduleText.ExecuteTemplate(&text, "base", n); err != nil {
		return EmailMessage{}, fmt.Errorf("render text: %w", err)
	}
	if err := rescheduleHTML.ExecuteTemplate(&html, "base", n); err != nil {
		return EmailMessage{}, fmt.Errorf("render html: %w", err)
	}
	return EmailMessage{
		To:      email,
		ToName:  n.RecipientName,
		Subject: n.Subject(),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

// Template builds the channel B message addressed to an already normalized phone.
func (n RescheduleNotice) Template(phone string) TemplateMessage {
	return TemplateMessage{
		To:       phone,
		Template: RescheduleTemplate,
		Params: []string{
			n.RecipientName,
			n.CohortName,
			n.ActionPast,
			fmt.Sprint(n.WeekNumber),
			fmt.Sprint(n.SessionNumber),
			n.Previous.String(),
			n.Next.String(),
			n.MentorName,
		},
	}
}
