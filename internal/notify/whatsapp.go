package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// WhatsAppConfig configures the WhatsApp Business Cloud API client.
type WhatsAppConfig struct {
	BaseURL       string
	PhoneNumberID string
	Token         string
	Language      string
	Timeout       time.Duration
}

// WhatsAppSender delivers channel B template messages.
type WhatsAppSender struct {
	client   *http.Client
	endpoint string
	token    string
	language string
	log      zerolog.Logger
}

var _ Messenger = (*WhatsAppSender)(nil)

// NewWhatsAppSender creates a sender posting to {BaseURL}/{PhoneNumberID}/messages.
func NewWhatsAppSender(cfg WhatsAppConfig, log zerolog.Logger) *WhatsAppSender {
	return &WhatsAppSender{
		client:   &http.Client{Timeout: cfg.Timeout},
		endpoint: fmt.Sprintf("%s/%s/messages", strings.TrimRight(cfg.BaseURL, "/"), cfg.PhoneNumberID),
		token:    cfg.Token,
		language: cfg.Language,
		log:      log.With().Str("component", "whatsapp_sender").Logger(),
	}
}

type waParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type waComponent struct {
	Type       string        `json:"type"`
	Parameters []waParameter `json:"parameters"`
}

type waLanguage struct {
	Code string `json:"code"`
}

type waTemplate struct {
	Name       string        `json:"name"`
	Language   waLanguage    `json:"language"`
	Components []waComponent `json:"components,omitempty"`
}

type waRequest struct {
	MessagingProduct string     `json:"messaging_product"`
	To               string     `json:"to"`
	Type             string     `json:"type"`
	Template         waTemplate `json:"template"`
}

// SendTemplate sends one template message and reports whether the API accepted it.
func (w *WhatsAppSender) SendTemplate(ctx context.Context, msg TemplateMessage) bool {
	body, err := json.Marshal(w.buildRequest(msg))
	if err != nil {
		w.log.Error().Err(err).Msg("Marshal template message")
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		w.log.Error().Err(err).Msg("Build WhatsApp request")
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+w.token)

	res, err := w.client.Do(req)
	if err != nil {
		w.log.Warn().Err(err).Str("to", msg.To).Msg("WhatsApp request failed")
		return false
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		w.log.Warn().
			Int("status", res.StatusCode).
			Str("to", msg.To).
			Str("template", msg.Template).
			Str("body", string(snippet)).
			Msg("WhatsApp rejected message")
		return false
	}
	_, _ = io.Copy(io.Discard, res.Body)
	return true
}

func (w *WhatsAppSender) buildRequest(msg TemplateMessage) waRequest {
	tmpl := waTemplate{
		Name:     msg.Template,
		Language: waLanguage{Code: w.language},
	}
	if len(msg.Params) > 0 {
		params := make([]waParameter, len(msg.Params))
		for i, p := range msg.Params {
			params[i] = waParameter{Type: "text", Text: p}
		}
		tmpl.Components = []waComponent{{Type: "body", Parameters: params}}
	}
	return waRequest{
		MessagingProduct: "whatsapp",
		To:               msg.To,
		Type:             "template",
		Template:         tmpl,
	}
}
