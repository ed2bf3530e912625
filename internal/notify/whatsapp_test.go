package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhatsAppSender_PostsTemplate(t *testing.T) {
	var got waRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/12345/messages", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	sender := NewWhatsAppSender(WhatsAppConfig{
		BaseURL:       srv.URL + "/",
		PhoneNumberID: "12345",
		Token:         "secret",
		Language:      "en",
		Timeout:       time.Second,
	}, zerolog.Nop())

	ok := sender.SendTemplate(context.Background(), TemplateMessage{
		To:       "919876543210",
		Template: RescheduleTemplate,
		Params:   []string{"Asha", "Basic 1.1"},
	})
	require.True(t, ok)

	assert.Equal(t, "whatsapp", got.MessagingProduct)
	assert.Equal(t, "template", got.Type)
	assert.Equal(t, "919876543210", got.To)
	assert.Equal(t, RescheduleTemplate, got.Template.Name)
	assert.Equal(t, "en", got.Template.Language.Code)
	require.Len(t, got.Template.Components, 1)
	assert.Equal(t, []waParameter{{Type: "text", Text: "Asha"}, {Type: "text", Text: "Basic 1.1"}}, got.Template.Components[0].Parameters)
}

func TestWhatsAppSender_NonSuccessIsFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid template"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	sender := NewWhatsAppSender(WhatsAppConfig{BaseURL: srv.URL, PhoneNumberID: "1", Timeout: time.Second}, zerolog.Nop())
	assert.False(t, sender.SendTemplate(context.Background(), TemplateMessage{To: "919876543210", Template: "x"}))
}

func TestWhatsAppSender_TimeoutIsFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	sender := NewWhatsAppSender(WhatsAppConfig{BaseURL: srv.URL, PhoneNumberID: "1", Timeout: 20 * time.Millisecond}, zerolog.Nop())
	assert.False(t, sender.SendTemplate(context.Background(), TemplateMessage{To: "919876543210", Template: "x"}))
}
