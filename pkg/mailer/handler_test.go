package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mailtpl "github.com/oksasatya/galactic-postbox/pkg/mailer/templates"
)

type recordingSender struct {
	to, subject, text, html string
	err                     error
}

func (s *recordingSender) Send(_ context.Context, to, subject, text, html string) error {
	s.to, s.subject, s.text, s.html = to, subject, text, html
	return s.err
}

func deliveredJob(t *testing.T) []byte {
	t.Helper()
	b, err := json.Marshal(NotificationJob{
		To:       "lando@bespin.test",
		Template: mailtpl.MailDelivered,
		Data: mailtpl.ToMap(mailtpl.DeliveryData{
			RecipientName:    "lando",
			RecipientAddress: "Cloud City, Bespin System",
			SenderName:       "han",
			SenderAddress:    "Millennium Falcon Hangar",
			Subject:          "<b>Payback</b>",
			Type:             "postcard",
			MailURL:          "http://localhost:3000/mail/1",
			SentAt:           time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC),
		}),
	})
	require.NoError(t, err)
	return b
}

func TestHandle_RendersAndSends(t *testing.T) {
	s := &recordingSender{}
	require.NoError(t, Handle(context.Background(), s, deliveredJob(t)))

	assert.Equal(t, "lando@bespin.test", s.to)
	assert.Equal(t, "POSTCARD from han: <b>Payback</b>", s.subject)
	assert.Contains(t, s.text, "Cloud City, Bespin System")
	assert.Contains(t, s.text, "Priority: normal")
	assert.Contains(t, s.text, "May 4, 2026 10:00 UTC")
	assert.Contains(t, s.html, "&lt;b&gt;Payback&lt;/b&gt;")
	assert.Contains(t, s.html, "Galactic Postbox")
}

func TestHandle_MalformedJobs(t *testing.T) {
	cases := map[string][]byte{
		"not json":         []byte("{"),
		"missing to":       []byte(`{"template":"mail_delivered"}`),
		"unknown template": []byte(`{"to":"a@b.test","template":"welcome"}`),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			s := &recordingSender{}
			err := Handle(context.Background(), s, body)
			assert.ErrorIs(t, err, ErrMalformedJob)
			assert.Empty(t, s.to)
		})
	}
}

func TestHandle_SendFailureIsRetryable(t *testing.T) {
	s := &recordingSender{err: errors.New("mailgun down")}
	err := Handle(context.Background(), s, deliveredJob(t))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMalformedJob))
}
