package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/galactic-postbox/internal/domain/entity"
	"github.com/oksasatya/galactic-postbox/pkg/mailer"
	mailtpl "github.com/oksasatya/galactic-postbox/pkg/mailer/templates"
)

func send(t *testing.T, env *testEnv, from *entity.User, to, subject string) *entity.Mail {
	t.Helper()
	m, err := env.mail.Send(context.Background(), from.ID, SendInput{RecipientAddress: to, Subject: subject, Content: "hello"})
	require.NoError(t, err)
	return m
}

func TestSend_DefaultsAndPopulation(t *testing.T) {
	env := newTestEnv(t)
	a := env.register(t, "lando", "Cloud City, Bespin System", false)
	b := env.register(t, "han", "Falcon Hangar", true)

	m, err := env.mail.Send(context.Background(), b.ID, SendInput{
		RecipientAddress: a.Address.Address,
		Subject:          "  Payback  ",
		Content:          "You owe me",
	})
	require.NoError(t, err)
	assert.Equal(t, "Payback", m.Subject)
	assert.Equal(t, entity.MailTypeLetter, m.Type)
	assert.Equal(t, entity.PriorityNormal, m.Priority)
	assert.False(t, m.IsRead)
	assert.Nil(t, m.ReadAt)
	assert.Equal(t, "Cloud City, Bespin System", m.RecipientAddress)
	require.NotNil(t, m.Sender)
	require.NotNil(t, m.Recipient)
	assert.Equal(t, "han", m.Sender.Username)
	assert.Equal(t, "lando", m.Recipient.Username)

	require.Equal(t, 1, env.publisher.count())
	job := env.publisher.jobs[0].(mailer.NotificationJob)
	assert.Equal(t, "lando@postbox.test", job.To)
	assert.Equal(t, mailtpl.MailDelivered, job.Template)
	assert.Equal(t, "http://app.test/mail/"+m.ID, job.Data["MailURL"])
	assert.Equal(t, "han", job.Data["SenderName"])
}

func TestSend_UnknownRecipientCreatesNothing(t *testing.T) {
	env := newTestEnv(t)
	b := env.register(t, "han", "Falcon Hangar", true)

	_, err := env.mail.Send(context.Background(), b.ID, SendInput{RecipientAddress: "Nowhere", Subject: "s", Content: "c"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "No user found with this address")

	sent, err := env.mail.ListSent(context.Background(), b.ID, ListQuery{})
	require.NoError(t, err)
	assert.Zero(t, sent.Total)
	assert.Zero(t, env.publisher.count())
}

func TestSend_NotifierFailureDoesNotFailSend(t *testing.T) {
	env := newTestEnv(t)
	env.publisher.err = errors.New("broker down")
	a := env.register(t, "lando", "Cloud City, Bespin System", false)
	b := env.register(t, "han", "Falcon Hangar", true)

	m := send(t, env, b, a.Address.Address, "hi")
	assert.NotEmpty(t, m.ID)
}

func TestSend_Validation(t *testing.T) {
	env := newTestEnv(t)
	a := env.register(t, "lando", "Cloud City, Bespin System", false)
	b := env.register(t, "han", "Falcon Hangar", true)

	tests := []struct {
		name  string
		in    SendInput
		field string
	}{
		{"blank subject", SendInput{RecipientAddress: a.Address.Address, Subject: "   ", Content: "c"}, "subject"},
		{"long subject", SendInput{RecipientAddress: a.Address.Address, Subject: strings.Repeat("ü", 201), Content: "c"}, "subject"},
		{"empty content", SendInput{RecipientAddress: a.Address.Address, Subject: "s"}, "content"},
		{"long content", SendInput{RecipientAddress: a.Address.Address, Subject: "s", Content: strings.Repeat("x", 10001)}, "content"},
		{"bad type", SendInput{RecipientAddress: a.Address.Address, Subject: "s", Content: "c", Type: "parcel"}, "type"},
		{"bad priority", SendInput{RecipientAddress: a.Address.Address, Subject: "s", Content: "c", Priority: "urgent"}, "priority"},
		{"missing recipient", SendInput{Subject: "s", Content: "c"}, "recipientAddress"},
		{"bad attachment", SendInput{RecipientAddress: a.Address.Address, Subject: "s", Content: "c", Attachments: []entity.Attachment{{Filename: "a.png", URL: "not a url"}}}, "attachments[0].url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.mail.Send(context.Background(), b.ID, tt.in)
			var appErr *Error
			require.ErrorAs(t, err, &appErr)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, tt.field, appErr.Details[0].Field)
		})
	}

	m, err := env.mail.Send(context.Background(), b.ID, SendInput{
		RecipientAddress: a.Address.Address, Subject: strings.Repeat("ü", 200), Content: "c",
		Type: entity.MailTypePostcard, Priority: entity.PriorityHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.MailTypePostcard, m.Type)
}

func TestListInbox_PaginationAndUnreadCount(t *testing.T) {
	env := newTestEnv(t)
	a := env.register(t, "lando", "Cloud City, Bespin System", false)
	b := env.register(t, "han", "Falcon Hangar", true)
	ctx := context.Background()

	for i := 1; i <= 25; i++ {
		send(t, env, b, a.Address.Address, fmt.Sprintf("s%02d", i))
	}

	page, err := env.mail.ListInbox(ctx, a.ID, ListQuery{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 25, page.Total)
	assert.EqualValues(t, 3, page.Pages)
	assert.EqualValues(t, 25, page.UnreadCount)
	require.Len(t, page.Items, 10)
	assert.Equal(t, "s15", page.Items[0].Subject)

	_, err = env.mail.MarkRead(ctx, a.ID, page.Items[0].ID)
	require.NoError(t, err)

	read := true
	filtered, err := env.mail.ListInbox(ctx, a.ID, ListQuery{IsRead: &read})
	require.NoError(t, err)
	assert.EqualValues(t, 1, filtered.Total)
	assert.EqualValues(t, 24, filtered.UnreadCount, "unread count ignores filters")
	assert.Equal(t, DefaultPage, filtered.Page)
	assert.Equal(t, DefaultLimit, filtered.Limit)

	postcard := entity.MailTypePostcard
	none, err := env.mail.ListInbox(ctx, a.ID, ListQuery{Type: &postcard})
	require.NoError(t, err)
	assert.Zero(t, none.Total)
	assert.Empty(t, none.Items)
	assert.Zero(t, none.Pages)

	capped, err := env.mail.ListInbox(ctx, a.ID, ListQuery{Page: -3, Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 1, capped.Page)
	assert.Equal(t, MaxLimit, capped.Limit)
	assert.Len(t, capped.Items, 25)

	far, err := env.mail.ListInbox(ctx, a.ID, ListQuery{Page: math.MaxInt, Limit: MaxLimit})
	require.NoError(t, err)
	assert.Equal(t, MaxPage, far.Page)
	assert.Empty(t, far.Items)
	assert.EqualValues(t, 25, far.Total)

	sent, err := env.mail.ListSent(ctx, b.ID, ListQuery{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 25, sent.Total)
	assert.Len(t, sent.Items, 5)
	assert.Equal(t, "lando", sent.Items[0].Recipient.Username)

	empty, err := env.mail.ListInbox(ctx, b.ID, ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
	assert.Zero(t, empty.UnreadCount)
}

func TestMarkRead_IdempotentAndRestamps(t *testing.T) {
	env := newTestEnv(t)
	a := env.register(t, "lando", "Cloud City, Bespin System", false)
	b := env.register(t, "han", "Falcon Hangar", true)
	m := send(t, env, b, a.Address.Address, "hi")
	ctx := context.Background()

	t1 := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	env.mail.now = func() time.Time { return t1 }
	first, err := env.mail.MarkRead(ctx, a.ID, m.ID)
	require.NoError(t, err)
	assert.True(t, first.IsRead)
	assert.Equal(t, t1, *first.ReadAt)

	env.mail.now = func() time.Time { return t2 }
	second, err := env.mail.MarkRead(ctx, a.ID, m.ID)
	require.NoError(t, err)
	assert.True(t, second.IsRead)
	assert.Equal(t, t2, *second.ReadAt)

	page, err := env.mail.ListInbox(ctx, a.ID, ListQuery{})
	require.NoError(t, err)
	assert.Zero(t, page.UnreadCount)
}

func TestOwnershipRules(t *testing.T) {
	env := newTestEnv(t)
	a := env.register(t, "lando", "Cloud City, Bespin System", false)
	b := env.register(t, "han", "Falcon Hangar", true)
	c := env.register(t, "chewie", "Kashyyyk Treehouse", true)
	m := send(t, env, b, a.Address.Address, "hi")
	ctx := context.Background()

	for _, u := range []*entity.User{a, b} {
		got, err := env.mail.Get(ctx, u.ID, m.ID)
		require.NoError(t, err)
		assert.Equal(t, m.ID, got.ID)
	}

	_, err := env.mail.Get(ctx, c.ID, m.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.mail.MarkRead(ctx, b.ID, m.ID)
	assert.ErrorIs(t, err, ErrNotFound, "sender cannot mark read")
	assert.ErrorIs(t, env.mail.Delete(ctx, b.ID, m.ID), ErrNotFound, "sender cannot delete")

	for _, bad := range []string{"", "not-a-uuid", "123"} {
		_, err = env.mail.Get(ctx, a.ID, bad)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, env.mail.Delete(ctx, a.ID, bad), ErrNotFound)
	}

	require.NoError(t, env.mail.Delete(ctx, a.ID, m.ID))
	_, err = env.mail.Get(ctx, a.ID, m.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.mail.Get(ctx, b.ID, m.ID)
	assert.ErrorIs(t, err, ErrNotFound, "hard delete removes the sender's copy too")
	assert.ErrorIs(t, env.mail.Delete(ctx, a.ID, m.ID), ErrNotFound)
}

func TestSend_ToSelf(t *testing.T) {
	env := newTestEnv(t)
	a := env.register(t, "lando", "Cloud City, Bespin System", false)
	m := send(t, env, a, a.Address.Address, "note to self")

	page, err := env.mail.ListInbox(context.Background(), a.ID, ListQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, m.ID, page.Items[0].ID)
}
