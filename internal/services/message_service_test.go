package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukemzone/kpi-portal/internal/models"
)

func newMessageService(t *testing.T) *MessageService {
	t.Helper()
	s := newTestStore(t)
	return NewMessageService(s, s, nullLogger())
}

func TestSendMessage(t *testing.T) {
	ctx := context.Background()
	svc := newMessageService(t)

	m, err := svc.Send(ctx, dawitID, models.MessageInput{ToID: meronID, Content: "Please update your deposit figures"})
	require.NoError(t, err)
	assert.Equal(t, models.MessageTypeText, m.Type)
	assert.Equal(t, "Dawit Asres", m.FromName)
	assert.Equal(t, fixedNow, m.Timestamp)
	assert.Empty(t, m.ReadBy)

	cases := map[string]struct {
		actor string
		input models.MessageInput
		err   error
	}{
		"Staff Sender":    {meronID, models.MessageInput{ToID: sanbataID, Content: "hi"}, ErrForbidden},
		"Empty Content":   {dawitID, models.MessageInput{ToID: meronID, Content: "  "}, ErrValidation},
		"Unknown Type":    {dawitID, models.MessageInput{ToID: meronID, Content: "hi", Type: "memo"}, ErrValidation},
		"Unknown Target":  {dawitID, models.MessageInput{ToID: "ghost", Content: "hi"}, ErrValidation},
		"Bad Attachment":  {dawitID, models.MessageInput{ToID: meronID, Content: "hi", Attachment: &models.Attachment{Name: "a.exe", Type: "binary", URL: "x"}}, ErrValidation},
		"Attachment Link": {dawitID, models.MessageInput{ToID: meronID, Content: "hi", Attachment: &models.Attachment{Name: "guide", Type: "link"}}, ErrValidation},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Send(ctx, tc.actor, tc.input)
			assert.ErrorIs(t, err, tc.err)
		})
	}

	broadcast, err := svc.Send(ctx, managerID, models.MessageInput{
		ToID:       models.BroadcastRecipient,
		Content:    "Quarter close on Friday",
		Type:       models.MessageTypeAnnouncement,
		Attachment: &models.Attachment{Name: "memo.pdf", Type: "document", URL: "data:application/pdf;base64,AA=="},
	})
	require.NoError(t, err)
	assert.Equal(t, "memo.pdf", broadcast.Attachment.Name)

	assert.Len(t, svc.ForUser(meronID), 2)
	assert.Len(t, svc.ForUser(sanbataID), 1)
	assert.Len(t, svc.SentBy(dawitID), 1)
}

func TestMarkRead(t *testing.T) {
	ctx := context.Background()
	svc := newMessageService(t)

	direct, err := svc.Send(ctx, dawitID, models.MessageInput{ToID: meronID, Content: "direct"})
	require.NoError(t, err)
	_, err = svc.Send(ctx, dawitID, models.MessageInput{ToID: models.BroadcastRecipient, Content: "everyone"})
	require.NoError(t, err)

	assert.Equal(t, 2, svc.UnreadCount(meronID))

	read, err := svc.MarkRead(ctx, meronID, direct.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{meronID}, read.ReadBy)
	require.Len(t, read.ReadReceipts, 1)
	assert.Equal(t, fixedNow, read.ReadReceipts[0].Timestamp)

	read, err = svc.MarkRead(ctx, meronID, direct.ID)
	require.NoError(t, err)
	assert.Len(t, read.ReadReceipts, 1)
	assert.Equal(t, 1, svc.UnreadCount(meronID))

	_, err = svc.MarkRead(ctx, sanbataID, direct.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.MarkRead(ctx, meronID, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEditAndDeleteMessage(t *testing.T) {
	ctx := context.Background()
	svc := newMessageService(t)

	m, err := svc.Send(ctx, dawitID, models.MessageInput{ToID: meronID, Content: "draft"})
	require.NoError(t, err)

	content := "final"
	_, err = svc.Update(ctx, meronID, m.ID, models.MessageUpdate{Content: &content})
	assert.ErrorIs(t, err, ErrForbidden)

	priority := models.MessageTypePriority
	updated, err := svc.Update(ctx, managerID, m.ID, models.MessageUpdate{Content: &content, Type: &priority})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Content)
	assert.Equal(t, models.MessageTypePriority, updated.Type)

	assert.ErrorIs(t, svc.Delete(ctx, meronID, m.ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, dawitID, m.ID))
	assert.Empty(t, svc.ForUser(meronID))
	assert.ErrorIs(t, svc.Delete(ctx, dawitID, m.ID), ErrNotFound)
}
