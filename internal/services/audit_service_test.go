package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukemzone/kpi-portal/internal/database"
	"github.com/dukemzone/kpi-portal/internal/utils"
)

type fakeAuditWriter struct {
	rows    []database.AuditLog
	details []map[string]interface{}
	limit   int
	cutoff  time.Time
	err     error
}

func (w *fakeAuditWriter) Insert(_ context.Context, log database.AuditLog, details map[string]interface{}) error {
	if w.err != nil {
		return w.err
	}
	w.rows = append(w.rows, log)
	w.details = append(w.details, details)
	return nil
}

func (w *fakeAuditWriter) Recent(_ context.Context, _ string, limit int) ([]database.AuditLog, error) {
	w.limit = limit
	return w.rows, nil
}

func (w *fakeAuditWriter) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	w.cutoff = cutoff
	return 3, nil
}

const androidUA = "Mozilla/5.0 (Linux; Android 13; SM-A536B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"

func TestLogLogin(t *testing.T) {
	ctx := context.Background()
	w := &fakeAuditWriter{}
	svc := NewAuditService(w, nullLogger())

	require.NoError(t, svc.LogLogin(ctx, meronID, "meron", "196.188.1.1", androidUA, true))
	require.NoError(t, svc.LogLogin(ctx, "", "ghost", "196.188.1.1", "", false))

	require.Len(t, w.rows, 2)
	assert.Equal(t, "login_success", w.rows[0].Action)
	assert.True(t, w.rows[0].UserID.Valid)
	assert.Equal(t, meronID, w.rows[0].EntityID.String)
	assert.Equal(t, "meron", w.details[0]["username"])

	device, ok := w.details[0]["device_info"].(utils.DeviceInfo)
	require.True(t, ok)
	assert.Equal(t, "mobile", device.DeviceType)

	assert.Equal(t, "login_failed", w.rows[1].Action)
	assert.False(t, w.rows[1].UserID.Valid)
	assert.False(t, w.rows[1].EntityID.Valid)
}

func TestLogDecision(t *testing.T) {
	ctx := context.Background()
	w := &fakeAuditWriter{}
	svc := NewAuditService(w, nullLogger())

	require.NoError(t, svc.LogDecision(ctx, dawitID, "entry_rejected", "entry", "e1", "10.0.0.2", "curl/8.0",
		map[string]interface{}{"reason": "wrong figures"}))
	require.NoError(t, svc.LogSnapshot(ctx, managerID, "snapshot_export", "10.0.0.2", "curl/8.0", true))
	require.NoError(t, svc.LogCredentialChange(ctx, meronID, "passcode_set", "10.0.0.2", "curl/8.0", true))
	require.NoError(t, svc.LogTokenRefresh(ctx, meronID, "10.0.0.2", "curl/8.0", false))

	require.Len(t, w.rows, 4)
	assert.Equal(t, "entry", w.rows[0].EntityType)
	assert.Equal(t, "wrong figures", w.details[0]["reason"])
	assert.Contains(t, w.details[0], "device_info")
	assert.Equal(t, "snapshot", w.rows[1].EntityType)
	assert.Equal(t, "credential", w.rows[2].EntityType)
	assert.Equal(t, "token_refresh_failed", w.rows[3].Action)
}

func TestAuditWriteFailure(t *testing.T) {
	w := &fakeAuditWriter{err: errors.New("connection refused")}
	svc := NewAuditService(w, nullLogger())

	err := svc.LogLogin(context.Background(), meronID, "meron", "", "", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRecentAndCleanup(t *testing.T) {
	ctx := context.Background()
	w := &fakeAuditWriter{}
	svc := NewAuditService(w, nullLogger())

	_, err := svc.GetRecentEvents(ctx, meronID, 0)
	require.NoError(t, err)
	assert.Equal(t, 50, w.limit)

	_, err = svc.GetRecentEvents(ctx, meronID, 500)
	require.NoError(t, err)
	assert.Equal(t, 50, w.limit)

	_, err = svc.GetRecentEvents(ctx, meronID, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, w.limit)

	removed, err := svc.CleanupOldAuditLogs(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 3, removed)
	assert.WithinDuration(t, time.Now().UTC().Add(-24*time.Hour), w.cutoff, time.Minute)
}
