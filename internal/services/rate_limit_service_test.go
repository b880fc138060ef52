package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type attemptKey struct {
	identifier string
	kind       string
}

type fakeAttemptStore struct {
	attempts map[attemptKey][]time.Time
	err      error
}

func newFakeAttemptStore() *fakeAttemptStore {
	return &fakeAttemptStore{attempts: map[attemptKey][]time.Time{}}
}

func (f *fakeAttemptStore) Attempts(ctx context.Context, identifier, kind string, since time.Time) ([]time.Time, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []time.Time
	list := f.attempts[attemptKey{identifier, kind}]
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].After(since) {
			out = append(out, list[i])
		}
	}
	return out, nil
}

func (f *fakeAttemptStore) RecordAttempt(ctx context.Context, identifier, kind string, at time.Time) error {
	if f.err != nil {
		return f.err
	}
	key := attemptKey{identifier, kind}
	f.attempts[key] = append(f.attempts[key], at)
	return nil
}

func (f *fakeAttemptStore) ClearAttempts(ctx context.Context, identifier, kind string) error {
	delete(f.attempts, attemptKey{identifier, kind})
	return nil
}

func (f *fakeAttemptStore) DeleteAttemptsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	for key, list := range f.attempts {
		kept := list[:0]
		for _, at := range list {
			if at.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, at)
		}
		f.attempts[key] = kept
	}
	return removed, nil
}

func setupRateLimitTest(t *testing.T) (*RateLimitService, *fakeAttemptStore, *time.Time) {
	t.Helper()
	store := newFakeAttemptStore()
	service := NewRateLimitService(store, RateLimitConfig{
		MaxUsernameAttempts: 3,
		UsernameWindow:      10 * time.Minute,
		MaxIPAttempts:       5,
		IPWindow:            time.Hour,
	}, nullLogger())

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	service.SetClock(func() time.Time { return now })
	return service, store, &now
}

func TestCheckLogin_NoAttempts(t *testing.T) {
	service, _, _ := setupRateLimitTest(t)
	assert.NoError(t, service.CheckLogin(context.Background(), "meron", "10.0.0.1"))
}

func TestCheckLogin_UsernameExceeded(t *testing.T) {
	service, _, now := setupRateLimitTest(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, service.RecordFailure(ctx, "Meron ", "10.0.0.1"))
		*now = now.Add(time.Minute)
	}

	err := service.CheckLogin(ctx, "meron", "10.0.0.2")
	require.Error(t, err)

	var rateErr *RateLimitError
	require.True(t, errors.As(err, &rateErr))
	assert.Equal(t, AttemptByUsername, rateErr.Type)
	assert.Equal(t, time.Date(2026, 3, 14, 9, 10, 0, 0, time.UTC), rateErr.RetryAfter)
	assert.Contains(t, rateErr.Message, "09:10:00")

	// Another account from a different IP is unaffected
	assert.NoError(t, service.CheckLogin(ctx, "dawit", "10.0.0.2"))
}

func TestCheckLogin_WindowExpires(t *testing.T) {
	service, _, now := setupRateLimitTest(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, service.RecordFailure(ctx, "meron", ""))
	}
	require.Error(t, service.CheckLogin(ctx, "meron", ""))

	*now = now.Add(11 * time.Minute)
	assert.NoError(t, service.CheckLogin(ctx, "meron", ""))
}

func TestCheckLogin_IPExceeded(t *testing.T) {
	service, _, _ := setupRateLimitTest(t)
	ctx := context.Background()

	for _, name := range []string{"a1", "a2", "a3", "a4", "a5"} {
		require.NoError(t, service.RecordFailure(ctx, name, "10.0.0.9"))
	}

	err := service.CheckLogin(ctx, "fresh", "10.0.0.9")
	var rateErr *RateLimitError
	require.True(t, errors.As(err, &rateErr))
	assert.Equal(t, AttemptByIP, rateErr.Type)
}

func TestCheckLogin_StoreError(t *testing.T) {
	service, store, _ := setupRateLimitTest(t)
	store.err = errors.New("database down")

	err := service.CheckLogin(context.Background(), "meron", "10.0.0.1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to check username rate limit")

	var rateErr *RateLimitError
	assert.False(t, errors.As(err, &rateErr))
}

func TestResetClearsUsername(t *testing.T) {
	service, store, _ := setupRateLimitTest(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, service.RecordFailure(ctx, "meron", "10.0.0.1"))
	}
	require.NoError(t, service.Reset(ctx, "MERON"))

	assert.NoError(t, service.CheckLogin(ctx, "meron", ""))
	assert.Len(t, store.attempts[attemptKey{"10.0.0.1", AttemptByIP}], 3)
}

func TestCleanup(t *testing.T) {
	service, _, now := setupRateLimitTest(t)
	ctx := context.Background()

	require.NoError(t, service.RecordFailure(ctx, "meron", "10.0.0.1"))
	*now = now.Add(2 * time.Hour)
	require.NoError(t, service.RecordFailure(ctx, "genet", ""))

	removed, err := service.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
}

func TestDefaultRateLimitConfig(t *testing.T) {
	service := NewRateLimitService(newFakeAttemptStore(), RateLimitConfig{}, nullLogger())
	assert.Equal(t, DefaultRateLimitConfig(), service.config)
}
