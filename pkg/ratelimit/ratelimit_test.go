package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLimiter(t *testing.T) {
	l := NewLocalLimiter(3, 15*time.Minute)
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i)
	}
	ok, _ := l.Allow(ctx, "10.0.0.1")
	assert.False(t, ok, "fourth request in the window")

	ok, _ = l.Allow(ctx, "10.0.0.2")
	assert.True(t, ok, "other clients have their own budget")

	now = now.Add(6 * time.Minute)
	ok, _ = l.Allow(ctx, "10.0.0.1")
	assert.True(t, ok, "a token refills every window/max")
}

func TestLocalLimiter_EvictsIdleClients(t *testing.T) {
	l := NewLocalLimiter(1, time.Minute)
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	_, _ = l.Allow(ctx, "a")
	now = now.Add(3 * time.Minute)
	_, _ = l.Allow(ctx, "b")

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.visitors, "a")
	assert.Contains(t, l.visitors, "b")
}

func TestRedisLimiter(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := NewRedisLimiter(db, 2, 15*time.Minute)
	now := time.Unix(0, 0).Add(45 * time.Minute) // bucket 3
	l.now = func() time.Time { return now }
	ctx := context.Background()

	mock.ExpectIncr("ratelimit:10.0.0.1:3").SetVal(1)
	mock.ExpectExpire("ratelimit:10.0.0.1:3", 15*time.Minute).SetVal(true)
	mock.ExpectIncr("ratelimit:10.0.0.1:3").SetVal(2)
	mock.ExpectIncr("ratelimit:10.0.0.1:3").SetVal(3)

	ok, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLimiter_FailsOpen(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := NewRedisLimiter(db, 2, time.Minute)
	l.now = func() time.Time { return time.Unix(0, 0) }

	mock.ExpectIncr("ratelimit:x:0").SetErr(errors.New("connection refused"))

	ok, err := l.Allow(context.Background(), "x")
	assert.Error(t, err)
	assert.True(t, ok)
}
