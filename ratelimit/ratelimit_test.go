package ratelimit

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"parentguide-backend/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T, win time.Duration, max int) (*Limiter, *time.Time) {
	t.Helper()
	st, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	l := New(st, win, max)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLimiter_Window(t *testing.T) {
	ctx := context.Background()
	l, now := newLimiter(t, time.Hour, 3)

	for want := 2; want >= 0; want-- {
		left, err := l.Allow(ctx, "203.0.113.7")
		require.NoError(t, err)
		assert.Equal(t, want, left)
	}

	_, err := l.Allow(ctx, "203.0.113.7")
	assert.ErrorIs(t, err, ErrLimited)

	// Other keys are counted separately.
	left, err := l.Allow(ctx, "198.51.100.1")
	require.NoError(t, err)
	assert.Equal(t, 2, left)

	*now = now.Add(time.Hour)
	left, err = l.Allow(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, 2, left, "a new window resets the count")
}

func TestLimiter_CorruptCounter(t *testing.T) {
	ctx := context.Background()
	st, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, st.Put(ctx, objectKey("k"), strings.NewReader("{")))

	l := New(st, time.Minute, 1)
	_, err = l.Allow(ctx, "k")
	assert.NoError(t, err)
}

type brokenStore struct{}

func (brokenStore) Put(context.Context, string, io.Reader) error { return errors.New("disk full") }
func (brokenStore) Get(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("disk gone")
}
func (brokenStore) Delete(context.Context, string) error { return nil }

func TestLimiter_StorageFailureAllows(t *testing.T) {
	l := New(brokenStore{}, time.Minute, 5)
	left, err := l.Allow(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLimited)
	assert.Equal(t, 5, left)
}
