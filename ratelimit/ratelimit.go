// Package ratelimit implements a soft, storage-backed request limit.
//
// Counters are read, modified and written back without locking, so
// concurrent requests for the same key can undercount. The limit is a
// courtesy guard, not a guarantee.
package ratelimit

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"parentguide-backend/storage"

	"github.com/rotisserie/eris"
	"golang.org/x/crypto/blake2b"
)

// ErrLimited is returned by Allow when the key used up its window.
var ErrLimited = errors.New("ratelimit: too many requests")

type window struct {
	Start time.Time `json:"window_start"`
	Count int       `json:"count"`
}

// Limiter allows max requests per key in each fixed window.
type Limiter struct {
	store  storage.Storage
	window time.Duration
	max    int
	now    func() time.Time
}

// New returns a Limiter over store.
func New(store storage.Storage, win time.Duration, max int) *Limiter {
	return &Limiter{store: store, window: win, max: max, now: time.Now}
}

func objectKey(id string) string {
	sum := blake2b.Sum256([]byte(id))
	return "ratelimit/" + hex.EncodeToString(sum[:16]) + ".json"
}

// Allow counts one request for id. It returns ErrLimited when the window is
// exhausted and the remaining allowance otherwise. Storage failures let the
// request through along with the error.
func (l *Limiter) Allow(ctx context.Context, id string) (int, error) {
	key := objectKey(id)
	now := l.now()

	w, err := l.load(ctx, key)
	if err != nil {
		return l.max, err
	}
	if w.Start.IsZero() || now.Sub(w.Start) >= l.window || now.Before(w.Start) {
		w = window{Start: now}
	}
	if w.Count >= l.max {
		return 0, ErrLimited
	}
	w.Count++

	data, err := json.Marshal(w)
	if err != nil {
		return l.max - w.Count, eris.Wrap(err, "ratelimit: encode window")
	}
	if err := l.store.Put(ctx, key, bytes.NewReader(data)); err != nil {
		return l.max - w.Count, eris.Wrap(err, "ratelimit: store window")
	}
	return l.max - w.Count, nil
}

func (l *Limiter) load(ctx context.Context, key string) (window, error) {
	rc, err := l.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return window{}, nil
		}
		return window{}, eris.Wrap(err, "ratelimit: read window")
	}
	defer rc.Close()

	var w window
	if err := json.NewDecoder(rc).Decode(&w); err != nil {
		// A damaged counter starts a fresh window.
		return window{}, nil
	}
	return w, nil
}
