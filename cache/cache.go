// Package cache stores finished answers so a repeated question does not hit
// the providers again.
package cache

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"parentguide-backend/metrics"
	"parentguide-backend/models"
	"parentguide-backend/storage"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

const keyPrefix = "cache/"

type entry struct {
	ExpiresAt time.Time        `json:"expires_at"`
	Envelope  *models.Envelope `json:"envelope"`
}

// ResponseCache keeps envelopes in a Storage for a fixed TTL.
type ResponseCache struct {
	store storage.Storage
	ttl   time.Duration
	now   func() time.Time
}

// New returns a cache over store.
func New(store storage.Storage, ttl time.Duration) *ResponseCache {
	return &ResponseCache{store: store, ttl: ttl, now: time.Now}
}

// Key derives the cache key for a question. Questions differing only in case
// or surrounding whitespace share a key.
func Key(question, lang, location string, urgency models.Urgency) string {
	h, _ := blake2b.New256(nil)
	for _, part := range []string{question, lang, location, string(urgency)} {
		h.Write([]byte(strings.ToLower(strings.TrimSpace(part))))
		h.Write([]byte{0})
	}
	sum := hex.EncodeToString(h.Sum(nil))
	return keyPrefix + sum[:2] + "/" + sum + ".json"
}

// Get returns the cached envelope for key. Expired and unreadable entries are
// misses; expired ones are deleted.
func (c *ResponseCache) Get(ctx context.Context, key string) (*models.Envelope, bool) {
	rc, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			metrics.RecordCacheLookup("miss")
		} else {
			metrics.RecordCacheLookup("error")
			zap.L().Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	defer rc.Close()

	var e entry
	if err := json.NewDecoder(rc).Decode(&e); err != nil || e.Envelope == nil {
		metrics.RecordCacheLookup("error")
		zap.L().Warn("cache entry unreadable", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	if !c.now().Before(e.ExpiresAt) {
		metrics.RecordCacheLookup("miss")
		if err := c.store.Delete(ctx, key); err != nil {
			zap.L().Debug("expired cache entry not deleted", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	metrics.RecordCacheLookup("hit")
	return e.Envelope, true
}

// Set stores env under key.
func (c *ResponseCache) Set(ctx context.Context, key string, env *models.Envelope) error {
	data, err := json.Marshal(entry{ExpiresAt: c.now().Add(c.ttl), Envelope: env})
	if err != nil {
		return eris.Wrap(err, "cache: encode entry")
	}
	if err := c.store.Put(ctx, key, bytes.NewReader(data)); err != nil {
		return eris.Wrap(err, "cache: store entry")
	}
	return nil
}
