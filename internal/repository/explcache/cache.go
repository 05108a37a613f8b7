// Package explcache caches generated explanations in a key-value store, so
// repeated recommendation pages for the same user do not re-bill the LLM.
package explcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/IlyadI/rec-sys-project-retail/internal/db"
	"github.com/IlyadI/rec-sys-project-retail/internal/domain"
)

// store is the consumer interface for the explanation cache.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache is a read-through explanation cache. An explanation is keyed by the
// user's purchase digest plus the recommended product, so clearing a history
// naturally changes the key.
type Cache struct {
	store      store
	prefix     string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a cache. cacheTotal is a counter vec with label "result"
// ("hit"/"miss"), passed explicitly so tests can run without registration.
func New(
	s store,
	prefix string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Cache {
	return &Cache{store: s, prefix: prefix, ttl: ttl, cacheTotal: cacheTotal, logger: logger}
}

// Get returns a cached explanation for the request, if present.
func (c *Cache) Get(ctx context.Context, req domain.ExplanationRequest) (string, bool) {
	data, err := c.store.Get(ctx, c.key(req))
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to read cached explanation", zap.Error(err))
		}
		c.incCache("miss")
		return "", false
	}
	c.incCache("hit")
	return string(data), true
}

// Set stores an explanation. Write failures are logged and swallowed; the
// cache is an optimization, never a failure source.
func (c *Cache) Set(ctx context.Context, req domain.ExplanationRequest, explanation string) {
	if err := c.store.SetWithTTL(ctx, c.key(req), []byte(explanation), c.ttl); err != nil {
		c.logger.Warn("Failed to cache explanation", zap.Error(err))
	}
}

func (c *Cache) key(req domain.ExplanationRequest) string {
	h := sha256.New()
	h.Write([]byte(strings.Join(req.BoughtDescriptions, "\x00")))
	h.Write([]byte{0})
	h.Write([]byte(req.ProductID))
	return c.prefix + "expl_cache:" + hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}
