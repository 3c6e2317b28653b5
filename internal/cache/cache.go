// # internal/cache/cache.go
package cache

import (
	"context"
	"log/slog"
	"time"

	"didact/internal/core/errors"
	"didact/internal/shared/observability"
)

// Entry is the unit both tiers and callers trade in. Value is an opaque
// blob; the cache never interprets it.
type Entry struct {
	Value    []byte
	CachedAt time.Time
	TTL      time.Duration
}

// Expired reports lazy TTL expiry at time now. TTL <= 0 means no expiry.
func (e Entry) Expired(now time.Time) bool {
	if e.TTL <= 0 {
		return false
	}
	return now.After(e.CachedAt.Add(e.TTL))
}

// Tier is a single cache level. Get returns (nil, nil) on a clean miss;
// errors signal the tier itself is unhealthy.
type Tier interface {
	Name() string
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, key string, entry Entry) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Manager probes tiers fastest-first on Get and writes all tiers on Put.
// A failing tier degrades the cache, never the analysis: its errors are
// logged and the remaining tiers keep serving.
type Manager struct {
	tiers []Tier
	ttl   time.Duration
	now   func() time.Time
}

// NewManager orders tiers fastest-first. Nil tiers are skipped so callers
// can pass optional tiers unconditionally.
func NewManager(ttl time.Duration, tiers ...Tier) *Manager {
	m := &Manager{ttl: ttl, now: time.Now}
	for _, t := range tiers {
		if t != nil {
			m.tiers = append(m.tiers, t)
		}
	}
	return m
}

// Get probes tiers in order. A hit in a slower tier is promoted into every
// faster tier before returning. Expired entries are deleted where found and
// treated as misses.
func (m *Manager) Get(ctx context.Context, key string) ([]byte, bool) {
	now := m.now()
	for i, tier := range m.tiers {
		entry, err := tier.Get(ctx, key)
		if err != nil {
			m.tierDegraded(tier, "get", err)
			continue
		}
		if entry == nil {
			observability.CacheRequestsTotal.WithLabelValues(tier.Name(), "miss").Inc()
			continue
		}
		if entry.Expired(now) {
			observability.CacheRequestsTotal.WithLabelValues(tier.Name(), "expired").Inc()
			if err := tier.Delete(ctx, key); err != nil {
				m.tierDegraded(tier, "delete", err)
			}
			continue
		}

		observability.CacheRequestsTotal.WithLabelValues(tier.Name(), "hit").Inc()
		slog.Debug("cache hit", "key", key, "tier", tier.Name())
		for j := 0; j < i; j++ {
			if err := m.tiers[j].Put(ctx, key, *entry); err != nil {
				m.tierDegraded(m.tiers[j], "promote", err)
			}
		}
		return entry.Value, true
	}
	return nil, false
}

// Put writes the value to every tier. Content-hash keys make concurrent
// writers idempotent, so last-write-wins per tier is safe.
func (m *Manager) Put(ctx context.Context, key string, value []byte) {
	entry := Entry{
		Value:    value,
		CachedAt: m.now(),
		TTL:      m.ttl,
	}
	for _, tier := range m.tiers {
		if err := tier.Put(ctx, key, entry); err != nil {
			m.tierDegraded(tier, "put", err)
		}
	}
}

func (m *Manager) Delete(ctx context.Context, key string) {
	for _, tier := range m.tiers {
		if err := tier.Delete(ctx, key); err != nil {
			m.tierDegraded(tier, "delete", err)
		}
	}
}

func (m *Manager) Close() error {
	var first error
	for _, tier := range m.tiers {
		if err := tier.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m *Manager) tierDegraded(tier Tier, op string, err error) {
	observability.CacheRequestsTotal.WithLabelValues(tier.Name(), "error").Inc()
	wrapped := errors.Wrap(err, errors.CodeCacheUnavailable, "cache tier degraded")
	wrapped = errors.AddContext(wrapped, errors.CtxTier, tier.Name())
	wrapped = errors.AddContext(wrapped, errors.CtxOperation, op)
	slog.Warn("cache tier degraded", "tier", tier.Name(), "op", op, "error", wrapped)
}
