package cache

import (
	"sync"
	"time"
)

// Decision is one cached gating verdict for an (organization, feature) pair.
type Decision struct {
	Allowed      bool
	Reason       string
	CurrentUsage int64
	Limit        int64
	Remaining    int64
	PlanName     string
	CachedAt     time.Time
}

// DecisionCache is a process-local TTL cache for gating decisions. Gating
// runs on every request, so decisions are served from process memory;
// cross-instance staleness is bounded by the TTL, and local invalidation on
// usage writes keeps the common path exact. A per-organization stats report
// rides along under the same TTL and invalidation rules.
type DecisionCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]decisionEntry
	stats   map[string]statsEntry
}

type decisionEntry struct {
	decision  Decision
	expiresAt time.Time
}

type statsEntry struct {
	// value is opaque to the cache; the caller owns the type.
	value     any
	expiresAt time.Time
}

const defaultDecisionTTL = 5 * time.Minute

// NewDecisionCache creates a decision cache with the given TTL. A
// non-positive TTL falls back to the default.
func NewDecisionCache(ttl time.Duration) *DecisionCache {
	if ttl <= 0 {
		ttl = defaultDecisionTTL
	}
	return &DecisionCache{
		ttl:     ttl,
		entries: make(map[string]decisionEntry),
		stats:   make(map[string]statsEntry),
	}
}

func decisionKey(orgSID, feature string) string {
	return orgSID + ":" + feature
}

// Get returns the cached decision and whether a live entry was found.
func (c *DecisionCache) Get(orgSID, feature string) (Decision, bool) {
	c.mu.RLock()
	entry, ok := c.entries[decisionKey(orgSID, feature)]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return Decision{}, false
	}
	return entry.decision, true
}

// Set stores a decision under the configured TTL.
func (c *DecisionCache) Set(orgSID, feature string, d Decision) {
	d.CachedAt = time.Now()

	c.mu.Lock()
	c.entries[decisionKey(orgSID, feature)] = decisionEntry{
		decision:  d,
		expiresAt: d.CachedAt.Add(c.ttl),
	}
	c.mu.Unlock()
}

// GetStats returns the organization's cached stats report, if live.
func (c *DecisionCache) GetStats(orgSID string) (any, bool) {
	c.mu.RLock()
	entry, ok := c.stats[orgSID]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

// SetStats stores the organization's stats report under the configured TTL.
func (c *DecisionCache) SetStats(orgSID string, v any) {
	c.mu.Lock()
	c.stats[orgSID] = statsEntry{
		value:     v,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// Invalidate drops the entry for one (organization, feature) pair, along
// with the organization's stats report: any usage write stales both.
func (c *DecisionCache) Invalidate(orgSID, feature string) {
	c.mu.Lock()
	delete(c.entries, decisionKey(orgSID, feature))
	delete(c.stats, orgSID)
	c.mu.Unlock()
}

// InvalidateOrg drops every entry belonging to the organization. Used on
// plan changes, where all features may gate differently afterwards.
func (c *DecisionCache) InvalidateOrg(orgSID string) {
	prefix := orgSID + ":"

	c.mu.Lock()
	for key := range c.entries {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			delete(c.entries, key)
		}
	}
	delete(c.stats, orgSID)
	c.mu.Unlock()
}

// Clear drops every entry. Used when plan limits change, which can affect
// any organization on the plan.
func (c *DecisionCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]decisionEntry)
	c.stats = make(map[string]statsEntry)
	c.mu.Unlock()
}

// Purge removes expired entries. Called periodically from the scheduler so
// abandoned organizations do not pin memory.
func (c *DecisionCache) Purge() int {
	now := time.Now()
	removed := 0

	c.mu.Lock()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	for key, entry := range c.stats {
		if now.After(entry.expiresAt) {
			delete(c.stats, key)
			removed++
		}
	}
	c.mu.Unlock()

	return removed
}

// Len reports the number of entries, live or expired.
func (c *DecisionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
