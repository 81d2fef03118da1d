package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDecisionCache_SetGet(t *testing.T) {
	c := NewDecisionCache(time.Minute)

	_, ok := c.Get("org_a", "api_calls")
	assert.False(t, ok)

	c.Set("org_a", "api_calls", Decision{Allowed: true, CurrentUsage: 10, Limit: 100})

	d, ok := c.Get("org_a", "api_calls")
	assert.True(t, ok)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(10), d.CurrentUsage)
	assert.Equal(t, int64(100), d.Limit)
	assert.False(t, d.CachedAt.IsZero())
}

func TestDecisionCache_Expiry(t *testing.T) {
	c := NewDecisionCache(10 * time.Millisecond)

	c.Set("org_a", "api_calls", Decision{Allowed: true})
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("org_a", "api_calls")
	assert.False(t, ok, "expired entry must not be served")
}

func TestDecisionCache_Invalidate(t *testing.T) {
	c := NewDecisionCache(time.Minute)

	c.Set("org_a", "api_calls", Decision{Allowed: true})
	c.Set("org_a", "exports", Decision{Allowed: false})
	c.Set("org_b", "api_calls", Decision{Allowed: true})

	c.Invalidate("org_a", "api_calls")
	_, ok := c.Get("org_a", "api_calls")
	assert.False(t, ok)
	_, ok = c.Get("org_a", "exports")
	assert.True(t, ok, "other features must survive single invalidation")

	c.InvalidateOrg("org_a")
	_, ok = c.Get("org_a", "exports")
	assert.False(t, ok)
	_, ok = c.Get("org_b", "api_calls")
	assert.True(t, ok, "other organizations must survive org invalidation")
}

func TestDecisionCache_Stats(t *testing.T) {
	c := NewDecisionCache(time.Minute)

	_, ok := c.GetStats("org_a")
	assert.False(t, ok)

	type report struct{ Used int64 }
	c.SetStats("org_a", &report{Used: 25})
	c.SetStats("org_b", &report{Used: 7})

	v, ok := c.GetStats("org_a")
	assert.True(t, ok)
	assert.Equal(t, int64(25), v.(*report).Used)

	// Any invalidation touching the organization drops its report.
	c.Invalidate("org_a", "api_calls")
	_, ok = c.GetStats("org_a")
	assert.False(t, ok)
	_, ok = c.GetStats("org_b")
	assert.True(t, ok)

	c.InvalidateOrg("org_b")
	_, ok = c.GetStats("org_b")
	assert.False(t, ok)

	c.SetStats("org_c", &report{})
	c.Clear()
	_, ok = c.GetStats("org_c")
	assert.False(t, ok)
}

func TestDecisionCache_Purge(t *testing.T) {
	c := NewDecisionCache(10 * time.Millisecond)

	c.Set("org_a", "api_calls", Decision{Allowed: true})
	c.Set("org_b", "api_calls", Decision{Allowed: true})
	time.Sleep(20 * time.Millisecond)
	c.Set("org_c", "api_calls", Decision{Allowed: true})

	removed := c.Purge()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.Len())
}
