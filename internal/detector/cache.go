package detector

import (
	"fmt"

	"CrossSentinel/internal/model"
)

// Cache suppresses repeat alerts for the same (symbol, timeframe, indicator)
// within one run. Created fresh per run, never persisted. The run is
// single-threaded, so no locking.
type Cache struct {
	seen map[string]struct{}
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{seen: make(map[string]struct{})}
}

// Key builds the composite dedup identity, e.g. "NSE:SBIN-EQ_15_SMA20".
func Key(symbol string, timeframe int, spec model.IndicatorSpec) string {
	return fmt.Sprintf("%s_%d_%s", symbol, timeframe, spec.Label())
}

// Contains reports whether the key has already fired this run.
func (c *Cache) Contains(key string) bool {
	_, ok := c.seen[key]
	return ok
}

// Insert marks the key as fired.
func (c *Cache) Insert(key string) {
	c.seen[key] = struct{}{}
}

// Len returns the number of keys recorded this run.
func (c *Cache) Len() int {
	return len(c.seen)
}
