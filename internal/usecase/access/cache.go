package access

import (
	"sync"
	"time"

	"github.com/arkwith7/abekm/internal/domain/container"
)

type cacheEntry struct {
	container container.Container
	expires   time.Time
}

// Cache holds container metadata for a fixed TTL. Entries expire lazily on read.
// Readers never block each other; concurrent refreshes of one id are last-writer-wins.
type Cache struct {
	entries sync.Map // id -> cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a container metadata cache.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, now: time.Now}
}

// Get returns a live entry.
func (c *Cache) Get(id string) (container.Container, bool) {
	v, ok := c.entries.Load(id)
	if !ok {
		return container.Container{}, false
	}
	e, _ := v.(cacheEntry)
	if !c.now().Before(e.expires) {
		c.entries.CompareAndDelete(id, v)
		return container.Container{}, false
	}
	return e.container, true
}

// Put stores a container until now+TTL.
func (c *Cache) Put(ct container.Container) {
	c.entries.Store(ct.ID(), cacheEntry{container: ct, expires: c.now().Add(c.ttl)})
}
