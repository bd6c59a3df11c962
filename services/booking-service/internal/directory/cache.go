package directory

import (
	"sync"
	"time"

	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
)

type cacheEntry struct {
	doctor  model.Doctor
	expires time.Time
}

type cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[int64]cacheEntry
}

func newCache(ttl time.Duration, now func() time.Time) *cache {
	return &cache{ttl: ttl, now: now, entries: make(map[int64]cacheEntry)}
}

func (c *cache) get(id int64) (model.Doctor, bool) {
	if c.ttl <= 0 {
		return model.Doctor{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok || c.now().After(e.expires) {
		delete(c.entries, id)
		return model.Doctor{}, false
	}
	return e.doctor, true
}

func (c *cache) put(d model.Doctor) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[d.ID] = cacheEntry{doctor: d, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}
