// Package dedup drops repeated deliveries of the same payload within a time window,
// as happens with MQTT QoS 1 redelivery.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

type Deduper struct {
	mu   sync.Mutex
	ttl  time.Duration
	max  int
	seen map[string]time.Time
	now  func() time.Time
}

func New(ttl time.Duration, max int) *Deduper {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if max <= 0 {
		max = 10000
	}
	return &Deduper{ttl: ttl, max: max, seen: make(map[string]time.Time), now: time.Now}
}

// Key hashes a payload into a dedup key.
func Key(payload []byte) string {
	h := sha256.Sum256(payload)
	return hex.EncodeToString(h[:])
}

// ShouldProcess returns false if id was already seen within the ttl. Empty ids always pass.
func (d *Deduper) ShouldProcess(id string) bool {
	if id == "" {
		return true
	}
	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()
	if exp, ok := d.seen[id]; ok && now.Before(exp) {
		return false
	}
	d.seen[id] = now.Add(d.ttl)
	if len(d.seen) > d.max {
		d.evict(now)
	}
	return true
}

// ShouldProcessPayload is ShouldProcess keyed by the payload hash.
func (d *Deduper) ShouldProcessPayload(payload []byte) bool {
	return d.ShouldProcess(Key(payload))
}

// Len returns the number of tracked ids, expired ones included.
func (d *Deduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// evict drops expired ids; if still over capacity, the ones closest to expiry go first.
func (d *Deduper) evict(now time.Time) {
	var oldest string
	var oldestExp time.Time
	for k, exp := range d.seen {
		if !now.Before(exp) {
			delete(d.seen, k)
			continue
		}
		if oldest == "" || exp.Before(oldestExp) {
			oldest, oldestExp = k, exp
		}
	}
	if len(d.seen) > d.max && oldest != "" {
		delete(d.seen, oldest)
	}
}
