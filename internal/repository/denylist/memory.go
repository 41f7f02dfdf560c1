package denylist

import (
	"context"
	"sync"
	"time"

	"github.com/patryk-bejcer/photobook/internal/repository"
)

type memoryDenylist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	done    chan struct{}
	once    sync.Once
}

// NewMemory constructs an in-process token denylist. Revocations are lost on
// restart, which is acceptable for development and single-node setups with
// short token TTLs.
func NewMemory() repository.TokenDenylist {
	d := &memoryDenylist{
		entries: make(map[string]time.Time),
		done:    make(chan struct{}),
	}
	go d.janitor()
	return d
}

func (d *memoryDenylist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[jti] = time.Now().Add(ttl)
	return nil
}

func (d *memoryDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	expiry, ok := d.entries[jti]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		delete(d.entries, jti)
		return false, nil
	}
	return true, nil
}

func (d *memoryDenylist) Close() {
	d.once.Do(func() { close(d.done) })
}

func (d *memoryDenylist) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-d.done:
			return
		case now := <-ticker.C:
			d.mu.Lock()
			for jti, expiry := range d.entries {
				if now.After(expiry) {
					delete(d.entries, jti)
				}
			}
			d.mu.Unlock()
		}
	}
}
