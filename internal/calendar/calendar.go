// Package calendar exposes the next upcoming event so focus dispatch can
// size recommendations to the time available.
package calendar

import (
	"context"
	"sync"
	"time"
)

// Event is an upcoming calendar entry.
type Event struct {
	Title     string
	StartTime time.Time
}

// MinutesUntilStart returns whole minutes from now until the event starts.
// Events already started report 0.
func (e *Event) MinutesUntilStart(now time.Time) int {
	d := e.StartTime.Sub(now)
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}

// Provider fetches the next upcoming event. A nil event with nil error
// means a free calendar.
type Provider interface {
	NextEvent(ctx context.Context) (*Event, error)
}

// Cache wraps a Provider with a TTL so repeated focus calls within a
// session don't refetch. A nil provider always reports a free calendar.
type Cache struct {
	provider Provider
	ttl      time.Duration
	now      func() time.Time

	mu        sync.Mutex
	cached    *Event
	fetchedAt time.Time
}

func NewCache(provider Provider, ttl time.Duration) *Cache {
	return &Cache{provider: provider, ttl: ttl, now: time.Now}
}

// NextEvent returns the cached event, refetching once the TTL lapses.
func (c *Cache) NextEvent(ctx context.Context) (*Event, error) {
	if c == nil || c.provider == nil {
		return nil, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if !c.fetchedAt.IsZero() && now.Sub(c.fetchedAt) < c.ttl {
		return c.cached, nil
	}
	ev, err := c.provider.NextEvent(ctx)
	if err != nil {
		return nil, err
	}
	c.cached = ev
	c.fetchedAt = now
	return ev, nil
}

// Now returns the cache's clock reading. Callers that compute window
// sizes from a cached event use this so tests can pin time.
func (c *Cache) Now() time.Time {
	if c == nil || c.now == nil {
		return time.Now()
	}
	return c.now()
}

// Invalidate drops the cached event so the next call refetches.
func (c *Cache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached = nil
	c.fetchedAt = time.Time{}
}
