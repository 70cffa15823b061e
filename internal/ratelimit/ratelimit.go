// Package ratelimit caps externally-backed responses per user per calendar
// day. Counters are keyed by identity with an embedded day stamp that is
// reset on access, so memory stays bounded to active identities.
package ratelimit

import (
	"sync"
	"time"
)

const DefaultDailyLimit = 20

type dayCounter struct {
	day   string
	count int
}

type Limiter struct {
	mu       sync.Mutex
	limit    int
	counters map[int64]dayCounter
	now      func() time.Time
}

func New(limit int) *Limiter {
	if limit < 1 {
		limit = DefaultDailyLimit
	}
	return &Limiter{
		limit:    limit,
		counters: make(map[int64]dayCounter),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Allow increments the caller's counter for today and reports whether the
// post-increment count is still within the daily ceiling. The increment
// happens even when the verdict is a denial.
func (l *Limiter) Allow(identity int64) bool {
	today := l.now().Format("2006-01-02")

	l.mu.Lock()
	defer l.mu.Unlock()
	counter := l.counters[identity]
	if counter.day != today {
		counter = dayCounter{day: today}
	}
	counter.count++
	l.counters[identity] = counter
	return counter.count <= l.limit
}

// Remaining reports how many externally-backed requests the identity has
// left today.
func (l *Limiter) Remaining(identity int64) int {
	today := l.now().Format("2006-01-02")

	l.mu.Lock()
	defer l.mu.Unlock()
	counter := l.counters[identity]
	if counter.day != today {
		return l.limit
	}
	remaining := l.limit - counter.count
	if remaining < 0 {
		return 0
	}
	return remaining
}
