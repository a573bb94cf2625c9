// Package clock supplies the current time as Unix seconds.
package clock

import (
	"sync"
	"time"
)

// Clock reports the current time in seconds since the Unix epoch.
type Clock interface {
	Now() int64
}

// System reads the wall clock.
type System struct{}

// Now implements Clock.
func (System) Now() int64 { return time.Now().Unix() }

// Manual is a settable clock for tests and replay.
type Manual struct {
	mu  sync.Mutex
	now int64
}

// NewManual returns a Manual clock set to now.
func NewManual(now int64) *Manual {
	return &Manual{now: now}
}

// Now implements Clock.
func (m *Manual) Now() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the clock to now.
func (m *Manual) Set(now int64) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

// Advance moves the clock forward by d seconds.
func (m *Manual) Advance(d int64) {
	m.mu.Lock()
	m.now += d
	m.mu.Unlock()
}
