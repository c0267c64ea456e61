package guard

import (
	"sync"
	"time"

	"github.com/turfease/platform/internal/dependencies/clock"
	"github.com/turfease/platform/internal/domain"
)

const (
	MaxAttempts   = 5
	LockoutWindow = 15 * time.Minute
)

// Lockout counts failed logins per identifier and locks the identifier once
// MaxAttempts failures fall inside LockoutWindow.
type Lockout struct {
	mu       sync.Mutex
	failures map[string][]time.Time
	clock    clock.Clock
}

// NewLockout creates an empty Lockout.
func NewLockout(c clock.Clock) *Lockout {
	return &Lockout{failures: make(map[string][]time.Time), clock: c}
}

// RecordFailure stores one failed attempt for key.
func (l *Lockout) RecordFailure(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[key] = append(l.recent(key), l.clock.Now())
}

// Reset clears the failures for key after a successful login.
func (l *Lockout) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, key)
}

// CheckLocked returns ErrAccountLocked if key has too many recent failures.
func (l *Lockout) CheckLocked(key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	recent := l.recent(key)
	if len(recent) == 0 {
		delete(l.failures, key)
	} else {
		l.failures[key] = recent
	}
	if len(recent) >= MaxAttempts {
		return domain.ErrAccountLocked("too many failed login attempts, try again later")
	}
	return nil
}

// recent drops failures older than the window. Callers hold mu.
func (l *Lockout) recent(key string) []time.Time {
	cutoff := l.clock.Now().Add(-LockoutWindow)
	entries := l.failures[key]
	valid := entries[:0]
	for _, t := range entries {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	return valid
}
