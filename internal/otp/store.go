// Package otp holds pending email verification codes keyed by account id.
package otp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/turfease/platform/internal/domain"
)

// Entry is one live verification code and a snapshot of its owner.
type Entry struct {
	Code      string      `json:"code"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      domain.Role `json:"role"`
	IssuedAt  time.Time   `json:"issuedAt"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// NewEntry builds an entry for account a valid for ttl from now.
func NewEntry(a *domain.Account, code string, now time.Time, ttl time.Duration) Entry {
	return Entry{
		Code:      code,
		Email:     a.Email,
		Name:      a.DisplayName(),
		Role:      a.Role,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

// Expired reports whether the entry has lapsed at now.
func (e Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// TTL is the lifetime the entry was issued with.
func (e Entry) TTL() time.Duration {
	return e.ExpiresAt.Sub(e.IssuedAt)
}

// Store keeps at most one live entry per account id. Each method is atomic
// for its key.
type Store interface {
	// Put stores e for accountID, replacing any previous entry.
	Put(ctx context.Context, accountID uuid.UUID, e Entry) error

	// Get returns the entry for accountID, or nil if there is none.
	Get(ctx context.Context, accountID uuid.UUID) (*Entry, error)

	// Delete removes the entry for accountID if present.
	Delete(ctx context.Context, accountID uuid.UUID) error

	// DeleteIfCode removes the entry only if it still holds code. It reports
	// whether an entry was removed.
	DeleteIfCode(ctx context.Context, accountID uuid.UUID, code string) (bool, error)
}
