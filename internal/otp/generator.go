package otp

import (
	"time"

	"github.com/turfease/platform/internal/dependencies/random"
	"github.com/turfease/platform/internal/domain"
)

// Generator issues fixed-width numeric codes with an absolute expiry.
type Generator struct {
	rnd    random.Random
	length int
	ttl    time.Duration
}

// NewGenerator creates a Generator producing length-digit codes valid for ttl.
func NewGenerator(rnd random.Random, length int, ttl time.Duration) *Generator {
	return &Generator{rnd: rnd, length: length, ttl: ttl}
}

// Length is the number of digits in every code.
func (g *Generator) Length() int { return g.length }

// New builds a fresh entry for the account issued at now.
func (g *Generator) New(a *domain.Account, now time.Time) Entry {
	return NewEntry(a, g.rnd.Digits(g.length), now, g.ttl)
}
