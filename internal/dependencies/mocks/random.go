package mocks

import (
	"fmt"
	"strings"
	"sync"

	"github.com/turfease/platform/internal/dependencies/random"
)

// MockRandom returns queued codes in order, then a fixed fallback.
type MockRandom struct {
	mu       sync.Mutex
	codes    []string
	Fallback string
	tokens   int
}

var _ random.Random = (*MockRandom)(nil)

// NewMockRandom queues the given digit strings.
func NewMockRandom(codes ...string) *MockRandom {
	return &MockRandom{codes: codes, Fallback: "000000"}
}

// Digits pops the next queued code, padded or truncated to n.
func (r *MockRandom) Digits(n int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	code := r.Fallback
	if len(r.codes) > 0 {
		code, r.codes = r.codes[0], r.codes[1:]
	}
	if len(code) < n {
		code = strings.Repeat("0", n-len(code)) + code
	}
	return code[:n]
}

// Token returns a deterministic, unique hex token.
func (r *MockRandom) Token(n int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens++
	return fmt.Sprintf("%0*x", n*2, r.tokens), nil
}

// Push queues more codes.
func (r *MockRandom) Push(codes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = append(r.codes, codes...)
}
