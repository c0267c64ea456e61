package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/turfease/platform/internal/notify"
)

// ErrDelivery is returned by a failing MockNotifier.
var ErrDelivery = errors.New("mock delivery failure")

// MockNotifier records sent messages and can be told to fail.
type MockNotifier struct {
	mu        sync.Mutex
	Codes     []notify.CodeMessage
	Decisions []notify.DecisionMessage
	Resets    []notify.ResetMessage

	FailCodes     bool
	FailDecisions bool
	FailResets    bool
}

var _ notify.Notifier = (*MockNotifier)(nil)

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (n *MockNotifier) SendVerificationCode(_ context.Context, msg notify.CodeMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.FailCodes {
		return ErrDelivery
	}
	n.Codes = append(n.Codes, msg)
	return nil
}

func (n *MockNotifier) SendApprovalDecision(_ context.Context, msg notify.DecisionMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.FailDecisions {
		return ErrDelivery
	}
	n.Decisions = append(n.Decisions, msg)
	return nil
}

func (n *MockNotifier) SendPasswordReset(_ context.Context, msg notify.ResetMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.FailResets {
		return ErrDelivery
	}
	n.Resets = append(n.Resets, msg)
	return nil
}

// SetFailCodes toggles verification code delivery failures.
func (n *MockNotifier) SetFailCodes(fail bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.FailCodes = fail
}

// LastCode returns the most recently delivered code message.
func (n *MockNotifier) LastCode() (notify.CodeMessage, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.Codes) == 0 {
		return notify.CodeMessage{}, false
	}
	return n.Codes[len(n.Codes)-1], true
}

// DecisionCount returns the number of decision messages delivered.
func (n *MockNotifier) DecisionCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Decisions)
}
