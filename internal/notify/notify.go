// Package notify delivers account emails: verification codes, approval
// decisions and password reset links.
package notify

import (
	"context"
	"time"

	"github.com/turfease/platform/internal/domain"
)

// CodeMessage carries a verification code to an account's mailbox.
type CodeMessage struct {
	Email     string
	Name      string
	Code      string
	Reissue   bool
	ExpiresIn time.Duration
}

// DecisionMessage tells an owner the outcome of their application.
type DecisionMessage struct {
	Email        string
	Name         string
	BusinessName string
	Decision     domain.ApprovalStatus
	Notes        string
}

// ResetMessage carries a password reset link.
type ResetMessage struct {
	Email     string
	Name      string
	Link      string
	ExpiresIn time.Duration
}

// Notifier sends account emails. Failures are returned as errors, never panics.
type Notifier interface {
	SendVerificationCode(ctx context.Context, msg CodeMessage) error
	SendApprovalDecision(ctx context.Context, msg DecisionMessage) error
	SendPasswordReset(ctx context.Context, msg ResetMessage) error
}
