package notify

import (
	"context"
	"log/slog"
)

// LogNotifier writes messages to the log instead of sending them.
// Used when no SMTP host is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

var _ Notifier = (*LogNotifier)(nil)

func (n *LogNotifier) SendVerificationCode(ctx context.Context, msg CodeMessage) error {
	n.logger.InfoContext(ctx, "verification code", "email", msg.Email, "code", msg.Code, "reissue", msg.Reissue)
	return nil
}

func (n *LogNotifier) SendApprovalDecision(ctx context.Context, msg DecisionMessage) error {
	n.logger.InfoContext(ctx, "approval decision", "email", msg.Email, "decision", msg.Decision, "notes", msg.Notes)
	return nil
}

func (n *LogNotifier) SendPasswordReset(ctx context.Context, msg ResetMessage) error {
	n.logger.InfoContext(ctx, "password reset link", "email", msg.Email, "link", msg.Link)
	return nil
}
