package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/turfease/platform/internal/domain"
	"github.com/turfease/platform/internal/guard"
	"github.com/wneessen/go-mail"
)

const circuitKey = "smtp"

// SMTPConfig holds the mail relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPMailer renders HTML emails and sends them through an SMTP relay.
type SMTPMailer struct {
	cfg     SMTPConfig
	breaker *guard.CircuitBreaker
	logger  *slog.Logger
	send    func(ctx context.Context, msg *mail.Msg) error
}

// NewSMTPMailer creates an SMTPMailer. Consecutive relay failures open the
// breaker so later sends fail fast.
func NewSMTPMailer(cfg SMTPConfig, breaker *guard.CircuitBreaker, logger *slog.Logger) *SMTPMailer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	m := &SMTPMailer{cfg: cfg, breaker: breaker, logger: logger}
	m.send = m.deliver
	return m
}

var _ Notifier = (*SMTPMailer)(nil)

// SendVerificationCode mails a registration or reissued code.
func (m *SMTPMailer) SendVerificationCode(ctx context.Context, msg CodeMessage) error {
	subject := "TurfEase - Email Verification OTP"
	if msg.Reissue {
		subject = "TurfEase - New Verification OTP"
	}
	return m.render(ctx, msg.Email, subject, "code", map[string]interface{}{
		"Name":    msg.Name,
		"Code":    msg.Code,
		"Reissue": msg.Reissue,
		"Minutes": int(msg.ExpiresIn.Minutes()),
	})
}

// SendApprovalDecision mails the owner approval outcome.
func (m *SMTPMailer) SendApprovalDecision(ctx context.Context, msg DecisionMessage) error {
	subject, tmpl := "TurfEase - Account Approved! Welcome to TurfEase", "approved"
	if msg.Decision == domain.ApprovalRejected {
		subject, tmpl = "TurfEase - Account Application Update", "rejected"
	}
	return m.render(ctx, msg.Email, subject, tmpl, msg)
}

// SendPasswordReset mails a reset link.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, msg ResetMessage) error {
	return m.render(ctx, msg.Email, "TurfEase - Password Reset", "reset", map[string]interface{}{
		"Name":    msg.Name,
		"Link":    msg.Link,
		"Minutes": int(msg.ExpiresIn.Minutes()),
	})
}

func (m *SMTPMailer) render(ctx context.Context, to, subject, name string, data interface{}) error {
	msg, err := m.compose(to, subject, name, data)
	if err != nil {
		return fmt.Errorf("render %s email: %w", name, err)
	}

	err = m.breaker.Call(ctx, circuitKey, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
		defer cancel()
		return m.send(ctx, msg)
	})
	if err != nil {
		m.logger.ErrorContext(ctx, "email send failed", "template", name, "to", to, "error", err)
		return fmt.Errorf("send %s email: %w", name, err)
	}
	m.logger.InfoContext(ctx, "email sent", "template", name, "to", to)
	return nil
}

func (m *SMTPMailer) compose(to, subject, name string, data interface{}) (*mail.Msg, error) {
	tpl, ok := templates[name]
	if !ok {
		return nil, fmt.Errorf("unknown template %q", name)
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	msg.Subject(subject)
	msg.SetDate()
	msg.SetMessageID()
	if err := msg.SetBodyHTMLTemplate(tpl.Lookup("layout"), data); err != nil {
		return nil, err
	}
	return msg, nil
}

// deliver dials the relay and sends msg within ctx.
func (m *SMTPMailer) deliver(ctx context.Context, msg *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTimeout(m.cfg.Timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
