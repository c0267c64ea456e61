package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/turfease/platform/internal/dependencies/clock"
	"github.com/turfease/platform/internal/domain"
	"github.com/turfease/platform/internal/guard"
	"github.com/turfease/platform/internal/notify"
	"github.com/turfease/platform/internal/otp"
	"github.com/turfease/platform/internal/repository"
)

// VerificationDeps wires a VerificationService.
type VerificationDeps struct {
	Accounts  repository.AccountRepository
	Codes     otp.Store
	Generator *otp.Generator
	Notifier  notify.Notifier
	Clock     clock.Clock
	Limiter   *guard.RateLimiter
	Outbox    repository.OutboxRepository
	Timeout   time.Duration
	Logger    *slog.Logger
}

// VerificationService runs the unverified -> verified email lifecycle.
type VerificationService struct {
	accounts repository.AccountRepository
	codes    otp.Store
	gen      *otp.Generator
	notifier notify.Notifier
	clock    clock.Clock
	limiter  *guard.RateLimiter
	events   eventRecorder
	timeout  time.Duration
	logger   *slog.Logger
}

// NewVerificationService creates a new VerificationService.
func NewVerificationService(d VerificationDeps) *VerificationService {
	if d.Timeout <= 0 {
		d.Timeout = DefaultExternalTimeout
	}
	return &VerificationService{
		accounts: d.Accounts,
		codes:    d.Codes,
		gen:      d.Generator,
		notifier: d.Notifier,
		clock:    d.Clock,
		limiter:  d.Limiter,
		events:   eventRecorder{outbox: d.Outbox, logger: d.Logger},
		timeout:  d.Timeout,
		logger:   d.Logger,
	}
}

// CodeLength is the width of issued codes.
func (s *VerificationService) CodeLength() int { return s.gen.Length() }

// Issue stores a fresh code for a just-created account and mails it. When
// delivery fails the account and its code are removed and DEPENDENCY_FAILURE
// is returned.
func (s *VerificationService) Issue(ctx context.Context, a *domain.Account) error {
	entry := s.gen.New(a, s.clock.Now())
	if err := s.codes.Put(ctx, a.ID, entry); err != nil {
		s.rollback(ctx, a.ID)
		return domain.ErrInternal("store verification code", err)
	}

	if err := s.send(ctx, entry, false); err != nil {
		s.rollback(ctx, a.ID)
		return domain.ErrDependency("failed to send verification email, please try again", err)
	}
	return nil
}

// Verify confirms code for accountID and marks the account verified.
func (s *VerificationService) Verify(ctx context.Context, accountID uuid.UUID, code string) (*domain.Account, error) {
	a, err := s.loadUnverified(ctx, accountID)
	if err != nil {
		return nil, err
	}

	entry, err := s.codes.Get(ctx, accountID)
	if err != nil {
		return nil, domain.ErrInternal("load verification code", err)
	}
	if entry == nil {
		return nil, domain.ErrNoPendingCode()
	}

	now := s.clock.Now()
	if entry.Expired(now) {
		if _, err := s.codes.DeleteIfCode(ctx, accountID, entry.Code); err != nil {
			s.logger.WarnContext(ctx, "purge expired code failed", "account_id", accountID, "error", err)
		}
		return nil, domain.ErrOTPExpired()
	}
	if entry.Code != code {
		return nil, domain.ErrOTPMismatch()
	}

	a.MarkVerified(now)
	if err := s.accounts.MarkVerified(ctx, accountID, now); err != nil {
		return nil, storeErr("mark account verified", err)
	}
	if _, err := s.codes.DeleteIfCode(ctx, accountID, code); err != nil {
		s.logger.WarnContext(ctx, "purge used code failed", "account_id", accountID, "error", err)
	}

	s.events.record(ctx, domain.NewAccountEvent(a, domain.EventAccountVerified, now))
	s.logger.InfoContext(ctx, "email verified", "account_id", accountID, "role", a.Role)
	return a, nil
}

// Reissue replaces any pending code for accountID with a new one and mails
// it. The new code stays valid even if delivery fails.
func (s *VerificationService) Reissue(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	a, err := s.loadUnverified(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if s.limiter != nil {
		if res := s.limiter.Check(ctx, "reissue:"+accountID.String()); !res.Allowed {
			return nil, domain.ErrRateLimited("too many code requests, please wait before trying again")
		}
	}

	entry := s.gen.New(a, s.clock.Now())
	if err := s.codes.Put(ctx, accountID, entry); err != nil {
		return nil, domain.ErrInternal("store verification code", err)
	}
	if err := s.send(ctx, entry, true); err != nil {
		return nil, domain.ErrDependency("failed to send new code, please try again", err)
	}
	return a, nil
}

func (s *VerificationService) loadUnverified(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	a, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, domain.ErrInternal("find account", err)
	}
	if a == nil {
		return nil, domain.ErrNotFound("account", accountID.String())
	}
	if a.EmailVerified {
		return nil, domain.ErrAlreadyVerified()
	}
	return a, nil
}

func (s *VerificationService) send(ctx context.Context, e otp.Entry, reissue bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.notifier.SendVerificationCode(ctx, notify.CodeMessage{
		Email:     e.Email,
		Name:      e.Name,
		Code:      e.Code,
		Reissue:   reissue,
		ExpiresIn: e.TTL(),
	})
}

func (s *VerificationService) rollback(ctx context.Context, accountID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	if err := s.codes.Delete(ctx, accountID); err != nil {
		s.logger.ErrorContext(ctx, "rollback code failed", "account_id", accountID, "error", err)
	}
	if err := s.accounts.Delete(ctx, accountID); err != nil {
		s.logger.ErrorContext(ctx, "rollback account failed", "account_id", accountID, "error", err)
	}
}
