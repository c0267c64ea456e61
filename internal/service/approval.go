package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/turfease/platform/internal/dependencies/clock"
	"github.com/turfease/platform/internal/domain"
	"github.com/turfease/platform/internal/notify"
	"github.com/turfease/platform/internal/repository"
)

// ApprovalService decides owner applications and serves the admin listings.
type ApprovalService struct {
	accounts repository.AccountRepository
	notifier notify.Notifier
	clock    clock.Clock
	events   eventRecorder
	timeout  time.Duration
	logger   *slog.Logger

	wg sync.WaitGroup
}

// NewApprovalService creates a new ApprovalService.
func NewApprovalService(
	accounts repository.AccountRepository,
	notifier notify.Notifier,
	clk clock.Clock,
	outbox repository.OutboxRepository,
	timeout time.Duration,
	logger *slog.Logger,
) *ApprovalService {
	if timeout <= 0 {
		timeout = DefaultExternalTimeout
	}
	return &ApprovalService{
		accounts: accounts,
		notifier: notifier,
		clock:    clk,
		events:   eventRecorder{outbox: outbox, logger: logger},
		timeout:  timeout,
		logger:   logger,
	}
}

// Decide records an admin decision on a pending owner. The decision is
// persisted before the owner is notified; notification runs in the
// background and its failure is only logged.
func (s *ApprovalService) Decide(ctx context.Context, ownerID uuid.UUID, decision, notes string) (*domain.Account, error) {
	status := domain.ApprovalStatus(decision)
	if status != domain.ApprovalApproved && status != domain.ApprovalRejected {
		return nil, domain.ErrInvalidDecision(decision)
	}

	a, err := s.accounts.FindByID(ctx, ownerID)
	if err != nil {
		return nil, domain.ErrInternal("find account", err)
	}
	if a == nil {
		return nil, domain.ErrNotFound("account", ownerID.String())
	}

	now := s.clock.Now()
	if err := a.Decide(status, notes, now); err != nil {
		return nil, err
	}
	err = s.accounts.Decide(ctx, a.ID, domain.Decision{Status: status, Notes: notes, At: now})
	if errors.Is(err, repository.ErrStale) {
		return nil, s.staleDecision(ctx, ownerID)
	}
	if err != nil {
		return nil, storeErr("save approval decision", err)
	}

	eventType := domain.EventOwnerApproved
	if status == domain.ApprovalRejected {
		eventType = domain.EventOwnerRejected
	}
	s.events.record(ctx, domain.NewAccountEvent(a, eventType, now))
	s.logger.InfoContext(ctx, "owner decided", "account_id", a.ID, "decision", status)

	s.notifyDecision(ctx, notify.DecisionMessage{
		Email:        a.Email,
		Name:         a.DisplayName(),
		BusinessName: a.BusinessName,
		Decision:     status,
		Notes:        notes,
	}, a.ID)
	return a, nil
}

// staleDecision reports the decision that won a concurrent race.
func (s *ApprovalService) staleDecision(ctx context.Context, ownerID uuid.UUID) error {
	current, err := s.accounts.FindByID(ctx, ownerID)
	if err != nil {
		return domain.ErrInternal("find account", err)
	}
	if current == nil {
		return domain.ErrNotFound("account", ownerID.String())
	}
	return domain.ErrAlreadyDecided(current.ApprovalStatus)
}

func (s *ApprovalService) notifyDecision(ctx context.Context, msg notify.DecisionMessage, accountID uuid.UUID) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		if err := s.notifier.SendApprovalDecision(ctx, msg); err != nil {
			s.logger.WarnContext(ctx, "approval notification failed",
				"account_id", accountID, "decision", msg.Decision, "error", err)
		}
	}()
}

// Wait blocks until all in-flight decision notifications have finished.
func (s *ApprovalService) Wait() {
	s.wg.Wait()
}

// ListOwners returns owners, optionally filtered by approval status.
func (s *ApprovalService) ListOwners(ctx context.Context, status domain.ApprovalStatus, p Pagination) (domain.Page[domain.Account], error) {
	if status != "" && !status.Valid() {
		return domain.Page[domain.Account]{}, domain.ErrValidation("invalid status filter")
	}
	return s.list(ctx, domain.RoleOwner, status, p)
}

// ListPendingOwners returns owners awaiting a decision.
func (s *ApprovalService) ListPendingOwners(ctx context.Context, p Pagination) (domain.Page[domain.Account], error) {
	return s.list(ctx, domain.RoleOwner, domain.ApprovalPending, p)
}

// ListAccounts returns accounts of any role, optionally filtered by role.
func (s *ApprovalService) ListAccounts(ctx context.Context, role domain.Role, p Pagination) (domain.Page[domain.Account], error) {
	if role != "" && !role.Valid() {
		return domain.Page[domain.Account]{}, domain.ErrValidation("invalid role filter")
	}
	return s.list(ctx, role, "", p)
}

// GetOwner returns one owner account.
func (s *ApprovalService) GetOwner(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	a, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, domain.ErrInternal("find account", err)
	}
	if a == nil {
		return nil, domain.ErrNotFound("owner", id.String())
	}
	if a.Role != domain.RoleOwner {
		return nil, domain.ErrNotAnOwner()
	}
	return a, nil
}

func (s *ApprovalService) list(ctx context.Context, role domain.Role, status domain.ApprovalStatus, p Pagination) (domain.Page[domain.Account], error) {
	p = p.normalize(DefaultPageSize)
	accounts, total, err := s.accounts.List(ctx, domain.AccountFilter{
		Role:   role,
		Status: status,
		Offset: p.offset(),
		Limit:  p.Limit,
	})
	if err != nil {
		return domain.Page[domain.Account]{}, domain.ErrInternal("list accounts", err)
	}
	return domain.NewPage(accounts, total, p.Page, p.Limit), nil
}
