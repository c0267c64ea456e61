package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/turfease/platform/internal/domain"
	"github.com/turfease/platform/internal/repository"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 100

	// DefaultExternalTimeout bounds collaborator calls when none is configured.
	DefaultExternalTimeout = 10 * time.Second
)

// Pagination normalizes 1-based page and limit query values.
type Pagination struct {
	Page  int
	Limit int
}

func (p Pagination) normalize(defaultLimit int) Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

func (p Pagination) offset() int {
	return (p.Page - 1) * p.Limit
}

// eventRecorder writes outbox events best-effort: a failed insert is logged
// and never fails the operation that produced it.
type eventRecorder struct {
	outbox repository.OutboxRepository
	logger *slog.Logger
}

func (r eventRecorder) record(ctx context.Context, draft domain.OutboxDraft) {
	if r.outbox == nil {
		return
	}
	if err := r.outbox.Insert(ctx, draft); err != nil {
		r.logger.ErrorContext(ctx, "outbox insert failed",
			"event_type", draft.EventType, "aggregate_id", draft.AggregateID, "error", err)
	}
}

// storeErr maps repository sentinels onto domain errors.
func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrConflict):
		return domain.ErrConflict("user already exists with this email or username")
	case errors.Is(err, repository.ErrNotFound):
		return domain.ErrNotFound("record", op)
	default:
		return domain.ErrInternal(op, err)
	}
}
