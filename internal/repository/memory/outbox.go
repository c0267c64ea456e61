package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/turfease/platform/internal/domain"
	"github.com/turfease/platform/internal/repository"
)

// OutboxRepository keeps outbox events in insertion order.
type OutboxRepository struct {
	mu     sync.Mutex
	nextID int64
	events []domain.OutboxDraft
}

// NewOutboxRepository returns an empty OutboxRepository.
func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{}
}

var _ repository.OutboxRepository = (*OutboxRepository)(nil)

func (r *OutboxRepository) Insert(_ context.Context, draft domain.OutboxDraft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	draft.ID = r.nextID
	r.events = append(r.events, draft)
	return nil
}

func (r *OutboxRepository) FetchUnpublished(_ context.Context, limit int) ([]domain.OutboxDraft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := min(limit, len(r.events))
	return slices.Clone(r.events[:n]), nil
}

func (r *OutboxRepository) MarkPublished(_ context.Context, ids []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = slices.DeleteFunc(r.events, func(d domain.OutboxDraft) bool {
		return slices.Contains(ids, d.ID)
	})
	return nil
}

// Events returns a snapshot of the pending events.
func (r *OutboxRepository) Events() []domain.OutboxDraft {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}
