package repository

import (
	"context"
	"fmt"

	"github.com/turfease/platform/internal/domain"
)

// PgOutboxRepository implements OutboxRepository using pgx.
type PgOutboxRepository struct {
	db DBTX
}

// NewPgOutboxRepository returns a pgx-backed OutboxRepository.
func NewPgOutboxRepository(db DBTX) *PgOutboxRepository {
	return &PgOutboxRepository{db: db}
}

var _ OutboxRepository = (*PgOutboxRepository)(nil)

// Insert writes an outbox event.
func (r *PgOutboxRepository) Insert(ctx context.Context, draft domain.OutboxDraft) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO event_outbox
		  (event_id, aggregate_type, aggregate_id, event_type, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		draft.EventID,
		string(draft.AggregateType),
		draft.AggregateID,
		string(draft.EventType),
		[]byte(draft.Payload),
		draft.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

// FetchUnpublished returns up to limit events in insertion order.
func (r *PgOutboxRepository) FetchUnpublished(ctx context.Context, limit int) ([]domain.OutboxDraft, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, event_id, aggregate_type, aggregate_id, event_type, payload, occurred_at
		FROM event_outbox
		ORDER BY id ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch unpublished events: %w", err)
	}
	defer rows.Close()

	var events []domain.OutboxDraft
	for rows.Next() {
		var d domain.OutboxDraft
		var aggType, evType string
		var payload []byte
		if err := rows.Scan(&d.ID, &d.EventID, &aggType, &d.AggregateID, &evType, &payload, &d.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		d.AggregateType = domain.AggregateType(aggType)
		d.EventType = domain.EventType(evType)
		d.Payload = payload
		events = append(events, d)
	}
	return events, rows.Err()
}

// MarkPublished deletes the given events.
func (r *PgOutboxRepository) MarkPublished(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `DELETE FROM event_outbox WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	return nil
}
