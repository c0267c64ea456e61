package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all domain event types.
type EventType string

const (
	EventAccountRegistered EventType = "registered"
	EventAccountVerified   EventType = "verified"
	EventOwnerApproved     EventType = "owner.approved"
	EventOwnerRejected     EventType = "owner.rejected"
	EventTurfApproved      EventType = "approved"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const (
	AggregateAccount AggregateType = "account"
	AggregateTurf    AggregateType = "turf"
)

// OutboxDraft is the payload written to the event_outbox table.
type OutboxDraft struct {
	ID            int64           `json:"-"`
	EventID       uuid.UUID       `json:"eventId"`
	AggregateType AggregateType   `json:"aggregateType"`
	AggregateID   string          `json:"aggregateId"`
	EventType     EventType       `json:"eventType"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

// Topic is the Kafka topic an event is published on.
func (d OutboxDraft) Topic() string {
	return "turfease." + string(d.AggregateType) + "." + string(d.EventType)
}

// NewAccountEvent builds an outbox draft for an account lifecycle change.
func NewAccountEvent(a *Account, eventType EventType, now time.Time) OutboxDraft {
	payload, _ := json.Marshal(map[string]interface{}{
		"accountId":      a.ID,
		"email":          a.Email,
		"userType":       a.Role,
		"approvalStatus": a.ApprovalStatus,
		"emailVerified":  a.EmailVerified,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateAccount,
		AggregateID:   a.ID.String(),
		EventType:     eventType,
		Payload:       payload,
		OccurredAt:    now,
	}
}

// NewTurfEvent builds an outbox draft for a turf change.
func NewTurfEvent(t *Turf, eventType EventType, now time.Time) OutboxDraft {
	payload, _ := json.Marshal(map[string]interface{}{
		"turfId":  t.ID,
		"ownerId": t.OwnerID,
		"name":    t.Name,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateTurf,
		AggregateID:   t.ID.String(),
		EventType:     eventType,
		Payload:       payload,
		OccurredAt:    now,
	}
}
