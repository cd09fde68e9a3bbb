// SPDX-License-Identifier: Apache-2.0

// Package eventstore provides the durable, ordered, queryable log of ticket
// events. Append delegates sequence allocation to the backing store as one
// atomic unit with the insert, so per-ticket sequence numbers are contiguous
// from 1 even under concurrent writers.
package eventstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/LuisMiguel13ad/Maguey-Nightclub-Live--sub007/internal/domain"
	"github.com/google/uuid"
)

// DefaultLimit bounds unpaged reads on long-lived tickets. Callers that need
// the full history page with Query.FromSeq.
const DefaultLimit = 500

// AppendRequest is the canonical input to Append. Zero values for Metadata,
// CorrelationID, OccurredAt and SchemaVersion are filled with defaults.
type AppendRequest struct {
	TicketID      uuid.UUID
	Type          domain.EventType
	Payload       json.RawMessage
	Metadata      domain.Metadata
	CorrelationID uuid.UUID
	CausationID   *uuid.UUID
	SchemaVersion int
	OccurredAt    time.Time
}

// Normalize fills defaults and validates the payload shape before any write
// is attempted. It returns domain.ErrInvalidEventShape or
// domain.ErrUnknownEventType without touching the store.
func (r *AppendRequest) Normalize() error {
	if r.TicketID == uuid.Nil {
		return fmt.Errorf("%w: %s: ticket id is required", domain.ErrInvalidEventShape, r.Type)
	}
	if !domain.KnownEventType(r.Type) {
		return fmt.Errorf("%w: %s", domain.ErrUnknownEventType, r.Type)
	}
	if r.SchemaVersion == 0 {
		r.SchemaVersion = domain.CurrentSchemaVersion(r.Type)
	}
	if len(r.Payload) == 0 {
		r.Payload = json.RawMessage(`{}`)
	}
	if _, err := domain.DecodePayload(r.Type, r.SchemaVersion, r.Payload); err != nil {
		return err
	}
	if r.Metadata.ActorType == "" {
		r.Metadata = domain.SystemMetadata()
	}
	if r.CorrelationID == uuid.Nil {
		r.CorrelationID = uuid.New()
	}
	if r.OccurredAt.IsZero() {
		r.OccurredAt = time.Now().UTC()
	}
	return nil
}

// Query filters one ticket's stream. Results are always ascending by seq.
type Query struct {
	// FromSeq returns only events with seq strictly greater than this.
	FromSeq int64
	// Limit caps the result; 0 means DefaultLimit.
	Limit int
	// Types restricts to a subset of event types; empty means all.
	Types []domain.EventType
}

func (q Query) limit() int {
	if q.Limit <= 0 {
		return DefaultLimit
	}
	return q.Limit
}

// TypeQuery filters a cross-ticket read by occurrence time. Results are
// descending by occurred_at.
type TypeQuery struct {
	Since *time.Time
	Until *time.Time
	Limit int
}

func (q TypeQuery) limit() int {
	if q.Limit <= 0 {
		return DefaultLimit
	}
	return q.Limit
}

// Store is the writer-side contract every other component depends on.
// A read against a ticket with no events returns empty results, not an error;
// failed queries surface as *domain.ReadError and failed appends as
// *domain.AppendError.
type Store interface {
	// Append atomically allocates the next sequence number for the ticket
	// and persists the event, returning the stored record.
	Append(ctx context.Context, req AppendRequest) (domain.EventRecord, error)

	// Events returns the ticket's stream ascending by seq, filtered by q.
	Events(ctx context.Context, ticketID uuid.UUID, q Query) ([]domain.EventRecord, error)

	// LatestEvent returns the highest-seq event, or nil when the ticket has
	// no history yet.
	LatestEvent(ctx context.Context, ticketID uuid.UUID) (*domain.EventRecord, error)

	// CurrentSeq returns the last allocated sequence number, 0 for none.
	CurrentSeq(ctx context.Context, ticketID uuid.UUID) (int64, error)

	// Exists reports whether at least one event has been recorded.
	Exists(ctx context.Context, ticketID uuid.UUID) (bool, error)

	// EventsByType returns events of one type across all tickets, descending
	// by occurred_at. Used by read-model builders outside this core.
	EventsByType(ctx context.Context, t domain.EventType, q TypeQuery) ([]domain.EventRecord, error)

	// EventsByCorrelation returns every event of one logical operation,
	// possibly spanning tickets, ascending by occurred_at.
	EventsByCorrelation(ctx context.Context, correlationID uuid.UUID) ([]domain.EventRecord, error)
}
