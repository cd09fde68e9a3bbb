// SPDX-License-Identifier: Apache-2.0

// Package ticket composes the event store and the projector into the
// aggregate facade used by order workflows, scanners, and admin tooling.
package ticket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/LuisMiguel13ad/Maguey-Nightclub-Live--sub007/internal/domain"
	"github.com/LuisMiguel13ad/Maguey-Nightclub-Live--sub007/internal/eventstore"
	"github.com/LuisMiguel13ad/Maguey-Nightclub-Live--sub007/internal/metrics"
	"github.com/LuisMiguel13ad/Maguey-Nightclub-Live--sub007/internal/projection"
	"github.com/google/uuid"
)

// Service is the aggregate facade. It owns no state of its own: every read
// rebuilds from the store, every write is exactly one store append.
type Service struct {
	store  eventstore.Store
	logger *slog.Logger
}

func NewService(store eventstore.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:  store,
		logger: logger,
	}
}

// AppendInput is the canonical append shape. Payload may be a typed
// domain.Payload (preferred) or nil with Raw set for pre-encoded data.
type AppendInput struct {
	TicketID      uuid.UUID
	Payload       domain.Payload
	Raw           json.RawMessage
	Type          domain.EventType
	Metadata      domain.Metadata
	CorrelationID uuid.UUID
	CausationID   *uuid.UUID
	OccurredAt    time.Time
}

// Event is the compact {type, data} shape accepted by AppendEvent and
// AppendBatch. It produces records identical to the canonical shape.
type Event struct {
	Type        domain.EventType
	Payload     domain.Payload
	CausationID *uuid.UUID
}

// Append records one new fact. Validation happens before the write; a store
// rejection propagates unchanged as *domain.AppendError with nothing
// committed.
func (s *Service) Append(ctx context.Context, in AppendInput) (domain.EventRecord, error) {
	req := eventstore.AppendRequest{
		TicketID:      in.TicketID,
		Type:          in.Type,
		Payload:       in.Raw,
		Metadata:      in.Metadata,
		CorrelationID: in.CorrelationID,
		CausationID:   in.CausationID,
		OccurredAt:    in.OccurredAt,
	}
	if in.Payload != nil {
		if in.Type == "" {
			req.Type = in.Payload.EventType()
		} else if in.Type != in.Payload.EventType() {
			return domain.EventRecord{}, fmt.Errorf("%w: declared type %s does not match payload type %s",
				domain.ErrInvalidEventShape, in.Type, in.Payload.EventType())
		}
		raw, err := domain.EncodePayload(in.Payload)
		if err != nil {
			return domain.EventRecord{}, err
		}
		req.Payload = raw
	}
	return s.store.Append(ctx, req)
}

// AppendEvent is the adapter call shape: aggregate id plus {type, data} plus
// metadata. It fills the canonical input and defers to Append.
func (s *Service) AppendEvent(ctx context.Context, ticketID uuid.UUID, ev Event, meta domain.Metadata) (domain.EventRecord, error) {
	return s.Append(ctx, AppendInput{
		TicketID:    ticketID,
		Type:        ev.Type,
		Payload:     ev.Payload,
		Metadata:    meta,
		CausationID: ev.CausationID,
	})
}

// AppendBatch appends events strictly in order, one at a time: later entries
// may depend on earlier ones having been durably sequenced. The first failure
// stops the batch; already-appended events stay committed and are returned.
func (s *Service) AppendBatch(ctx context.Context, ticketID uuid.UUID, events []Event, meta domain.Metadata) ([]domain.EventRecord, error) {
	// one correlation id spans the whole batch
	correlationID := uuid.New()

	out := make([]domain.EventRecord, 0, len(events))
	for _, ev := range events {
		rec, err := s.Append(ctx, AppendInput{
			TicketID:      ticketID,
			Type:          ev.Type,
			Payload:       ev.Payload,
			Metadata:      meta,
			CorrelationID: correlationID,
			CausationID:   ev.CausationID,
		})
		if err != nil {
			s.logger.Error("batch append stopped",
				"ticket_id", ticketID,
				"appended", len(out),
				"error", err,
			)
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// GetEvents returns the ticket's stream ascending by seq. A ticket with no
// history yields an empty slice, never an error.
func (s *Service) GetEvents(ctx context.Context, ticketID uuid.UUID, q eventstore.Query) ([]domain.EventRecord, error) {
	return s.store.Events(ctx, ticketID, q)
}

// GetEventsSince returns events with seq strictly greater than seq.
func (s *Service) GetEventsSince(ctx context.Context, ticketID uuid.UUID, seq int64) ([]domain.EventRecord, error) {
	return s.store.Events(ctx, ticketID, eventstore.Query{FromSeq: seq})
}

// GetAuditTrail is the full history read used for compliance and display.
func (s *Service) GetAuditTrail(ctx context.Context, ticketID uuid.UUID) ([]domain.EventRecord, error) {
	return s.fullHistory(ctx, ticketID)
}

// GetLatestEvent returns the newest event, or nil for a ticket with no
// history.
func (s *Service) GetLatestEvent(ctx context.Context, ticketID uuid.UUID) (*domain.EventRecord, error) {
	return s.store.LatestEvent(ctx, ticketID)
}

// GetEventsByType is the cross-ticket read used by read-model builders,
// newest first.
func (s *Service) GetEventsByType(ctx context.Context, t domain.EventType, q eventstore.TypeQuery) ([]domain.EventRecord, error) {
	return s.store.EventsByType(ctx, t, q)
}

// GetEventsByCorrelation traces one logical operation across tickets,
// ascending by occurred_at.
func (s *Service) GetEventsByCorrelation(ctx context.Context, correlationID uuid.UUID) ([]domain.EventRecord, error) {
	return s.store.EventsByCorrelation(ctx, correlationID)
}

// RebuildState replays the full stream into the current state. A ticket with
// no history projects to the zero state with Version 0.
func (s *Service) RebuildState(ctx context.Context, ticketID uuid.UUID) (domain.TicketState, error) {
	events, err := s.fullHistory(ctx, ticketID)
	if err != nil {
		return domain.TicketState{}, err
	}
	return s.replay(ticketID, events), nil
}

// ReplayToSequence reconstructs the state as it was right after event seq.
func (s *Service) ReplayToSequence(ctx context.Context, ticketID uuid.UUID, seq int64) (domain.TicketState, error) {
	events, err := s.fullHistory(ctx, ticketID)
	if err != nil {
		return domain.TicketState{}, err
	}
	start := time.Now()
	state := projection.ToSequence(events, seq)
	if state.TicketID == uuid.Nil {
		state.TicketID = ticketID
	}
	metrics.ObserveReplay(time.Since(start), state.EventCount)
	return state, nil
}

// ReplayToTimestamp reconstructs the state from events with occurred_at <= at,
// folded in seq order (the timestamp only truncates, it never reorders).
func (s *Service) ReplayToTimestamp(ctx context.Context, ticketID uuid.UUID, at time.Time) (domain.TicketState, error) {
	events, err := s.fullHistory(ctx, ticketID)
	if err != nil {
		return domain.TicketState{}, err
	}
	start := time.Now()
	state := projection.ToTimestamp(events, at)
	if state.TicketID == uuid.Nil {
		state.TicketID = ticketID
	}
	metrics.ObserveReplay(time.Since(start), state.EventCount)
	return state, nil
}

func (s *Service) replay(ticketID uuid.UUID, events []domain.EventRecord) domain.TicketState {
	start := time.Now()
	state := projection.Project(events)
	if state.TicketID == uuid.Nil {
		state.TicketID = ticketID
	}
	metrics.ObserveReplay(time.Since(start), len(events))
	return state
}

// fullHistory pages through the store so replay never folds a silently
// truncated stream.
func (s *Service) fullHistory(ctx context.Context, ticketID uuid.UUID) ([]domain.EventRecord, error) {
	var (
		out     []domain.EventRecord
		fromSeq int64
	)
	for {
		page, err := s.store.Events(ctx, ticketID, eventstore.Query{FromSeq: fromSeq})
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < eventstore.DefaultLimit {
			return out, nil
		}
		fromSeq = page[len(page)-1].Seq
	}
}
