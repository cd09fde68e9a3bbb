// SPDX-License-Identifier: Apache-2.0

package eventstore

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/LuisMiguel13ad/Maguey-Nightclub-Live--sub007/internal/domain"
	"github.com/google/uuid"
)

// Memory is an in-process Store for tests and embedded callers. A single
// mutex stands in for the backing store's atomic allocate-and-insert; the
// ordering contract is identical to the Postgres store.
type Memory struct {
	mu           sync.Mutex
	streams      map[uuid.UUID][]domain.EventRecord
	lastRecorded time.Time
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{streams: make(map[uuid.UUID][]domain.EventRecord)}
}

func (s *Memory) Append(ctx context.Context, req AppendRequest) (domain.EventRecord, error) {
	if err := req.Normalize(); err != nil {
		return domain.EventRecord{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.EventRecord{}, &domain.AppendError{TicketID: req.TicketID, Type: req.Type, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// recorded_at is store-assigned and monotonic per insertion order.
	now := time.Now().UTC()
	if !now.After(s.lastRecorded) {
		now = s.lastRecorded.Add(time.Nanosecond)
	}
	s.lastRecorded = now

	stream := s.streams[req.TicketID]
	rec := domain.EventRecord{
		ID:            uuid.New(),
		TicketID:      req.TicketID,
		Seq:           int64(len(stream)) + 1,
		Type:          req.Type,
		Payload:       bytes.Clone(req.Payload),
		Metadata:      req.Metadata,
		CorrelationID: req.CorrelationID,
		CausationID:   req.CausationID,
		SchemaVersion: req.SchemaVersion,
		OccurredAt:    req.OccurredAt,
		RecordedAt:    now,
	}
	s.streams[req.TicketID] = append(stream, rec)
	return rec, nil
}

func (s *Memory) Events(ctx context.Context, ticketID uuid.UUID, q Query) ([]domain.EventRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.ReadError{Op: "memory events", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.EventRecord, 0, 8)
	for _, rec := range s.streams[ticketID] {
		if rec.Seq <= q.FromSeq {
			continue
		}
		if len(q.Types) > 0 && !containsType(q.Types, rec.Type) {
			continue
		}
		out = append(out, rec)
		if len(out) >= q.limit() {
			break
		}
	}
	return out, nil
}

func (s *Memory) LatestEvent(ctx context.Context, ticketID uuid.UUID) (*domain.EventRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.ReadError{Op: "memory latest event", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stream := s.streams[ticketID]
	if len(stream) == 0 {
		return nil, nil
	}
	rec := stream[len(stream)-1]
	return &rec, nil
}

func (s *Memory) CurrentSeq(ctx context.Context, ticketID uuid.UUID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, &domain.ReadError{Op: "memory current seq", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.streams[ticketID])), nil
}

func (s *Memory) Exists(ctx context.Context, ticketID uuid.UUID) (bool, error) {
	n, err := s.CurrentSeq(ctx, ticketID)
	return n > 0, err
}

func (s *Memory) EventsByType(ctx context.Context, t domain.EventType, q TypeQuery) ([]domain.EventRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.ReadError{Op: "memory events by type", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.EventRecord, 0, 8)
	for _, stream := range s.streams {
		for _, rec := range stream {
			if rec.Type != t {
				continue
			}
			if q.Since != nil && rec.OccurredAt.Before(*q.Since) {
				continue
			}
			if q.Until != nil && rec.OccurredAt.After(*q.Until) {
				continue
			}
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	if len(out) > q.limit() {
		out = out[:q.limit()]
	}
	return out, nil
}

func (s *Memory) EventsByCorrelation(ctx context.Context, correlationID uuid.UUID) ([]domain.EventRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.ReadError{Op: "memory events by correlation", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.EventRecord, 0, 8)
	for _, stream := range s.streams {
		for _, rec := range stream {
			if rec.CorrelationID == correlationID {
				out = append(out, rec)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.Before(out[j].OccurredAt)
	})
	return out, nil
}

func containsType(types []domain.EventType, t domain.EventType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
