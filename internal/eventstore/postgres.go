// SPDX-License-Identifier: Apache-2.0

package eventstore

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/LuisMiguel13ad/Maguey-Nightclub-Live--sub007/internal/domain"
	"github.com/LuisMiguel13ad/Maguey-Nightclub-Live--sub007/internal/metrics"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const eventColumns = `id, ticket_id, seq, type, payload, metadata,
		       correlation_id, causation_id, schema_version, occurred_at, recorded_at`

// Postgres is the durable Store over a pgx pool. Sequence allocation and the
// row insert run in one transaction holding a per-ticket advisory lock, so
// concurrent appenders to the same ticket serialize while different tickets
// never block each other. UNIQUE(ticket_id, seq) backstops the invariant.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ Store = (*Postgres)(nil)

func NewPostgres(pool *pgxpool.Pool, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}

	return &Postgres{
		pool:   pool,
		logger: logger,
	}
}

func (s *Postgres) Append(ctx context.Context, req AppendRequest) (domain.EventRecord, error) {
	if err := req.Normalize(); err != nil {
		return domain.EventRecord{}, err
	}

	metaJSON, err := json.Marshal(req.Metadata)
	if err != nil {
		return domain.EventRecord{}, &domain.AppendError{TicketID: req.TicketID, Type: req.Type, Err: err}
	}

	rec := domain.EventRecord{
		ID:            uuid.New(),
		TicketID:      req.TicketID,
		Type:          req.Type,
		Payload:       req.Payload,
		Metadata:      req.Metadata,
		CorrelationID: req.CorrelationID,
		CausationID:   req.CausationID,
		SchemaVersion: req.SchemaVersion,
		OccurredAt:    req.OccurredAt,
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		s.logger.Error("append begin tx failed", "ticket_id", req.TicketID, "error", err)
		metrics.IncAppendFailure()
		return domain.EventRecord{}, &domain.AppendError{TicketID: req.TicketID, Type: req.Type, Err: err}
	}
	defer tx.Rollback(ctx)

	// Serializes appenders for this ticket only; released at commit/rollback.
	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`,
		req.TicketID,
	); err != nil {
		s.logger.Error("append advisory lock failed", "ticket_id", req.TicketID, "error", err)
		metrics.IncAppendFailure()
		return domain.EventRecord{}, &domain.AppendError{TicketID: req.TicketID, Type: req.Type, Err: err}
	}

	if err := tx.QueryRow(ctx, `
		INSERT INTO ticket_events
			(id, ticket_id, seq, type, payload, metadata,
			 correlation_id, causation_id, schema_version, occurred_at)
		SELECT $1, $2, COALESCE(MAX(seq), 0) + 1, $3, $4, $5, $6, $7, $8, $9
		FROM ticket_events
		WHERE ticket_id = $2
		RETURNING seq, recorded_at
	`,
		rec.ID,
		rec.TicketID,
		rec.Type,
		rec.Payload,
		metaJSON,
		rec.CorrelationID,
		rec.CausationID,
		rec.SchemaVersion,
		rec.OccurredAt,
	).Scan(&rec.Seq, &rec.RecordedAt); err != nil {
		s.logger.Error("append insert failed",
			"ticket_id", req.TicketID,
			"type", req.Type,
			"error", err,
		)
		metrics.IncAppendFailure()
		return domain.EventRecord{}, &domain.AppendError{TicketID: req.TicketID, Type: req.Type, Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.Error("append commit failed", "ticket_id", req.TicketID, "error", err)
		metrics.IncAppendFailure()
		return domain.EventRecord{}, &domain.AppendError{TicketID: req.TicketID, Type: req.Type, Err: err}
	}

	metrics.IncEventAppended(rec.Type)
	s.logger.Debug("event appended",
		"ticket_id", rec.TicketID,
		"type", rec.Type,
		"seq", rec.Seq,
	)
	return rec, nil
}

func (s *Postgres) Events(ctx context.Context, ticketID uuid.UUID, q Query) ([]domain.EventRecord, error) {
	metrics.IncStoreQuery("events")

	sql := `
		SELECT ` + eventColumns + `
		FROM ticket_events
		WHERE ticket_id = $1
		  AND seq > $2
	`
	args := []any{ticketID, q.FromSeq}
	if len(q.Types) > 0 {
		types := make([]string, len(q.Types))
		for i, t := range q.Types {
			types[i] = string(t)
		}
		args = append(args, types)
		sql += `  AND type = ANY($3)
	`
	}
	args = append(args, q.limit())
	sql += `ORDER BY seq ASC
		LIMIT $` + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		s.logger.Error("events query failed", "ticket_id", ticketID, "error", err)
		return nil, &domain.ReadError{Op: "events", Err: err}
	}
	defer rows.Close()

	out, err := scanEvents(rows)
	if err != nil {
		s.logger.Error("events scan failed", "ticket_id", ticketID, "error", err)
		return nil, &domain.ReadError{Op: "events", Err: err}
	}
	return out, nil
}

func (s *Postgres) LatestEvent(ctx context.Context, ticketID uuid.UUID) (*domain.EventRecord, error) {
	metrics.IncStoreQuery("latest_event")

	rows, err := s.pool.Query(ctx, `
		SELECT `+eventColumns+`
		FROM ticket_events
		WHERE ticket_id = $1
		ORDER BY seq DESC
		LIMIT 1
	`, ticketID)
	if err != nil {
		s.logger.Error("latest event query failed", "ticket_id", ticketID, "error", err)
		return nil, &domain.ReadError{Op: "latest event", Err: err}
	}
	defer rows.Close()

	out, err := scanEvents(rows)
	if err != nil {
		s.logger.Error("latest event scan failed", "ticket_id", ticketID, "error", err)
		return nil, &domain.ReadError{Op: "latest event", Err: err}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

func (s *Postgres) CurrentSeq(ctx context.Context, ticketID uuid.UUID) (int64, error) {
	metrics.IncStoreQuery("current_seq")

	var seq int64
	if err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(MAX(seq), 0)
		FROM ticket_events
		WHERE ticket_id = $1
	`, ticketID).Scan(&seq); err != nil {
		s.logger.Error("current seq query failed", "ticket_id", ticketID, "error", err)
		return 0, &domain.ReadError{Op: "current seq", Err: err}
	}
	return seq, nil
}

func (s *Postgres) Exists(ctx context.Context, ticketID uuid.UUID) (bool, error) {
	metrics.IncStoreQuery("exists")

	var exists bool
	if err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM ticket_events WHERE ticket_id = $1)
	`, ticketID).Scan(&exists); err != nil {
		s.logger.Error("exists query failed", "ticket_id", ticketID, "error", err)
		return false, &domain.ReadError{Op: "exists", Err: err}
	}
	return exists, nil
}

func (s *Postgres) EventsByType(ctx context.Context, t domain.EventType, q TypeQuery) ([]domain.EventRecord, error) {
	metrics.IncStoreQuery("events_by_type")

	sql := `
		SELECT ` + eventColumns + `
		FROM ticket_events
		WHERE type = $1
	`
	args := []any{t}
	if q.Since != nil {
		args = append(args, *q.Since)
		sql += `  AND occurred_at >= $` + strconv.Itoa(len(args)) + `
	`
	}
	if q.Until != nil {
		args = append(args, *q.Until)
		sql += `  AND occurred_at <= $` + strconv.Itoa(len(args)) + `
	`
	}
	args = append(args, q.limit())
	sql += `ORDER BY occurred_at DESC
		LIMIT $` + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		s.logger.Error("events by type query failed", "type", t, "error", err)
		return nil, &domain.ReadError{Op: "events by type", Err: err}
	}
	defer rows.Close()

	out, err := scanEvents(rows)
	if err != nil {
		s.logger.Error("events by type scan failed", "type", t, "error", err)
		return nil, &domain.ReadError{Op: "events by type", Err: err}
	}
	return out, nil
}

func (s *Postgres) EventsByCorrelation(ctx context.Context, correlationID uuid.UUID) ([]domain.EventRecord, error) {
	metrics.IncStoreQuery("events_by_correlation")

	rows, err := s.pool.Query(ctx, `
		SELECT `+eventColumns+`
		FROM ticket_events
		WHERE correlation_id = $1
		ORDER BY occurred_at ASC
	`, correlationID)
	if err != nil {
		s.logger.Error("events by correlation query failed", "correlation_id", correlationID, "error", err)
		return nil, &domain.ReadError{Op: "events by correlation", Err: err}
	}
	defer rows.Close()

	out, err := scanEvents(rows)
	if err != nil {
		s.logger.Error("events by correlation scan failed", "correlation_id", correlationID, "error", err)
		return nil, &domain.ReadError{Op: "events by correlation", Err: err}
	}
	return out, nil
}

func scanEvents(rows pgx.Rows) ([]domain.EventRecord, error) {
	out := make([]domain.EventRecord, 0, 8)
	for rows.Next() {
		var (
			rec      domain.EventRecord
			metaJSON []byte
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.TicketID,
			&rec.Seq,
			&rec.Type,
			&rec.Payload,
			&metaJSON,
			&rec.CorrelationID,
			&rec.CausationID,
			&rec.SchemaVersion,
			&rec.OccurredAt,
			&rec.RecordedAt,
		); err != nil {
			return nil, err
		}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &rec.Metadata); err != nil {
				return nil, err
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

