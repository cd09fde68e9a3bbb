// SPDX-License-Identifier: Apache-2.0

package eventstore

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/LuisMiguel13ad/Maguey-Nightclub-Live--sub007/internal/domain"
	"github.com/google/uuid"
)

func appendIssued(t *testing.T, store Store, ticketID uuid.UUID) domain.EventRecord {
	t.Helper()

	raw, err := domain.EncodePayload(domain.IssuedPayload{AttendeeName: "A", PriceCents: 100})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	rec, err := store.Append(context.Background(), AppendRequest{
		TicketID: ticketID,
		Type:     domain.TicketIssued,
		Payload:  raw,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	return rec
}

func TestAppendAssignsContiguousSequence(t *testing.T) {
	store := NewMemory()
	ticketID := uuid.New()

	for i := 1; i <= 5; i++ {
		rec := appendIssued(t, store, ticketID)
		if rec.Seq != int64(i) {
			t.Fatalf("expected seq %d, got %d", i, rec.Seq)
		}
	}

	events, err := store.Events(context.Background(), ticketID, Query{})
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 5 {
		t.Fatalf("expected 5 events, got %d", len(events))
	}
	for i, ev := range events {
		if ev.Seq != int64(i)+1 {
			t.Fatalf("expected strictly increasing seq from 1, got %d at %d", ev.Seq, i)
		}
	}
}

func TestConcurrentAppendsStayGapFree(t *testing.T) {
	store := NewMemory()
	ticketID := uuid.New()

	const writers = 64

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Append(context.Background(), AppendRequest{
				TicketID: ticketID,
				Type:     domain.NoteAdded,
				Payload:  []byte(`{"note":"n"}`),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent append failed: %v", err)
		}
	}

	events, err := store.Events(context.Background(), ticketID, Query{Limit: writers})
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != writers {
		t.Fatalf("expected %d events, got %d", writers, len(events))
	}
	seen := make(map[int64]bool, writers)
	for _, ev := range events {
		if seen[ev.Seq] {
			t.Fatalf("duplicate seq %d", ev.Seq)
		}
		seen[ev.Seq] = true
	}
	for i := int64(1); i <= writers; i++ {
		if !seen[i] {
			t.Fatalf("gap at seq %d", i)
		}
	}
}

func TestAppendDefaults(t *testing.T) {
	store := NewMemory()
	before := time.Now()

	rec := appendIssued(t, store, uuid.New())

	if rec.Metadata.ActorType != domain.ActorSystem {
		t.Fatalf("expected system actor default, got %s", rec.Metadata.ActorType)
	}
	if rec.CorrelationID == uuid.Nil {
		t.Fatal("expected a generated correlation id")
	}
	if rec.OccurredAt.Before(before.Add(-time.Second)) || rec.OccurredAt.IsZero() {
		t.Fatal("expected occurred_at defaulted to now")
	}
	if rec.SchemaVersion != 1 {
		t.Fatalf("expected schema version 1, got %d", rec.SchemaVersion)
	}
	if rec.RecordedAt.IsZero() {
		t.Fatal("expected store-assigned recorded_at")
	}
}

func TestRecordedAtIsMonotonic(t *testing.T) {
	store := NewMemory()
	ticketID := uuid.New()

	var last time.Time
	for range 10 {
		rec := appendIssued(t, store, ticketID)
		if !rec.RecordedAt.After(last) {
			t.Fatalf("recorded_at not monotonic: %v then %v", last, rec.RecordedAt)
		}
		last = rec.RecordedAt
	}
}

func TestAppendRejectsMalformedFacts(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	_, err := store.Append(ctx, AppendRequest{
		TicketID: uuid.New(),
		Type:     domain.TicketIssued,
		Payload:  []byte(`{"price_cents":-1}`),
	})
	if !errors.Is(err, domain.ErrInvalidEventShape) {
		t.Fatalf("expected ErrInvalidEventShape, got %v", err)
	}

	_, err = store.Append(ctx, AppendRequest{
		TicketID: uuid.New(),
		Type:     "TICKET_TELEPORTED",
	})
	if !errors.Is(err, domain.ErrUnknownEventType) {
		t.Fatalf("expected ErrUnknownEventType, got %v", err)
	}

	// nothing was persisted
	n, err := store.CurrentSeq(ctx, uuid.New())
	if err != nil || n != 0 {
		t.Fatalf("expected empty store, got seq=%d err=%v", n, err)
	}
}

func TestRoundTripPreservesPayloadAndMetadata(t *testing.T) {
	store := NewMemory()
	ticketID := uuid.New()
	ctx := context.Background()

	raw, err := domain.EncodePayload(domain.ScannedPayload{Gate: "north"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	meta := domain.Metadata{
		ActorType: domain.ActorDevice,
		ActorID:   "gate-1",
		DeviceID:  "scanner-7",
		IP:        "10.1.2.3",
		Extra:     map[string]string{"fw": "2.4.1"},
	}

	appended, err := store.Append(ctx, AppendRequest{
		TicketID: ticketID,
		Type:     domain.TicketScanned,
		Payload:  raw,
		Metadata: meta,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	events, err := store.Events(ctx, ticketID, Query{})
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if string(events[0].Payload) != string(raw) {
		t.Fatalf("payload changed in round trip: %s", events[0].Payload)
	}
	if !reflect.DeepEqual(events[0].Metadata, meta) {
		t.Fatalf("metadata changed in round trip: %+v", events[0].Metadata)
	}
	if events[0].ID != appended.ID {
		t.Fatal("expected stored record to match returned record")
	}
}

func TestEventsFiltering(t *testing.T) {
	store := NewMemory()
	ticketID := uuid.New()
	ctx := context.Background()

	types := []domain.EventType{
		domain.TicketIssued, domain.TicketConfirmed, domain.NoteAdded, domain.NoteAdded,
	}
	payloads := []string{
		`{"attendee_name":"A","price_cents":100}`, `{}`, `{"note":"a"}`, `{"note":"b"}`,
	}
	for i, typ := range types {
		if _, err := store.Append(ctx, AppendRequest{
			TicketID: ticketID,
			Type:     typ,
			Payload:  []byte(payloads[i]),
		}); err != nil {
			t.Fatalf("append %s: %v", typ, err)
		}
	}

	since, err := store.Events(ctx, ticketID, Query{FromSeq: 2})
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(since) != 2 || since[0].Seq != 3 || since[1].Seq != 4 {
		t.Fatalf("unexpected FromSeq result: %+v", since)
	}

	notes, err := store.Events(ctx, ticketID, Query{Types: []domain.EventType{domain.NoteAdded}})
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(notes))
	}

	limited, err := store.Events(ctx, ticketID, Query{Limit: 1})
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(limited) != 1 || limited[0].Seq != 1 {
		t.Fatalf("unexpected limited result: %+v", limited)
	}
}

func TestLatestEventAndExistence(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	ticketID := uuid.New()

	// no history yet: explicit absence, not an error
	latest, err := store.LatestEvent(ctx, ticketID)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest != nil {
		t.Fatal("expected nil latest event for fresh ticket")
	}
	exists, err := store.Exists(ctx, ticketID)
	if err != nil || exists {
		t.Fatalf("expected no existence, got %v err=%v", exists, err)
	}

	appendIssued(t, store, ticketID)
	appendIssued(t, store, ticketID)

	latest, err = store.LatestEvent(ctx, ticketID)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest == nil || latest.Seq != 2 {
		t.Fatalf("expected latest seq 2, got %+v", latest)
	}

	exists, err = store.Exists(ctx, ticketID)
	if err != nil || !exists {
		t.Fatalf("expected existence, got %v err=%v", exists, err)
	}

	seq, err := store.CurrentSeq(ctx, ticketID)
	if err != nil || seq != 2 {
		t.Fatalf("expected current seq 2, got %d err=%v", seq, err)
	}
}

func TestEventsByTypeOrdersByOccurrence(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	base := time.Date(2026, time.March, 14, 22, 0, 0, 0, time.UTC)

	for i := range 3 {
		if _, err := store.Append(ctx, AppendRequest{
			TicketID:   uuid.New(),
			Type:       domain.EmailSent,
			Payload:    []byte(`{"recipient":"a@example.com"}`),
			OccurredAt: base.Add(time.Duration(i) * time.Hour),
		}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := store.EventsByType(ctx, domain.EmailSent, TypeQuery{})
	if err != nil {
		t.Fatalf("events by type: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 events, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].OccurredAt.After(all[i-1].OccurredAt) {
			t.Fatal("expected descending occurred_at")
		}
	}

	since := base.Add(30 * time.Minute)
	until := base.Add(90 * time.Minute)
	window, err := store.EventsByType(ctx, domain.EmailSent, TypeQuery{Since: &since, Until: &until})
	if err != nil {
		t.Fatalf("events by type: %v", err)
	}
	if len(window) != 1 || !window[0].OccurredAt.Equal(base.Add(time.Hour)) {
		t.Fatalf("unexpected window result: %+v", window)
	}
}

func TestEventsByCorrelationSpansTickets(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	correlationID := uuid.New()
	base := time.Date(2026, time.March, 14, 22, 0, 0, 0, time.UTC)

	// one logical operation touching two tickets, appended out of time order
	first := uuid.New()
	second := uuid.New()
	appends := []struct {
		ticketID   uuid.UUID
		occurredAt time.Time
	}{
		{ticketID: first, occurredAt: base.Add(time.Minute)},
		{ticketID: second, occurredAt: base},
	}
	for _, a := range appends {
		if _, err := store.Append(ctx, AppendRequest{
			TicketID:      a.ticketID,
			Type:          domain.TicketConfirmed,
			CorrelationID: correlationID,
			OccurredAt:    a.occurredAt,
		}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	// unrelated noise
	appendIssued(t, store, uuid.New())

	events, err := store.EventsByCorrelation(ctx, correlationID)
	if err != nil {
		t.Fatalf("events by correlation: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected both correlated events, got %d", len(events))
	}
	if events[0].TicketID != second || events[1].TicketID != first {
		t.Fatal("expected ascending occurred_at across tickets")
	}
}

func TestIndependentStreamsDoNotInterfere(t *testing.T) {
	store := NewMemory()
	a := uuid.New()
	b := uuid.New()

	appendIssued(t, store, a)
	appendIssued(t, store, b)
	rec := appendIssued(t, store, a)

	if rec.Seq != 2 {
		t.Fatalf("expected per-ticket seq 2, got %d", rec.Seq)
	}
	n, err := store.CurrentSeq(context.Background(), b)
	if err != nil || n != 1 {
		t.Fatalf("expected ticket b at seq 1, got %d err=%v", n, err)
	}
}
