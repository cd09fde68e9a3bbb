// SPDX-License-Identifier: Apache-2.0

// Package projection folds an ordered ticket event stream into a TicketState.
// The fold is pure: no clock, no randomness, no I/O. Replaying the same
// ordered list always yields the identical state.
package projection

import (
	"time"

	"github.com/LuisMiguel13ad/Maguey-Nightclub-Live--sub007/internal/domain"
	"github.com/google/uuid"
)

// Project folds events, which must be ascending by seq, into a state starting
// from the zero state of the first event's ticket. An empty stream projects
// to the zero state with a nil ticket id and Version 0.
func Project(events []domain.EventRecord) domain.TicketState {
	var id uuid.UUID
	if len(events) > 0 {
		id = events[0].TicketID
	}
	state := domain.ZeroTicketState(id)
	for _, ev := range events {
		state = Apply(state, ev)
	}
	return state
}

// ToSequence folds only events with seq <= maxSeq, reconstructing the state
// as it was right after that event.
func ToSequence(events []domain.EventRecord, maxSeq int64) domain.TicketState {
	return Project(truncate(events, func(ev domain.EventRecord) bool {
		return ev.Seq <= maxSeq
	}))
}

// ToTimestamp folds only events with occurred_at <= at. Iteration stays in
// seq order; the timestamp is purely a truncation predicate, so a backfilled
// event with an early occurred_at can be excluded but never reordered.
func ToTimestamp(events []domain.EventRecord, at time.Time) domain.TicketState {
	return Project(truncate(events, func(ev domain.EventRecord) bool {
		return !ev.OccurredAt.After(at)
	}))
}

func truncate(events []domain.EventRecord, keep func(domain.EventRecord) bool) []domain.EventRecord {
	out := make([]domain.EventRecord, 0, len(events))
	for _, ev := range events {
		if keep(ev) {
			out = append(out, ev)
		}
	}
	return out
}

// Apply is one fold step. Events of unrecognized type, or whose payload no
// longer decodes, still count toward bookkeeping but change no other field;
// replay never aborts on them.
func Apply(state domain.TicketState, ev domain.EventRecord) domain.TicketState {
	if state.TicketID != ev.TicketID && state.Version == 0 && state.EventCount == 0 {
		state.TicketID = ev.TicketID
	}

	if payload, err := domain.DecodePayload(ev.Type, ev.SchemaVersion, ev.Payload); err == nil {
		state = applyPayload(state, ev, payload)
	}

	state.EventCount++
	state.LastEventType = ev.Type
	state.LastEventAt = ev.OccurredAt
	state.Version = ev.Seq
	return state
}

func applyPayload(state domain.TicketState, ev domain.EventRecord, payload domain.Payload) domain.TicketState {
	switch p := payload.(type) {
	case domain.IssuedPayload:
		state.Status = domain.StatusIssued
		state.OrderID = p.OrderID
		state.AttendeeName = p.AttendeeName
		state.AttendeeEmail = p.AttendeeEmail
		state.Tier = p.Tier
		state.PriceCents = p.PriceCents
		state.Currency = p.Currency
		state.QRCodeID = p.QRCodeID

	case domain.ReservedPayload:
		state.Status = domain.StatusReserved
		if state.OrderID == "" {
			state.OrderID = p.OrderID
		}

	case domain.ConfirmedPayload:
		state.Status = domain.StatusConfirmed

	case domain.CanceledPayload:
		state.Status = domain.StatusCanceled

	case domain.RefundedPayload:
		state.Status = domain.StatusRefunded
		state.IsRefunded = true
		state.RefundID = p.RefundID
		state.RefundAmountCents = p.AmountCents
		if p.RefundedAt != nil {
			state.RefundedAt = p.RefundedAt
		} else {
			at := ev.OccurredAt
			state.RefundedAt = &at
		}

	case domain.ExpiredPayload:
		state.Status = domain.StatusExpired

	case domain.TransferredPayload:
		state.Status = domain.StatusTransferred
		state.IsTransferred = true
		state.TransferredTo = p.RecipientName
		if p.TransferredAt != nil {
			state.TransferredAt = p.TransferredAt
		} else {
			at := ev.OccurredAt
			state.TransferredAt = &at
		}

	case domain.UpgradedPayload:
		state.Status = domain.StatusUpgraded
		if p.ToTier != "" {
			state.Tier = p.ToTier
		}
		state.PriceCents += p.PriceDeltaCents

	case domain.ScannedPayload:
		state.Status = domain.StatusScanned
		state.IsScanned = true
		state.ScanCount++
		state.EntryCount++
		state.IsCurrentlyInside = true
		at := ev.OccurredAt
		if p.ScannedAt != nil {
			at = *p.ScannedAt
		}
		if state.FirstScannedAt == nil {
			state.FirstScannedAt = &at
		}
		state.LastScannedAt = &at
		state.LastScanActor = ev.Metadata.ActorID
		state.LastScanGate = p.Gate

	case domain.ReentryPayload:
		state.Status = domain.StatusInside
		state.IsCurrentlyInside = true
		if p.EntryCount != nil {
			state.EntryCount = *p.EntryCount
		} else {
			state.EntryCount++
		}
		if p.Gate != "" {
			state.LastScanGate = p.Gate
		}

	case domain.ExitPayload:
		state.Status = domain.StatusOutside
		state.IsCurrentlyInside = false
		if p.ExitCount != nil {
			state.ExitCount = *p.ExitCount
		} else {
			state.ExitCount++
		}
		if p.Gate != "" {
			state.LastScanGate = p.Gate
		}

	case domain.ScanRejectedPayload:
		state.RejectedScanCount++
		state.LastRejectReason = p.Reason

	case domain.EmailSentPayload:
		state.EmailsSent++

	case domain.EmailResentPayload:
		state.EmailsSent++

	case domain.EmailFailedPayload:
		state.EmailFailures++

	case domain.IDVerifiedPayload:
		state.IsIDVerified = true
		state.IDVerifiedBy = p.VerifiedBy
		if p.VerifiedAt != nil {
			state.IDVerifiedAt = p.VerifiedAt
		} else {
			at := ev.OccurredAt
			state.IDVerifiedAt = &at
		}
		state.IDVerifyFailReason = ""

	case domain.IDVerificationFailedPayload:
		state.IDVerifyFailReason = p.Reason

	case domain.FraudFlaggedPayload:
		state.IsFraudFlagged = true
		state.FraudReason = p.Reason
		state.RiskScore = p.RiskScore

	case domain.FraudClearedPayload:
		state.IsFraudFlagged = false
		state.FraudReason = ""
		state.RiskScore = 0

	case domain.MetadataUpdatedPayload:
		if state.Attributes == nil {
			state.Attributes = make(map[string]string, len(p.Fields))
		} else {
			// copy-on-write so earlier projected states stay untouched
			merged := make(map[string]string, len(state.Attributes)+len(p.Fields))
			for k, v := range state.Attributes {
				merged[k] = v
			}
			state.Attributes = merged
		}
		for k, v := range p.Fields {
			state.Attributes[k] = v
		}

	case domain.StatusOverridePayload:
		state.Status = p.NewStatus
		state.IsStatusOverridden = true

	case domain.NoteAddedPayload:
		state.NoteCount++
	}

	return state
}
