// SPDX-License-Identifier: Apache-2.0

package domain

import (
	"time"

	"github.com/google/uuid"
)

// TicketState is the projection of one ticket's event stream. It is derived
// and disposable: the stream is the source of truth and the state can always
// be rebuilt from it.
type TicketState struct {
	TicketID uuid.UUID `json:"ticket_id"`
	Status   Status    `json:"status"`

	// Identity copied from TICKET_ISSUED.
	OrderID       string `json:"order_id,omitempty"`
	AttendeeName  string `json:"attendee_name,omitempty"`
	AttendeeEmail string `json:"attendee_email,omitempty"`
	Tier          string `json:"tier,omitempty"`
	PriceCents    int64  `json:"price_cents,omitempty"`
	Currency      string `json:"currency,omitempty"`
	QRCodeID      string `json:"qr_code_id,omitempty"`

	// Scan tracking.
	IsScanned         bool            `json:"is_scanned"`
	ScanCount         int             `json:"scan_count"`
	EntryCount        int             `json:"entry_count"`
	ExitCount         int             `json:"exit_count"`
	RejectedScanCount int             `json:"rejected_scan_count"`
	IsCurrentlyInside bool            `json:"is_currently_inside"`
	FirstScannedAt    *time.Time      `json:"first_scanned_at,omitempty"`
	LastScannedAt     *time.Time      `json:"last_scanned_at,omitempty"`
	LastScanActor     string          `json:"last_scan_actor,omitempty"`
	LastScanGate      string          `json:"last_scan_gate,omitempty"`
	LastRejectReason  RejectionReason `json:"last_reject_reason,omitempty"`

	// Refund.
	IsRefunded        bool       `json:"is_refunded"`
	RefundID          string     `json:"refund_id,omitempty"`
	RefundAmountCents int64      `json:"refund_amount_cents,omitempty"`
	RefundedAt        *time.Time `json:"refunded_at,omitempty"`

	// Transfer.
	IsTransferred bool       `json:"is_transferred"`
	TransferredTo string     `json:"transferred_to,omitempty"`
	TransferredAt *time.Time `json:"transferred_at,omitempty"`

	// Identity verification.
	IsIDVerified       bool       `json:"is_id_verified"`
	IDVerifiedBy       string     `json:"id_verified_by,omitempty"`
	IDVerifiedAt       *time.Time `json:"id_verified_at,omitempty"`
	IDVerifyFailReason string     `json:"id_verify_fail_reason,omitempty"`

	// Fraud.
	IsFraudFlagged bool    `json:"is_fraud_flagged"`
	FraudReason    string  `json:"fraud_reason,omitempty"`
	RiskScore      float64 `json:"risk_score,omitempty"`

	// Communication.
	EmailsSent    int `json:"emails_sent"`
	EmailFailures int `json:"email_failures"`

	// Administrative.
	Attributes         map[string]string `json:"attributes,omitempty"`
	NoteCount          int               `json:"note_count"`
	IsStatusOverridden bool              `json:"is_status_overridden"`

	// Bookkeeping, updated by every applied event.
	EventCount    int       `json:"event_count"`
	LastEventType EventType `json:"last_event_type,omitempty"`
	LastEventAt   time.Time `json:"last_event_at"`
	Version       int64     `json:"version"`
}

// ZeroTicketState is the fold's starting point: status unknown, counters zero,
// flags false, version 0.
func ZeroTicketState(ticketID uuid.UUID) TicketState {
	return TicketState{
		TicketID: ticketID,
		Status:   StatusUnknown,
	}
}

// Exists reports whether any event has been applied.
func (s TicketState) Exists() bool { return s.Version > 0 }
