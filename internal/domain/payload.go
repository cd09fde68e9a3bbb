// SPDX-License-Identifier: Apache-2.0

package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Payload is the typed body of an event, one variant per taxonomy entry.
// Implementations are plain value structs; Validate rejects shapes that must
// never reach the store.
type Payload interface {
	EventType() EventType
	Validate() error
}

func shapeErr(t EventType, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidEventShape, t, fmt.Sprintf(format, args...))
}

// IssuedPayload carries the identity a ticket is born with.
type IssuedPayload struct {
	OrderID       string `json:"order_id"`
	AttendeeName  string `json:"attendee_name"`
	AttendeeEmail string `json:"attendee_email,omitempty"`
	Tier          string `json:"tier,omitempty"`
	PriceCents    int64  `json:"price_cents"`
	Currency      string `json:"currency,omitempty"`
	QRCodeID      string `json:"qr_code_id,omitempty"`
}

func (IssuedPayload) EventType() EventType { return TicketIssued }

func (p IssuedPayload) Validate() error {
	if p.AttendeeName == "" {
		return shapeErr(TicketIssued, "attendee_name is required")
	}
	if p.PriceCents < 0 {
		return shapeErr(TicketIssued, "price_cents must not be negative")
	}
	return nil
}

type ReservedPayload struct {
	OrderID   string     `json:"order_id"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (ReservedPayload) EventType() EventType { return TicketReserved }
func (ReservedPayload) Validate() error      { return nil }

type ConfirmedPayload struct {
	OrderID   string `json:"order_id,omitempty"`
	PaymentID string `json:"payment_id,omitempty"`
}

func (ConfirmedPayload) EventType() EventType { return TicketConfirmed }
func (ConfirmedPayload) Validate() error      { return nil }

type CanceledPayload struct {
	Reason string `json:"reason,omitempty"`
}

func (CanceledPayload) EventType() EventType { return TicketCanceled }
func (CanceledPayload) Validate() error      { return nil }

type RefundedPayload struct {
	RefundID    string     `json:"refund_id"`
	AmountCents int64      `json:"amount_cents"`
	RefundedAt  *time.Time `json:"refunded_at,omitempty"`
}

func (RefundedPayload) EventType() EventType { return TicketRefunded }

func (p RefundedPayload) Validate() error {
	if p.RefundID == "" {
		return shapeErr(TicketRefunded, "refund_id is required")
	}
	if p.AmountCents < 0 {
		return shapeErr(TicketRefunded, "amount_cents must not be negative")
	}
	return nil
}

type ExpiredPayload struct {
	Reason string `json:"reason,omitempty"`
}

func (ExpiredPayload) EventType() EventType { return TicketExpired }
func (ExpiredPayload) Validate() error      { return nil }

type TransferredPayload struct {
	RecipientName  string     `json:"recipient_name"`
	RecipientEmail string     `json:"recipient_email,omitempty"`
	TransferredAt  *time.Time `json:"transferred_at,omitempty"`
}

func (TransferredPayload) EventType() EventType { return TicketTransferred }

func (p TransferredPayload) Validate() error {
	if p.RecipientName == "" {
		return shapeErr(TicketTransferred, "recipient_name is required")
	}
	return nil
}

type UpgradedPayload struct {
	FromTier        string `json:"from_tier,omitempty"`
	ToTier          string `json:"to_tier"`
	PriceDeltaCents int64  `json:"price_delta_cents,omitempty"`
}

func (UpgradedPayload) EventType() EventType { return TicketUpgraded }

func (p UpgradedPayload) Validate() error {
	if p.ToTier == "" {
		return shapeErr(TicketUpgraded, "to_tier is required")
	}
	return nil
}

type ScannedPayload struct {
	Gate      string     `json:"gate,omitempty"`
	ScannedAt *time.Time `json:"scanned_at,omitempty"`
}

func (ScannedPayload) EventType() EventType { return TicketScanned }
func (ScannedPayload) Validate() error      { return nil }

// ReentryPayload may carry an authoritative entry count from the door system;
// when present it overwrites the projected counter instead of incrementing.
type ReentryPayload struct {
	Gate       string `json:"gate,omitempty"`
	EntryCount *int   `json:"entry_count,omitempty"`
}

func (ReentryPayload) EventType() EventType { return TicketReentered }

func (p ReentryPayload) Validate() error {
	if p.EntryCount != nil && *p.EntryCount < 0 {
		return shapeErr(TicketReentered, "entry_count must not be negative")
	}
	return nil
}

type ExitPayload struct {
	Gate      string `json:"gate,omitempty"`
	ExitCount *int   `json:"exit_count,omitempty"`
}

func (ExitPayload) EventType() EventType { return TicketExited }

func (p ExitPayload) Validate() error {
	if p.ExitCount != nil && *p.ExitCount < 0 {
		return shapeErr(TicketExited, "exit_count must not be negative")
	}
	return nil
}

type ScanRejectedPayload struct {
	Reason RejectionReason `json:"reason"`
	Gate   string          `json:"gate,omitempty"`
}

func (ScanRejectedPayload) EventType() EventType { return TicketScanRejected }

func (p ScanRejectedPayload) Validate() error {
	switch p.Reason {
	case RejectAlreadyScanned, RejectInvalidSignature, RejectExpired,
		RejectCanceled, RejectWrongEvent, RejectFraudDetected:
		return nil
	case "":
		return shapeErr(TicketScanRejected, "reason is required")
	default:
		return shapeErr(TicketScanRejected, "unrecognized reason %q", p.Reason)
	}
}

type EmailSentPayload struct {
	Template  string `json:"template,omitempty"`
	Recipient string `json:"recipient"`
	MessageID string `json:"message_id,omitempty"`
}

func (EmailSentPayload) EventType() EventType { return EmailSent }

func (p EmailSentPayload) Validate() error {
	if p.Recipient == "" {
		return shapeErr(EmailSent, "recipient is required")
	}
	return nil
}

type EmailResentPayload struct {
	Template  string `json:"template,omitempty"`
	Recipient string `json:"recipient"`
	MessageID string `json:"message_id,omitempty"`
}

func (EmailResentPayload) EventType() EventType { return EmailResent }

func (p EmailResentPayload) Validate() error {
	if p.Recipient == "" {
		return shapeErr(EmailResent, "recipient is required")
	}
	return nil
}

type EmailFailedPayload struct {
	Template  string `json:"template,omitempty"`
	Recipient string `json:"recipient"`
	Error     string `json:"error,omitempty"`
}

func (EmailFailedPayload) EventType() EventType { return EmailFailed }

func (p EmailFailedPayload) Validate() error {
	if p.Recipient == "" {
		return shapeErr(EmailFailed, "recipient is required")
	}
	return nil
}

type IDVerifiedPayload struct {
	VerifiedBy string     `json:"verified_by"`
	Method     string     `json:"method,omitempty"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

func (IDVerifiedPayload) EventType() EventType { return IDVerified }

func (p IDVerifiedPayload) Validate() error {
	if p.VerifiedBy == "" {
		return shapeErr(IDVerified, "verified_by is required")
	}
	return nil
}

type IDVerificationFailedPayload struct {
	Reason string `json:"reason,omitempty"`
}

func (IDVerificationFailedPayload) EventType() EventType { return IDVerificationFailed }
func (IDVerificationFailedPayload) Validate() error      { return nil }

type FraudFlaggedPayload struct {
	Reason    string  `json:"reason"`
	RiskScore float64 `json:"risk_score,omitempty"`
	FlaggedBy string  `json:"flagged_by,omitempty"`
}

func (FraudFlaggedPayload) EventType() EventType { return FraudFlagged }

func (p FraudFlaggedPayload) Validate() error {
	if p.Reason == "" {
		return shapeErr(FraudFlagged, "reason is required")
	}
	if p.RiskScore < 0 || p.RiskScore > 1 {
		return shapeErr(FraudFlagged, "risk_score must be within [0,1]")
	}
	return nil
}

type FraudClearedPayload struct {
	ClearedBy string `json:"cleared_by,omitempty"`
	Note      string `json:"note,omitempty"`
}

func (FraudClearedPayload) EventType() EventType { return FraudCleared }
func (FraudClearedPayload) Validate() error      { return nil }

type MetadataUpdatedPayload struct {
	Fields map[string]string `json:"fields"`
}

func (MetadataUpdatedPayload) EventType() EventType { return MetadataUpdated }

func (p MetadataUpdatedPayload) Validate() error {
	if len(p.Fields) == 0 {
		return shapeErr(MetadataUpdated, "fields must not be empty")
	}
	return nil
}

type StatusOverridePayload struct {
	NewStatus Status `json:"new_status"`
	Reason    string `json:"reason"`
}

func (StatusOverridePayload) EventType() EventType { return StatusOverridden }

func (p StatusOverridePayload) Validate() error {
	if p.NewStatus == "" || p.NewStatus == StatusUnknown {
		return shapeErr(StatusOverridden, "new_status is required")
	}
	if p.Reason == "" {
		return shapeErr(StatusOverridden, "reason is required")
	}
	return nil
}

type NoteAddedPayload struct {
	Note   string `json:"note"`
	Author string `json:"author,omitempty"`
}

func (NoteAddedPayload) EventType() EventType { return NoteAdded }

func (p NoteAddedPayload) Validate() error {
	if p.Note == "" {
		return shapeErr(NoteAdded, "note is required")
	}
	return nil
}

// EncodePayload validates p and serializes it for storage.
func EncodePayload(p Payload) (json.RawMessage, error) {
	if p == nil {
		return json.RawMessage(`{}`), nil
	}
	if !KnownEventType(p.EventType()) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, p.EventType())
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, shapeErr(p.EventType(), "marshal: %v", err)
	}
	return raw, nil
}

// DecodePayload interprets raw as the payload shape declared by (t, version).
// Every (type, version) pair this store has ever written stays decodable here.
func DecodePayload(t EventType, version int, raw json.RawMessage) (Payload, error) {
	if !KnownEventType(t) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, t)
	}
	if version != schemaVersions[t] {
		return nil, shapeErr(t, "unsupported schema version %d", version)
	}

	var p Payload
	switch t {
	case TicketIssued:
		p = decodeInto[IssuedPayload](raw)
	case TicketReserved:
		p = decodeInto[ReservedPayload](raw)
	case TicketConfirmed:
		p = decodeInto[ConfirmedPayload](raw)
	case TicketCanceled:
		p = decodeInto[CanceledPayload](raw)
	case TicketRefunded:
		p = decodeInto[RefundedPayload](raw)
	case TicketExpired:
		p = decodeInto[ExpiredPayload](raw)
	case TicketTransferred:
		p = decodeInto[TransferredPayload](raw)
	case TicketUpgraded:
		p = decodeInto[UpgradedPayload](raw)
	case TicketScanned:
		p = decodeInto[ScannedPayload](raw)
	case TicketReentered:
		p = decodeInto[ReentryPayload](raw)
	case TicketExited:
		p = decodeInto[ExitPayload](raw)
	case TicketScanRejected:
		p = decodeInto[ScanRejectedPayload](raw)
	case EmailSent:
		p = decodeInto[EmailSentPayload](raw)
	case EmailResent:
		p = decodeInto[EmailResentPayload](raw)
	case EmailFailed:
		p = decodeInto[EmailFailedPayload](raw)
	case IDVerified:
		p = decodeInto[IDVerifiedPayload](raw)
	case IDVerificationFailed:
		p = decodeInto[IDVerificationFailedPayload](raw)
	case FraudFlagged:
		p = decodeInto[FraudFlaggedPayload](raw)
	case FraudCleared:
		p = decodeInto[FraudClearedPayload](raw)
	case MetadataUpdated:
		p = decodeInto[MetadataUpdatedPayload](raw)
	case StatusOverridden:
		p = decodeInto[StatusOverridePayload](raw)
	case NoteAdded:
		p = decodeInto[NoteAddedPayload](raw)
	}
	if p == nil {
		return nil, shapeErr(t, "malformed payload")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// decodeInto returns the decoded value or nil when raw is not valid JSON for
// P. Unknown fields are rejected so shape drift surfaces at append time.
func decodeInto[P Payload](raw json.RawMessage) Payload {
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var v P
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}
