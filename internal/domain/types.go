// SPDX-License-Identifier: Apache-2.0

package domain

// EventType identifies one entry of the closed event taxonomy. Values are
// past-tense fact strings; adding a type never changes the meaning of an
// existing string, and payload shape changes require a schema version bump.
type EventType string

// Lifecycle events.
const (
	TicketIssued      EventType = "TICKET_ISSUED"
	TicketReserved    EventType = "TICKET_RESERVED"
	TicketConfirmed   EventType = "TICKET_CONFIRMED"
	TicketCanceled    EventType = "TICKET_CANCELED"
	TicketRefunded    EventType = "TICKET_REFUNDED"
	TicketExpired     EventType = "TICKET_EXPIRED"
	TicketTransferred EventType = "TICKET_TRANSFERRED"
	TicketUpgraded    EventType = "TICKET_UPGRADED"
)

// Scan and access events.
const (
	TicketScanned      EventType = "TICKET_SCANNED"
	TicketReentered    EventType = "TICKET_REENTERED"
	TicketExited       EventType = "TICKET_EXITED"
	TicketScanRejected EventType = "TICKET_SCAN_REJECTED"
)

// Communication events.
const (
	EmailSent   EventType = "EMAIL_SENT"
	EmailResent EventType = "EMAIL_RESENT"
	EmailFailed EventType = "EMAIL_FAILED"
)

// Trust and security events.
const (
	IDVerified           EventType = "ID_VERIFIED"
	IDVerificationFailed EventType = "ID_VERIFICATION_FAILED"
	FraudFlagged         EventType = "FRAUD_FLAGGED"
	FraudCleared         EventType = "FRAUD_CLEARED"
)

// Administrative events.
const (
	MetadataUpdated  EventType = "METADATA_UPDATED"
	StatusOverridden EventType = "STATUS_OVERRIDDEN"
	NoteAdded        EventType = "NOTE_ADDED"
)

// RejectionReason explains a TICKET_SCAN_REJECTED event.
type RejectionReason string

const (
	RejectAlreadyScanned   RejectionReason = "ALREADY_SCANNED"
	RejectInvalidSignature RejectionReason = "INVALID_SIGNATURE"
	RejectExpired          RejectionReason = "EXPIRED"
	RejectCanceled         RejectionReason = "CANCELED"
	RejectWrongEvent       RejectionReason = "WRONG_EVENT"
	RejectFraudDetected    RejectionReason = "FRAUD_DETECTED"
)

// Status is the projected lifecycle position of a ticket.
type Status string

const (
	StatusUnknown     Status = "UNKNOWN"
	StatusIssued      Status = "ISSUED"
	StatusReserved    Status = "RESERVED"
	StatusConfirmed   Status = "CONFIRMED"
	StatusScanned     Status = "SCANNED"
	StatusInside      Status = "INSIDE"
	StatusOutside     Status = "OUTSIDE"
	StatusCanceled    Status = "CANCELED"
	StatusRefunded    Status = "REFUNDED"
	StatusExpired     Status = "EXPIRED"
	StatusTransferred Status = "TRANSFERRED"
	StatusUpgraded    Status = "UPGRADED"
)

// schemaVersions is the current payload schema version per event type. A shape
// change to any payload bumps its entry here and adds a decode arm for the old
// version; historical rows keep decoding forever.
var schemaVersions = map[EventType]int{
	TicketIssued:         1,
	TicketReserved:       1,
	TicketConfirmed:      1,
	TicketCanceled:       1,
	TicketRefunded:       1,
	TicketExpired:        1,
	TicketTransferred:    1,
	TicketUpgraded:       1,
	TicketScanned:        1,
	TicketReentered:      1,
	TicketExited:         1,
	TicketScanRejected:   1,
	EmailSent:            1,
	EmailResent:          1,
	EmailFailed:          1,
	IDVerified:           1,
	IDVerificationFailed: 1,
	FraudFlagged:         1,
	FraudCleared:         1,
	MetadataUpdated:      1,
	StatusOverridden:     1,
	NoteAdded:            1,
}

// KnownEventType reports whether t belongs to the taxonomy.
func KnownEventType(t EventType) bool {
	_, ok := schemaVersions[t]
	return ok
}

// CurrentSchemaVersion returns the schema version new events of type t are
// written with, or 0 for types outside the taxonomy.
func CurrentSchemaVersion(t EventType) int {
	return schemaVersions[t]
}

// EventTypes returns every taxonomy entry. Order is unspecified.
func EventTypes() []EventType {
	out := make([]EventType, 0, len(schemaVersions))
	for t := range schemaVersions {
		out = append(out, t)
	}
	return out
}
