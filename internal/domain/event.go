// SPDX-License-Identifier: Apache-2.0

package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventRecord is one immutable fact in a ticket's stream. Once written it is
// never updated or deleted; compensating facts are new events.
type EventRecord struct {
	ID            uuid.UUID       `json:"id"`
	TicketID      uuid.UUID       `json:"ticket_id"`
	Seq           int64           `json:"seq"`
	Type          EventType       `json:"type"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Metadata      Metadata        `json:"metadata"`
	CorrelationID uuid.UUID       `json:"correlation_id"`
	CausationID   *uuid.UUID      `json:"causation_id,omitempty"`
	SchemaVersion int             `json:"schema_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	RecordedAt    time.Time       `json:"recorded_at"`
}

// ActorType says what kind of agent caused an event.
type ActorType string

const (
	ActorUser    ActorType = "USER"
	ActorDevice  ActorType = "DEVICE"
	ActorSystem  ActorType = "SYSTEM"
	ActorWebhook ActorType = "WEBHOOK"
)

// Metadata attributes an event to its actor plus free-form request context.
type Metadata struct {
	ActorType ActorType         `json:"actor_type"`
	ActorID   string            `json:"actor_id,omitempty"`
	DeviceID  string            `json:"device_id,omitempty"`
	IP        string            `json:"ip,omitempty"`
	Location  string            `json:"location,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// SystemMetadata is the default attribution for appends that supply none.
func SystemMetadata() Metadata {
	return Metadata{ActorType: ActorSystem}
}
