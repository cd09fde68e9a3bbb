// SPDX-License-Identifier: Apache-2.0

package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidEventShape marks a payload that does not match the declared
// schema version for its event type. Raised before any append attempt.
var ErrInvalidEventShape = errors.New("invalid event shape")

// ErrUnknownEventType marks an append attempt with a type outside the
// taxonomy. Reads tolerate unknown types; writes do not produce them.
var ErrUnknownEventType = errors.New("unknown event type")

// AppendError reports that the atomic allocate-sequence-and-insert did not
// commit. The write is not retried here; the caller owns retry and idempotency.
type AppendError struct {
	TicketID uuid.UUID
	Type     EventType
	Err      error
}

func (e *AppendError) Error() string {
	return fmt.Sprintf("append %s to ticket %s: %v", e.Type, e.TicketID, e.Err)
}

func (e *AppendError) Unwrap() error { return e.Err }

// ReadError reports a failed query against the store. It is never converted
// into an empty result; "no events yet" is not an error.
type ReadError struct {
	Op  string
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }
