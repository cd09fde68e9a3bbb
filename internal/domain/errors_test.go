// SPDX-License-Identifier: Apache-2.0

package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestAppendErrorWrapping(t *testing.T) {
	cause := errors.New("connection reset")
	err := error(&AppendError{TicketID: uuid.New(), Type: TicketIssued, Err: cause})

	if !errors.Is(err, cause) {
		t.Fatal("expected AppendError to unwrap to its cause")
	}

	var appendErr *AppendError
	if !errors.As(err, &appendErr) {
		t.Fatal("expected errors.As to find *AppendError")
	}
	if appendErr.Type != TicketIssued {
		t.Fatalf("expected event type to survive, got %s", appendErr.Type)
	}
}

func TestReadErrorWrapping(t *testing.T) {
	cause := errors.New("malformed filter")
	err := error(&ReadError{Op: "events by type", Err: cause})

	if !errors.Is(err, cause) {
		t.Fatal("expected ReadError to unwrap to its cause")
	}
	if got := err.Error(); got != "events by type: malformed filter" {
		t.Fatalf("unexpected message: %s", got)
	}
}
