// SPDX-License-Identifier: Apache-2.0

package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestPayloadValidation(t *testing.T) {
	cases := []struct {
		name    string
		payload Payload
		wantErr bool
	}{
		{name: "issued ok", payload: IssuedPayload{AttendeeName: "A", PriceCents: 100}},
		{name: "issued missing attendee", payload: IssuedPayload{PriceCents: 100}, wantErr: true},
		{name: "issued negative price", payload: IssuedPayload{AttendeeName: "A", PriceCents: -1}, wantErr: true},
		{name: "refunded ok", payload: RefundedPayload{RefundID: "rf_1", AmountCents: 100}},
		{name: "refunded missing id", payload: RefundedPayload{AmountCents: 100}, wantErr: true},
		{name: "transfer ok", payload: TransferredPayload{RecipientName: "B"}},
		{name: "transfer missing recipient", payload: TransferredPayload{}, wantErr: true},
		{name: "scan rejected ok", payload: ScanRejectedPayload{Reason: RejectAlreadyScanned}},
		{name: "scan rejected empty reason", payload: ScanRejectedPayload{}, wantErr: true},
		{name: "scan rejected bad reason", payload: ScanRejectedPayload{Reason: "BORED"}, wantErr: true},
		{name: "fraud ok", payload: FraudFlaggedPayload{Reason: "velocity", RiskScore: 0.9}},
		{name: "fraud score out of range", payload: FraudFlaggedPayload{Reason: "velocity", RiskScore: 1.5}, wantErr: true},
		{name: "email missing recipient", payload: EmailSentPayload{Template: "issued"}, wantErr: true},
		{name: "metadata empty fields", payload: MetadataUpdatedPayload{}, wantErr: true},
		{name: "override ok", payload: StatusOverridePayload{NewStatus: StatusConfirmed, Reason: "support"}},
		{name: "override missing reason", payload: StatusOverridePayload{NewStatus: StatusConfirmed}, wantErr: true},
		{name: "note missing body", payload: NoteAddedPayload{Author: "ops"}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.payload.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected validation error")
				}
				if !errors.Is(err, ErrInvalidEventShape) {
					t.Fatalf("expected ErrInvalidEventShape, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := IssuedPayload{
		OrderID:      "ord_7",
		AttendeeName: "A",
		Tier:         "vip",
		PriceCents:   100,
		Currency:     "USD",
		QRCodeID:     "qr_9",
	}

	raw, err := EncodePayload(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := DecodePayload(TicketIssued, 1, raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	out, ok := decoded.(IssuedPayload)
	if !ok {
		t.Fatalf("expected IssuedPayload, got %T", decoded)
	}
	if out != in {
		t.Fatalf("round trip mismatch: %+v != %+v", out, in)
	}
}

func TestEncodeRejectsInvalidPayload(t *testing.T) {
	if _, err := EncodePayload(IssuedPayload{}); !errors.Is(err, ErrInvalidEventShape) {
		t.Fatalf("expected ErrInvalidEventShape, got %v", err)
	}
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	if _, err := DecodePayload("TICKET_TELEPORTED", 1, json.RawMessage(`{}`)); !errors.Is(err, ErrUnknownEventType) {
		t.Fatalf("expected ErrUnknownEventType, got %v", err)
	}
}

func TestDecodeRejectsUnsupportedSchemaVersion(t *testing.T) {
	if _, err := DecodePayload(TicketIssued, 99, json.RawMessage(`{}`)); !errors.Is(err, ErrInvalidEventShape) {
		t.Fatalf("expected ErrInvalidEventShape, got %v", err)
	}
}

func TestDecodeRejectsShapeDrift(t *testing.T) {
	raw := json.RawMessage(`{"attendee_name":"A","price_cents":100,"surprise":true}`)
	if _, err := DecodePayload(TicketIssued, 1, raw); !errors.Is(err, ErrInvalidEventShape) {
		t.Fatalf("expected unknown field to be rejected, got %v", err)
	}
}

func TestDecodeEmptyPayload(t *testing.T) {
	decoded, err := DecodePayload(TicketConfirmed, 1, nil)
	if err != nil {
		t.Fatalf("decode empty: %v", err)
	}
	if _, ok := decoded.(ConfirmedPayload); !ok {
		t.Fatalf("expected ConfirmedPayload, got %T", decoded)
	}
}
