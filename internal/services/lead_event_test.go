package services

import (
	"errors"
	"strings"
	"testing"
)

func TestParseLeadEvent_BareObject(t *testing.T) {
	raw := []byte(`{"first_name":"Ada","last_name":"Lovelace","company":"Analytical Engines"}`)
	ev, err := ParseLeadEvent(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ev.Type != EventCreated {
		t.Fatalf("type = %q, want %q", ev.Type, EventCreated)
	}
	if ev.IsBatch() {
		t.Fatalf("bare object must not be a batch")
	}
	if len(ev.Items) != 1 || ev.Items[0].FirstName != "Ada" {
		t.Fatalf("unexpected items: %+v", ev.Items)
	}
}

func TestParseLeadEvent_Enveloped(t *testing.T) {
	raw := []byte(`{"event":"updated","first_name":"Ada","last_name":"Lovelace","company":"AE"}`)
	ev, err := ParseLeadEvent(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ev.Type != EventUpdated {
		t.Fatalf("type = %q, want %q", ev.Type, EventUpdated)
	}
	if len(ev.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(ev.Items))
	}
}

func TestParseLeadEvent_Batch(t *testing.T) {
	raw := []byte(`{"event":"batch","data":[
		{"first_name":"Ada","last_name":"Lovelace","company":"AE"},
		{"first_name":"Alan","last_name":"Turing","company":"Bletchley"}
	]}`)
	ev, err := ParseLeadEvent(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !ev.IsBatch() {
		t.Fatalf("expected batch event")
	}
	if len(ev.Items) != 2 || ev.Items[1].LastName != "Turing" {
		t.Fatalf("unexpected items: %+v", ev.Items)
	}
}

func TestParseLeadEvent_EmptyBatch(t *testing.T) {
	if _, err := ParseLeadEvent([]byte(`{"event":"batch","data":[]}`)); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
	if _, err := ParseLeadEvent([]byte(`{"event":"batch"}`)); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch for missing data, got %v", err)
	}
}

func TestParseLeadEvent_UnsupportedEvent(t *testing.T) {
	if _, err := ParseLeadEvent([]byte(`{"event":"deleted","first_name":"x"}`)); !errors.Is(err, ErrUnsupportedEvent) {
		t.Fatalf("expected ErrUnsupportedEvent, got %v", err)
	}
}

func TestParseLeadEvent_MalformedJSON(t *testing.T) {
	if _, err := ParseLeadEvent([]byte(`{"first_name": `)); err == nil {
		t.Fatalf("expected error for truncated JSON")
	}
}

func TestValidateLeadFields_Missing(t *testing.T) {
	err := ValidateLeadFields(LeadFields{FirstName: "Ada"})
	ve, isVal := IsValidationError(err)
	if !isVal {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Missing) != 2 {
		t.Fatalf("missing = %v, want last_name and company", ve.Missing)
	}
	msg := ve.Error()
	if !strings.Contains(msg, "last_name") || !strings.Contains(msg, "company") {
		t.Fatalf("message does not name missing fields: %q", msg)
	}
}

func TestValidateLeadFields_WhitespaceIsMissing(t *testing.T) {
	err := ValidateLeadFields(LeadFields{FirstName: "  ", LastName: "Lovelace", Company: "AE"})
	if _, isVal := IsValidationError(err); !isVal {
		t.Fatalf("whitespace-only first_name must be treated as missing, got %v", err)
	}
}

func TestValidateLeadFields_Complete(t *testing.T) {
	if err := ValidateLeadFields(LeadFields{FirstName: "Ada", LastName: "Lovelace", Company: "AE"}); err != nil {
		t.Fatalf("complete fields rejected: %v", err)
	}
}
