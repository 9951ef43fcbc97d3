// Package services – lead event normalization
//
// This file decodes the three inbound webhook shapes into one uniform event:
//
//	(a) bare single-lead object            → created, one item
//	(b) single-lead object with "event"    → <event>, one item
//	(c) "event":"batch" with "data":[...]  → batch, N items
//
// The payload is decoded exactly once into a tagged union (LeadEvent) so the
// orchestrator never shape-sniffs raw JSON. Field validation is separate
// from decoding: a structurally valid item with missing mandatory fields is
// a ValidationError, not a parse failure.
package services

import (
	"encoding/json"
	"strings"
)

// Recognized webhook event types.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventBatch   = "batch"
)

// LeadFields carries one lead payload as sent by the webhook. Only
// FirstName, LastName, and Company are mandatory; everything else is
// captured verbatim when present.
type LeadFields struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Company      string `json:"company"`
	Email        string `json:"email,omitempty"`
	JobTitle     string `json:"job_title,omitempty"`
	Phone        string `json:"phone,omitempty"`
	QualityRank  string `json:"quality_rank,omitempty"`
	ShowName     string `json:"show_name,omitempty"`
	ShowDate     string `json:"show_date,omitempty"`
	Notes        string `json:"notes,omitempty"`
	ScanImageURL string `json:"scan_image_url,omitempty"`
	Source       string `json:"source,omitempty"`
	UserID       string `json:"user_id,omitempty"`
}

// LeadEvent is the normalized form of an inbound webhook delivery: an event
// type plus an ordered list of lead payloads. Single-lead shapes produce a
// one-item list.
type LeadEvent struct {
	Type  string
	Items []LeadFields
}

// IsBatch reports whether the event arrived in the batch envelope.
func (e *LeadEvent) IsBatch() bool { return e.Type == EventBatch }

// eventEnvelope is the discriminator wrapper probed before full decoding.
type eventEnvelope struct {
	Event string       `json:"event"`
	Data  []LeadFields `json:"data"`
}

// ParseLeadEvent decodes raw webhook JSON into a LeadEvent. Malformed JSON
// and unrecognized event discriminators are errors; missing mandatory fields
// are not detected here (see ValidateLeadFields).
func ParseLeadEvent(raw []byte) (*LeadEvent, error) {
	var env eventEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}

	switch env.Event {
	case EventBatch:
		if len(env.Data) == 0 {
			return nil, ErrEmptyBatch
		}
		return &LeadEvent{Type: EventBatch, Items: env.Data}, nil
	case "", EventCreated, EventUpdated:
		var fields LeadFields
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
		typ := env.Event
		if typ == "" {
			typ = EventCreated
		}
		return &LeadEvent{Type: typ, Items: []LeadFields{fields}}, nil
	default:
		return nil, ErrUnsupportedEvent
	}
}

// ValidateLeadFields checks the mandatory intake fields and returns a
// ValidationError naming every missing one, or nil when the item is
// complete. Whitespace-only values count as missing.
func ValidateLeadFields(f LeadFields) error {
	var missing []string
	if strings.TrimSpace(f.FirstName) == "" {
		missing = append(missing, "first_name")
	}
	if strings.TrimSpace(f.LastName) == "" {
		missing = append(missing, "last_name")
	}
	if strings.TrimSpace(f.Company) == "" {
		missing = append(missing, "company")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}
