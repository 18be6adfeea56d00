package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Slot field names. The schema package declares their order, domains and
// dependency rules; these constants are the shared vocabulary.
const (
	FieldFlavor   = "sabor"
	FieldSize     = "tamano"
	FieldQuantity = "cantidad"
	FieldMode     = "modalidad"
	FieldAddress  = "direccion"
)

// Fulfillment modes.
const (
	ModePickup   = "recoger"
	ModeDelivery = "domicilio"
)

// PartialOrder is the incrementally filled slot set for one in-flight order.
// Values are the raw (normalised) customer answers; pricing happens at
// finalize time.
type PartialOrder map[string]string

// Get returns the value for the field, or "" when absent.
func (p PartialOrder) Get(field string) string {
	return p[field]
}

// Has reports whether the field is present and non-empty. An empty string is
// never "provided".
func (p PartialOrder) Has(field string) bool {
	return strings.TrimSpace(p[field]) != ""
}

// Set stores a non-empty value for the field. Empty values are dropped so a
// known field is never regressed to absent.
func (p PartialOrder) Set(field, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	p[field] = value
}

// Merge applies updates additively: each non-empty value is set, empty or
// missing values leave the current field untouched.
func (p PartialOrder) Merge(updates map[string]string) {
	for field, value := range updates {
		p.Set(field, value)
	}
}

// Clone returns an independent copy of the partial order.
func (p PartialOrder) Clone() PartialOrder {
	out := make(PartialOrder, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Extraction is the extractor adapter's result for one turn: the reply to
// relay to the customer and the additive field updates.
type Extraction struct {
	Reply   string
	Updates map[string]string
}

// FinalizedOrder is the immutable snapshot written to the ledger once all
// required fields validated.
type FinalizedOrder struct {
	ID           uuid.UUID `json:"id"`
	CustomerName string    `json:"customer_name"`
	Flavor       string    `json:"sabor"`
	Size         string    `json:"tamano"`
	Quantity     int       `json:"cantidad"`
	Mode         string    `json:"modalidad"`
	Address      string    `json:"direccion"`
	Total        int       `json:"total"`
	CreatedAt    time.Time `json:"created_at"`
}

// Inbound is one customer turn as delivered by the webhook transport.
type Inbound struct {
	CustomerID   string `json:"customer_id"`
	CustomerName string `json:"customer_display_name"`
	Message      string `json:"message_text"`
}

// Reply is what the engine hands back to the transport boundary: one or more
// segments, each text with an optional attached media reference.
type Reply struct {
	Segments []Segment
}

// Segment is a single outbound message part.
type Segment struct {
	Text     string `json:"text"`
	MediaURL string `json:"media_url,omitempty"`
}

// TextReply builds a single-segment text reply.
func TextReply(text string) Reply {
	return Reply{Segments: []Segment{{Text: text}}}
}
