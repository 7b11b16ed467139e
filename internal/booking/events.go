package booking

import (
	"encoding/json"
	"time"
)

const (
	EventBookingCreated  = "BookingCreated"
	EventBookingRejected = "BookingRejected"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // booking id
	Payload       json.RawMessage `json:"payload"`
}

type BookingCreatedPayload struct {
	BookingID string `json:"booking_id"`
	OrdererID string `json:"orderer_id"`
	StartDate Date   `json:"start_date"`
	EndDate   Date   `json:"end_date"`
	Lines     []Line `json:"lines"`
}

type BookingRejectedPayload struct {
	OrdererName string           `json:"orderer_name"`
	StartDate   Date             `json:"start_date"`
	EndDate     Date             `json:"end_date"`
	Reason      string           `json:"reason"` // e.g. OUT_OF_STOCK
	Details     []RejectedDetail `json:"details,omitempty"`
}

type RejectedDetail struct {
	ProductName string `json:"product_name"`
	Required    int    `json:"required"`
	Available   int    `json:"available"`
}
