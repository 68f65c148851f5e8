package payments

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Payment outcomes carried on the payment events topic.
const (
	OutcomeSucceeded = "SUCCEEDED"
	OutcomeFailed    = "FAILED"
)

// PaymentEvent is the wire format published by the payment provider gateway.
// EventID is unique per delivery attempt chain: redeliveries of the same
// payment carry the same EventID.
type PaymentEvent struct {
	EventID          string    `json:"event_id"`
	ReservationID    string    `json:"reservation_id"`
	PaymentReference string    `json:"payment_reference"`
	Outcome          string    `json:"outcome"`
	AmountCents      int64     `json:"amount_cents"`
	OccurredAt       time.Time `json:"occurred_at"`
}

func (e *PaymentEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// PartitionKey routes all events for one reservation to the same partition,
// preserving their relative order.
func (e *PaymentEvent) PartitionKey() string {
	return e.ReservationID
}

// ProcessedPayment is the ledger of payment events already applied. The
// unique event reference makes replays visible without touching the
// reservation row.
type ProcessedPayment struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EventRef      string    `gorm:"size:255;uniqueIndex;not null" json:"event_ref"`
	ReservationID uuid.UUID `gorm:"type:uuid;index;not null" json:"reservation_id"`
	Outcome       string    `gorm:"type:varchar(20);not null" json:"outcome"`
	AmountCents   int64     `gorm:"not null" json:"amount_cents"`
	ProcessedAt   time.Time `gorm:"not null" json:"processed_at"`
}

// TableName sets the table name for ProcessedPayment
func (ProcessedPayment) TableName() string {
	return "processed_payments"
}
