package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type NoticeType string

const (
	NoticeReservationCreated   NoticeType = "reservation.created"
	NoticeReservationConfirmed NoticeType = "reservation.confirmed"
	NoticeReservationCancelled NoticeType = "reservation.cancelled"
	NoticeDepositRefunded      NoticeType = "deposit.refunded"
)

// ReservationNotice is the wire format on the reservation notices topic.
// Downstream consumers (mailers, dashboards) key off Type.
type ReservationNotice struct {
	ID            uuid.UUID  `json:"id"`
	Type          NoticeType `json:"type"`
	ReservationID string     `json:"reservation_id"`
	ResourceID    string     `json:"resource_id"`
	HolderRef     string     `json:"holder_ref"`
	Status        string     `json:"status"`
	Reason        string     `json:"reason,omitempty"`
	AmountCents   int64      `json:"amount_cents,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

func (n *ReservationNotice) ToJSON() ([]byte, error) {
	return json.Marshal(n)
}

// PartitionKey keeps all notices for one reservation in order.
func (n *ReservationNotice) PartitionKey() string {
	return n.ReservationID
}
