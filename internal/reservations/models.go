package reservations

import (
	"time"

	"github.com/google/uuid"
)

// Reservation is one holder's claim on capacity. Seat-based claims carry a
// SlotID and Quantity; inventory claims carry a date range and no counter
// anywhere is decremented for them, their existence is the claim.
type Reservation struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ResourceID uuid.UUID `gorm:"type:uuid;index;not null" json:"resource_id"`
	HolderRef  string    `gorm:"size:255;index;not null" json:"holder_ref"`
	Status     Status    `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`

	// Seat-based claim
	SlotID    *uuid.UUID `gorm:"type:uuid;index" json:"slot_id,omitempty"`
	Quantity  int        `gorm:"not null;default:0" json:"quantity"`
	GroupHold bool       `gorm:"not null;default:false" json:"group_hold"`

	// Inventory claim, half-open [RangeStart, RangeEnd)
	RangeStart *time.Time `json:"range_start,omitempty"`
	RangeEnd   *time.Time `json:"range_end,omitempty"`

	// UsageEndsAt is when the reserved thing is over: the slot start for
	// seat claims, the range end for inventory claims. The deposit sweep
	// keys off it.
	UsageEndsAt   time.Time `gorm:"not null;index" json:"usage_ends_at"`
	HoldExpiresAt time.Time `gorm:"not null;index" json:"hold_expires_at"`

	TotalPriceCents  int64        `gorm:"not null;default:0" json:"total_price_cents"`
	DepositCents     int64        `gorm:"not null;default:0" json:"deposit_cents"`
	DepositState     DepositState `gorm:"type:varchar(20);not null;default:'NONE'" json:"deposit_state"`
	PaymentReference string       `gorm:"size:255" json:"payment_reference,omitempty"`
	CancelReason     string       `gorm:"size:255" json:"cancel_reason,omitempty"`

	ConfirmedAt       *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty"`
	DepositRefundedAt *time.Time `json:"deposit_refunded_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name for Reservation
func (Reservation) TableName() string {
	return "reservations"
}

// IsSeatClaim reports whether the reservation consumes seats in a slot.
func (r *Reservation) IsSeatClaim() bool {
	return r.SlotID != nil
}

// IsRangeClaim reports whether the reservation claims an inventory unit over
// a date range.
func (r *Reservation) IsRangeClaim() bool {
	return r.RangeStart != nil && r.RangeEnd != nil
}

// HoldExpired reports whether the payment hold has lapsed at the given time.
func (r *Reservation) HoldExpired(now time.Time) bool {
	return r.Status == StatusPending && !now.Before(r.HoldExpiresAt)
}
