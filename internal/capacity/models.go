package capacity

import (
	"time"

	"github.com/google/uuid"
)

// Slot is one scheduled occurrence of a seat-based resource. Seat counts are
// mutated only through the Store; the total capacity is read through from the
// owning resource and never denormalized onto the slot.
type Slot struct {
	ID                 uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ResourceID         uuid.UUID `gorm:"type:uuid;index;not null" json:"resource_id"`
	StartsAt           time.Time `gorm:"not null;index" json:"starts_at"`
	RemainingSeats     int       `gorm:"not null;check:remaining_seats >= 0" json:"remaining_seats"`
	ExclusiveGroupHeld bool      `gorm:"not null;default:false" json:"exclusive_group_held"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TableName sets the table name for Slot
func (Slot) TableName() string {
	return "slots"
}

// SlotView is a Slot joined with the owning resource's seat capacity.
type SlotView struct {
	Slot
	Capacity int `json:"capacity"`
}

// SeatsFree reports how many seats a non-group request could still take.
func (v *SlotView) SeatsFree() int {
	if v.ExclusiveGroupHeld {
		return 0
	}
	return v.RemainingSeats
}

// FullyFree reports whether the whole slot is available for a group claim.
func (v *SlotView) FullyFree() bool {
	return !v.ExclusiveGroupHeld && v.RemainingSeats == v.Capacity
}

// DateRange is a half-open day-granular interval [Start, End).
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two half-open ranges share at least one day.
func (r DateRange) Overlaps(o DateRange) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

// Covers reports whether day d falls inside the range.
func (r DateRange) Covers(d time.Time) bool {
	return !d.Before(r.Start) && d.Before(r.End)
}

// Days returns the number of calendar days the range spans.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours() / 24)
}
