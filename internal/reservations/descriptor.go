package reservations

import (
	"fmt"
	"time"

	"reservio/internal/shared/apperrors"

	"github.com/google/uuid"
)

// SeatRequest claims seats in one scheduled slot. AsGroup claims the whole
// slot exclusively, in which case Seats is ignored.
type SeatRequest struct {
	SlotID  uuid.UUID
	Seats   int
	AsGroup bool
}

// RangeRequest claims one interchangeable unit over a half-open day range.
type RangeRequest struct {
	Start time.Time
	End   time.Time
}

// AllocationDescriptor is what a reservation asks for: exactly one of a seat
// claim or a range claim.
type AllocationDescriptor struct {
	Seat  *SeatRequest
	Range *RangeRequest
}

func (d AllocationDescriptor) Validate() error {
	switch {
	case d.Seat != nil && d.Range != nil:
		return fmt.Errorf("reservation cannot claim both seats and a date range: %w", apperrors.ErrValidation)
	case d.Seat == nil && d.Range == nil:
		return fmt.Errorf("reservation must claim either seats or a date range: %w", apperrors.ErrValidation)
	case d.Seat != nil:
		if !d.Seat.AsGroup && d.Seat.Seats < 1 {
			return fmt.Errorf("seat count must be positive: %w", apperrors.ErrValidation)
		}
		return nil
	default:
		if !d.Range.Start.Before(d.Range.End) {
			return fmt.Errorf("range start must precede range end: %w", apperrors.ErrValidation)
		}
		return nil
	}
}

// normalizeDay truncates a timestamp to UTC midnight. Inventory claims are
// day-granular.
func normalizeDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
