package pricing

import (
	"fmt"

	"reservio/internal/capacity"
	"reservio/internal/reservations"
	"reservio/internal/shared/apperrors"
)

// Service quotes reservation prices from the resource's base rate.
// Seat claims pay per seat, group claims pay for the whole slot, inventory
// claims pay per day of the range. Only inventory rentals carry a deposit;
// seat claims quote zero even when the resource lists one.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

func (s *Service) Quote(info *reservations.ResourceInfo, desc reservations.AllocationDescriptor) (int64, int64, error) {
	if info == nil {
		return 0, 0, fmt.Errorf("resource info is required: %w", apperrors.ErrValidation)
	}

	switch {
	case desc.Seat != nil:
		units := int64(desc.Seat.Seats)
		if desc.Seat.AsGroup {
			units = int64(info.Capacity)
		}
		if units < 1 {
			return 0, 0, fmt.Errorf("nothing to price: %w", apperrors.ErrValidation)
		}
		return info.BasePriceCents * units, 0, nil

	case desc.Range != nil:
		window := capacity.DateRange{Start: desc.Range.Start, End: desc.Range.End}
		days := int64(window.Days())
		if days < 1 {
			return 0, 0, fmt.Errorf("range must span at least one day: %w", apperrors.ErrValidation)
		}
		return info.BasePriceCents * days, info.DepositCents, nil

	default:
		return 0, 0, fmt.Errorf("empty allocation: %w", apperrors.ErrValidation)
	}
}
