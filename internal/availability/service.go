package availability

import (
	"context"
	"fmt"
	"time"

	"reservio/internal/capacity"
	"reservio/internal/reservations"
	"reservio/internal/shared/apperrors"
	"reservio/internal/shared/constants"
	"reservio/pkg/cache"

	"github.com/google/uuid"
)

// Service answers "what is free" questions for display. Results may be
// cached and therefore slightly stale; reservation creation never consults
// this package, it re-checks against the database.
type Service interface {
	SetCacheService(cacheService cache.Service)
	GetSlotAvailability(slotID uuid.UUID) (*SlotAvailabilityResponse, error)
	GetRangeCalendar(resourceID uuid.UUID, from, to time.Time) (*RangeAvailabilityResponse, error)
}

// CapacityReader interface to avoid circular dependencies with the capacity
// package's concrete store.
type CapacityReader interface {
	GetSlot(ctx context.Context, slotID uuid.UUID) (*capacity.SlotView, error)
	OverlappingRanges(ctx context.Context, resourceID uuid.UUID, window capacity.DateRange) ([]capacity.DateRange, error)
}

type service struct {
	store        CapacityReader
	directory    reservations.ResourceDirectory
	cacheService cache.Service
}

func NewService(store CapacityReader, directory reservations.ResourceDirectory) Service {
	return &service{
		store:     store,
		directory: directory,
	}
}

// SetCacheService injects the cache service dependency
func (s *service) SetCacheService(cacheService cache.Service) {
	s.cacheService = cacheService
}

func (s *service) GetSlotAvailability(slotID uuid.UUID) (*SlotAvailabilityResponse, error) {
	ctx := context.Background()

	fetch := func() (interface{}, error) {
		view, err := s.store.GetSlot(ctx, slotID)
		if err != nil {
			return nil, err
		}
		return &SlotAvailabilityResponse{
			SlotID:         view.ID.String(),
			ResourceID:     view.ResourceID.String(),
			StartsAt:       view.StartsAt,
			Capacity:       view.Capacity,
			RemainingSeats: view.RemainingSeats,
			GroupHeld:      view.ExclusiveGroupHeld,
			SeatsFree:      view.SeatsFree(),
			FullyFree:      view.FullyFree(),
		}, nil
	}

	var response SlotAvailabilityResponse
	if s.cacheService != nil {
		key := constants.BuildSlotAvailabilityKey(slotID.String())
		if err := s.cacheService.GetOrSet(ctx, key, constants.TTL_AVAILABILITY, fetch, &response); err != nil {
			return nil, err
		}
		return &response, nil
	}

	result, err := fetch()
	if err != nil {
		return nil, err
	}
	return result.(*SlotAvailabilityResponse), nil
}

func (s *service) GetRangeCalendar(resourceID uuid.UUID, from, to time.Time) (*RangeAvailabilityResponse, error) {
	if !from.Before(to) {
		return nil, fmt.Errorf("from must precede to: %w", apperrors.ErrValidation)
	}

	ctx := context.Background()

	fetch := func() (interface{}, error) {
		info, err := s.directory.GetResourceInfo(resourceID)
		if err != nil {
			return nil, err
		}
		if info.Mode != "INVENTORY_BASED" {
			return nil, fmt.Errorf("resource has no unit calendar: %w", apperrors.ErrValidation)
		}

		window := capacity.DateRange{Start: from, End: to}
		existing, err := s.store.OverlappingRanges(ctx, resourceID, window)
		if err != nil {
			return nil, err
		}

		counts := capacity.DailyOverlapCounts(existing, window)
		days := make([]DayAvailability, len(counts))
		feasible := true
		for i, c := range counts {
			free := info.UnitCount - c.InUse
			if free < 0 {
				free = 0
			}
			if free == 0 {
				feasible = false
			}
			days[i] = DayAvailability{
				Date:       c.Day.Format("2006-01-02"),
				UnitsInUse: c.InUse,
				UnitsFree:  free,
			}
		}

		return &RangeAvailabilityResponse{
			ResourceID: resourceID.String(),
			From:       from.Format("2006-01-02"),
			To:         to.Format("2006-01-02"),
			UnitCount:  info.UnitCount,
			Days:       days,
			Feasible:   feasible,
		}, nil
	}

	var response RangeAvailabilityResponse
	if s.cacheService != nil {
		key := constants.BuildRangeAvailabilityKey(resourceID.String(), from, to)
		if err := s.cacheService.GetOrSet(ctx, key, constants.TTL_AVAILABILITY, fetch, &response); err != nil {
			return nil, err
		}
		return &response, nil
	}

	result, err := fetch()
	if err != nil {
		return nil, err
	}
	return result.(*RangeAvailabilityResponse), nil
}
