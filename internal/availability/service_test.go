package availability

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"reservio/internal/capacity"
	"reservio/internal/reservations"
	"reservio/internal/shared/apperrors"

	"github.com/google/uuid"
)

type fakeReader struct {
	view   *capacity.SlotView
	ranges []capacity.DateRange
}

func (f *fakeReader) GetSlot(ctx context.Context, slotID uuid.UUID) (*capacity.SlotView, error) {
	if f.view == nil || f.view.ID != slotID {
		return nil, fmt.Errorf("slot not found: %w", apperrors.ErrNotFound)
	}
	copied := *f.view
	return &copied, nil
}

func (f *fakeReader) OverlappingRanges(ctx context.Context, resourceID uuid.UUID, window capacity.DateRange) ([]capacity.DateRange, error) {
	var out []capacity.DateRange
	for _, r := range f.ranges {
		if r.Overlaps(window) {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeDirectory struct {
	info *reservations.ResourceInfo
}

func (f *fakeDirectory) GetResourceInfo(id uuid.UUID) (*reservations.ResourceInfo, error) {
	if f.info == nil || f.info.ID != id {
		return nil, fmt.Errorf("resource not found: %w", apperrors.ErrNotFound)
	}
	copied := *f.info
	return &copied, nil
}

func day(d int) time.Time {
	return time.Date(2026, 10, d, 0, 0, 0, 0, time.UTC)
}

func TestGetSlotAvailability(t *testing.T) {
	resourceID := uuid.New()
	slotID := uuid.New()

	t.Run("reports free seats on an open slot", func(t *testing.T) {
		reader := &fakeReader{view: &capacity.SlotView{
			Slot: capacity.Slot{
				ID:             slotID,
				ResourceID:     resourceID,
				StartsAt:       day(5),
				RemainingSeats: 7,
			},
			Capacity: 10,
		}}
		svc := NewService(reader, &fakeDirectory{})

		resp, err := svc.GetSlotAvailability(slotID)
		if err != nil {
			t.Fatalf("GetSlotAvailability: %v", err)
		}
		if resp.SeatsFree != 7 {
			t.Errorf("seats free = %d, want 7", resp.SeatsFree)
		}
		if resp.FullyFree {
			t.Error("partially taken slot reported fully free")
		}
	})

	t.Run("group-held slot reports zero free seats", func(t *testing.T) {
		reader := &fakeReader{view: &capacity.SlotView{
			Slot: capacity.Slot{
				ID:                 slotID,
				ResourceID:         resourceID,
				StartsAt:           day(5),
				RemainingSeats:     0,
				ExclusiveGroupHeld: true,
			},
			Capacity: 10,
		}}
		svc := NewService(reader, &fakeDirectory{})

		resp, err := svc.GetSlotAvailability(slotID)
		if err != nil {
			t.Fatalf("GetSlotAvailability: %v", err)
		}
		if resp.SeatsFree != 0 {
			t.Errorf("seats free = %d, want 0", resp.SeatsFree)
		}
		if !resp.GroupHeld {
			t.Error("group hold not reported")
		}
	})

	t.Run("unknown slot is not found", func(t *testing.T) {
		svc := NewService(&fakeReader{}, &fakeDirectory{})
		_, err := svc.GetSlotAvailability(uuid.New())
		if !errors.Is(err, apperrors.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestGetRangeCalendar(t *testing.T) {
	resourceID := uuid.New()
	directory := &fakeDirectory{info: &reservations.ResourceInfo{
		ID:        resourceID,
		Mode:      "INVENTORY_BASED",
		UnitCount: 2,
		Active:    true,
	}}

	t.Run("counts units per day and flags full days", func(t *testing.T) {
		reader := &fakeReader{ranges: []capacity.DateRange{
			{Start: day(1), End: day(4)},
			{Start: day(3), End: day(6)},
		}}
		svc := NewService(reader, directory)

		resp, err := svc.GetRangeCalendar(resourceID, day(1), day(6))
		if err != nil {
			t.Fatalf("GetRangeCalendar: %v", err)
		}
		if len(resp.Days) != 5 {
			t.Fatalf("days = %d, want 5", len(resp.Days))
		}
		wantFree := []int{1, 1, 0, 1, 1} // day 3 has both claims
		for i, want := range wantFree {
			if resp.Days[i].UnitsFree != want {
				t.Errorf("day %s units free = %d, want %d", resp.Days[i].Date, resp.Days[i].UnitsFree, want)
			}
		}
		if resp.Feasible {
			t.Error("window with a full day reported feasible")
		}
	})

	t.Run("open window is feasible", func(t *testing.T) {
		reader := &fakeReader{ranges: []capacity.DateRange{
			{Start: day(1), End: day(3)},
		}}
		svc := NewService(reader, directory)

		resp, err := svc.GetRangeCalendar(resourceID, day(1), day(5))
		if err != nil {
			t.Fatalf("GetRangeCalendar: %v", err)
		}
		if !resp.Feasible {
			t.Error("window with a unit free every day reported infeasible")
		}
	})

	t.Run("rejects inverted windows", func(t *testing.T) {
		svc := NewService(&fakeReader{}, directory)
		_, err := svc.GetRangeCalendar(resourceID, day(5), day(5))
		if !errors.Is(err, apperrors.ErrValidation) {
			t.Fatalf("err = %v, want ErrValidation", err)
		}
	})

	t.Run("seat-based resources have no unit calendar", func(t *testing.T) {
		seatDirectory := &fakeDirectory{info: &reservations.ResourceInfo{
			ID:       resourceID,
			Mode:     "SEAT_BASED",
			Capacity: 50,
			Active:   true,
		}}
		svc := NewService(&fakeReader{}, seatDirectory)
		_, err := svc.GetRangeCalendar(resourceID, day(1), day(3))
		if !errors.Is(err, apperrors.ErrValidation) {
			t.Fatalf("err = %v, want ErrValidation", err)
		}
	})
}
