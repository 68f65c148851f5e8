package capacity

import (
	"context"
	"errors"
	"fmt"

	"reservio/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SQLStore is the only component allowed to mutate slot seat counts or to
// count overlapping inventory reservations. Every mutation is a single
// conditional statement so concurrent callers cannot lose updates.
type SQLStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

// GetSlot loads a slot with the owning resource's capacity joined in. The
// capacity is always read through from the resource so an administrative
// capacity change is visible immediately.
func (s *SQLStore) GetSlot(ctx context.Context, slotID uuid.UUID) (*SlotView, error) {
	var view SlotView
	err := s.db.WithContext(ctx).
		Table("slots").
		Select("slots.*, resources.capacity AS capacity").
		Joins("JOIN resources ON resources.id = slots.resource_id").
		Where("slots.id = ?", slotID).
		First(&view).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("slot %s: %w", slotID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load slot: %w", err)
	}
	return &view, nil
}

// ReserveSeats provisionally consumes seats from a slot. For a group claim
// the whole slot must be untouched; otherwise enough seats must remain and no
// group may hold the slot. The check and the mutation are one conditional
// UPDATE, never a separate read then write.
func (s *SQLStore) ReserveSeats(ctx context.Context, slotID uuid.UUID, seats int, asGroup bool) error {
	if asGroup {
		view, err := s.GetSlot(ctx, slotID)
		if err != nil {
			return err
		}

		// CAS keyed on the pre-read remaining count: only succeeds while the
		// slot is still completely free.
		res := s.db.WithContext(ctx).
			Model(&Slot{}).
			Where("id = ? AND exclusive_group_held = ? AND remaining_seats = ?", slotID, false, view.Capacity).
			Updates(map[string]interface{}{
				"remaining_seats":      0,
				"exclusive_group_held": true,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to reserve slot group: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			current, err := s.GetSlot(ctx, slotID)
			if err != nil {
				return err
			}
			if current.FullyFree() {
				// The pre-read raced a release; the slot is free again and a
				// retry would succeed.
				return fmt.Errorf("slot %s changed under the claim: %w", slotID, apperrors.ErrConcurrencyConflict)
			}
			return fmt.Errorf("slot %s not fully free: %w", slotID, apperrors.ErrCapacityExceeded)
		}
		return nil
	}

	if seats <= 0 {
		return fmt.Errorf("seat count must be positive: %w", apperrors.ErrValidation)
	}

	res := s.db.WithContext(ctx).
		Model(&Slot{}).
		Where("id = ? AND exclusive_group_held = ? AND remaining_seats >= ?", slotID, false, seats).
		UpdateColumn("remaining_seats", gorm.Expr("remaining_seats - ?", seats))
	if res.Error != nil {
		return fmt.Errorf("failed to reserve seats: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Distinguish an unknown slot from a genuine shortage.
		if _, err := s.GetSlot(ctx, slotID); err != nil {
			return err
		}
		return fmt.Errorf("slot %s has fewer than %d seats free: %w", slotID, seats, apperrors.ErrCapacityExceeded)
	}
	return nil
}

// ReleaseSeats returns seats to a slot, clamped to the resource capacity, and
// clears the group flag once the slot is fully free again.
func (s *SQLStore) ReleaseSeats(ctx context.Context, slotID uuid.UUID, seats int) error {
	view, err := s.GetSlot(ctx, slotID)
	if err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Model(&Slot{}).
		Where("id = ?", slotID).
		UpdateColumns(map[string]interface{}{
			"remaining_seats":      gorm.Expr("LEAST(remaining_seats + ?, ?)", seats, view.Capacity),
			"exclusive_group_held": gorm.Expr("CASE WHEN remaining_seats + ? >= ? THEN FALSE ELSE exclusive_group_held END", seats, view.Capacity),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to release seats: %w", res.Error)
	}
	return nil
}

// OverlappingRanges returns the date ranges of Pending and Confirmed
// reservations that overlap the window. This is a read, not a reservation of
// capacity: an inventory reservation's existence is its claim on a unit.
func (s *SQLStore) OverlappingRanges(ctx context.Context, resourceID uuid.UUID, window DateRange) ([]DateRange, error) {
	query := s.db.WithContext(ctx).
		Table("reservations").
		Select(`range_start AS "start", range_end AS "end"`).
		Where("resource_id = ?", resourceID).
		Where("status IN ?", []string{"PENDING", "CONFIRMED"}).
		Where("range_start < ? AND range_end > ?", window.End, window.Start)

	var ranges []DateRange
	if err := query.Scan(&ranges).Error; err != nil {
		return nil, fmt.Errorf("failed to count overlapping reservations: %w", err)
	}
	return ranges, nil
}

// CreateSlot schedules a new occurrence with every seat free.
func (s *SQLStore) CreateSlot(ctx context.Context, slot *Slot) error {
	if err := s.db.WithContext(ctx).Create(slot).Error; err != nil {
		return fmt.Errorf("failed to create slot: %w", err)
	}
	return nil
}

// SlotsForResource lists scheduled occurrences, soonest first.
func (s *SQLStore) SlotsForResource(ctx context.Context, resourceID uuid.UUID) ([]Slot, error) {
	var slots []Slot
	err := s.db.WithContext(ctx).
		Where("resource_id = ?", resourceID).
		Order("starts_at ASC").
		Find(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}
