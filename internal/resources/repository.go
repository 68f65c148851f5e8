package resources

import (
	"fmt"
	"strings"

	"reservio/internal/capacity"
	"reservio/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	Create(resource *Resource) error
	GetByID(id uuid.UUID) (*Resource, error)
	Update(id uuid.UUID, updates map[string]interface{}) (*Resource, error)
	GetAll(query ResourceListQuery) ([]Resource, int64, error)
	UpdateCapacity(id uuid.UUID, newCapacity int) (*Resource, error)
	UpdateUnitCount(id uuid.UUID, newUnitCount int) (*Resource, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(resource *Resource) error {
	return r.db.Create(resource).Error
}

func (r *repository) GetByID(id uuid.UUID) (*Resource, error) {
	var resource Resource
	err := r.db.Where("id = ?", id).First(&resource).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("resource %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, err
	}
	return &resource, nil
}

func (r *repository) Update(id uuid.UUID, updates map[string]interface{}) (*Resource, error) {
	var resource Resource

	if err := r.db.Where("id = ?", id).First(&resource).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("resource %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, err
	}

	if err := r.db.Model(&resource).Updates(updates).Error; err != nil {
		return nil, err
	}

	if err := r.db.Where("id = ?", id).First(&resource).Error; err != nil {
		return nil, err
	}

	return &resource, nil
}

func (r *repository) GetAll(query ResourceListQuery) ([]Resource, int64, error) {
	var resources []Resource
	var totalCount int64

	db := r.db.Model(&Resource{})

	if query.Mode != "" {
		db = db.Where("mode = ?", strings.ToUpper(query.Mode))
	}
	if query.Active != nil {
		db = db.Where("active = ?", *query.Active)
	}

	if err := db.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	if query.Page == 0 {
		query.Page = 1
	}
	if query.Limit == 0 {
		query.Limit = 10
	}

	offset := (query.Page - 1) * query.Limit

	err := db.Order("created_at DESC").
		Offset(offset).
		Limit(query.Limit).
		Find(&resources).Error

	return resources, totalCount, err
}

// lockForResize reads the resource row under FOR UPDATE so a resize
// serializes against range claims and other resizes on the same resource.
func lockForResize(tx *gorm.DB, id uuid.UUID, resource *Resource) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(resource)
}

// UpdateCapacity changes the per-slot seat count of a seat-based resource and
// shifts every slot's remaining count by the same delta. A reduction is
// rejected when any slot has more seats committed than the new capacity
// allows, so no reservation is ever stranded above capacity.
func (r *repository) UpdateCapacity(id uuid.UUID, newCapacity int) (*Resource, error) {
	var resource Resource

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForResize(tx, id, &resource).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("resource %s: %w", id, apperrors.ErrNotFound)
			}
			return err
		}

		if resource.Mode != ModeSeatBased {
			return fmt.Errorf("capacity applies only to seat-based resources: %w", apperrors.ErrValidation)
		}

		// Group holds fix the full slot at its claim-time capacity; resizing
		// under one would corrupt the eventual release.
		var heldCount int64
		if err := tx.Model(&capacity.Slot{}).
			Where("resource_id = ? AND exclusive_group_held = ?", id, true).
			Count(&heldCount).Error; err != nil {
			return err
		}
		if heldCount > 0 {
			return fmt.Errorf("cannot resize while %d slot(s) are group-held: %w", heldCount, apperrors.ErrConcurrencyConflict)
		}

		delta := newCapacity - resource.Capacity
		if delta < 0 {
			var minRemaining *int
			if err := tx.Model(&capacity.Slot{}).
				Where("resource_id = ?", id).
				Select("MIN(remaining_seats)").
				Scan(&minRemaining).Error; err != nil {
				return err
			}
			if minRemaining != nil && *minRemaining+delta < 0 {
				return fmt.Errorf("committed seats exceed new capacity %d: %w", newCapacity, apperrors.ErrCapacityExceeded)
			}
		}

		if delta != 0 {
			if err := tx.Model(&capacity.Slot{}).
				Where("resource_id = ?", id).
				UpdateColumn("remaining_seats", gorm.Expr("remaining_seats + ?", delta)).Error; err != nil {
				return err
			}
		}

		return tx.Model(&resource).Update("capacity", newCapacity).Error
	})
	if err != nil {
		return nil, err
	}

	resource.Capacity = newCapacity
	return &resource, nil
}

// UpdateUnitCount changes an inventory resource's unit pool. A reduction is
// rejected when live reservations already claim more units than the new pool
// holds on some day.
func (r *repository) UpdateUnitCount(id uuid.UUID, newUnitCount int) (*Resource, error) {
	var resource Resource

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForResize(tx, id, &resource).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("resource %s: %w", id, apperrors.ErrNotFound)
			}
			return err
		}

		if resource.Mode != ModeInventoryBased {
			return fmt.Errorf("unit count applies only to inventory resources: %w", apperrors.ErrValidation)
		}

		if newUnitCount < resource.UnitCount {
			var ranges []capacity.DateRange
			if err := tx.Table("reservations").
				Select(`range_start AS "start", range_end AS "end"`).
				Where("resource_id = ?", id).
				Where("status IN ?", []string{"PENDING", "CONFIRMED"}).
				Where("range_start IS NOT NULL").
				Scan(&ranges).Error; err != nil {
				return err
			}
			if peak := capacity.MaxDailyOverlap(ranges); peak > newUnitCount {
				return fmt.Errorf("reservations already use %d units on peak days: %w", peak, apperrors.ErrCapacityExceeded)
			}
		}

		return tx.Model(&resource).Update("unit_count", newUnitCount).Error
	})
	if err != nil {
		return nil, err
	}

	resource.UnitCount = newUnitCount
	return &resource, nil
}
