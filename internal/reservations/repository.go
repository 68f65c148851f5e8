package reservations

import (
	"fmt"
	"time"

	"reservio/internal/capacity"
	"reservio/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	Create(reservation *Reservation) error
	CreateRangeReservation(reservation *Reservation) error
	GetByID(id uuid.UUID) (*Reservation, error)
	GetByHolder(query ReservationListQuery) ([]Reservation, int64, error)
	MarkConfirmed(id uuid.UUID, paymentRef string, holdDeposit bool, now time.Time) (*Reservation, error)
	MarkCancelled(id uuid.UUID, reason string, from []Status, now time.Time) (*Reservation, error)
	ListExpiredPending(cutoff time.Time, limit int) ([]Reservation, error)
	ListRefundableDeposits(cutoff time.Time, limit int) ([]Reservation, error)
	MarkDepositRefunded(id uuid.UUID, now time.Time) error
	MarkDepositForfeited(id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(reservation *Reservation) error {
	return r.db.Create(reservation).Error
}

type lockedResource struct {
	UnitCount int
	Active    bool
}

// lockResourceRow builds the FOR UPDATE read of the resource row. Every
// range claim takes this lock before counting overlaps, so two racing
// claims on the same resource serialize and each sees the other's insert
// (or not) consistently.
func lockResourceRow(tx *gorm.DB, resourceID uuid.UUID, dest *lockedResource) *gorm.DB {
	return tx.Table("resources").
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("unit_count, active").
		Where("id = ?", resourceID).
		Take(dest)
}

// CreateRangeReservation validates daily unit availability and inserts the
// reservation in one transaction.
func (r *repository) CreateRangeReservation(reservation *Reservation) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var resource lockedResource
		if err := lockResourceRow(tx, reservation.ResourceID, &resource).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("resource %s: %w", reservation.ResourceID, apperrors.ErrNotFound)
			}
			return err
		}

		if !resource.Active {
			return fmt.Errorf("resource is inactive: %w", apperrors.ErrValidation)
		}

		var existing []capacity.DateRange
		if err := tx.Table("reservations").
			Select(`range_start AS "start", range_end AS "end"`).
			Where("resource_id = ?", reservation.ResourceID).
			Where("status IN ?", []Status{StatusPending, StatusConfirmed}).
			Where("range_start < ? AND range_end > ?", reservation.RangeEnd, reservation.RangeStart).
			Scan(&existing).Error; err != nil {
			return fmt.Errorf("failed to count overlapping reservations: %w", err)
		}

		window := capacity.DateRange{Start: *reservation.RangeStart, End: *reservation.RangeEnd}
		if !capacity.FitsDailyLimit(existing, window, resource.UnitCount) {
			return fmt.Errorf("no unit free on every requested day: %w", apperrors.ErrCapacityExceeded)
		}

		return tx.Create(reservation).Error
	})
}

func (r *repository) GetByID(id uuid.UUID) (*Reservation, error) {
	var reservation Reservation
	err := r.db.Where("id = ?", id).First(&reservation).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("reservation %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, err
	}
	return &reservation, nil
}

func (r *repository) GetByHolder(query ReservationListQuery) ([]Reservation, int64, error) {
	var reservations []Reservation
	var totalCount int64

	db := r.db.Model(&Reservation{}).Where("holder_ref = ?", query.HolderRef)
	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
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
		Find(&reservations).Error

	return reservations, totalCount, err
}

// MarkConfirmed performs PENDING -> CONFIRMED as a single guarded update.
// When the guard misses it returns the current row alongside
// ErrInvalidStateTransition so the caller can decide whether the miss is a
// harmless duplicate delivery.
func (r *repository) MarkConfirmed(id uuid.UUID, paymentRef string, holdDeposit bool, now time.Time) (*Reservation, error) {
	updates := map[string]interface{}{
		"status":            StatusConfirmed,
		"payment_reference": paymentRef,
		"confirmed_at":      now,
	}
	if holdDeposit {
		updates["deposit_state"] = DepositHeld
	}

	res := r.db.Model(&Reservation{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to confirm reservation: %w", res.Error)
	}

	current, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return current, fmt.Errorf("reservation is %s, not PENDING: %w", current.Status, apperrors.ErrInvalidStateTransition)
	}
	return current, nil
}

// MarkCancelled transitions to CANCELLED when the current status is one of
// from. Returns the row as it was before the update so the caller knows what
// capacity and deposit to unwind.
func (r *repository) MarkCancelled(id uuid.UUID, reason string, from []Status, now time.Time) (*Reservation, error) {
	prior, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, s := range from {
		if prior.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("reservation is %s: %w", prior.Status, apperrors.ErrInvalidStateTransition)
	}

	// CAS on the observed status: a concurrent confirm or sweep between the
	// read and here makes the guard miss instead of double-cancelling.
	res := r.db.Model(&Reservation{}).
		Where("id = ? AND status = ?", id, prior.Status).
		Updates(map[string]interface{}{
			"status":        StatusCancelled,
			"cancel_reason": reason,
			"cancelled_at":  now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to cancel reservation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("reservation changed concurrently: %w", apperrors.ErrConcurrencyConflict)
	}

	return prior, nil
}

func (r *repository) ListExpiredPending(cutoff time.Time, limit int) ([]Reservation, error) {
	var reservations []Reservation
	err := r.db.Where("status = ? AND hold_expires_at <= ?", StatusPending, cutoff).
		Order("hold_expires_at ASC").
		Limit(limit).
		Find(&reservations).Error
	return reservations, err
}

func (r *repository) ListRefundableDeposits(cutoff time.Time, limit int) ([]Reservation, error) {
	var reservations []Reservation
	err := r.db.Where("status = ? AND deposit_state = ? AND usage_ends_at <= ?",
		StatusConfirmed, DepositHeld, cutoff).
		Order("usage_ends_at ASC").
		Limit(limit).
		Find(&reservations).Error
	return reservations, err
}

func (r *repository) MarkDepositRefunded(id uuid.UUID, now time.Time) error {
	res := r.db.Model(&Reservation{}).
		Where("id = ? AND deposit_state = ?", id, DepositHeld).
		Updates(map[string]interface{}{
			"deposit_state":       DepositRefunded,
			"deposit_refunded_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to mark deposit refunded: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("deposit is not held: %w", apperrors.ErrInvalidStateTransition)
	}
	return nil
}

func (r *repository) MarkDepositForfeited(id uuid.UUID) error {
	res := r.db.Model(&Reservation{}).
		Where("id = ? AND deposit_state = ?", id, DepositHeld).
		Update("deposit_state", DepositForfeited)
	if res.Error != nil {
		return fmt.Errorf("failed to mark deposit forfeited: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("deposit is not held: %w", apperrors.ErrInvalidStateTransition)
	}
	return nil
}
