package payments

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	AlreadyProcessed(eventRef string) (bool, error)
	Record(event *PaymentEvent, reservationID uuid.UUID, now time.Time) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) AlreadyProcessed(eventRef string) (bool, error) {
	var count int64
	err := r.db.Model(&ProcessedPayment{}).
		Where("event_ref = ?", eventRef).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check payment ledger: %w", err)
	}
	return count > 0, nil
}

// Record writes the ledger row for an applied event. A concurrent worker
// racing on the same event loses silently on the unique event reference; the
// reservation transition guard already made the outcome idempotent.
func (r *repository) Record(event *PaymentEvent, reservationID uuid.UUID, now time.Time) error {
	row := &ProcessedPayment{
		EventRef:      event.EventID,
		ReservationID: reservationID,
		Outcome:       event.Outcome,
		AmountCents:   event.AmountCents,
		ProcessedAt:   now,
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_ref"}},
		DoNothing: true,
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to record payment event: %w", err)
	}
	return nil
}
