package database

import (
	"fmt"

	"reservio/internal/capacity"
	"reservio/internal/payments"
	"reservio/internal/reservations"
	"reservio/internal/resources"

	"gorm.io/gorm"
)

// Migrate brings the schema up to date. Ordering matters: resources first,
// then the tables that reference them.
func Migrate(db *gorm.DB) error {
	// uuid_generate_v4 defaults need the extension present.
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("failed to create uuid extension: %w", err)
	}

	if err := db.AutoMigrate(
		&resources.Resource{},
		&capacity.Slot{},
		&reservations.Reservation{},
		&payments.ProcessedPayment{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
