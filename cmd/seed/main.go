package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"reservio/internal/capacity"
	"reservio/internal/resources"
	"reservio/internal/shared/config"
	"reservio/internal/shared/database"

	"github.com/google/uuid"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting Reservio Database Seeder...")

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	// Clean database
	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	// Seed data
	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in the correct order (respecting foreign key constraints)
func (s *Seeder) CleanDatabase() error {
	// Delete in reverse dependency order
	tables := []string{
		"processed_payments",
		"reservations",
		"slots",
		"resources",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Exec("SET CONSTRAINTS ALL DEFERRED").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to defer constraints: %w", err)
	}

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	if err := tx.Exec("SET CONSTRAINTS ALL IMMEDIATE").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to restore constraints: %w", err)
	}

	return tx.Commit().Error
}

// SeedAll seeds all required data
func (s *Seeder) SeedAll() error {
	ctx := context.Background()

	resourceIDs, err := s.SeedResources()
	if err != nil {
		return fmt.Errorf("failed to seed resources: %w", err)
	}

	if err := s.SeedSlots(resourceIDs); err != nil {
		return fmt.Errorf("failed to seed slots: %w", err)
	}

	// Clear Redis cache to ensure fresh state
	if s.db.Redis != nil {
		if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
			log.Printf("Warning: Failed to clear Redis cache: %v", err)
		}
	}

	return nil
}

// SeedResources creates seat-based and inventory-based resources
func (s *Seeder) SeedResources() (map[string]uuid.UUID, error) {
	fmt.Println("  🏢 Seeding resources...")

	resourceIDs := make(map[string]uuid.UUID)

	resourcesData := []struct {
		key            string
		name           string
		description    string
		mode           resources.Mode
		capacity       int
		unitCount      int
		basePriceCents int64
		depositCents   int64
	}{
		{"theater", "Grand Hall Theater", "Main auditorium with tiered seating", resources.ModeSeatBased, 120, 0, 2500, 0},
		{"workshop", "Workshop Room B", "Small workshop room, bookable as a whole group", resources.ModeSeatBased, 16, 0, 1500, 5000},
		{"kayaks", "Lakeside Kayak Fleet", "Single kayaks rented per day", resources.ModeInventoryBased, 0, 8, 4500, 10000},
		{"cabins", "Pine Ridge Cabins", "Overnight cabins, one unit per night", resources.ModeInventoryBased, 0, 4, 12000, 20000},
	}

	for _, data := range resourcesData {
		resource := resources.Resource{
			ID:             uuid.New(),
			Name:           data.name,
			Description:    data.description,
			Mode:           data.mode,
			Capacity:       data.capacity,
			UnitCount:      data.unitCount,
			BasePriceCents: data.basePriceCents,
			DepositCents:   data.depositCents,
			Active:         true,
			CreatedAt:      time.Now(),
			UpdatedAt:      time.Now(),
		}

		if err := s.db.PostgreSQL.Create(&resource).Error; err != nil {
			return nil, fmt.Errorf("failed to create resource %s: %w", resource.Name, err)
		}

		resourceIDs[data.key] = resource.ID
		fmt.Printf("    ✅ Created resource: %s (%s)\n", resource.Name, resource.Mode)
	}

	return resourceIDs, nil
}

// SeedSlots creates upcoming slots for the seat-based resources
func (s *Seeder) SeedSlots(resourceIDs map[string]uuid.UUID) error {
	fmt.Println("  🎟️ Seeding slots...")

	slotsData := []struct {
		resourceKey string
		capacity    int
		daysAhead   []int
		hour        int
	}{
		{"theater", 120, []int{3, 7, 14, 21}, 19},
		{"workshop", 16, []int{2, 5, 9}, 10},
	}

	base := time.Now().UTC().Truncate(24 * time.Hour)

	for _, data := range slotsData {
		resourceID, ok := resourceIDs[data.resourceKey]
		if !ok {
			return fmt.Errorf("unknown resource key %s", data.resourceKey)
		}

		for _, days := range data.daysAhead {
			slot := capacity.Slot{
				ID:                 uuid.New(),
				ResourceID:         resourceID,
				StartsAt:           base.AddDate(0, 0, days).Add(time.Duration(data.hour) * time.Hour),
				RemainingSeats:     data.capacity,
				ExclusiveGroupHeld: false,
				CreatedAt:          time.Now(),
				UpdatedAt:          time.Now(),
			}

			if err := s.db.PostgreSQL.Create(&slot).Error; err != nil {
				return fmt.Errorf("failed to create slot for %s: %w", data.resourceKey, err)
			}

			fmt.Printf("    ✅ Created slot: %s @ %s\n", data.resourceKey, slot.StartsAt.Format(time.RFC3339))
		}
	}

	return nil
}
