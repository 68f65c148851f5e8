package resources

import (
	"time"

	"github.com/google/uuid"
)

type Resource struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name        string    `json:"name" gorm:"not null;size:255"`
	Description string    `json:"description" gorm:"type:text"`
	Mode        Mode      `json:"mode" gorm:"type:varchar(20);not null"`

	// Capacity is the seat count per slot (seat-based resources); UnitCount is
	// the number of interchangeable units (inventory-based resources). Only
	// the field matching Mode is meaningful.
	Capacity  int `json:"capacity" gorm:"not null;default:0;check:capacity >= 0"`
	UnitCount int `json:"unit_count" gorm:"not null;default:0;check:unit_count >= 0"`

	BasePriceCents int64 `json:"base_price_cents" gorm:"not null;check:base_price_cents >= 0"`
	DepositCents   int64 `json:"deposit_cents" gorm:"not null;default:0;check:deposit_cents >= 0"`

	Active    bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Resource) TableName() string {
	return "resources"
}

// Units returns the capacity figure relevant to the resource's mode.
func (r *Resource) Units() int {
	if r.Mode == ModeInventoryBased {
		return r.UnitCount
	}
	return r.Capacity
}
