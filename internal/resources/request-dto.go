package resources

import "time"

type CreateResourceRequest struct {
	Name           string `json:"name" binding:"required,min=3,max=255"`
	Description    string `json:"description" binding:"max=2000"`
	Mode           string `json:"mode" binding:"required,oneof=SEAT_BASED INVENTORY_BASED"`
	Capacity       int    `json:"capacity" binding:"omitempty,min=1,max=100000"`
	UnitCount      int    `json:"unit_count" binding:"omitempty,min=1,max=100000"`
	BasePriceCents int64  `json:"base_price_cents" binding:"required,min=0"`
	DepositCents   int64  `json:"deposit_cents" binding:"omitempty,min=0"`
}

type UpdateResourceRequest struct {
	Name           *string `json:"name" binding:"omitempty,min=3,max=255"`
	Description    *string `json:"description" binding:"omitempty,max=2000"`
	BasePriceCents *int64  `json:"base_price_cents" binding:"omitempty,min=0"`
	DepositCents   *int64  `json:"deposit_cents" binding:"omitempty,min=0"`
	Active         *bool   `json:"active"`
}

type UpdateCapacityRequest struct {
	Capacity int `json:"capacity" binding:"required,min=1,max=100000"`
}

type UpdateUnitCountRequest struct {
	UnitCount int `json:"unit_count" binding:"required,min=1,max=100000"`
}

type CreateSlotRequest struct {
	StartsAt time.Time `json:"starts_at" binding:"required"`
}

type ResourceListQuery struct {
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Mode   string `form:"mode" binding:"omitempty,oneof=SEAT_BASED INVENTORY_BASED"`
	Active *bool  `form:"active"`
}
