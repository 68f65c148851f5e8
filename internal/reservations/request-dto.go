package reservations

import "time"

// Request DTOs are validated by the controller's validator rather than gin's
// binding tags, so the cross-field exactly-one-claim rule stays in one place
// (the descriptor).
type CreateReservationRequest struct {
	ResourceID string `json:"resource_id" validate:"required,uuid"`
	HolderRef  string `json:"holder_ref" validate:"required,min=1,max=255"`

	// Seat-based claim
	SlotID  string `json:"slot_id" validate:"omitempty,uuid"`
	Seats   int    `json:"seats" validate:"omitempty,min=1,max=1000"`
	AsGroup bool   `json:"as_group"`

	// Inventory claim
	RangeStart *time.Time `json:"range_start"`
	RangeEnd   *time.Time `json:"range_end"`

	// Optional hold override in minutes; clamped to the configured maximum.
	HoldMinutes int `json:"hold_minutes" validate:"omitempty,min=1"`
}

type CancelReservationRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=255"`
}

type ConfirmReservationRequest struct {
	PaymentReference string `json:"payment_reference" validate:"required,min=1,max=255"`
}

type ReservationListQuery struct {
	HolderRef string `form:"holder_ref" validate:"required,min=1,max=255"`
	Page      int    `form:"page" validate:"omitempty,min=1"`
	Limit     int    `form:"limit" validate:"omitempty,min=1,max=100"`
	Status    string `form:"status" validate:"omitempty,oneof=PENDING CONFIRMED CANCELLED"`
}
