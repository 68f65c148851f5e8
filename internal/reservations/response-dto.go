package reservations

import "time"

type ReservationResponse struct {
	ID         string `json:"id"`
	ResourceID string `json:"resource_id"`
	HolderRef  string `json:"holder_ref"`
	Status     Status `json:"status"`

	SlotID    string `json:"slot_id,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`
	GroupHold bool   `json:"group_hold,omitempty"`

	RangeStart *time.Time `json:"range_start,omitempty"`
	RangeEnd   *time.Time `json:"range_end,omitempty"`

	HoldExpiresAt time.Time `json:"hold_expires_at"`

	TotalPriceCents  int64        `json:"total_price_cents"`
	DepositCents     int64        `json:"deposit_cents"`
	DepositState     DepositState `json:"deposit_state"`
	PaymentReference string       `json:"payment_reference,omitempty"`
	CancelReason     string       `json:"cancel_reason,omitempty"`

	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type PaginatedReservations struct {
	Reservations []ReservationResponse `json:"reservations"`
	TotalCount   int64                 `json:"total_count"`
	Page         int                   `json:"page"`
	Limit        int                   `json:"limit"`
	TotalPages   int                   `json:"total_pages"`
}

func (r *Reservation) ToResponse() ReservationResponse {
	resp := ReservationResponse{
		ID:               r.ID.String(),
		ResourceID:       r.ResourceID.String(),
		HolderRef:        r.HolderRef,
		Status:           r.Status,
		Quantity:         r.Quantity,
		GroupHold:        r.GroupHold,
		RangeStart:       r.RangeStart,
		RangeEnd:         r.RangeEnd,
		HoldExpiresAt:    r.HoldExpiresAt,
		TotalPriceCents:  r.TotalPriceCents,
		DepositCents:     r.DepositCents,
		DepositState:     r.DepositState,
		PaymentReference: r.PaymentReference,
		CancelReason:     r.CancelReason,
		ConfirmedAt:      r.ConfirmedAt,
		CancelledAt:      r.CancelledAt,
		CreatedAt:        r.CreatedAt,
	}
	if r.SlotID != nil {
		resp.SlotID = r.SlotID.String()
	}
	return resp
}
