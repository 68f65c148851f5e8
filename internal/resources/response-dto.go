package resources

import "time"

type ResourceResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Mode           Mode      `json:"mode"`
	Capacity       int       `json:"capacity,omitempty"`
	UnitCount      int       `json:"unit_count,omitempty"`
	BasePriceCents int64     `json:"base_price_cents"`
	DepositCents   int64     `json:"deposit_cents"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type SlotResponse struct {
	ID             string    `json:"id"`
	ResourceID     string    `json:"resource_id"`
	StartsAt       time.Time `json:"starts_at"`
	RemainingSeats int       `json:"remaining_seats"`
	GroupHeld      bool      `json:"group_held"`
}

type PaginatedResources struct {
	Resources  []ResourceResponse `json:"resources"`
	TotalCount int64              `json:"total_count"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}

func (r *Resource) ToResponse() ResourceResponse {
	return ResourceResponse{
		ID:             r.ID.String(),
		Name:           r.Name,
		Description:    r.Description,
		Mode:           r.Mode,
		Capacity:       r.Capacity,
		UnitCount:      r.UnitCount,
		BasePriceCents: r.BasePriceCents,
		DepositCents:   r.DepositCents,
		Active:         r.Active,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}
