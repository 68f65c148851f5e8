package availability

import "time"

type SlotAvailabilityResponse struct {
	SlotID         string    `json:"slot_id"`
	ResourceID     string    `json:"resource_id"`
	StartsAt       time.Time `json:"starts_at"`
	Capacity       int       `json:"capacity"`
	RemainingSeats int       `json:"remaining_seats"`
	GroupHeld      bool      `json:"group_held"`
	SeatsFree      int       `json:"seats_free"`
	FullyFree      bool      `json:"fully_free"`
}

type DayAvailability struct {
	Date       string `json:"date"`
	UnitsInUse int    `json:"units_in_use"`
	UnitsFree  int    `json:"units_free"`
}

type RangeAvailabilityResponse struct {
	ResourceID string            `json:"resource_id"`
	From       string            `json:"from"`
	To         string            `json:"to"`
	UnitCount  int               `json:"unit_count"`
	Days       []DayAvailability `json:"days"`

	// Feasible is true when at least one unit is free on every day, i.e. a
	// single-unit claim over the whole window would fit.
	Feasible bool `json:"feasible"`
}
