package resources

type Mode string

const (
	ModeSeatBased      Mode = "SEAT_BASED"
	ModeInventoryBased Mode = "INVENTORY_BASED"
)

func (m Mode) Valid() bool {
	return m == ModeSeatBased || m == ModeInventoryBased
}
