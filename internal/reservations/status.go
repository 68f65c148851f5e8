package reservations

// Status is the reservation lifecycle state. Transitions are one-way:
// PENDING -> CONFIRMED or PENDING -> CANCELLED, and CONFIRMED -> CANCELLED
// only through an administrative cancel.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// DepositState tracks the security deposit attached to a confirmed
// reservation. NONE until confirmation, then HELD, then exactly one of
// REFUNDED (by the deposit sweep) or FORFEITED (by an admin cancel).
type DepositState string

const (
	DepositNone      DepositState = "NONE"
	DepositHeld      DepositState = "HELD"
	DepositRefunded  DepositState = "REFUNDED"
	DepositForfeited DepositState = "FORFEITED"
)

// Cancellation reasons recorded on the reservation.
const (
	ReasonHolderRequest = "holder_request"
	ReasonHoldExpired   = "hold_expired"
	ReasonAdminCancel   = "admin_cancel"
	ReasonPaymentFailed = "payment_failed"
)
