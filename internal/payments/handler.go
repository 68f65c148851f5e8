package payments

import (
	"context"
	"fmt"

	"reservio/internal/reservations"
	"reservio/internal/shared/apperrors"
	"reservio/pkg/clock"
	"reservio/pkg/logger"

	"github.com/google/uuid"
)

// ReservationLifecycle interface to avoid circular dependencies with the
// reservations service.
type ReservationLifecycle interface {
	ConfirmReservation(ctx context.Context, id uuid.UUID, paymentRef string) (*reservations.ReservationResponse, error)
	CancelReservation(id uuid.UUID, reason string) (*reservations.ReservationResponse, error)
}

// Handler applies one payment event to the reservation it targets. It is
// safe to call any number of times with the same event: the ledger short-
// circuits known events and the status guard absorbs the rest.
type Handler struct {
	lifecycle ReservationLifecycle
	repo      Repository
	clk       clock.Clock
	log       *logger.Logger
}

func NewHandler(lifecycle ReservationLifecycle, repo Repository, clk clock.Clock) *Handler {
	return &Handler{
		lifecycle: lifecycle,
		repo:      repo,
		clk:       clk,
		log:       logger.GetDefault(),
	}
}

func (h *Handler) Handle(ctx context.Context, event *PaymentEvent) error {
	if event.EventID == "" || event.ReservationID == "" {
		return fmt.Errorf("payment event missing identifiers: %w", apperrors.ErrValidation)
	}

	reservationID, err := uuid.Parse(event.ReservationID)
	if err != nil {
		return fmt.Errorf("invalid reservation ID %q: %w", event.ReservationID, apperrors.ErrValidation)
	}

	// Fast path for replays: an event in the ledger has already been applied
	// end to end.
	seen, err := h.repo.AlreadyProcessed(event.EventID)
	if err != nil {
		return err
	}
	if seen {
		h.log.InfoWithContext(ctx, "payment event already processed, skipping", map[string]interface{}{
			"event_id":       event.EventID,
			"reservation_id": event.ReservationID,
		})
		return nil
	}

	switch event.Outcome {
	case OutcomeSucceeded:
		if _, err := h.lifecycle.ConfirmReservation(ctx, reservationID, event.PaymentReference); err != nil {
			// A hold the sweep already reclaimed cannot be confirmed; record
			// the event so it is not retried forever.
			if !apperrors.IsBenign(err) {
				return err
			}
			h.log.InfoWithContext(ctx, "payment arrived after reclamation, dropping", map[string]interface{}{
				"event_id":       event.EventID,
				"reservation_id": event.ReservationID,
			})
		}

	case OutcomeFailed:
		// A failed payment abandons the hold. Already-terminal reservations
		// (confirmed by an earlier event, or reclaimed) are a benign no-op.
		if _, err := h.lifecycle.CancelReservation(reservationID, reservations.ReasonPaymentFailed); err != nil {
			if !apperrors.IsBenign(err) {
				return err
			}
			h.log.InfoWithContext(ctx, "failure event for a terminal reservation, dropping", map[string]interface{}{
				"event_id":       event.EventID,
				"reservation_id": event.ReservationID,
			})
		}

	default:
		return fmt.Errorf("unknown payment outcome %q: %w", event.Outcome, apperrors.ErrValidation)
	}

	// Ledger write comes after the transition: a crash in between replays
	// the event, and the status guard makes the replay a no-op.
	return h.repo.Record(event, reservationID, h.clk.Now())
}
