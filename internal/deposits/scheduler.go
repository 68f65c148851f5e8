package deposits

import (
	"context"
	"time"

	"reservio/internal/reservations"
	"reservio/internal/shared/apperrors"
	"reservio/internal/shared/config"
	"reservio/pkg/clock"
	"reservio/pkg/logger"

	"github.com/google/uuid"
)

// DepositRepository interface to avoid circular dependencies with the
// reservations repository.
type DepositRepository interface {
	ListRefundableDeposits(cutoff time.Time, limit int) ([]reservations.Reservation, error)
	MarkDepositRefunded(id uuid.UUID, now time.Time) error
}

// RefundNotifier announces issued refunds; optional.
type RefundNotifier interface {
	DepositRefunded(ctx context.Context, reservation *reservations.Reservation)
}

// Scheduler is the daily sweep that returns held deposits once the stay or
// slot is over and the grace period has passed.
type Scheduler struct {
	repo     DepositRepository
	issuer   RefundIssuer
	notifier RefundNotifier
	clk      clock.Clock
	cfg      config.DepositConfig
	done     chan struct{}
	log      *logger.Logger
}

func NewScheduler(repo DepositRepository, issuer RefundIssuer, clk clock.Clock, cfg config.DepositConfig) *Scheduler {
	return &Scheduler{
		repo:   repo,
		issuer: issuer,
		clk:    clk,
		cfg:    cfg,
		done:   make(chan struct{}),
		log:    logger.GetDefault(),
	}
}

func (s *Scheduler) SetNotifier(notifier RefundNotifier) {
	s.notifier = notifier
}

// Start launches the sweep loop; the first pass runs immediately.
func (s *Scheduler) Start(ctx context.Context) {
	go s.run(ctx)
	s.log.Info("Started deposit refund scheduler",
		"interval", s.cfg.SweepInterval.String(),
		"grace_period", s.cfg.GracePeriod.String(),
	)
}

func (s *Scheduler) Stop() {
	close(s.done)
	s.log.Info("Stopped deposit refund scheduler")
}

func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	s.Sweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Sweep issues refunds for every deposit whose grace period has elapsed.
// The command goes out first and only a delivered command flips HELD to
// REFUNDED, so an issuer failure leaves the deposit untouched for the next
// pass. Redelivered commands carry the same CommandID and are deduplicated
// downstream.
func (s *Scheduler) Sweep(ctx context.Context) (int, int) {
	start := time.Now()
	now := s.clk.Now()
	cutoff := now.Add(-s.cfg.GracePeriod)

	due, err := s.repo.ListRefundableDeposits(cutoff, s.cfg.SweepBatchSize)
	if err != nil {
		s.log.ErrorWithContext(ctx, "deposit sweep failed to list", err, nil)
		return 0, 0
	}

	processed, failed := 0, 0
	for i := range due {
		reservation := &due[i]

		cmd := &RefundCommand{
			CommandID:        reservation.ID.String(),
			ReservationID:    reservation.ID.String(),
			HolderRef:        reservation.HolderRef,
			PaymentReference: reservation.PaymentReference,
			AmountCents:      reservation.DepositCents,
			IssuedAt:         now,
		}
		if err := s.issuer.IssueRefund(ctx, cmd); err != nil {
			// State untouched; the next sweep retries this deposit.
			s.log.ErrorWithContext(ctx, "refund command not delivered", err, map[string]interface{}{
				"reservation_id": reservation.ID.String(),
				"amount_cents":   reservation.DepositCents,
			})
			failed++
			continue
		}

		if err := s.repo.MarkDepositRefunded(reservation.ID, now); err != nil {
			// An admin forfeit or a concurrent pass changed the deposit
			// between the list and the mark; the duplicate command is
			// absorbed downstream by its CommandID.
			if apperrors.IsBenign(err) {
				continue
			}
			s.log.ErrorWithContext(ctx, "failed to mark deposit refunded", err, map[string]interface{}{
				"reservation_id": reservation.ID.String(),
			})
			failed++
			continue
		}

		if s.notifier != nil {
			s.notifier.DepositRefunded(ctx, reservation)
		}
		processed++
	}

	if processed > 0 || failed > 0 {
		s.log.LogSweepPass(ctx, "deposit_refund", processed, failed, time.Since(start))
	}
	return processed, failed
}
