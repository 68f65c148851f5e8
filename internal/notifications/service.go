package notifications

import (
	"context"
	"time"

	"reservio/internal/reservations"
	"reservio/pkg/clock"
	"reservio/pkg/logger"

	"github.com/google/uuid"
)

// Service turns reservation lifecycle transitions into notices on the wire.
// It implements the reservation flow's Notifier; publishing is fire and
// forget so a broker outage never fails a reservation.
type Service struct {
	producer NoticeProducer
	clk      clock.Clock
	log      *logger.Logger
}

func NewService(producer NoticeProducer, clk clock.Clock) *Service {
	return &Service{
		producer: producer,
		clk:      clk,
		log:      logger.GetDefault(),
	}
}

func (s *Service) ReservationCreated(ctx context.Context, reservation *reservations.Reservation) {
	s.publish(s.noticeFor(NoticeReservationCreated, reservation))
}

func (s *Service) ReservationConfirmed(ctx context.Context, reservation *reservations.Reservation) {
	s.publish(s.noticeFor(NoticeReservationConfirmed, reservation))
}

func (s *Service) ReservationCancelled(ctx context.Context, reservation *reservations.Reservation) {
	notice := s.noticeFor(NoticeReservationCancelled, reservation)
	notice.Reason = reservation.CancelReason
	s.publish(notice)
}

// DepositRefunded announces a refund issued by the deposit sweep.
func (s *Service) DepositRefunded(ctx context.Context, reservation *reservations.Reservation) {
	notice := s.noticeFor(NoticeDepositRefunded, reservation)
	notice.AmountCents = reservation.DepositCents
	s.publish(notice)
}

func (s *Service) noticeFor(noticeType NoticeType, reservation *reservations.Reservation) *ReservationNotice {
	return &ReservationNotice{
		ID:            uuid.New(),
		Type:          noticeType,
		ReservationID: reservation.ID.String(),
		ResourceID:    reservation.ResourceID.String(),
		HolderRef:     reservation.HolderRef,
		Status:        string(reservation.Status),
		OccurredAt:    s.clk.Now(),
	}
}

func (s *Service) publish(notice *ReservationNotice) {
	if s.producer == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := s.producer.PublishNotice(ctx, notice); err != nil {
			s.log.ErrorWithContext(ctx, "failed to publish notice", err, map[string]interface{}{
				"notice_type":    string(notice.Type),
				"reservation_id": notice.ReservationID,
			})
		}
	}()
}
