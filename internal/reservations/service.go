package reservations

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"reservio/internal/capacity"
	"reservio/internal/shared/apperrors"
	"reservio/internal/shared/config"
	"reservio/internal/shared/constants"
	"reservio/pkg/cache"
	"reservio/pkg/clock"
	"reservio/pkg/logger"

	"github.com/google/uuid"
)

type Service interface {
	SetNotifier(notifier Notifier)
	SetCacheService(cacheService cache.Service)
	CreateReservation(req CreateReservationRequest) (*ReservationResponse, error)
	GetReservationByID(id uuid.UUID) (*ReservationResponse, error)
	GetHolderReservations(query ReservationListQuery) (*PaginatedReservations, error)
	CancelReservation(id uuid.UUID, reason string) (*ReservationResponse, error)
	AdminCancelReservation(id uuid.UUID, reason string) (*ReservationResponse, error)
	ConfirmReservation(ctx context.Context, id uuid.UUID, paymentRef string) (*ReservationResponse, error)
	ProcessExpiredHolds(ctx context.Context) (int, error)
}

// CapacityStore interface to avoid circular dependencies with the capacity
// package's concrete store.
type CapacityStore interface {
	GetSlot(ctx context.Context, slotID uuid.UUID) (*capacity.SlotView, error)
	ReserveSeats(ctx context.Context, slotID uuid.UUID, seats int, asGroup bool) error
	ReleaseSeats(ctx context.Context, slotID uuid.UUID, seats int) error
}

// ResourceInfo is the slice of the catalog the reservation flow needs.
type ResourceInfo struct {
	ID             uuid.UUID
	Mode           string
	Capacity       int
	UnitCount      int
	BasePriceCents int64
	DepositCents   int64
	Active         bool
}

// ResourceDirectory interface to avoid circular dependencies with the
// resources package.
type ResourceDirectory interface {
	GetResourceInfo(id uuid.UUID) (*ResourceInfo, error)
}

// Pricer turns a claim into a price and deposit quote.
type Pricer interface {
	Quote(info *ResourceInfo, desc AllocationDescriptor) (totalCents int64, depositCents int64, err error)
}

// Notifier publishes lifecycle notices. Implementations must not block the
// reservation flow on broker trouble.
type Notifier interface {
	ReservationCreated(ctx context.Context, reservation *Reservation)
	ReservationConfirmed(ctx context.Context, reservation *Reservation)
	ReservationCancelled(ctx context.Context, reservation *Reservation)
}

type service struct {
	repo         Repository
	store        CapacityStore
	directory    ResourceDirectory
	pricer       Pricer
	clk          clock.Clock
	holds        config.HoldConfig
	notifier     Notifier
	cacheService cache.Service
	log          *logger.Logger
}

func NewService(repo Repository, store CapacityStore, directory ResourceDirectory, pricer Pricer, clk clock.Clock, holds config.HoldConfig) Service {
	return &service{
		repo:      repo,
		store:     store,
		directory: directory,
		pricer:    pricer,
		clk:       clk,
		holds:     holds,
		log:       logger.GetDefault(),
	}
}

func (s *service) SetNotifier(notifier Notifier) {
	s.notifier = notifier
}

// SetCacheService injects the cache service dependency
func (s *service) SetCacheService(cacheService cache.Service) {
	s.cacheService = cacheService
}

func (s *service) invalidateCaches(ctx context.Context, reservation *Reservation) {
	if s.cacheService == nil {
		return
	}
	_ = s.cacheService.Delete(ctx, constants.CACHE_KEY_RESERVATION_DETAIL+reservation.ID.String())
	_ = s.cacheService.DeletePattern(ctx, constants.CACHE_KEY_HOLDER_LIST+reservation.HolderRef+"*")
	_ = s.cacheService.DeletePattern(ctx, constants.PATTERN_INVALIDATE_AVAILABILITY+reservation.ResourceID.String()+"*")
	if reservation.SlotID != nil {
		_ = s.cacheService.DeletePattern(ctx, constants.PATTERN_INVALIDATE_AVAILABILITY+reservation.SlotID.String()+"*")
	}
}

func (s *service) descriptorFromRequest(req CreateReservationRequest) (AllocationDescriptor, error) {
	var desc AllocationDescriptor

	if req.SlotID != "" {
		slotID, err := uuid.Parse(req.SlotID)
		if err != nil {
			return desc, fmt.Errorf("invalid slot ID: %w", apperrors.ErrValidation)
		}
		desc.Seat = &SeatRequest{SlotID: slotID, Seats: req.Seats, AsGroup: req.AsGroup}
	}
	if req.RangeStart != nil || req.RangeEnd != nil {
		if req.RangeStart == nil || req.RangeEnd == nil {
			return desc, fmt.Errorf("both range_start and range_end are required: %w", apperrors.ErrValidation)
		}
		desc.Range = &RangeRequest{
			Start: normalizeDay(*req.RangeStart),
			End:   normalizeDay(*req.RangeEnd),
		}
	}

	return desc, desc.Validate()
}

func (s *service) holdExpiry(req CreateReservationRequest, now time.Time) time.Time {
	hold := s.holds.DefaultDuration
	if req.HoldMinutes > 0 {
		hold = time.Duration(req.HoldMinutes) * time.Minute
		if hold > s.holds.MaxDuration {
			hold = s.holds.MaxDuration
		}
	}
	return now.Add(hold)
}

func (s *service) CreateReservation(req CreateReservationRequest) (*ReservationResponse, error) {
	resourceID, err := uuid.Parse(req.ResourceID)
	if err != nil {
		return nil, fmt.Errorf("invalid resource ID: %w", apperrors.ErrValidation)
	}

	info, err := s.directory.GetResourceInfo(resourceID)
	if err != nil {
		return nil, err
	}
	if !info.Active {
		return nil, fmt.Errorf("resource is inactive: %w", apperrors.ErrValidation)
	}

	desc, err := s.descriptorFromRequest(req)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()

	reservation := &Reservation{
		ResourceID:    resourceID,
		HolderRef:     req.HolderRef,
		Status:        StatusPending,
		HoldExpiresAt: s.holdExpiry(req, now),
		DepositState:  DepositNone,
	}

	total, deposit, err := s.pricer.Quote(info, desc)
	if err != nil {
		return nil, err
	}
	reservation.TotalPriceCents = total
	reservation.DepositCents = deposit

	ctx := context.Background()

	switch {
	case desc.Seat != nil:
		if info.Mode != "SEAT_BASED" {
			return nil, fmt.Errorf("resource does not schedule slots: %w", apperrors.ErrValidation)
		}
		if err := s.createSeatClaim(ctx, reservation, desc.Seat, resourceID); err != nil {
			return nil, err
		}
	default:
		if info.Mode != "INVENTORY_BASED" {
			return nil, fmt.Errorf("resource does not take date-range claims: %w", apperrors.ErrValidation)
		}
		if err := s.createRangeClaim(reservation, desc.Range, now); err != nil {
			return nil, err
		}
	}

	s.log.LogReservationCreated(ctx, reservation.ID.String(), reservation.ResourceID.String(), reservation.HoldExpiresAt)
	if s.notifier != nil {
		s.notifier.ReservationCreated(ctx, reservation)
	}
	s.invalidateCaches(ctx, reservation)

	response := reservation.ToResponse()
	return &response, nil
}

func (s *service) createSeatClaim(ctx context.Context, reservation *Reservation, seat *SeatRequest, resourceID uuid.UUID) error {
	view, err := s.store.GetSlot(ctx, seat.SlotID)
	if err != nil {
		return err
	}
	if view.ResourceID != resourceID {
		return fmt.Errorf("slot belongs to a different resource: %w", apperrors.ErrValidation)
	}
	if view.StartsAt.Before(s.clk.Now()) {
		return fmt.Errorf("slot has already started: %w", apperrors.ErrValidation)
	}

	quantity := seat.Seats
	if seat.AsGroup {
		// A group claim takes the whole slot; record the capacity at claim
		// time so a later release restores exactly what was taken.
		quantity = view.Capacity
	}

	// One internal retry when the conditional claim loses its race; anything
	// beyond that is the caller's problem.
	err = s.store.ReserveSeats(ctx, seat.SlotID, seat.Seats, seat.AsGroup)
	if errors.Is(err, apperrors.ErrConcurrencyConflict) {
		err = s.store.ReserveSeats(ctx, seat.SlotID, seat.Seats, seat.AsGroup)
	}
	if err != nil {
		return err
	}

	slotID := seat.SlotID
	reservation.SlotID = &slotID
	reservation.Quantity = quantity
	reservation.GroupHold = seat.AsGroup
	reservation.UsageEndsAt = view.StartsAt

	if err := s.repo.Create(reservation); err != nil {
		// Best effort cleanup; the expiry sweep cannot see a row that was
		// never written, so give the seats back here.
		_ = s.store.ReleaseSeats(ctx, seat.SlotID, quantity)
		return fmt.Errorf("failed to create reservation: %w", err)
	}
	return nil
}

func (s *service) createRangeClaim(reservation *Reservation, rng *RangeRequest, now time.Time) error {
	if rng.Start.Before(normalizeDay(now)) {
		return fmt.Errorf("range cannot start in the past: %w", apperrors.ErrValidation)
	}

	start, end := rng.Start, rng.End
	reservation.RangeStart = &start
	reservation.RangeEnd = &end
	reservation.UsageEndsAt = end

	if err := s.repo.CreateRangeReservation(reservation); err != nil {
		return err
	}
	return nil
}

func (s *service) GetReservationByID(id uuid.UUID) (*ReservationResponse, error) {
	ctx := context.Background()
	cacheKey := constants.CACHE_KEY_RESERVATION_DETAIL + id.String()

	if s.cacheService != nil {
		var cached ReservationResponse
		if err := s.cacheService.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	reservation, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	response := reservation.ToResponse()

	if s.cacheService != nil {
		_ = s.cacheService.Set(ctx, cacheKey, response, constants.TTL_RESERVATION_DETAIL)
	}

	return &response, nil
}

func (s *service) GetHolderReservations(query ReservationListQuery) (*PaginatedReservations, error) {
	reservations, totalCount, err := s.repo.GetByHolder(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}

	if query.Page == 0 {
		query.Page = 1
	}
	if query.Limit == 0 {
		query.Limit = 10
	}

	responses := make([]ReservationResponse, len(reservations))
	for i := range reservations {
		responses[i] = reservations[i].ToResponse()
	}

	return &PaginatedReservations{
		Reservations: responses,
		TotalCount:   totalCount,
		Page:         query.Page,
		Limit:        query.Limit,
		TotalPages:   int(math.Ceil(float64(totalCount) / float64(query.Limit))),
	}, nil
}

// CancelReservation is the holder-initiated cancel: only a PENDING hold can
// be abandoned. Confirmed reservations go through AdminCancelReservation.
func (s *service) CancelReservation(id uuid.UUID, reason string) (*ReservationResponse, error) {
	if reason == "" {
		reason = ReasonHolderRequest
	}
	return s.cancel(id, reason, []Status{StatusPending}, false)
}

// AdminCancelReservation cancels a PENDING or CONFIRMED reservation, restores
// its capacity and forfeits any held deposit.
func (s *service) AdminCancelReservation(id uuid.UUID, reason string) (*ReservationResponse, error) {
	if reason == "" {
		reason = ReasonAdminCancel
	}
	return s.cancel(id, reason, []Status{StatusPending, StatusConfirmed}, true)
}

func (s *service) cancel(id uuid.UUID, reason string, from []Status, forfeitDeposit bool) (*ReservationResponse, error) {
	now := s.clk.Now()

	prior, err := s.repo.MarkCancelled(id, reason, from, now)
	if err != nil {
		// Cancelling an already-cancelled reservation is a no-op, not an
		// error; capacity was released by whichever transition won.
		if errors.Is(err, apperrors.ErrInvalidStateTransition) {
			current, getErr := s.repo.GetByID(id)
			if getErr == nil && current.Status == StatusCancelled {
				response := current.ToResponse()
				return &response, nil
			}
		}
		return nil, err
	}

	ctx := context.Background()

	if err := s.releaseCapacity(ctx, prior); err != nil {
		// The reservation is cancelled either way; orphaned seats are worth
		// an error log, not a failed request.
		s.log.ErrorWithContext(ctx, "failed to release capacity after cancel", err, map[string]interface{}{
			"reservation_id": id.String(),
		})
	}

	if forfeitDeposit && prior.DepositState == DepositHeld {
		if err := s.repo.MarkDepositForfeited(id); err != nil && !apperrors.IsBenign(err) {
			return nil, err
		}
	}

	reservation, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	s.log.LogReservationCancelled(ctx, id.String(), reason)
	if s.notifier != nil {
		s.notifier.ReservationCancelled(ctx, reservation)
	}
	s.invalidateCaches(ctx, reservation)

	response := reservation.ToResponse()
	return &response, nil
}

// releaseCapacity gives back whatever the claim held. Range claims hold
// nothing to give back: once the row leaves PENDING/CONFIRMED it no longer
// counts against any day.
func (s *service) releaseCapacity(ctx context.Context, reservation *Reservation) error {
	if !reservation.IsSeatClaim() {
		return nil
	}
	return s.store.ReleaseSeats(ctx, *reservation.SlotID, reservation.Quantity)
}

// ConfirmReservation applies a successful payment. Replays of the same
// payment reference are answered with the confirmed reservation rather than
// an error; a hold that has lapsed but not yet been swept still confirms.
func (s *service) ConfirmReservation(ctx context.Context, id uuid.UUID, paymentRef string) (*ReservationResponse, error) {
	if paymentRef == "" {
		return nil, fmt.Errorf("payment reference is required: %w", apperrors.ErrValidation)
	}

	reservation, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	holdDeposit := reservation.DepositCents > 0
	now := s.clk.Now()

	current, err := s.repo.MarkConfirmed(id, paymentRef, holdDeposit, now)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidStateTransition) &&
			current != nil &&
			current.Status == StatusConfirmed &&
			current.PaymentReference == paymentRef {
			// Duplicate delivery of a payment we already applied.
			response := current.ToResponse()
			return &response, nil
		}
		return nil, err
	}

	s.log.LogReservationConfirmed(ctx, id.String(), paymentRef)
	if s.notifier != nil {
		s.notifier.ReservationConfirmed(ctx, current)
	}
	s.invalidateCaches(ctx, current)

	response := current.ToResponse()
	return &response, nil
}

// ProcessExpiredHolds reclaims PENDING reservations whose hold has lapsed.
// Each one is cancelled through the same guarded transition the API uses, so
// a confirm racing the sweep wins or loses cleanly, never both.
func (s *service) ProcessExpiredHolds(ctx context.Context) (int, error) {
	expired, err := s.repo.ListExpiredPending(s.clk.Now(), s.holds.SweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired holds: %w", err)
	}

	processed := 0
	for i := range expired {
		reservation := &expired[i]

		prior, err := s.repo.MarkCancelled(reservation.ID, ReasonHoldExpired, []Status{StatusPending}, s.clk.Now())
		if err != nil {
			// Confirmed or cancelled since we listed it; nothing to reclaim.
			if apperrors.IsBenign(err) || errors.Is(err, apperrors.ErrConcurrencyConflict) {
				continue
			}
			s.log.ErrorWithContext(ctx, "failed to reclaim expired hold", err, map[string]interface{}{
				"reservation_id": reservation.ID.String(),
			})
			continue
		}

		if err := s.releaseCapacity(ctx, prior); err != nil {
			s.log.ErrorWithContext(ctx, "failed to release capacity for expired hold", err, map[string]interface{}{
				"reservation_id": reservation.ID.String(),
			})
		}

		prior.Status = StatusCancelled
		prior.CancelReason = ReasonHoldExpired
		if s.notifier != nil {
			s.notifier.ReservationCancelled(ctx, prior)
		}
		s.invalidateCaches(ctx, prior)
		processed++
	}

	return processed, nil
}
