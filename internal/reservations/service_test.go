package reservations

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"reservio/internal/capacity"
	"reservio/internal/shared/apperrors"
	"reservio/internal/shared/config"
	"reservio/pkg/clock"

	"github.com/google/uuid"
)

// fakeRepository keeps reservations in a map and mimics the repository's
// guarded transitions closely enough for the service-level tests.
type fakeRepository struct {
	mu           sync.Mutex
	reservations map[uuid.UUID]*Reservation
	rangeErr     error
	createErr    error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{reservations: make(map[uuid.UUID]*Reservation)}
}

func (f *fakeRepository) Create(reservation *Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if reservation.ID == uuid.Nil {
		reservation.ID = uuid.New()
	}
	copied := *reservation
	f.reservations[reservation.ID] = &copied
	return nil
}

func (f *fakeRepository) CreateRangeReservation(reservation *Reservation) error {
	if f.rangeErr != nil {
		return f.rangeErr
	}
	return f.Create(reservation)
}

func (f *fakeRepository) GetByID(id uuid.UUID) (*Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reservation, ok := f.reservations[id]
	if !ok {
		return nil, fmt.Errorf("reservation not found: %w", apperrors.ErrNotFound)
	}
	copied := *reservation
	return &copied, nil
}

func (f *fakeRepository) GetByHolder(query ReservationListQuery) ([]Reservation, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Reservation
	for _, r := range f.reservations {
		if r.HolderRef == query.HolderRef {
			out = append(out, *r)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepository) MarkConfirmed(id uuid.UUID, paymentRef string, holdDeposit bool, now time.Time) (*Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reservation, ok := f.reservations[id]
	if !ok {
		return nil, fmt.Errorf("reservation not found: %w", apperrors.ErrNotFound)
	}
	if reservation.Status != StatusPending {
		copied := *reservation
		return &copied, fmt.Errorf("cannot confirm %s reservation: %w", reservation.Status, apperrors.ErrInvalidStateTransition)
	}
	reservation.Status = StatusConfirmed
	reservation.PaymentReference = paymentRef
	reservation.ConfirmedAt = &now
	if holdDeposit {
		reservation.DepositState = DepositHeld
	}
	copied := *reservation
	return &copied, nil
}

func (f *fakeRepository) MarkCancelled(id uuid.UUID, reason string, from []Status, now time.Time) (*Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reservation, ok := f.reservations[id]
	if !ok {
		return nil, fmt.Errorf("reservation not found: %w", apperrors.ErrNotFound)
	}
	allowed := false
	for _, status := range from {
		if reservation.Status == status {
			allowed = true
		}
	}
	if !allowed {
		return nil, fmt.Errorf("cannot cancel %s reservation: %w", reservation.Status, apperrors.ErrInvalidStateTransition)
	}
	prior := *reservation
	reservation.Status = StatusCancelled
	reservation.CancelReason = reason
	reservation.CancelledAt = &now
	return &prior, nil
}

func (f *fakeRepository) ListExpiredPending(cutoff time.Time, limit int) ([]Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Reservation
	for _, r := range f.reservations {
		if r.Status == StatusPending && r.HoldExpiresAt.Before(cutoff) {
			out = append(out, *r)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRepository) ListRefundableDeposits(cutoff time.Time, limit int) ([]Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Reservation
	for _, r := range f.reservations {
		if r.Status == StatusConfirmed && r.DepositState == DepositHeld && !r.UsageEndsAt.After(cutoff) {
			out = append(out, *r)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRepository) MarkDepositRefunded(id uuid.UUID, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	reservation, ok := f.reservations[id]
	if !ok {
		return fmt.Errorf("reservation not found: %w", apperrors.ErrNotFound)
	}
	if reservation.DepositState != DepositHeld {
		return fmt.Errorf("deposit not held: %w", apperrors.ErrInvalidStateTransition)
	}
	reservation.DepositState = DepositRefunded
	reservation.DepositRefundedAt = &now
	return nil
}

func (f *fakeRepository) MarkDepositForfeited(id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	reservation, ok := f.reservations[id]
	if !ok {
		return fmt.Errorf("reservation not found: %w", apperrors.ErrNotFound)
	}
	if reservation.DepositState != DepositHeld {
		return fmt.Errorf("deposit not held: %w", apperrors.ErrInvalidStateTransition)
	}
	reservation.DepositState = DepositForfeited
	return nil
}

// fakeStore tracks a single slot's seat counter.
type fakeStore struct {
	mu         sync.Mutex
	view       capacity.SlotView
	reserveErr error
	released   []int
}

func (f *fakeStore) GetSlot(ctx context.Context, slotID uuid.UUID) (*capacity.SlotView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if slotID != f.view.ID {
		return nil, fmt.Errorf("slot not found: %w", apperrors.ErrNotFound)
	}
	copied := f.view
	return &copied, nil
}

func (f *fakeStore) ReserveSeats(ctx context.Context, slotID uuid.UUID, seats int, asGroup bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reserveErr != nil {
		return f.reserveErr
	}
	if asGroup {
		f.view.RemainingSeats = 0
		f.view.ExclusiveGroupHeld = true
		return nil
	}
	if f.view.RemainingSeats < seats {
		return fmt.Errorf("not enough seats: %w", apperrors.ErrCapacityExceeded)
	}
	f.view.RemainingSeats -= seats
	return nil
}

func (f *fakeStore) ReleaseSeats(ctx context.Context, slotID uuid.UUID, seats int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, seats)
	f.view.RemainingSeats += seats
	if f.view.RemainingSeats >= f.view.Capacity {
		f.view.RemainingSeats = f.view.Capacity
		f.view.ExclusiveGroupHeld = false
	}
	return nil
}

type fakeDirectory struct {
	info *ResourceInfo
}

func (f *fakeDirectory) GetResourceInfo(id uuid.UUID) (*ResourceInfo, error) {
	if f.info == nil || f.info.ID != id {
		return nil, fmt.Errorf("resource not found: %w", apperrors.ErrNotFound)
	}
	copied := *f.info
	return &copied, nil
}

type fakePricer struct{}

func (fakePricer) Quote(info *ResourceInfo, desc AllocationDescriptor) (int64, int64, error) {
	if desc.Range != nil {
		return 1000, info.DepositCents, nil
	}
	return 1000, 0, nil
}

type noticeLog struct {
	created   int
	confirmed int
	cancelled []string
}

func (n *noticeLog) ReservationCreated(ctx context.Context, r *Reservation)   { n.created++ }
func (n *noticeLog) ReservationConfirmed(ctx context.Context, r *Reservation) { n.confirmed++ }
func (n *noticeLog) ReservationCancelled(ctx context.Context, r *Reservation) {
	n.cancelled = append(n.cancelled, r.CancelReason)
}

func holdConfig() config.HoldConfig {
	return config.HoldConfig{
		DefaultDuration: 15 * time.Minute,
		MaxDuration:     2 * time.Hour,
		SweepInterval:   time.Minute,
		SweepBatchSize:  100,
	}
}

func seatFixture(now time.Time) (*fakeRepository, *fakeStore, *fakeDirectory) {
	resourceID := uuid.New()
	slotID := uuid.New()
	store := &fakeStore{
		view: capacity.SlotView{
			Slot: capacity.Slot{
				ID:             slotID,
				ResourceID:     resourceID,
				StartsAt:       now.Add(48 * time.Hour),
				RemainingSeats: 10,
			},
			Capacity: 10,
		},
	}
	directory := &fakeDirectory{info: &ResourceInfo{
		ID:             resourceID,
		Mode:           "SEAT_BASED",
		Capacity:       10,
		BasePriceCents: 2500,
		DepositCents:   5000,
		Active:         true,
	}}
	return newFakeRepository(), store, directory
}

func TestCreateReservationSeatClaim(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(now)

	t.Run("holds seats and sets default expiry", func(t *testing.T) {
		repo, store, directory := seatFixture(now)
		svc := NewService(repo, store, directory, fakePricer{}, clk, holdConfig())

		resp, err := svc.CreateReservation(CreateReservationRequest{
			ResourceID: directory.info.ID.String(),
			HolderRef:  "holder-1",
			SlotID:     store.view.ID.String(),
			Seats:      3,
		})
		if err != nil {
			t.Fatalf("CreateReservation: %v", err)
		}
		if resp.Status != StatusPending {
			t.Errorf("status = %s, want %s", resp.Status, StatusPending)
		}
		if store.view.RemainingSeats != 7 {
			t.Errorf("remaining seats = %d, want 7", store.view.RemainingSeats)
		}
		want := now.Add(15 * time.Minute)
		if !resp.HoldExpiresAt.Equal(want) {
			t.Errorf("hold expires at %v, want %v", resp.HoldExpiresAt, want)
		}
	})

	t.Run("group claim records full capacity as quantity", func(t *testing.T) {
		repo, store, directory := seatFixture(now)
		svc := NewService(repo, store, directory, fakePricer{}, clk, holdConfig())

		resp, err := svc.CreateReservation(CreateReservationRequest{
			ResourceID: directory.info.ID.String(),
			HolderRef:  "holder-1",
			SlotID:     store.view.ID.String(),
			AsGroup:    true,
		})
		if err != nil {
			t.Fatalf("CreateReservation: %v", err)
		}
		if resp.Quantity != 10 {
			t.Errorf("quantity = %d, want 10", resp.Quantity)
		}
		if !store.view.ExclusiveGroupHeld {
			t.Error("slot not marked group-held")
		}
	})

	t.Run("hold override is clamped to the maximum", func(t *testing.T) {
		repo, store, directory := seatFixture(now)
		svc := NewService(repo, store, directory, fakePricer{}, clk, holdConfig())

		resp, err := svc.CreateReservation(CreateReservationRequest{
			ResourceID:  directory.info.ID.String(),
			HolderRef:   "holder-1",
			SlotID:      store.view.ID.String(),
			Seats:       1,
			HoldMinutes: 600, // 10h, above the 2h cap
		})
		if err != nil {
			t.Fatalf("CreateReservation: %v", err)
		}
		want := now.Add(2 * time.Hour)
		if !resp.HoldExpiresAt.Equal(want) {
			t.Errorf("hold expires at %v, want %v", resp.HoldExpiresAt, want)
		}
	})

	t.Run("capacity failure surfaces and writes nothing", func(t *testing.T) {
		repo, store, directory := seatFixture(now)
		store.reserveErr = fmt.Errorf("not enough seats: %w", apperrors.ErrCapacityExceeded)
		svc := NewService(repo, store, directory, fakePricer{}, clk, holdConfig())

		_, err := svc.CreateReservation(CreateReservationRequest{
			ResourceID: directory.info.ID.String(),
			HolderRef:  "holder-1",
			SlotID:     store.view.ID.String(),
			Seats:      20,
		})
		if !errors.Is(err, apperrors.ErrCapacityExceeded) {
			t.Fatalf("err = %v, want ErrCapacityExceeded", err)
		}
		if len(repo.reservations) != 0 {
			t.Errorf("reservation written despite failed claim")
		}
	})

	t.Run("failed insert releases the claimed seats", func(t *testing.T) {
		repo, store, directory := seatFixture(now)
		repo.createErr = errors.New("insert failed")
		svc := NewService(repo, store, directory, fakePricer{}, clk, holdConfig())

		_, err := svc.CreateReservation(CreateReservationRequest{
			ResourceID: directory.info.ID.String(),
			HolderRef:  "holder-1",
			SlotID:     store.view.ID.String(),
			Seats:      4,
		})
		if err == nil {
			t.Fatal("expected error")
		}
		if store.view.RemainingSeats != 10 {
			t.Errorf("remaining seats = %d, want 10 after rollback", store.view.RemainingSeats)
		}
	})

	t.Run("rejects range claim on seat resource", func(t *testing.T) {
		repo, store, directory := seatFixture(now)
		svc := NewService(repo, store, directory, fakePricer{}, clk, holdConfig())

		start := now.AddDate(0, 0, 1)
		end := now.AddDate(0, 0, 3)
		_, err := svc.CreateReservation(CreateReservationRequest{
			ResourceID: directory.info.ID.String(),
			HolderRef:  "holder-1",
			RangeStart: &start,
			RangeEnd:   &end,
		})
		if !errors.Is(err, apperrors.ErrValidation) {
			t.Fatalf("err = %v, want ErrValidation", err)
		}
	})

	t.Run("rejects inactive resource", func(t *testing.T) {
		repo, store, directory := seatFixture(now)
		directory.info.Active = false
		svc := NewService(repo, store, directory, fakePricer{}, clk, holdConfig())

		_, err := svc.CreateReservation(CreateReservationRequest{
			ResourceID: directory.info.ID.String(),
			HolderRef:  "holder-1",
			SlotID:     store.view.ID.String(),
			Seats:      1,
		})
		if !errors.Is(err, apperrors.ErrValidation) {
			t.Fatalf("err = %v, want ErrValidation", err)
		}
	})
}

func TestCreateReservationRangeClaim(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(now)

	resourceID := uuid.New()
	directory := &fakeDirectory{info: &ResourceInfo{
		ID:             resourceID,
		Mode:           "INVENTORY_BASED",
		UnitCount:      3,
		BasePriceCents: 12000,
		DepositCents:   20000,
		Active:         true,
	}}

	t.Run("stores normalized range and usage end", func(t *testing.T) {
		repo := newFakeRepository()
		svc := NewService(repo, &fakeStore{}, directory, fakePricer{}, clk, holdConfig())

		start := time.Date(2026, 9, 10, 9, 30, 0, 0, time.UTC)
		end := time.Date(2026, 9, 13, 18, 0, 0, 0, time.UTC)
		resp, err := svc.CreateReservation(CreateReservationRequest{
			ResourceID: resourceID.String(),
			HolderRef:  "holder-2",
			RangeStart: &start,
			RangeEnd:   &end,
		})
		if err != nil {
			t.Fatalf("CreateReservation: %v", err)
		}
		wantStart := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
		if !resp.RangeStart.Equal(wantStart) {
			t.Errorf("range start = %v, want %v", resp.RangeStart, wantStart)
		}
		stored := repo.reservations[uuid.MustParse(resp.ID)]
		if !stored.UsageEndsAt.Equal(*stored.RangeEnd) {
			t.Errorf("usage ends at %v, want range end %v", stored.UsageEndsAt, *stored.RangeEnd)
		}
	})

	t.Run("rejects range starting in the past", func(t *testing.T) {
		repo := newFakeRepository()
		svc := NewService(repo, &fakeStore{}, directory, fakePricer{}, clk, holdConfig())

		start := now.AddDate(0, 0, -2)
		end := now.AddDate(0, 0, 2)
		_, err := svc.CreateReservation(CreateReservationRequest{
			ResourceID: resourceID.String(),
			HolderRef:  "holder-2",
			RangeStart: &start,
			RangeEnd:   &end,
		})
		if !errors.Is(err, apperrors.ErrValidation) {
			t.Fatalf("err = %v, want ErrValidation", err)
		}
	})

	t.Run("surfaces daily-limit rejection from the repository", func(t *testing.T) {
		repo := newFakeRepository()
		repo.rangeErr = fmt.Errorf("no unit free: %w", apperrors.ErrCapacityExceeded)
		svc := NewService(repo, &fakeStore{}, directory, fakePricer{}, clk, holdConfig())

		start := now.AddDate(0, 0, 1)
		end := now.AddDate(0, 0, 4)
		_, err := svc.CreateReservation(CreateReservationRequest{
			ResourceID: resourceID.String(),
			HolderRef:  "holder-2",
			RangeStart: &start,
			RangeEnd:   &end,
		})
		if !errors.Is(err, apperrors.ErrCapacityExceeded) {
			t.Fatalf("err = %v, want ErrCapacityExceeded", err)
		}
	})
}

func TestConfirmReservation(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(now)
	ctx := context.Background()

	create := func(t *testing.T, svc Service, store *fakeStore, directory *fakeDirectory) uuid.UUID {
		t.Helper()
		resp, err := svc.CreateReservation(CreateReservationRequest{
			ResourceID: directory.info.ID.String(),
			HolderRef:  "holder-1",
			SlotID:     store.view.ID.String(),
			Seats:      2,
		})
		if err != nil {
			t.Fatalf("CreateReservation: %v", err)
		}
		return uuid.MustParse(resp.ID)
	}

	t.Run("confirms pending seat hold without a deposit", func(t *testing.T) {
		repo, store, directory := seatFixture(now)
		svc := NewService(repo, store, directory, fakePricer{}, clk, holdConfig())
		id := create(t, svc, store, directory)

		resp, err := svc.ConfirmReservation(ctx, id, "pay-123")
		if err != nil {
			t.Fatalf("ConfirmReservation: %v", err)
		}
		if resp.Status != StatusConfirmed {
			t.Errorf("status = %s, want %s", resp.Status, StatusConfirmed)
		}
		if resp.DepositState != DepositNone {
			t.Errorf("deposit state = %s, want %s", resp.DepositState, DepositNone)
		}
	})

	t.Run("confirming an inventory rental holds the deposit", func(t *testing.T) {
		repo := newFakeRepository()
		directory := &fakeDirectory{info: &ResourceInfo{
			ID:             uuid.New(),
			Mode:           "INVENTORY_BASED",
			UnitCount:      2,
			BasePriceCents: 12000,
			DepositCents:   20000,
			Active:         true,
		}}
		svc := NewService(repo, &fakeStore{}, directory, fakePricer{}, clk, holdConfig())

		start := now.AddDate(0, 0, 3)
		end := now.AddDate(0, 0, 6)
		created, err := svc.CreateReservation(CreateReservationRequest{
			ResourceID: directory.info.ID.String(),
			HolderRef:  "holder-1",
			RangeStart: &start,
			RangeEnd:   &end,
		})
		if err != nil {
			t.Fatalf("CreateReservation: %v", err)
		}
		if created.DepositCents != 20000 {
			t.Fatalf("quoted deposit = %d, want 20000", created.DepositCents)
		}

		resp, err := svc.ConfirmReservation(ctx, uuid.MustParse(created.ID), "pay-123")
		if err != nil {
			t.Fatalf("ConfirmReservation: %v", err)
		}
		if resp.DepositState != DepositHeld {
			t.Errorf("deposit state = %s, want %s", resp.DepositState, DepositHeld)
		}
	})

	t.Run("duplicate payment reference is answered, not errored", func(t *testing.T) {
		repo, store, directory := seatFixture(now)
		svc := NewService(repo, store, directory, fakePricer{}, clk, holdConfig())
		id := create(t, svc, store, directory)

		if _, err := svc.ConfirmReservation(ctx, id, "pay-123"); err != nil {
			t.Fatalf("first confirm: %v", err)
		}
		resp, err := svc.ConfirmReservation(ctx, id, "pay-123")
		if err != nil {
			t.Fatalf("replayed confirm: %v", err)
		}
		if resp.Status != StatusConfirmed {
			t.Errorf("status = %s, want %s", resp.Status, StatusConfirmed)
		}
	})

	t.Run("different payment reference on confirmed hold fails", func(t *testing.T) {
		repo, store, directory := seatFixture(now)
		svc := NewService(repo, store, directory, fakePricer{}, clk, holdConfig())
		id := create(t, svc, store, directory)

		if _, err := svc.ConfirmReservation(ctx, id, "pay-123"); err != nil {
			t.Fatalf("first confirm: %v", err)
		}
		_, err := svc.ConfirmReservation(ctx, id, "pay-456")
		if !errors.Is(err, apperrors.ErrInvalidStateTransition) {
			t.Fatalf("err = %v, want ErrInvalidStateTransition", err)
		}
	})

	t.Run("confirming past expiry still works while pending", func(t *testing.T) {
		repo, store, directory := seatFixture(now)
		fake := clock.NewFake(now)
		svc := NewService(repo, store, directory, fakePricer{}, fake, holdConfig())
		id := create(t, svc, store, directory)

		fake.Advance(time.Hour) // past the 15m hold, sweep has not run
		if _, err := svc.ConfirmReservation(ctx, id, "pay-late"); err != nil {
			t.Fatalf("late confirm: %v", err)
		}
	})

	t.Run("empty payment reference is rejected", func(t *testing.T) {
		repo, store, directory := seatFixture(now)
		svc := NewService(repo, store, directory, fakePricer{}, clk, holdConfig())
		id := create(t, svc, store, directory)

		_, err := svc.ConfirmReservation(ctx, id, "")
		if !errors.Is(err, apperrors.ErrValidation) {
			t.Fatalf("err = %v, want ErrValidation", err)
		}
	})
}

func TestCancelReservation(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(now)
	ctx := context.Background()

	t.Run("holder cancel releases seats", func(t *testing.T) {
		repo, store, directory := seatFixture(now)
		svc := NewService(repo, store, directory, fakePricer{}, clk, holdConfig())
		resp, err := svc.CreateReservation(CreateReservationRequest{
			ResourceID: directory.info.ID.String(),
			HolderRef:  "holder-1",
			SlotID:     store.view.ID.String(),
			Seats:      4,
		})
		if err != nil {
			t.Fatalf("CreateReservation: %v", err)
		}

		cancelled, err := svc.CancelReservation(uuid.MustParse(resp.ID), "")
		if err != nil {
			t.Fatalf("CancelReservation: %v", err)
		}
		if cancelled.Status != StatusCancelled {
			t.Errorf("status = %s, want %s", cancelled.Status, StatusCancelled)
		}
		if cancelled.CancelReason != ReasonHolderRequest {
			t.Errorf("reason = %s, want %s", cancelled.CancelReason, ReasonHolderRequest)
		}
		if store.view.RemainingSeats != 10 {
			t.Errorf("remaining seats = %d, want 10", store.view.RemainingSeats)
		}
	})

	t.Run("holder cannot cancel a confirmed reservation", func(t *testing.T) {
		repo, store, directory := seatFixture(now)
		svc := NewService(repo, store, directory, fakePricer{}, clk, holdConfig())
		resp, err := svc.CreateReservation(CreateReservationRequest{
			ResourceID: directory.info.ID.String(),
			HolderRef:  "holder-1",
			SlotID:     store.view.ID.String(),
			Seats:      2,
		})
		if err != nil {
			t.Fatalf("CreateReservation: %v", err)
		}
		id := uuid.MustParse(resp.ID)
		if _, err := svc.ConfirmReservation(ctx, id, "pay-1"); err != nil {
			t.Fatalf("ConfirmReservation: %v", err)
		}

		_, err = svc.CancelReservation(id, "changed my mind")
		if !errors.Is(err, apperrors.ErrInvalidStateTransition) {
			t.Fatalf("err = %v, want ErrInvalidStateTransition", err)
		}
	})

	t.Run("admin cancel of confirmed reservation releases the seats", func(t *testing.T) {
		repo, store, directory := seatFixture(now)
		svc := NewService(repo, store, directory, fakePricer{}, clk, holdConfig())
		resp, err := svc.CreateReservation(CreateReservationRequest{
			ResourceID: directory.info.ID.String(),
			HolderRef:  "holder-1",
			SlotID:     store.view.ID.String(),
			Seats:      2,
		})
		if err != nil {
			t.Fatalf("CreateReservation: %v", err)
		}
		id := uuid.MustParse(resp.ID)
		if _, err := svc.ConfirmReservation(ctx, id, "pay-1"); err != nil {
			t.Fatalf("ConfirmReservation: %v", err)
		}

		cancelled, err := svc.AdminCancelReservation(id, "venue flooded")
		if err != nil {
			t.Fatalf("AdminCancelReservation: %v", err)
		}
		if cancelled.Status != StatusCancelled {
			t.Errorf("status = %s, want %s", cancelled.Status, StatusCancelled)
		}
		if store.view.RemainingSeats != 10 {
			t.Errorf("remaining seats = %d, want 10", store.view.RemainingSeats)
		}
	})

	t.Run("admin cancel of confirmed rental forfeits the deposit", func(t *testing.T) {
		repo := newFakeRepository()
		directory := &fakeDirectory{info: &ResourceInfo{
			ID:             uuid.New(),
			Mode:           "INVENTORY_BASED",
			UnitCount:      2,
			BasePriceCents: 12000,
			DepositCents:   20000,
			Active:         true,
		}}
		svc := NewService(repo, &fakeStore{}, directory, fakePricer{}, clk, holdConfig())

		start := now.AddDate(0, 0, 3)
		end := now.AddDate(0, 0, 6)
		resp, err := svc.CreateReservation(CreateReservationRequest{
			ResourceID: directory.info.ID.String(),
			HolderRef:  "holder-1",
			RangeStart: &start,
			RangeEnd:   &end,
		})
		if err != nil {
			t.Fatalf("CreateReservation: %v", err)
		}
		id := uuid.MustParse(resp.ID)
		if _, err := svc.ConfirmReservation(ctx, id, "pay-1"); err != nil {
			t.Fatalf("ConfirmReservation: %v", err)
		}

		cancelled, err := svc.AdminCancelReservation(id, "fleet recalled")
		if err != nil {
			t.Fatalf("AdminCancelReservation: %v", err)
		}
		if cancelled.DepositState != DepositForfeited {
			t.Errorf("deposit state = %s, want %s", cancelled.DepositState, DepositForfeited)
		}
	})

	t.Run("cancelling twice is a no-op, not an error", func(t *testing.T) {
		repo, store, directory := seatFixture(now)
		svc := NewService(repo, store, directory, fakePricer{}, clk, holdConfig())
		resp, err := svc.CreateReservation(CreateReservationRequest{
			ResourceID: directory.info.ID.String(),
			HolderRef:  "holder-1",
			SlotID:     store.view.ID.String(),
			Seats:      1,
		})
		if err != nil {
			t.Fatalf("CreateReservation: %v", err)
		}
		id := uuid.MustParse(resp.ID)
		if _, err := svc.CancelReservation(id, ""); err != nil {
			t.Fatalf("first cancel: %v", err)
		}

		again, err := svc.CancelReservation(id, "")
		if err != nil {
			t.Fatalf("repeated cancel: %v", err)
		}
		if again.Status != StatusCancelled {
			t.Errorf("status = %s, want %s", again.Status, StatusCancelled)
		}
		// The no-op path must not release the seat a second time.
		if store.view.RemainingSeats != 10 {
			t.Errorf("remaining seats = %d, want 10", store.view.RemainingSeats)
		}
		if len(store.released) != 1 {
			t.Errorf("release calls = %d, want 1", len(store.released))
		}
	})
}

func TestProcessExpiredHolds(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("reclaims lapsed holds and releases their seats", func(t *testing.T) {
		repo, store, directory := seatFixture(now)
		fake := clock.NewFake(now)
		notices := &noticeLog{}
		svc := NewService(repo, store, directory, fakePricer{}, fake, holdConfig())
		svc.SetNotifier(notices)

		resp, err := svc.CreateReservation(CreateReservationRequest{
			ResourceID: directory.info.ID.String(),
			HolderRef:  "holder-1",
			SlotID:     store.view.ID.String(),
			Seats:      5,
		})
		if err != nil {
			t.Fatalf("CreateReservation: %v", err)
		}

		fake.Advance(30 * time.Minute)
		processed, err := svc.ProcessExpiredHolds(ctx)
		if err != nil {
			t.Fatalf("ProcessExpiredHolds: %v", err)
		}
		if processed != 1 {
			t.Fatalf("processed = %d, want 1", processed)
		}

		stored := repo.reservations[uuid.MustParse(resp.ID)]
		if stored.Status != StatusCancelled {
			t.Errorf("status = %s, want %s", stored.Status, StatusCancelled)
		}
		if stored.CancelReason != ReasonHoldExpired {
			t.Errorf("reason = %s, want %s", stored.CancelReason, ReasonHoldExpired)
		}
		if store.view.RemainingSeats != 10 {
			t.Errorf("remaining seats = %d, want 10", store.view.RemainingSeats)
		}
		if len(notices.cancelled) != 1 || notices.cancelled[0] != ReasonHoldExpired {
			t.Errorf("cancel notices = %v, want one hold_expired", notices.cancelled)
		}
	})

	t.Run("leaves unexpired and confirmed holds alone", func(t *testing.T) {
		repo, store, directory := seatFixture(now)
		fake := clock.NewFake(now)
		svc := NewService(repo, store, directory, fakePricer{}, fake, holdConfig())

		fresh, err := svc.CreateReservation(CreateReservationRequest{
			ResourceID: directory.info.ID.String(),
			HolderRef:  "holder-1",
			SlotID:     store.view.ID.String(),
			Seats:      2,
		})
		if err != nil {
			t.Fatalf("CreateReservation: %v", err)
		}
		confirmed, err := svc.CreateReservation(CreateReservationRequest{
			ResourceID: directory.info.ID.String(),
			HolderRef:  "holder-2",
			SlotID:     store.view.ID.String(),
			Seats:      3,
		})
		if err != nil {
			t.Fatalf("CreateReservation: %v", err)
		}
		if _, err := svc.ConfirmReservation(ctx, uuid.MustParse(confirmed.ID), "pay-1"); err != nil {
			t.Fatalf("ConfirmReservation: %v", err)
		}

		fake.Advance(5 * time.Minute) // inside the 15m hold window
		processed, err := svc.ProcessExpiredHolds(ctx)
		if err != nil {
			t.Fatalf("ProcessExpiredHolds: %v", err)
		}
		if processed != 0 {
			t.Errorf("processed = %d, want 0", processed)
		}
		if repo.reservations[uuid.MustParse(fresh.ID)].Status != StatusPending {
			t.Errorf("fresh hold was reclaimed")
		}
		if repo.reservations[uuid.MustParse(confirmed.ID)].Status != StatusConfirmed {
			t.Errorf("confirmed reservation was reclaimed")
		}
	})

	t.Run("range claims are reclaimed without touching the seat store", func(t *testing.T) {
		repo := newFakeRepository()
		store := &fakeStore{}
		resourceID := uuid.New()
		directory := &fakeDirectory{info: &ResourceInfo{
			ID:        resourceID,
			Mode:      "INVENTORY_BASED",
			UnitCount: 2,
			Active:    true,
		}}
		fake := clock.NewFake(now)
		svc := NewService(repo, store, directory, fakePricer{}, fake, holdConfig())

		start := now.AddDate(0, 0, 2)
		end := now.AddDate(0, 0, 5)
		resp, err := svc.CreateReservation(CreateReservationRequest{
			ResourceID: resourceID.String(),
			HolderRef:  "holder-3",
			RangeStart: &start,
			RangeEnd:   &end,
		})
		if err != nil {
			t.Fatalf("CreateReservation: %v", err)
		}

		fake.Advance(time.Hour)
		processed, err := svc.ProcessExpiredHolds(ctx)
		if err != nil {
			t.Fatalf("ProcessExpiredHolds: %v", err)
		}
		if processed != 1 {
			t.Fatalf("processed = %d, want 1", processed)
		}
		if repo.reservations[uuid.MustParse(resp.ID)].Status != StatusCancelled {
			t.Errorf("range claim not reclaimed")
		}
		if len(store.released) != 0 {
			t.Errorf("seat store touched for a range claim: %v", store.released)
		}
	})
}

func TestCreateReservationContention(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(now)
	repo, store, directory := seatFixture(now)
	svc := NewService(repo, store, directory, fakePricer{}, clk, holdConfig())

	// 16 holders race for a 10-seat slot, one seat each.
	const attempts = 16
	var succeeded, rejected atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.CreateReservation(CreateReservationRequest{
				ResourceID: directory.info.ID.String(),
				HolderRef:  fmt.Sprintf("holder-%d", i),
				SlotID:     store.view.ID.String(),
				Seats:      1,
			})
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, apperrors.ErrCapacityExceeded):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if succeeded.Load() != 10 {
		t.Errorf("succeeded = %d, want 10", succeeded.Load())
	}
	if rejected.Load() != attempts-10 {
		t.Errorf("rejected = %d, want %d", rejected.Load(), attempts-10)
	}
	if store.view.RemainingSeats != 0 {
		t.Errorf("remaining seats = %d, want 0", store.view.RemainingSeats)
	}

	// Conservation: every committed seat is backed by a pending hold.
	held := 0
	for _, r := range repo.reservations {
		if r.Status == StatusPending {
			held += r.Quantity
		}
	}
	if held != store.view.Capacity {
		t.Errorf("held seats = %d, want %d", held, store.view.Capacity)
	}
}
