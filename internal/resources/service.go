package resources

import (
	"context"
	"fmt"
	"math"
	"time"

	"reservio/internal/capacity"
	"reservio/internal/reservations"
	"reservio/internal/shared/apperrors"
	"reservio/internal/shared/constants"
	"reservio/pkg/cache"
	"reservio/pkg/clock"

	"github.com/google/uuid"
)

type Service interface {
	SetCacheService(cacheService cache.Service)
	CreateResource(req CreateResourceRequest) (*ResourceResponse, error)
	GetResourceByID(id uuid.UUID) (*ResourceResponse, error)
	GetAllResources(query ResourceListQuery) (*PaginatedResources, error)
	UpdateResource(id uuid.UUID, req UpdateResourceRequest) (*ResourceResponse, error)
	UpdateCapacity(id uuid.UUID, req UpdateCapacityRequest) (*ResourceResponse, error)
	UpdateUnitCount(id uuid.UUID, req UpdateUnitCountRequest) (*ResourceResponse, error)
	CreateSlot(resourceID uuid.UUID, req CreateSlotRequest) (*SlotResponse, error)
	GetSlots(resourceID uuid.UUID) ([]SlotResponse, error)

	// GetResourceInfo satisfies the reservation flow's ResourceDirectory.
	GetResourceInfo(id uuid.UUID) (*reservations.ResourceInfo, error)
}

type service struct {
	repo         Repository
	store        *capacity.SQLStore
	clk          clock.Clock
	cacheService cache.Service
}

func NewService(repo Repository, store *capacity.SQLStore, clk clock.Clock) Service {
	return &service{
		repo:  repo,
		store: store,
		clk:   clk,
	}
}

// SetCacheService injects the cache service dependency
func (s *service) SetCacheService(cacheService cache.Service) {
	s.cacheService = cacheService
}

func (s *service) invalidateResourceCache(ctx context.Context, resourceID uuid.UUID) {
	if s.cacheService == nil {
		return
	}
	// Availability reads are served from cache; a stale entry only delays the
	// calendar, it never admits an infeasible reservation.
	_ = s.cacheService.DeletePattern(ctx, constants.PATTERN_INVALIDATE_AVAILABILITY+resourceID.String()+"*")
	_ = s.cacheService.DeletePattern(ctx, constants.PATTERN_INVALIDATE_RESOURCE+resourceID.String()+"*")
}

func (s *service) CreateResource(req CreateResourceRequest) (*ResourceResponse, error) {
	mode := Mode(req.Mode)
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown resource mode %q: %w", req.Mode, apperrors.ErrValidation)
	}

	switch mode {
	case ModeSeatBased:
		if req.Capacity < 1 {
			return nil, fmt.Errorf("seat-based resources need a positive capacity: %w", apperrors.ErrValidation)
		}
	case ModeInventoryBased:
		if req.UnitCount < 1 {
			return nil, fmt.Errorf("inventory resources need a positive unit count: %w", apperrors.ErrValidation)
		}
	}

	resource := &Resource{
		Name:           req.Name,
		Description:    req.Description,
		Mode:           mode,
		Capacity:       req.Capacity,
		UnitCount:      req.UnitCount,
		BasePriceCents: req.BasePriceCents,
		DepositCents:   req.DepositCents,
		Active:         true,
	}

	if err := s.repo.Create(resource); err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	response := resource.ToResponse()
	return &response, nil
}

func (s *service) GetResourceByID(id uuid.UUID) (*ResourceResponse, error) {
	resource, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	response := resource.ToResponse()
	return &response, nil
}

func (s *service) GetAllResources(query ResourceListQuery) (*PaginatedResources, error) {
	resources, totalCount, err := s.repo.GetAll(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}

	if query.Page == 0 {
		query.Page = 1
	}
	if query.Limit == 0 {
		query.Limit = 10
	}

	responses := make([]ResourceResponse, len(resources))
	for i, resource := range resources {
		responses[i] = resource.ToResponse()
	}

	return &PaginatedResources{
		Resources:  responses,
		TotalCount: totalCount,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: int(math.Ceil(float64(totalCount) / float64(query.Limit))),
	}, nil
}

func (s *service) UpdateResource(id uuid.UUID, req UpdateResourceRequest) (*ResourceResponse, error) {
	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.BasePriceCents != nil {
		updates["base_price_cents"] = *req.BasePriceCents
	}
	if req.DepositCents != nil {
		updates["deposit_cents"] = *req.DepositCents
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	if len(updates) == 0 {
		return nil, fmt.Errorf("no fields to update: %w", apperrors.ErrValidation)
	}

	resource, err := s.repo.Update(id, updates)
	if err != nil {
		return nil, err
	}

	s.invalidateResourceCache(context.Background(), id)

	response := resource.ToResponse()
	return &response, nil
}

func (s *service) UpdateCapacity(id uuid.UUID, req UpdateCapacityRequest) (*ResourceResponse, error) {
	resource, err := s.repo.UpdateCapacity(id, req.Capacity)
	if err != nil {
		return nil, err
	}

	s.invalidateResourceCache(context.Background(), id)

	response := resource.ToResponse()
	return &response, nil
}

func (s *service) UpdateUnitCount(id uuid.UUID, req UpdateUnitCountRequest) (*ResourceResponse, error) {
	resource, err := s.repo.UpdateUnitCount(id, req.UnitCount)
	if err != nil {
		return nil, err
	}

	s.invalidateResourceCache(context.Background(), id)

	response := resource.ToResponse()
	return &response, nil
}

func (s *service) CreateSlot(resourceID uuid.UUID, req CreateSlotRequest) (*SlotResponse, error) {
	resource, err := s.repo.GetByID(resourceID)
	if err != nil {
		return nil, err
	}

	if resource.Mode != ModeSeatBased {
		return nil, fmt.Errorf("slots apply only to seat-based resources: %w", apperrors.ErrValidation)
	}
	if !resource.Active {
		return nil, fmt.Errorf("resource is inactive: %w", apperrors.ErrValidation)
	}
	if req.StartsAt.Before(s.clk.Now()) {
		return nil, fmt.Errorf("slot start must be in the future: %w", apperrors.ErrValidation)
	}

	slot := &capacity.Slot{
		ResourceID:     resourceID,
		StartsAt:       req.StartsAt.UTC(),
		RemainingSeats: resource.Capacity,
	}
	if err := s.store.CreateSlot(context.Background(), slot); err != nil {
		return nil, err
	}

	s.invalidateResourceCache(context.Background(), resourceID)

	return slotToResponse(slot), nil
}

func (s *service) GetSlots(resourceID uuid.UUID) ([]SlotResponse, error) {
	if _, err := s.repo.GetByID(resourceID); err != nil {
		return nil, err
	}

	slots, err := s.store.SlotsForResource(context.Background(), resourceID)
	if err != nil {
		return nil, err
	}

	responses := make([]SlotResponse, len(slots))
	for i := range slots {
		responses[i] = *slotToResponse(&slots[i])
	}
	return responses, nil
}

func (s *service) GetResourceInfo(id uuid.UUID) (*reservations.ResourceInfo, error) {
	resource, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	return &reservations.ResourceInfo{
		ID:             resource.ID,
		Mode:           string(resource.Mode),
		Capacity:       resource.Capacity,
		UnitCount:      resource.UnitCount,
		BasePriceCents: resource.BasePriceCents,
		DepositCents:   resource.DepositCents,
		Active:         resource.Active,
	}, nil
}

func slotToResponse(slot *capacity.Slot) *SlotResponse {
	return &SlotResponse{
		ID:             slot.ID.String(),
		ResourceID:     slot.ResourceID.String(),
		StartsAt:       slot.StartsAt.In(time.UTC),
		RemainingSeats: slot.RemainingSeats,
		GroupHeld:      slot.ExclusiveGroupHeld,
	}
}
