package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"requestdesk/internal/badge"
	"requestdesk/internal/model"
	"requestdesk/internal/repository"
	"requestdesk/internal/workflow"
)

type CreateVenueRequest struct {
	Name         string            `json:"name" binding:"required,max=255"`
	Location     string            `json:"location"`
	Capacity     int               `json:"capacity" binding:"min=0"`
	Status       model.AssetStatus `json:"status" binding:"omitempty,asset_status"`
	DepartmentID uuid.UUID         `json:"department_id" binding:"required"`
}

type CreateVehicleRequest struct {
	Name         string            `json:"name" binding:"required,max=255"`
	Type         string            `json:"type"`
	PlateNumber  string            `json:"plate_number" binding:"required,max=30"`
	Capacity     int               `json:"capacity" binding:"min=0"`
	Status       model.AssetStatus `json:"status" binding:"omitempty,asset_status"`
	DepartmentID uuid.UUID         `json:"department_id" binding:"required"`
}

type CreateSupplyItemRequest struct {
	Name         string           `json:"name" binding:"required,max=255"`
	Category     string           `json:"category"`
	Unit         string           `json:"unit"`
	Quantity     int              `json:"quantity" binding:"min=0"`
	Returnable   bool             `json:"returnable"`
	Status       model.ItemStatus `json:"status" binding:"omitempty,item_status"`
	DepartmentID uuid.UUID        `json:"department_id" binding:"required"`
}

type VenueResponse struct {
	model.Venue
	StatusBadge badge.Badge `json:"status_badge"`
}

type VehicleResponse struct {
	model.Vehicle
	StatusBadge badge.Badge `json:"status_badge"`
}

type SupplyItemResponse struct {
	model.SupplyItem
	StatusBadge badge.Badge `json:"status_badge"`
}

// CatalogService manages what can be requested. Department reviewers and
// admins maintain their department's catalog.
type CatalogService interface {
	ListVenues(ctx context.Context, departmentID *uuid.UUID) ([]VenueResponse, error)
	CreateVenue(ctx context.Context, actor workflow.Actor, req CreateVenueRequest) (*VenueResponse, error)
	ListVehicles(ctx context.Context, departmentID *uuid.UUID) ([]VehicleResponse, error)
	CreateVehicle(ctx context.Context, actor workflow.Actor, req CreateVehicleRequest) (*VehicleResponse, error)
	ListSupplyItems(ctx context.Context, departmentID *uuid.UUID, returnable *bool) ([]SupplyItemResponse, error)
	CreateSupplyItem(ctx context.Context, actor workflow.Actor, req CreateSupplyItemRequest) (*SupplyItemResponse, error)
}

type catalogService struct {
	repo        repository.CatalogRepository
	departments repository.DepartmentRepository
}

func NewCatalogService(repo repository.CatalogRepository, departments repository.DepartmentRepository) CatalogService {
	return &catalogService{repo: repo, departments: departments}
}

// canManage checks that actor maintains the catalog of departmentID.
func (s *catalogService) canManage(ctx context.Context, actor workflow.Actor, departmentID uuid.UUID) error {
	if _, err := s.departments.FindByID(ctx, departmentID); err != nil {
		return catalogErr(err, "Department")
	}
	if actor.IsAdmin() {
		return nil
	}
	if actor.Has(model.RoleReviewer) && actor.DepartmentID != nil && *actor.DepartmentID == departmentID {
		return nil
	}
	return newError(ErrForbidden, "Only reviewers of this department can manage its catalog")
}

func (s *catalogService) ListVenues(ctx context.Context, departmentID *uuid.UUID) ([]VenueResponse, error) {
	venues, err := s.repo.ListVenues(ctx, departmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list venues: %w", err)
	}
	out := make([]VenueResponse, 0, len(venues))
	for _, v := range venues {
		out = append(out, VenueResponse{Venue: v, StatusBadge: badge.VenueStatus(v.Status)})
	}
	return out, nil
}

func (s *catalogService) CreateVenue(ctx context.Context, actor workflow.Actor, req CreateVenueRequest) (*VenueResponse, error) {
	if err := s.canManage(ctx, actor, req.DepartmentID); err != nil {
		return nil, err
	}
	v := &model.Venue{
		Name:         req.Name,
		Location:     req.Location,
		Capacity:     req.Capacity,
		Status:       req.Status,
		DepartmentID: req.DepartmentID,
	}
	if v.Status == "" {
		v.Status = model.AssetAvailable
	}
	if err := s.repo.CreateVenue(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to create venue: %w", err)
	}
	return &VenueResponse{Venue: *v, StatusBadge: badge.VenueStatus(v.Status)}, nil
}

func (s *catalogService) ListVehicles(ctx context.Context, departmentID *uuid.UUID) ([]VehicleResponse, error) {
	vehicles, err := s.repo.ListVehicles(ctx, departmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	out := make([]VehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		out = append(out, VehicleResponse{Vehicle: v, StatusBadge: badge.VehicleStatus(v.Status)})
	}
	return out, nil
}

func (s *catalogService) CreateVehicle(ctx context.Context, actor workflow.Actor, req CreateVehicleRequest) (*VehicleResponse, error) {
	if err := s.canManage(ctx, actor, req.DepartmentID); err != nil {
		return nil, err
	}
	v := &model.Vehicle{
		Name:         req.Name,
		Type:         req.Type,
		PlateNumber:  req.PlateNumber,
		Capacity:     req.Capacity,
		Status:       req.Status,
		DepartmentID: req.DepartmentID,
	}
	if v.Status == "" {
		v.Status = model.AssetAvailable
	}
	if err := s.repo.CreateVehicle(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}
	return &VehicleResponse{Vehicle: *v, StatusBadge: badge.VehicleStatus(v.Status)}, nil
}

func (s *catalogService) ListSupplyItems(ctx context.Context, departmentID *uuid.UUID, returnable *bool) ([]SupplyItemResponse, error) {
	items, err := s.repo.ListSupplyItems(ctx, departmentID, returnable)
	if err != nil {
		return nil, fmt.Errorf("failed to list supply items: %w", err)
	}
	out := make([]SupplyItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, SupplyItemResponse{SupplyItem: it, StatusBadge: badge.ItemStatus(it.Status)})
	}
	return out, nil
}

func (s *catalogService) CreateSupplyItem(ctx context.Context, actor workflow.Actor, req CreateSupplyItemRequest) (*SupplyItemResponse, error) {
	if err := s.canManage(ctx, actor, req.DepartmentID); err != nil {
		return nil, err
	}
	item := &model.SupplyItem{
		Name:         req.Name,
		Category:     req.Category,
		Unit:         req.Unit,
		Quantity:     req.Quantity,
		Returnable:   req.Returnable,
		Status:       req.Status,
		DepartmentID: req.DepartmentID,
	}
	if item.Status == "" {
		item.Status = model.ItemAvailable
	}
	if err := s.repo.CreateSupplyItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create supply item: %w", err)
	}
	return &SupplyItemResponse{SupplyItem: *item, StatusBadge: badge.ItemStatus(item.Status)}, nil
}
