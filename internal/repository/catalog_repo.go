package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"requestdesk/internal/model"
)

// CatalogRepository stores the venues, vehicles and supply items requests
// refer to.
type CatalogRepository interface {
	CreateVenue(ctx context.Context, v *model.Venue) error
	FindVenue(ctx context.Context, id uuid.UUID) (*model.Venue, error)
	ListVenues(ctx context.Context, departmentID *uuid.UUID) ([]model.Venue, error)

	CreateVehicle(ctx context.Context, v *model.Vehicle) error
	FindVehicle(ctx context.Context, id uuid.UUID) (*model.Vehicle, error)
	ListVehicles(ctx context.Context, departmentID *uuid.UUID) ([]model.Vehicle, error)

	CreateSupplyItem(ctx context.Context, item *model.SupplyItem) error
	FindSupplyItems(ctx context.Context, ids []uuid.UUID) ([]model.SupplyItem, error)
	ListSupplyItems(ctx context.Context, departmentID *uuid.UUID, returnable *bool) ([]model.SupplyItem, error)
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func byDepartment(db *gorm.DB, departmentID *uuid.UUID) *gorm.DB {
	if departmentID != nil {
		return db.Where("department_id = ?", *departmentID)
	}
	return db
}

func (r *catalogRepository) CreateVenue(ctx context.Context, v *model.Venue) error {
	return GetDB(ctx, r.db).Create(v).Error
}

func (r *catalogRepository) FindVenue(ctx context.Context, id uuid.UUID) (*model.Venue, error) {
	var v model.Venue
	if err := GetDB(ctx, r.db).First(&v, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *catalogRepository) ListVenues(ctx context.Context, departmentID *uuid.UUID) ([]model.Venue, error) {
	var venues []model.Venue
	err := byDepartment(GetDB(ctx, r.db), departmentID).Order("name asc").Find(&venues).Error
	return venues, err
}

func (r *catalogRepository) CreateVehicle(ctx context.Context, v *model.Vehicle) error {
	return GetDB(ctx, r.db).Create(v).Error
}

func (r *catalogRepository) FindVehicle(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	var v model.Vehicle
	if err := GetDB(ctx, r.db).First(&v, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *catalogRepository) ListVehicles(ctx context.Context, departmentID *uuid.UUID) ([]model.Vehicle, error) {
	var vehicles []model.Vehicle
	err := byDepartment(GetDB(ctx, r.db), departmentID).Order("name asc").Find(&vehicles).Error
	return vehicles, err
}

func (r *catalogRepository) CreateSupplyItem(ctx context.Context, item *model.SupplyItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *catalogRepository) FindSupplyItems(ctx context.Context, ids []uuid.UUID) ([]model.SupplyItem, error) {
	var items []model.SupplyItem
	if len(ids) == 0 {
		return items, nil
	}
	err := GetDB(ctx, r.db).Where("id IN ?", ids).Find(&items).Error
	return items, err
}

func (r *catalogRepository) ListSupplyItems(ctx context.Context, departmentID *uuid.UUID, returnable *bool) ([]model.SupplyItem, error) {
	var items []model.SupplyItem
	db := byDepartment(GetDB(ctx, r.db), departmentID)
	if returnable != nil {
		db = db.Where("returnable = ?", *returnable)
	}
	err := db.Order("name asc").Find(&items).Error
	return items, err
}
