package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AssetStatus is shared by venues and vehicles
type AssetStatus string

const (
	AssetAvailable        AssetStatus = "AVAILABLE"
	AssetInUse            AssetStatus = "IN_USE"
	AssetUnderMaintenance AssetStatus = "UNDER_MAINTENANCE"
	AssetReserved         AssetStatus = "RESERVED"
)

var AssetStatuses = []AssetStatus{AssetAvailable, AssetInUse, AssetUnderMaintenance, AssetReserved}

type ItemStatus string

const (
	ItemAvailable        ItemStatus = "AVAILABLE"
	ItemInUse            ItemStatus = "IN_USE"
	ItemLowStock         ItemStatus = "LOW_STOCK"
	ItemOutOfStock       ItemStatus = "OUT_OF_STOCK"
	ItemUnderMaintenance ItemStatus = "UNDER_MAINTENANCE"
	ItemLost             ItemStatus = "LOST"
)

var ItemStatuses = []ItemStatus{ItemAvailable, ItemInUse, ItemLowStock, ItemOutOfStock, ItemUnderMaintenance, ItemLost}

type Venue struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string         `gorm:"type:varchar(255);not null" json:"name"`
	Location     string         `gorm:"type:varchar(255)" json:"location"`
	Capacity     int            `gorm:"type:int;default:0" json:"capacity"`
	Status       AssetStatus    `gorm:"type:varchar(30);not null;default:'AVAILABLE'" json:"status"`
	DepartmentID uuid.UUID      `gorm:"type:uuid;not null;index" json:"department_id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

type Vehicle struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string         `gorm:"type:varchar(255);not null" json:"name"`
	Type         string         `gorm:"type:varchar(50)" json:"type"`
	PlateNumber  string         `gorm:"type:varchar(30);uniqueIndex;not null" json:"plate_number"`
	Capacity     int            `gorm:"type:int;default:0" json:"capacity"`
	Status       AssetStatus    `gorm:"type:varchar(30);not null;default:'AVAILABLE'" json:"status"`
	DepartmentID uuid.UUID      `gorm:"type:uuid;not null;index" json:"department_id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// SupplyItem is an inventory entry that can be requested. Returnable items are
// lent out and come back; the rest are consumed.
type SupplyItem struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string         `gorm:"type:varchar(255);not null" json:"name"`
	Category     string         `gorm:"type:varchar(100)" json:"category"`
	Unit         string         `gorm:"type:varchar(30)" json:"unit"`
	Quantity     int            `gorm:"type:int;default:0;not null" json:"quantity"`
	Returnable   bool           `gorm:"default:false" json:"returnable"`
	Status       ItemStatus     `gorm:"type:varchar(30);not null;default:'AVAILABLE'" json:"status"`
	DepartmentID uuid.UUID      `gorm:"type:uuid;not null;index" json:"department_id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
