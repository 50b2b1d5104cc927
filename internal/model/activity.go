package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ChangeType classifies an activity entry
type ChangeType string

const (
	ChangeCreated      ChangeType = "CREATED"
	ChangeStatus       ChangeType = "STATUS"
	ChangeAssignment   ChangeType = "ASSIGNMENT"
	ChangeFieldUpdate  ChangeType = "FIELD_UPDATE"
	ChangeItemQuantity ChangeType = "ITEM_QUANTITY"
	ChangeItemAdded    ChangeType = "ITEM_ADDED"
	ChangeItemRemoved  ChangeType = "ITEM_REMOVED"
	ChangeJobStatus    ChangeType = "JOB_STATUS"
	ChangeInProgress   ChangeType = "IN_PROGRESS"
	ChangeFileAttached ChangeType = "FILE_ATTACHED"
)

// EntityType names which record of a request an activity touched
type EntityType string

const (
	EntityRequest           EntityType = "REQUEST"
	EntityJobRequest        EntityType = "JOB_REQUEST"
	EntityVenueRequest      EntityType = "VENUE_REQUEST"
	EntityTransportRequest  EntityType = "TRANSPORT_REQUEST"
	EntitySupplyRequest     EntityType = "SUPPLY_REQUEST"
	EntityReturnableRequest EntityType = "RETURNABLE_REQUEST"
)

// Activity tracks who changed what on a request, and when
type Activity struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"request_id"`
	UserID     *uuid.UUID     `gorm:"type:uuid;index" json:"user_id"` // nil for system changes
	User       *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ChangeType ChangeType     `gorm:"type:varchar(30);not null;index" json:"change_type"`
	EntityType EntityType     `gorm:"type:varchar(30);not null" json:"entity_type"`
	OldValue   string         `gorm:"type:text" json:"old_value"`
	NewValue   string         `gorm:"type:text" json:"new_value"`
	Details    datatypes.JSON `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

// Notification is delivered to a single recipient about a request.
type Notification struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RecipientID uuid.UUID  `gorm:"type:uuid;not null;index" json:"recipient_id"`
	RequestID   *uuid.UUID `gorm:"type:uuid;index" json:"request_id"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Message     string     `gorm:"type:text" json:"message"`
	ReadAt      *time.Time `json:"read_at"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}
