package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type RequestType string

const (
	RequestTypeJob       RequestType = "JOB"
	RequestTypeVenue     RequestType = "VENUE"
	RequestTypeTransport RequestType = "TRANSPORT"
	RequestTypeResource  RequestType = "RESOURCE"
)

var RequestTypes = []RequestType{RequestTypeJob, RequestTypeVenue, RequestTypeTransport, RequestTypeResource}

type RequestStatus string

const (
	StatusPending   RequestStatus = "PENDING"
	StatusReviewed  RequestStatus = "REVIEWED"
	StatusApproved  RequestStatus = "APPROVED"
	StatusRejected  RequestStatus = "REJECTED"
	StatusCancelled RequestStatus = "CANCELLED"
	StatusCompleted RequestStatus = "COMPLETED"
)

var RequestStatuses = []RequestStatus{
	StatusPending, StatusReviewed, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted,
}

// Terminal reports whether no further transition leaves s.
func (s RequestStatus) Terminal() bool {
	return s == StatusRejected || s == StatusCancelled || s == StatusCompleted
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

type JobStatus string

const (
	JobPending    JobStatus = "PENDING"
	JobInProgress JobStatus = "IN_PROGRESS"
	JobCompleted  JobStatus = "COMPLETED"
	JobOnHold     JobStatus = "ON_HOLD"
	JobCancelled  JobStatus = "CANCELLED"
)

var JobStatuses = []JobStatus{JobPending, JobInProgress, JobCompleted, JobOnHold, JobCancelled}

// Request is the shared header of every request type. Exactly one of the
// detail pointers is set, matching Type.
type Request struct {
	ID                 uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title              string        `gorm:"type:varchar(255);not null" json:"title"`
	Type               RequestType   `gorm:"type:varchar(20);not null;index" json:"type"`
	Status             RequestStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Priority           Priority      `gorm:"type:varchar(20);not null;default:'MEDIUM'" json:"priority"`
	DepartmentID       uuid.UUID     `gorm:"type:uuid;not null;index" json:"department_id"`
	Department         *Department   `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	RequesterID        uuid.UUID     `gorm:"type:uuid;not null;index" json:"requester_id"`
	Requester          *User         `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	ReviewedByID       *uuid.UUID    `gorm:"type:uuid" json:"reviewed_by_id"`
	ReviewedAt         *time.Time    `json:"reviewed_at"`
	ApprovedByID       *uuid.UUID    `gorm:"type:uuid" json:"approved_by_id"`
	ApprovedAt         *time.Time    `json:"approved_at"`
	CompletedAt        *time.Time    `gorm:"index" json:"completed_at"`
	RejectionReason    *string       `gorm:"type:text" json:"rejection_reason"`
	CancellationReason *string       `gorm:"type:text" json:"cancellation_reason"`
	CreatedAt          time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`

	JobRequest        *JobRequest        `gorm:"foreignKey:RequestID" json:"job_request,omitempty"`
	VenueRequest      *VenueRequest      `gorm:"foreignKey:RequestID" json:"venue_request,omitempty"`
	TransportRequest  *TransportRequest  `gorm:"foreignKey:RequestID" json:"transport_request,omitempty"`
	SupplyRequest     *SupplyRequest     `gorm:"foreignKey:RequestID" json:"supply_request,omitempty"`
	ReturnableRequest *ReturnableRequest `gorm:"foreignKey:RequestID" json:"returnable_request,omitempty"`
}

// DetailCount returns how many detail records are attached.
func (r *Request) DetailCount() int {
	n := 0
	if r.JobRequest != nil {
		n++
	}
	if r.VenueRequest != nil {
		n++
	}
	if r.TransportRequest != nil {
		n++
	}
	if r.SupplyRequest != nil {
		n++
	}
	if r.ReturnableRequest != nil {
		n++
	}
	return n
}

// HasMatchingDetail reports whether exactly one detail is attached and it
// matches Type.
func (r *Request) HasMatchingDetail() bool {
	if r.DetailCount() != 1 {
		return false
	}
	switch r.Type {
	case RequestTypeJob:
		return r.JobRequest != nil
	case RequestTypeVenue:
		return r.VenueRequest != nil
	case RequestTypeTransport:
		return r.TransportRequest != nil
	case RequestTypeResource:
		return r.SupplyRequest != nil || r.ReturnableRequest != nil
	}
	return false
}

// Items returns the line items of a resource request, nil for other types.
func (r *Request) Items() []RequestItem {
	switch {
	case r.SupplyRequest != nil:
		return r.SupplyRequest.Items
	case r.ReturnableRequest != nil:
		return r.ReturnableRequest.Items
	}
	return nil
}

// AssigneeID returns the assigned personnel of a job request, if any.
func (r *Request) AssigneeID() *uuid.UUID {
	if r.JobRequest == nil {
		return nil
	}
	return r.JobRequest.AssignedToID
}

type JobRequest struct {
	ID            uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID     uuid.UUID           `gorm:"type:uuid;uniqueIndex;not null" json:"request_id"`
	JobType       string              `gorm:"type:varchar(100);not null" json:"job_type"`
	AssignedToID  *uuid.UUID          `gorm:"type:uuid;index" json:"assigned_to_id"`
	AssignedTo    *User               `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
	DueDate       time.Time           `gorm:"not null" json:"due_date"`
	EstimatedTime decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"estimated_time"` // hours
	Notes         string              `gorm:"type:text" json:"notes"`
	Status        JobStatus           `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	StartedAt     *time.Time          `json:"started_at"`
	FinishedAt    *time.Time          `json:"finished_at"`
	Files         []JobFile           `gorm:"foreignKey:JobRequestID" json:"files"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// JobFile is an attachment stored in object storage.
type JobFile struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	JobRequestID uuid.UUID `gorm:"type:uuid;not null;index" json:"job_request_id"`
	ObjectKey    string    `gorm:"type:varchar(255);not null" json:"object_key"`
	FileName     string    `gorm:"type:varchar(255);not null" json:"file_name"`
	ContentType  string    `gorm:"type:varchar(100)" json:"content_type"`
	Size         int64     `json:"size"`
	UploadedByID uuid.UUID `gorm:"type:uuid;not null" json:"uploaded_by_id"`
	CreatedAt    time.Time `json:"created_at"`
}

type VenueRequest struct {
	ID                uuid.UUID                   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID         uuid.UUID                   `gorm:"type:uuid;uniqueIndex;not null" json:"request_id"`
	VenueID           uuid.UUID                   `gorm:"type:uuid;not null;index" json:"venue_id"`
	Venue             *Venue                      `gorm:"foreignKey:VenueID" json:"venue,omitempty"`
	StartTime         time.Time                   `gorm:"not null;index" json:"start_time"`
	EndTime           time.Time                   `gorm:"not null" json:"end_time"`
	Purpose           string                      `gorm:"type:text;not null" json:"purpose"`
	SetupRequirements datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"setup_requirements"`
	InProgress        bool                        `gorm:"default:false" json:"in_progress"`
	CreatedAt         time.Time                   `json:"created_at"`
	UpdatedAt         time.Time                   `json:"updated_at"`
}

type TransportRequest struct {
	ID                uuid.UUID                   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID         uuid.UUID                   `gorm:"type:uuid;uniqueIndex;not null" json:"request_id"`
	VehicleID         uuid.UUID                   `gorm:"type:uuid;not null;index" json:"vehicle_id"`
	Vehicle           *Vehicle                    `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
	Destination       string                      `gorm:"type:varchar(255);not null" json:"destination"`
	DateAndTimeNeeded time.Time                   `gorm:"not null;index" json:"date_and_time_needed"`
	PassengersName    datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"passengers_name"`
	Department        string                      `gorm:"type:varchar(255)" json:"department"`
	Description       string                      `gorm:"type:text" json:"description"`
	InProgress        bool                        `gorm:"default:false" json:"in_progress"`
	CreatedAt         time.Time                   `json:"created_at"`
	UpdatedAt         time.Time                   `json:"updated_at"`
}

// SupplyRequest borrows consumable items.
type SupplyRequest struct {
	ID                uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID         uuid.UUID     `gorm:"type:uuid;uniqueIndex;not null" json:"request_id"`
	DateAndTimeNeeded time.Time     `gorm:"not null" json:"date_and_time_needed"`
	Purpose           string        `gorm:"type:text;not null" json:"purpose"`
	Items             []RequestItem `gorm:"foreignKey:RequestID;references:RequestID" json:"items"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// ReturnableRequest borrows items that must be given back.
type ReturnableRequest struct {
	ID                uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID         uuid.UUID     `gorm:"type:uuid;uniqueIndex;not null" json:"request_id"`
	DateAndTimeNeeded time.Time     `gorm:"not null" json:"date_and_time_needed"`
	Purpose           string        `gorm:"type:text;not null" json:"purpose"`
	ReturnDateAndTime time.Time     `gorm:"not null" json:"return_date_and_time"`
	ReturnedAt        *time.Time    `json:"returned_at"`
	Items             []RequestItem `gorm:"foreignKey:RequestID;references:RequestID" json:"items"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// RequestItem is one line of a supply or returnable request.
type RequestItem struct {
	ID           uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID    uuid.UUID   `gorm:"type:uuid;not null;index" json:"request_id"`
	SupplyItemID uuid.UUID   `gorm:"type:uuid;not null;index" json:"supply_item_id"`
	SupplyItem   *SupplyItem `gorm:"foreignKey:SupplyItemID" json:"supply_item,omitempty"`
	Quantity     int         `gorm:"type:int;not null" json:"quantity"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
