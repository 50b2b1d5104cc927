package service

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"requestdesk/internal/badge"
	"requestdesk/internal/model"
)

// DTOs for request submission. The enum validators (request_type, priority,
// request_status, job_status) are registered on gin's validator by the handler
// package.

type ItemInput struct {
	SupplyItemID uuid.UUID `json:"supply_item_id" binding:"required"`
	Quantity     int       `json:"quantity" binding:"required,min=1"`
}

type JobDetailInput struct {
	JobType       string           `json:"job_type" binding:"required"`
	DueDate       time.Time        `json:"due_date" binding:"required"`
	EstimatedTime *decimal.Decimal `json:"estimated_time"`
	Notes         string           `json:"notes"`
}

type VenueDetailInput struct {
	VenueID           uuid.UUID `json:"venue_id" binding:"required"`
	StartTime         time.Time `json:"start_time" binding:"required"`
	EndTime           time.Time `json:"end_time" binding:"required,gtfield=StartTime"`
	Purpose           string    `json:"purpose" binding:"required"`
	SetupRequirements []string  `json:"setup_requirements"`
}

type TransportDetailInput struct {
	VehicleID         uuid.UUID `json:"vehicle_id" binding:"required"`
	Destination       string    `json:"destination" binding:"required"`
	DateAndTimeNeeded time.Time `json:"date_and_time_needed" binding:"required"`
	PassengersName    []string  `json:"passengers_name"`
	Department        string    `json:"department"`
	Description       string    `json:"description"`
}

type ResourceDetailInput struct {
	Returnable        bool        `json:"returnable"`
	DateAndTimeNeeded time.Time   `json:"date_and_time_needed" binding:"required"`
	ReturnDateAndTime *time.Time  `json:"return_date_and_time"`
	Purpose           string      `json:"purpose" binding:"required"`
	Items             []ItemInput `json:"items" binding:"required,min=1,dive"`
}

// CreateRequestInput is a typed submission; exactly the detail matching Type
// must be present.
type CreateRequestInput struct {
	Title        string                `json:"title" binding:"required,max=255"`
	Type         model.RequestType     `json:"type" binding:"required,request_type"`
	Priority     model.Priority        `json:"priority" binding:"omitempty,priority"`
	DepartmentID uuid.UUID             `json:"department_id" binding:"required"`
	Job          *JobDetailInput       `json:"job"`
	Venue        *VenueDetailInput     `json:"venue"`
	Transport    *TransportDetailInput `json:"transport"`
	Resource     *ResourceDetailInput  `json:"resource"`
}

// UpdateRequestInput edits a pending request. Nil fields are left alone.
type UpdateRequestInput struct {
	Title             *string          `json:"title" binding:"omitempty,min=1,max=255"`
	Priority          *model.Priority  `json:"priority" binding:"omitempty,priority"`
	JobType           *string          `json:"job_type"`
	DueDate           *time.Time       `json:"due_date"`
	EstimatedTime     *decimal.Decimal `json:"estimated_time"`
	Notes             *string          `json:"notes"`
	StartTime         *time.Time       `json:"start_time"`
	EndTime           *time.Time       `json:"end_time"`
	Purpose           *string          `json:"purpose"`
	SetupRequirements []string         `json:"setup_requirements"`
	Destination       *string          `json:"destination"`
	DateAndTimeNeeded *time.Time       `json:"date_and_time_needed"`
	PassengersName    []string         `json:"passengers_name"`
	Description       *string          `json:"description"`
	ReturnDateAndTime *time.Time       `json:"return_date_and_time"`
}

// StatusChangeInput is the status mutation payload. The target status selects
// the workflow action; ChangeType, EntityType and Path are recorded on the
// activity entry.
type StatusChangeInput struct {
	Status     model.RequestStatus `json:"status" binding:"required,request_status"`
	ChangeType string              `json:"changeType"`
	EntityType string              `json:"entityType"`
	Path       string              `json:"path"`
	Reason     string              `json:"reason" binding:"max=1000"`
}

type AssignInput struct {
	AssigneeID uuid.UUID `json:"assignee_id" binding:"required"`
}

type JobStatusInput struct {
	Status model.JobStatus `json:"status" binding:"required,job_status"`
}

type ItemQuantityInput struct {
	Quantity int `json:"quantity" binding:"required"`
}

// ListRequestsQuery selects whose requests to list. Scope "mine" lists the
// actor's own requests, "department" the actor's department, "assigned" the
// jobs assigned to the actor, "all" everything (approvers and admins).
type ListRequestsQuery struct {
	Scope        string              `form:"scope" binding:"omitempty,oneof=mine department assigned all"`
	DepartmentID string              `form:"department_id" binding:"omitempty,uuid"`
	Status       model.RequestStatus `form:"status" binding:"omitempty,request_status"`
	Type         model.RequestType   `form:"type" binding:"omitempty,request_type"`
	From         string              `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To           string              `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Search       string              `form:"search"`
	Page         int                 `form:"-"`
	Limit        int                 `form:"-"`
}

// RequestResponse is a request with the display badges the client renders.
type RequestResponse struct {
	model.Request
	StatusBadge    badge.Badge  `json:"status_badge"`
	PriorityIcon   badge.Icon   `json:"priority_icon"`
	JobStatusBadge *badge.Badge `json:"job_status_badge,omitempty"`
	CanEdit        bool         `json:"can_edit"`
}

func toResponse(r *model.Request) *RequestResponse {
	res := &RequestResponse{
		Request:      *r,
		StatusBadge:  badge.RequestStatus(r.Status),
		PriorityIcon: badge.PriorityIcon(r.Priority),
	}
	if r.JobRequest != nil {
		b := badge.JobStatus(r.JobRequest.Status)
		res.JobStatusBadge = &b
	}
	return res
}

// RequestSummary is a list row.
type RequestSummary struct {
	ID           uuid.UUID           `json:"id"`
	Title        string              `json:"title"`
	Type         model.RequestType   `json:"type"`
	Status       model.RequestStatus `json:"status"`
	Priority     model.Priority      `json:"priority"`
	Department   string              `json:"department"`
	Requester    string              `json:"requester"`
	AssigneeID   *uuid.UUID          `json:"assignee_id,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	CompletedAt  *time.Time          `json:"completed_at,omitempty"`
	StatusBadge  badge.Badge         `json:"status_badge"`
	PriorityIcon badge.Icon          `json:"priority_icon"`
}

func toSummary(r *model.Request) RequestSummary {
	s := RequestSummary{
		ID:           r.ID,
		Title:        r.Title,
		Type:         r.Type,
		Status:       r.Status,
		Priority:     r.Priority,
		AssigneeID:   r.AssigneeID(),
		CreatedAt:    r.CreatedAt,
		CompletedAt:  r.CompletedAt,
		StatusBadge:  badge.RequestStatus(r.Status),
		PriorityIcon: badge.PriorityIcon(r.Priority),
	}
	if r.Department != nil {
		s.Department = r.Department.Name
	}
	if r.Requester != nil {
		s.Requester = r.Requester.Name
	}
	return s
}

// FileUpload is an attachment streamed from a multipart form.
type FileUpload struct {
	FileName string
	Size     int64
	Content  io.Reader
}
