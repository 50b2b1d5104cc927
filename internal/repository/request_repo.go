package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"requestdesk/internal/model"
)

// RequestFilter narrows request listings. Zero fields are ignored. The date
// range is inclusive and applies to created_at unless OrCompleted is set.
type RequestFilter struct {
	RequesterID  *uuid.UUID
	DepartmentID *uuid.UUID
	AssigneeID   *uuid.UUID
	Status       *model.RequestStatus
	Type         *model.RequestType
	From         *time.Time
	To           *time.Time
	Search       string
	Page         int
	Limit        int

	// OrCompleted widens From/To to also match requests completed in range.
	OrCompleted bool
}

type RequestRepository interface {
	Create(ctx context.Context, req *model.Request) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error)
	// FindForUpdate locks the request row until the surrounding transaction ends.
	FindForUpdate(ctx context.Context, id uuid.UUID) (*model.Request, error)
	List(ctx context.Context, f RequestFilter) ([]model.Request, int64, error)
	// ListAll is List without pagination, for reports.
	ListAll(ctx context.Context, f RequestFilter) ([]model.Request, error)
	ListScheduled(ctx context.Context, from, to time.Time, departmentID *uuid.UUID) ([]model.Request, error)
	UpdateHeader(ctx context.Context, req *model.Request) error
	SaveDetail(ctx context.Context, detail interface{}) error
	AddItem(ctx context.Context, item *model.RequestItem) error
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	AddJobFile(ctx context.Context, file *model.JobFile) error
	FindJobFile(ctx context.Context, requestID, fileID uuid.UUID) (*model.JobFile, error)
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Department").
		Preload("Requester").
		Preload("JobRequest.AssignedTo").
		Preload("JobRequest.Files").
		Preload("VenueRequest.Venue").
		Preload("TransportRequest.Vehicle").
		Preload("SupplyRequest.Items.SupplyItem").
		Preload("ReturnableRequest.Items.SupplyItem")
}

func (r *requestRepository) Create(ctx context.Context, req *model.Request) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *requestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var req model.Request
	if err := withDetails(GetDB(ctx, r.db)).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) FindForUpdate(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var req model.Request
	db := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"})
	if err := withDetails(db).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) filtered(ctx context.Context, f RequestFilter) *gorm.DB {
	db := GetDB(ctx, r.db).Model(&model.Request{})
	if f.RequesterID != nil {
		db = db.Where("requests.requester_id = ?", *f.RequesterID)
	}
	if f.DepartmentID != nil {
		db = db.Where("requests.department_id = ?", *f.DepartmentID)
	}
	if f.AssigneeID != nil {
		db = db.Where("requests.id IN (?)",
			GetDB(ctx, r.db).Model(&model.JobRequest{}).Select("request_id").Where("assigned_to_id = ?", *f.AssigneeID))
	}
	if f.Status != nil {
		db = db.Where("requests.status = ?", *f.Status)
	}
	if f.Type != nil {
		db = db.Where("requests.type = ?", *f.Type)
	}
	if f.From != nil || f.To != nil {
		if f.OrCompleted {
			created := GetDB(ctx, r.db).Where(timeRange("requests.created_at", f.From, f.To))
			db = db.Where(created.Or(timeRange("requests.completed_at", f.From, f.To)))
		} else {
			db = db.Where(timeRange("requests.created_at", f.From, f.To))
		}
	}
	if f.Search != "" {
		db = db.Where("requests.title ILIKE ?", "%"+f.Search+"%")
	}
	return db
}

func (r *requestRepository) List(ctx context.Context, f RequestFilter) ([]model.Request, int64, error) {
	var requests []model.Request
	var total int64

	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (f.Page - 1) * f.Limit
	err := r.filtered(ctx, f).
		Preload("Department").
		Preload("Requester").
		Preload("JobRequest").
		Order("requests.created_at desc").
		Offset(offset).Limit(f.Limit).
		Find(&requests).Error
	if err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *requestRepository) ListAll(ctx context.Context, f RequestFilter) ([]model.Request, error) {
	var requests []model.Request
	err := r.filtered(ctx, f).
		Preload("JobRequest").
		Order("requests.created_at asc").
		Find(&requests).Error
	return requests, err
}

// ListScheduled returns live venue, transport and job requests whose
// scheduled time falls in [from, to].
func (r *requestRepository) ListScheduled(ctx context.Context, from, to time.Time, departmentID *uuid.UUID) ([]model.Request, error) {
	db := GetDB(ctx, r.db)
	venues := db.Model(&model.VenueRequest{}).Select("request_id").
		Where("start_time <= ? AND end_time >= ?", to, from)
	transports := GetDB(ctx, r.db).Model(&model.TransportRequest{}).Select("request_id").
		Where("date_and_time_needed BETWEEN ? AND ?", from, to)
	jobs := GetDB(ctx, r.db).Model(&model.JobRequest{}).Select("request_id").
		Where("due_date BETWEEN ? AND ?", from, to)

	q := GetDB(ctx, r.db).Model(&model.Request{}).
		Where("requests.status NOT IN ?", []model.RequestStatus{model.StatusRejected, model.StatusCancelled}).
		Where("(requests.id IN (?) OR requests.id IN (?) OR requests.id IN (?))", venues, transports, jobs)
	if departmentID != nil {
		q = q.Where("requests.department_id = ?", *departmentID)
	}

	var requests []model.Request
	err := q.
		Preload("VenueRequest.Venue").
		Preload("TransportRequest.Vehicle").
		Preload("JobRequest").
		Find(&requests).Error
	return requests, err
}

func (r *requestRepository) UpdateHeader(ctx context.Context, req *model.Request) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(req).Error
}

func (r *requestRepository) SaveDetail(ctx context.Context, detail interface{}) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(detail).Error
}

func (r *requestRepository) AddItem(ctx context.Context, item *model.RequestItem) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Create(item).Error
}

func (r *requestRepository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	return GetDB(ctx, r.db).Model(&model.RequestItem{}).
		Where("id = ?", itemID).
		Update("quantity", quantity).Error
}

func (r *requestRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", itemID).Delete(&model.RequestItem{}).Error
}

func (r *requestRepository) AddJobFile(ctx context.Context, file *model.JobFile) error {
	return GetDB(ctx, r.db).Create(file).Error
}

func (r *requestRepository) FindJobFile(ctx context.Context, requestID, fileID uuid.UUID) (*model.JobFile, error) {
	var file model.JobFile
	err := GetDB(ctx, r.db).
		Joins("JOIN job_requests ON job_requests.id = job_files.job_request_id").
		Where("job_files.id = ? AND job_requests.request_id = ?", fileID, requestID).
		First(&file).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// timeRange matches column within the inclusive window; a nil bound is open.
func timeRange(column string, from, to *time.Time) clause.Expression {
	var exprs []clause.Expression
	if from != nil {
		exprs = append(exprs, clause.Gte{Column: clause.Column{Name: column, Raw: true}, Value: *from})
	}
	if to != nil {
		exprs = append(exprs, clause.Lte{Column: clause.Column{Name: column, Raw: true}, Value: *to})
	}
	return clause.And(exprs...)
}
