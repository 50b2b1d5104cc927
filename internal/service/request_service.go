package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"requestdesk/internal/cache"
	"requestdesk/internal/event"
	"requestdesk/internal/metrics"
	"requestdesk/internal/model"
	"requestdesk/internal/repository"
	"requestdesk/internal/storage"
	"requestdesk/internal/workflow"
)

// RequestService owns the request lifecycle: submission, edits and every
// status change, each run through the workflow package.
type RequestService interface {
	Create(ctx context.Context, actor workflow.Actor, in CreateRequestInput) (*RequestResponse, error)
	Get(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*RequestResponse, error)
	List(ctx context.Context, actor workflow.Actor, q ListRequestsQuery) ([]RequestSummary, int64, error)
	Update(ctx context.Context, actor workflow.Actor, id uuid.UUID, in UpdateRequestInput) (*RequestResponse, error)
	ChangeStatus(ctx context.Context, actor workflow.Actor, id uuid.UUID, in StatusChangeInput) (*RequestResponse, error)
	Assign(ctx context.Context, actor workflow.Actor, id uuid.UUID, in AssignInput) (*RequestResponse, error)
	UpdateJobStatus(ctx context.Context, actor workflow.Actor, id uuid.UUID, in JobStatusInput) (*RequestResponse, error)
	MarkInProgress(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*RequestResponse, error)
	Actions(ctx context.Context, actor workflow.Actor, id uuid.UUID) ([]workflow.PanelAction, error)
	Activity(ctx context.Context, actor workflow.Actor, id uuid.UUID) ([]model.Activity, error)

	UpdateItemQuantity(ctx context.Context, actor workflow.Actor, id, itemID uuid.UUID, quantity int) (*RequestResponse, error)
	RemoveItem(ctx context.Context, actor workflow.Actor, id, itemID uuid.UUID) (*RequestResponse, error)
	AddItem(ctx context.Context, actor workflow.Actor, id uuid.UUID, in ItemInput) (*RequestResponse, error)
	AttachFile(ctx context.Context, actor workflow.Actor, id uuid.UUID, file FileUpload) (*model.JobFile, error)
	FileURL(ctx context.Context, actor workflow.Actor, id, fileID uuid.UUID) (string, error)
}

type requestService struct {
	repos    repository.Repositories
	notifier *notifier
	store    cache.Store
	files    storage.ObjectStore
	cacheTTL time.Duration
	now      func() time.Time
}

func NewRequestService(repos repository.Repositories, store cache.Store, events event.Publisher, files storage.ObjectStore, cacheTTL time.Duration) RequestService {
	return newRequestService(repos, store, events, files, cacheTTL)
}

func newRequestService(repos repository.Repositories, store cache.Store, events event.Publisher, files storage.ObjectStore, cacheTTL time.Duration) *requestService {
	return &requestService{
		repos:    repos,
		notifier: newNotifier(repos.Users, repos.Notifications, store, events),
		store:    store,
		files:    files,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

func newActivity(actor workflow.Actor, r *model.Request, ct model.ChangeType, et model.EntityType, oldValue, newValue string, details map[string]interface{}) *model.Activity {
	uid := actor.ID
	a := &model.Activity{
		RequestID:  r.ID,
		UserID:     &uid,
		ChangeType: ct,
		EntityType: et,
		OldValue:   oldValue,
		NewValue:   newValue,
	}
	if details != nil {
		raw, _ := json.Marshal(details)
		a.Details = datatypes.JSON(raw)
	}
	return a
}

func detailEntity(r *model.Request) model.EntityType {
	switch {
	case r.JobRequest != nil:
		return model.EntityJobRequest
	case r.VenueRequest != nil:
		return model.EntityVenueRequest
	case r.TransportRequest != nil:
		return model.EntityTransportRequest
	case r.SupplyRequest != nil:
		return model.EntitySupplyRequest
	case r.ReturnableRequest != nil:
		return model.EntityReturnableRequest
	}
	return model.EntityRequest
}

func (s *requestService) Create(ctx context.Context, actor workflow.Actor, in CreateRequestInput) (*RequestResponse, error) {
	if _, err := s.repos.Departments.FindByID(ctx, in.DepartmentID); err != nil {
		return nil, catalogErr(err, "Department")
	}

	r := &model.Request{
		Title:        in.Title,
		Type:         in.Type,
		Status:       model.StatusPending,
		Priority:     in.Priority,
		DepartmentID: in.DepartmentID,
		RequesterID:  actor.ID,
	}
	if r.Priority == "" {
		r.Priority = model.PriorityMedium
	}
	if err := s.buildDetail(ctx, r, in); err != nil {
		return nil, err
	}
	if !r.HasMatchingDetail() {
		return nil, newError(ErrValidation, "Provide exactly the details of a %s request", in.Type)
	}

	var notified []uuid.UUID
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repos.Requests.Create(txCtx, r); err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		entry := newActivity(actor, r, model.ChangeCreated, model.EntityRequest, "", string(r.Status), map[string]interface{}{
			"type":     r.Type,
			"priority": r.Priority,
		})
		if err := s.repos.Activity.Log(txCtx, entry); err != nil {
			return fmt.Errorf("failed to write activity: %w", err)
		}
		var err error
		notified, err = s.notifier.Submitted(txCtx, actor, r)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordSubmission(string(r.Type))
	log.WithFields(log.Fields{"request_id": r.ID, "type": r.Type, "user_id": actor.ID}).Info("request submitted")
	s.notifier.Committed(ctx, r, notified)
	return s.reload(ctx, actor, r.ID)
}

// buildDetail attaches the detail record for in.Type, checking the catalog
// entries it refers to.
func (s *requestService) buildDetail(ctx context.Context, r *model.Request, in CreateRequestInput) error {
	switch in.Type {
	case model.RequestTypeJob:
		if in.Job == nil {
			return newError(ErrValidation, "Job details are required")
		}
		job := &model.JobRequest{
			JobType: in.Job.JobType,
			DueDate: in.Job.DueDate,
			Notes:   in.Job.Notes,
			Status:  model.JobPending,
		}
		if in.Job.EstimatedTime != nil {
			if in.Job.EstimatedTime.IsNegative() {
				return newError(ErrValidation, "Estimated time cannot be negative")
			}
			job.EstimatedTime = decimal.NewNullDecimal(in.Job.EstimatedTime.Round(2))
		}
		r.JobRequest = job

	case model.RequestTypeVenue:
		if in.Venue == nil {
			return newError(ErrValidation, "Venue details are required")
		}
		if _, err := s.repos.Catalog.FindVenue(ctx, in.Venue.VenueID); err != nil {
			return catalogErr(err, "Venue")
		}
		if !in.Venue.EndTime.After(in.Venue.StartTime) {
			return newError(ErrValidation, "End time must be after start time")
		}
		r.VenueRequest = &model.VenueRequest{
			VenueID:           in.Venue.VenueID,
			StartTime:         in.Venue.StartTime,
			EndTime:           in.Venue.EndTime,
			Purpose:           in.Venue.Purpose,
			SetupRequirements: datatypes.JSONSlice[string](in.Venue.SetupRequirements),
		}

	case model.RequestTypeTransport:
		if in.Transport == nil {
			return newError(ErrValidation, "Transport details are required")
		}
		if _, err := s.repos.Catalog.FindVehicle(ctx, in.Transport.VehicleID); err != nil {
			return catalogErr(err, "Vehicle")
		}
		r.TransportRequest = &model.TransportRequest{
			VehicleID:         in.Transport.VehicleID,
			Destination:       in.Transport.Destination,
			DateAndTimeNeeded: in.Transport.DateAndTimeNeeded,
			PassengersName:    datatypes.JSONSlice[string](in.Transport.PassengersName),
			Department:        in.Transport.Department,
			Description:       in.Transport.Description,
		}

	case model.RequestTypeResource:
		if in.Resource == nil {
			return newError(ErrValidation, "Resource details are required")
		}
		items, err := s.buildItems(ctx, in.Resource.Items, in.Resource.Returnable)
		if err != nil {
			return err
		}
		res := in.Resource
		if res.Returnable {
			if res.ReturnDateAndTime == nil || !res.ReturnDateAndTime.After(res.DateAndTimeNeeded) {
				return newError(ErrValidation, "Return date must be after the date needed")
			}
			r.ReturnableRequest = &model.ReturnableRequest{
				DateAndTimeNeeded: res.DateAndTimeNeeded,
				Purpose:           res.Purpose,
				ReturnDateAndTime: *res.ReturnDateAndTime,
				Items:             items,
			}
		} else {
			r.SupplyRequest = &model.SupplyRequest{
				DateAndTimeNeeded: res.DateAndTimeNeeded,
				Purpose:           res.Purpose,
				Items:             items,
			}
		}
	}

	if in.Job != nil && in.Type != model.RequestTypeJob ||
		in.Venue != nil && in.Type != model.RequestTypeVenue ||
		in.Transport != nil && in.Type != model.RequestTypeTransport ||
		in.Resource != nil && in.Type != model.RequestTypeResource {
		return newError(ErrValidation, "Provide exactly the details of a %s request", in.Type)
	}
	return nil
}

func (s *requestService) buildItems(ctx context.Context, inputs []ItemInput, returnable bool) ([]model.RequestItem, error) {
	if len(inputs) == 0 {
		return nil, newError(ErrValidation, "Request must have at least one item")
	}
	ids := make([]uuid.UUID, 0, len(inputs))
	seen := make(map[uuid.UUID]bool, len(inputs))
	for _, it := range inputs {
		if seen[it.SupplyItemID] {
			return nil, newError(ErrValidation, "Each item can only be listed once")
		}
		if it.Quantity < 1 {
			return nil, newError(ErrValidation, "Quantity must be at least 1")
		}
		seen[it.SupplyItemID] = true
		ids = append(ids, it.SupplyItemID)
	}

	found, err := s.repos.Catalog.FindSupplyItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load supply items: %w", err)
	}
	byID := make(map[uuid.UUID]model.SupplyItem, len(found))
	for _, it := range found {
		byID[it.ID] = it
	}

	items := make([]model.RequestItem, 0, len(inputs))
	for _, in := range inputs {
		supply, ok := byID[in.SupplyItemID]
		if !ok {
			return nil, newError(ErrValidation, "Supply item %s not found", in.SupplyItemID)
		}
		if returnable && !supply.Returnable {
			return nil, newError(ErrValidation, "%s cannot be borrowed and returned", supply.Name)
		}
		items = append(items, model.RequestItem{SupplyItemID: in.SupplyItemID, Quantity: in.Quantity})
	}
	return items, nil
}

// catalogErr reports a missing referenced record as a validation error.
func catalogErr(err error, what string) error {
	if errors.Is(lookupErr(err, what), ErrNotFound) {
		return newError(ErrValidation, "%s not found", what)
	}
	return lookupErr(err, what)
}

// load returns the cached request, falling back to the database.
func (s *requestService) load(ctx context.Context, id uuid.UUID) (*RequestResponse, error) {
	return cache.Remember(ctx, s.store, cache.RequestKey(id), s.cacheTTL, func() (*RequestResponse, error) {
		r, err := s.repos.Requests.FindByID(ctx, id)
		if err != nil {
			return nil, lookupErr(err, "Request")
		}
		return toResponse(r), nil
	})
}

func (s *requestService) reload(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*RequestResponse, error) {
	r, err := s.repos.Requests.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "Request")
	}
	res := toResponse(r)
	res.CanEdit = workflow.CanEdit(actor, r)
	return res, nil
}

func (s *requestService) Get(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*RequestResponse, error) {
	res, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !workflow.Can(actor, workflow.CapViewRequest, &res.Request) {
		return nil, newError(ErrForbidden, "You do not have access to this request")
	}
	out := *res
	out.CanEdit = workflow.CanEdit(actor, &out.Request)
	return &out, nil
}

func parseDay(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, newError(ErrValidation, "Invalid date %q, expected YYYY-MM-DD", s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func (s *requestService) List(ctx context.Context, actor workflow.Actor, q ListRequestsQuery) ([]RequestSummary, int64, error) {
	f := repository.RequestFilter{Search: q.Search, Page: q.Page, Limit: q.Limit}
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if q.Status != "" {
		st := q.Status
		f.Status = &st
	}
	if q.Type != "" {
		tp := q.Type
		f.Type = &tp
	}
	var err error
	if f.From, err = parseDay(q.From, false); err != nil {
		return nil, 0, err
	}
	if f.To, err = parseDay(q.To, true); err != nil {
		return nil, 0, err
	}

	switch q.Scope {
	case "", "mine":
		f.RequesterID = &actor.ID
	case "assigned":
		f.AssigneeID = &actor.ID
	case "department":
		dept, err := departmentScope(actor, q.DepartmentID)
		if err != nil {
			return nil, 0, err
		}
		f.DepartmentID = &dept
	case "all":
		if !actor.Has(model.RoleApprover) && !actor.IsAdmin() {
			return nil, 0, newError(ErrForbidden, "Only approvers can list every request")
		}
		if q.DepartmentID != "" {
			dept, err := uuid.Parse(q.DepartmentID)
			if err != nil {
				return nil, 0, newError(ErrValidation, "Invalid department id")
			}
			f.DepartmentID = &dept
		}
	}

	requests, total, err := s.repos.Requests.List(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list requests: %w", err)
	}
	out := make([]RequestSummary, 0, len(requests))
	for i := range requests {
		out = append(out, toSummary(&requests[i]))
	}
	return out, total, nil
}

// departmentScope resolves which department a staff member may list.
func departmentScope(actor workflow.Actor, requested string) (uuid.UUID, error) {
	var dept uuid.UUID
	switch {
	case requested != "":
		id, err := uuid.Parse(requested)
		if err != nil {
			return uuid.Nil, newError(ErrValidation, "Invalid department id")
		}
		dept = id
	case actor.DepartmentID != nil:
		dept = *actor.DepartmentID
	default:
		return uuid.Nil, newError(ErrValidation, "You do not belong to a department")
	}

	if err := checkAccess(actor, dept); err != nil {
		return uuid.Nil, err
	}
	return dept, nil
}

// mutation edits a locked request inside a transaction. It reports whether
// anything changed and who was notified.
type mutation func(txCtx context.Context, r *model.Request) (changed bool, notified []uuid.UUID, err error)

func (s *requestService) mutate(ctx context.Context, actor workflow.Actor, id uuid.UUID, fn mutation) (*RequestResponse, error) {
	var (
		r        *model.Request
		changed  bool
		notified []uuid.UUID
	)
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		r, err = s.repos.Requests.FindForUpdate(txCtx, id)
		if err != nil {
			return lookupErr(err, "Request")
		}
		changed, notified, err = fn(txCtx, r)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		res := toResponse(r)
		res.CanEdit = workflow.CanEdit(actor, r)
		return res, nil
	}
	s.notifier.Committed(ctx, r, notified)
	return s.reload(ctx, actor, id)
}

// saveDetail persists whichever detail record r carries.
func (s *requestService) saveDetail(ctx context.Context, r *model.Request) error {
	var detail interface{}
	switch {
	case r.JobRequest != nil:
		detail = r.JobRequest
	case r.VenueRequest != nil:
		detail = r.VenueRequest
	case r.TransportRequest != nil:
		detail = r.TransportRequest
	case r.SupplyRequest != nil:
		detail = r.SupplyRequest
	case r.ReturnableRequest != nil:
		detail = r.ReturnableRequest
	default:
		return nil
	}
	if err := s.repos.Requests.SaveDetail(ctx, detail); err != nil {
		return fmt.Errorf("failed to save request details: %w", err)
	}
	return nil
}

func outcomeLabel(changed bool) string {
	if changed {
		return "changed"
	}
	return "noop"
}

// transition runs one workflow action against the locked request.
func (s *requestService) transition(ctx context.Context, actor workflow.Actor, id uuid.UUID, action func(r *model.Request) (workflow.Action, error), in workflow.Input, details map[string]interface{}) (*RequestResponse, error) {
	return s.mutate(ctx, actor, id, func(txCtx context.Context, r *model.Request) (bool, []uuid.UUID, error) {
		act, err := action(r)
		if err != nil {
			return false, nil, err
		}
		out, err := workflow.Transition(actor, r, act, in)
		if err != nil {
			metrics.RecordTransition(string(act), "refused")
			return false, nil, err
		}
		metrics.RecordTransition(string(act), outcomeLabel(out.Changed))
		if !out.Changed {
			return false, nil, nil
		}

		oldAssignee := ""
		if id := r.AssigneeID(); id != nil {
			oldAssignee = id.String()
		}
		workflow.Apply(r, out, actor, in, s.now())

		if err := s.repos.Requests.UpdateHeader(txCtx, r); err != nil {
			return false, nil, fmt.Errorf("failed to update request: %w", err)
		}
		if err := s.saveDetail(txCtx, r); err != nil {
			return false, nil, err
		}

		if details == nil {
			details = map[string]interface{}{}
		}
		details["action"] = out.Action
		if in.Reason != "" {
			details["reason"] = in.Reason
		}
		var entry *model.Activity
		switch out.Action {
		case workflow.ActionAssign:
			entry = newActivity(actor, r, model.ChangeAssignment, model.EntityJobRequest, oldAssignee, in.AssigneeID.String(), details)
		case workflow.ActionStartUse:
			entry = newActivity(actor, r, model.ChangeInProgress, detailEntity(r), "false", "true", details)
		default:
			entry = newActivity(actor, r, model.ChangeStatus, model.EntityRequest, string(out.From), string(out.To), details)
		}
		if err := s.repos.Activity.Log(txCtx, entry); err != nil {
			return false, nil, fmt.Errorf("failed to write activity: %w", err)
		}

		notified, err := s.notifier.Transitioned(txCtx, actor, r, out)
		if err != nil {
			return false, nil, err
		}

		log.WithFields(log.Fields{
			"request_id": r.ID,
			"action":     out.Action,
			"from":       out.From,
			"to":         out.To,
			"user_id":    actor.ID,
		}).Info("request transitioned")
		return true, notified, nil
	})
}

func (s *requestService) ChangeStatus(ctx context.Context, actor workflow.Actor, id uuid.UUID, in StatusChangeInput) (*RequestResponse, error) {
	details := map[string]interface{}{}
	if in.ChangeType != "" {
		details["change_type"] = in.ChangeType
	}
	if in.EntityType != "" {
		details["entity_type"] = in.EntityType
	}
	if in.Path != "" {
		details["path"] = in.Path
	}
	pick := func(r *model.Request) (workflow.Action, error) {
		return workflow.ActionForStatus(r.Status, in.Status)
	}
	return s.transition(ctx, actor, id, pick, workflow.Input{Reason: in.Reason}, details)
}

func (s *requestService) Assign(ctx context.Context, actor workflow.Actor, id uuid.UUID, in AssignInput) (*RequestResponse, error) {
	assignee, err := s.repos.Users.GetByID(ctx, in.AssigneeID)
	if err != nil {
		return nil, catalogErr(err, "Personnel")
	}
	if !assignee.HasRole(model.RolePersonnel) {
		return nil, newError(ErrValidation, "%s is not personnel", assignee.Name)
	}

	assigneeID := assignee.ID
	pick := func(*model.Request) (workflow.Action, error) { return workflow.ActionAssign, nil }
	return s.transition(ctx, actor, id, pick, workflow.Input{AssigneeID: &assigneeID}, map[string]interface{}{"assignee": assignee.Name})
}

func (s *requestService) MarkInProgress(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*RequestResponse, error) {
	pick := func(*model.Request) (workflow.Action, error) { return workflow.ActionStartUse, nil }
	return s.transition(ctx, actor, id, pick, workflow.Input{}, nil)
}

func (s *requestService) UpdateJobStatus(ctx context.Context, actor workflow.Actor, id uuid.UUID, in JobStatusInput) (*RequestResponse, error) {
	return s.mutate(ctx, actor, id, func(txCtx context.Context, r *model.Request) (bool, []uuid.UUID, error) {
		out, err := workflow.JobTransition(actor, r, in.Status)
		if err != nil {
			return false, nil, err
		}
		if !out.Changed {
			return false, nil, nil
		}
		workflow.ApplyJob(r, out, s.now())

		if err := s.repos.Requests.SaveDetail(txCtx, r.JobRequest); err != nil {
			return false, nil, fmt.Errorf("failed to save job: %w", err)
		}
		entries := []*model.Activity{
			newActivity(actor, r, model.ChangeJobStatus, model.EntityJobRequest, string(out.From), string(out.To), nil),
		}
		if out.CompletesRequest {
			if err := s.repos.Requests.UpdateHeader(txCtx, r); err != nil {
				return false, nil, fmt.Errorf("failed to update request: %w", err)
			}
			entries = append(entries, newActivity(actor, r, model.ChangeStatus, model.EntityRequest,
				string(model.StatusApproved), string(model.StatusCompleted), map[string]interface{}{"reason": "job completed"}))
		}
		if err := s.repos.Activity.Log(txCtx, entries...); err != nil {
			return false, nil, fmt.Errorf("failed to write activity: %w", err)
		}

		notified, err := s.notifier.JobChanged(txCtx, actor, r, out)
		if err != nil {
			return false, nil, err
		}
		return true, notified, nil
	})
}

func (s *requestService) Actions(ctx context.Context, actor workflow.Actor, id uuid.UUID) ([]workflow.PanelAction, error) {
	res, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return workflow.Panel(actor, &res.Request), nil
}

func (s *requestService) Activity(ctx context.Context, actor workflow.Actor, id uuid.UUID) ([]model.Activity, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return cache.Remember(ctx, s.store, cache.ActivityKey(id), s.cacheTTL, func() ([]model.Activity, error) {
		entries, err := s.repos.Activity.ListByRequest(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load activity: %w", err)
		}
		return entries, nil
	})
}
