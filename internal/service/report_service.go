package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"requestdesk/internal/cache"
	"requestdesk/internal/model"
	"requestdesk/internal/report"
	"requestdesk/internal/repository"
	"requestdesk/internal/workflow"
)

// ReportQuery is the date window and chart bucket of a report.
type ReportQuery struct {
	From   string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To     string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Bucket string `form:"bucket" binding:"omitempty,oneof=day week month"`
}

func (q ReportQuery) resolve() (report.Range, report.Bucket, error) {
	from, err := parseDay(q.From, false)
	if err != nil {
		return report.Range{}, "", err
	}
	to, err := parseDay(q.To, true)
	if err != nil {
		return report.Range{}, "", err
	}
	if from != nil && to != nil && to.Before(*from) {
		return report.Range{}, "", newError(ErrValidation, "The end date must not be before the start date")
	}
	return report.Range{From: from, To: to}, report.ParseBucket(q.Bucket), nil
}

func (q ReportQuery) cacheParts() []string {
	return []string{q.From, q.To, string(report.ParseBucket(q.Bucket))}
}

// DashboardOverview is the signed-in user's dashboard: the scope it covers
// plus KPIs and the created-vs-completed series.
type DashboardOverview struct {
	Scope string `json:"scope"`
	report.Overview
}

// CalendarEvent is a scheduled venue booking, vehicle trip or job due date.
type CalendarEvent struct {
	RequestID uuid.UUID           `json:"request_id"`
	Title     string              `json:"title"`
	Type      model.RequestType   `json:"type"`
	Status    model.RequestStatus `json:"status"`
	Start     time.Time           `json:"start"`
	End       *time.Time          `json:"end,omitempty"`
	Resource  string              `json:"resource,omitempty"`
}

type CalendarQuery struct {
	From         string `form:"from" binding:"required,datetime=2006-01-02"`
	To           string `form:"to" binding:"required,datetime=2006-01-02"`
	DepartmentID string `form:"department_id" binding:"omitempty,uuid"`
}

type ReportService interface {
	Dashboard(ctx context.Context, actor workflow.Actor, q ReportQuery) (*DashboardOverview, error)
	UserJobReport(ctx context.Context, actor workflow.Actor, userID uuid.UUID) (*report.JobReport, error)
	Calendar(ctx context.Context, q CalendarQuery) ([]CalendarEvent, error)
}

type reportService struct {
	requests repository.RequestRepository
	users    repository.UserRepository
	store    cache.Store
	cacheTTL time.Duration
	now      func() time.Time
}

func NewReportService(requests repository.RequestRepository, users repository.UserRepository, store cache.Store, cacheTTL time.Duration) ReportService {
	return &reportService{requests: requests, users: users, store: store, cacheTTL: cacheTTL, now: time.Now}
}

// dashboardScope picks what the actor's dashboard covers: everything for
// approvers, the department for reviewers, their own requests otherwise.
func dashboardScope(actor workflow.Actor) (string, repository.RequestFilter) {
	switch {
	case actor.IsAdmin() || actor.Has(model.RoleApprover):
		return "all", repository.RequestFilter{}
	case actor.Has(model.RoleReviewer) && actor.DepartmentID != nil:
		dept := *actor.DepartmentID
		return "department", repository.RequestFilter{DepartmentID: &dept}
	}
	id := actor.ID
	return "mine", repository.RequestFilter{RequesterID: &id}
}

func (s *reportService) Dashboard(ctx context.Context, actor workflow.Actor, q ReportQuery) (*DashboardOverview, error) {
	rg, bucket, err := q.resolve()
	if err != nil {
		return nil, err
	}
	scope, f := dashboardScope(actor)
	f.From, f.To, f.OrCompleted = rg.From, rg.To, true

	key := cache.DashboardKey(actor.ID, q.cacheParts()...)
	return cache.Remember(ctx, s.store, key, s.cacheTTL, func() (*DashboardOverview, error) {
		reqs, err := s.requests.ListAll(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("failed to load requests: %w", err)
		}
		return &DashboardOverview{Scope: scope, Overview: report.Summarize(reqs, rg, bucket)}, nil
	})
}

func (s *reportService) UserJobReport(ctx context.Context, actor workflow.Actor, userID uuid.UUID) (*report.JobReport, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, "User")
	}
	sameDept := actor.DepartmentID != nil && user.DepartmentID != nil && *actor.DepartmentID == *user.DepartmentID
	allowed := actor.ID == userID || actor.IsAdmin() || actor.Has(model.RoleApprover) ||
		(actor.Has(model.RoleReviewer) && sameDept)
	if !allowed {
		return nil, newError(ErrForbidden, "You cannot view this user's job report")
	}

	return cache.Remember(ctx, s.store, cache.JobReportKey(userID), s.cacheTTL, func() (*report.JobReport, error) {
		reqs, err := s.requests.ListAll(ctx, repository.RequestFilter{AssigneeID: &userID})
		if err != nil {
			return nil, fmt.Errorf("failed to load jobs: %w", err)
		}
		jr := report.Jobs(reqs, s.now())
		return &jr, nil
	})
}

func (s *reportService) Calendar(ctx context.Context, q CalendarQuery) ([]CalendarEvent, error) {
	from, err := parseDay(q.From, false)
	if err != nil {
		return nil, err
	}
	to, err := parseDay(q.To, true)
	if err != nil {
		return nil, err
	}
	if to.Before(*from) {
		return nil, newError(ErrValidation, "The end date must not be before the start date")
	}
	if to.Sub(*from) > 92*24*time.Hour {
		return nil, newError(ErrValidation, "The calendar range cannot exceed three months")
	}

	var dept *uuid.UUID
	if q.DepartmentID != "" {
		id, err := uuid.Parse(q.DepartmentID)
		if err != nil {
			return nil, newError(ErrValidation, "Invalid department id")
		}
		dept = &id
	}

	reqs, err := s.requests.ListScheduled(ctx, *from, *to, dept)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}

	events := make([]CalendarEvent, 0, len(reqs))
	for i := range reqs {
		r := &reqs[i]
		ev := CalendarEvent{RequestID: r.ID, Title: r.Title, Type: r.Type, Status: r.Status}
		switch {
		case r.VenueRequest != nil:
			end := r.VenueRequest.EndTime
			ev.Start, ev.End = r.VenueRequest.StartTime, &end
			if r.VenueRequest.Venue != nil {
				ev.Resource = r.VenueRequest.Venue.Name
			}
		case r.TransportRequest != nil:
			ev.Start = r.TransportRequest.DateAndTimeNeeded
			if r.TransportRequest.Vehicle != nil {
				ev.Resource = r.TransportRequest.Vehicle.Name
			}
		case r.JobRequest != nil:
			ev.Start = r.JobRequest.DueDate
			ev.Resource = r.JobRequest.JobType
		default:
			continue
		}
		events = append(events, ev)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })
	return events, nil
}
