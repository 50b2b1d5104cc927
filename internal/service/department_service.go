package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"requestdesk/internal/cache"
	"requestdesk/internal/model"
	"requestdesk/internal/report"
	"requestdesk/internal/repository"
	"requestdesk/internal/workflow"
)

type CreateDepartmentRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Acronym     string `json:"acronym" binding:"required,max=20"`
	Description string `json:"description"`
}

// DepartmentOverview is a department with its all-time KPIs and staff.
type DepartmentOverview struct {
	model.Department
	KPIs      report.KPIs    `json:"kpis"`
	Reviewers []UserResponse `json:"reviewers"`
	Personnel []UserResponse `json:"personnel"`
}

type DepartmentService interface {
	List(ctx context.Context) ([]model.Department, error)
	Create(ctx context.Context, actor workflow.Actor, req CreateDepartmentRequest) (*model.Department, error)
	Overview(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*DepartmentOverview, error)
	Insights(ctx context.Context, actor workflow.Actor, id uuid.UUID, q ReportQuery) (*report.Overview, error)
}

type departmentService struct {
	repo     repository.DepartmentRepository
	requests repository.RequestRepository
	users    repository.UserRepository
	store    cache.Store
	cacheTTL time.Duration
}

func NewDepartmentService(repo repository.DepartmentRepository, requests repository.RequestRepository, users repository.UserRepository, store cache.Store, cacheTTL time.Duration) DepartmentService {
	return &departmentService{repo: repo, requests: requests, users: users, store: store, cacheTTL: cacheTTL}
}

func (s *departmentService) List(ctx context.Context) ([]model.Department, error) {
	depts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return depts, nil
}

func (s *departmentService) Create(ctx context.Context, actor workflow.Actor, req CreateDepartmentRequest) (*model.Department, error) {
	if !actor.IsAdmin() {
		return nil, newError(ErrForbidden, "Only administrators can create departments")
	}
	name := strings.TrimSpace(req.Name)
	if _, err := s.repo.FindByName(ctx, name); err == nil {
		return nil, newError(ErrConflict, "Department %q already exists", name)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check department: %w", err)
	}

	dept := &model.Department{
		Name:        name,
		Acronym:     strings.ToUpper(strings.TrimSpace(req.Acronym)),
		Description: req.Description,
	}
	if err := s.repo.Create(ctx, dept); err != nil {
		return nil, fmt.Errorf("failed to create department: %w", err)
	}
	return dept, nil
}

// checkAccess lets department staff, approvers and admins read department data.
func checkAccess(actor workflow.Actor, id uuid.UUID) error {
	if actor.IsAdmin() || actor.Has(model.RoleApprover) {
		return nil
	}
	staff := actor.Has(model.RoleReviewer) || actor.Has(model.RolePersonnel)
	if staff && actor.DepartmentID != nil && *actor.DepartmentID == id {
		return nil
	}
	return newError(ErrForbidden, "You are not staff of this department")
}

func (s *departmentService) Overview(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*DepartmentOverview, error) {
	if err := checkAccess(actor, id); err != nil {
		return nil, err
	}
	return cache.Remember(ctx, s.store, cache.DepartmentKey(id), s.cacheTTL, func() (*DepartmentOverview, error) {
		dept, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, lookupErr(err, "Department")
		}
		reqs, err := s.requests.ListAll(ctx, repository.RequestFilter{DepartmentID: &id})
		if err != nil {
			return nil, fmt.Errorf("failed to load requests: %w", err)
		}
		reviewers, err := s.staff(ctx, model.RoleReviewer, id)
		if err != nil {
			return nil, err
		}
		personnel, err := s.staff(ctx, model.RolePersonnel, id)
		if err != nil {
			return nil, err
		}
		return &DepartmentOverview{
			Department: *dept,
			KPIs:       report.ComputeKPIs(reqs),
			Reviewers:  reviewers,
			Personnel:  personnel,
		}, nil
	})
}

func (s *departmentService) staff(ctx context.Context, role model.Role, id uuid.UUID) ([]UserResponse, error) {
	users, err := s.users.ListWithRole(ctx, role, &id)
	if err != nil {
		return nil, fmt.Errorf("failed to load staff: %w", err)
	}
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, *mapToResponse(&users[i]))
	}
	return out, nil
}

func (s *departmentService) Insights(ctx context.Context, actor workflow.Actor, id uuid.UUID, q ReportQuery) (*report.Overview, error) {
	if err := checkAccess(actor, id); err != nil {
		return nil, err
	}
	rg, bucket, err := q.resolve()
	if err != nil {
		return nil, err
	}
	key := cache.DepartmentKey(id) + ":insights:" + strings.Join(q.cacheParts(), ":")
	return cache.Remember(ctx, s.store, key, s.cacheTTL, func() (*report.Overview, error) {
		if _, err := s.repo.FindByID(ctx, id); err != nil {
			return nil, lookupErr(err, "Department")
		}
		reqs, err := s.requests.ListAll(ctx, repository.RequestFilter{DepartmentID: &id, From: rg.From, To: rg.To, OrCompleted: true})
		if err != nil {
			return nil, fmt.Errorf("failed to load requests: %w", err)
		}
		ov := report.Summarize(reqs, rg, bucket)
		return &ov, nil
	})
}
