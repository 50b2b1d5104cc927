package workflow

import (
	"github.com/google/uuid"

	"requestdesk/internal/model"
)

// Actor is the authenticated user performing an action.
type Actor struct {
	ID           uuid.UUID
	DepartmentID *uuid.UUID
	Roles        []model.Role
}

// ActorFromUser builds an Actor from a persisted user.
func ActorFromUser(u *model.User) Actor {
	return Actor{ID: u.ID, DepartmentID: u.DepartmentID, Roles: u.Roles}
}

func (a Actor) Has(role model.Role) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (a Actor) IsAdmin() bool { return a.Has(model.RoleAdmin) }

// Capability is something an actor may do to a given request.
type Capability string

const (
	CapCancel      Capability = "cancel"
	CapEdit        Capability = "edit"
	CapAssign      Capability = "assign"
	CapApprove     Capability = "approve"
	CapFinalize    Capability = "finalize"
	CapReject      Capability = "reject"
	CapComplete    Capability = "complete"
	CapUpdateJob   Capability = "update_job"
	CapStartUse    Capability = "start_use"
	CapViewRequest Capability = "view"
)

// Can reports whether a holds capability c over r. Requester capabilities are
// tied to identity and are not granted to ADMIN.
func Can(a Actor, c Capability, r *model.Request) bool {
	switch c {
	case CapCancel, CapEdit:
		return isRequester(a, r)
	case CapAssign, CapApprove, CapStartUse:
		return isDepartmentReviewer(a, r)
	case CapFinalize:
		return isApprover(a)
	case CapReject:
		return isDepartmentReviewer(a, r) || isApprover(a)
	case CapComplete:
		return isDepartmentReviewer(a, r) || isApprover(a) || isAssignee(a, r)
	case CapUpdateJob:
		return isDepartmentReviewer(a, r) || isAssignee(a, r)
	case CapViewRequest:
		return isRequester(a, r) || isAssignee(a, r) || isDepartmentStaff(a, r) || isApprover(a)
	}
	return false
}

func isRequester(a Actor, r *model.Request) bool {
	return a.ID == r.RequesterID
}

func isAssignee(a Actor, r *model.Request) bool {
	id := r.AssigneeID()
	return id != nil && *id == a.ID
}

func isApprover(a Actor) bool {
	return a.Has(model.RoleApprover) || a.IsAdmin()
}

func isDepartmentReviewer(a Actor, r *model.Request) bool {
	if a.IsAdmin() {
		return true
	}
	return a.Has(model.RoleReviewer) && inDepartment(a, r)
}

func isDepartmentStaff(a Actor, r *model.Request) bool {
	if a.IsAdmin() {
		return true
	}
	return (a.Has(model.RoleReviewer) || a.Has(model.RolePersonnel)) && inDepartment(a, r)
}

func inDepartment(a Actor, r *model.Request) bool {
	return a.DepartmentID != nil && *a.DepartmentID == r.DepartmentID
}
