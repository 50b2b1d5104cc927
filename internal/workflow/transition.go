// Package workflow owns every rule about how a request moves between
// statuses, who may move it, and who may edit it.
package workflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"requestdesk/internal/model"
)

type Action string

const (
	ActionCancel   Action = "CANCEL"
	ActionAssign   Action = "ASSIGN"
	ActionApprove  Action = "APPROVE"
	ActionFinalize Action = "FINALIZE"
	ActionReject   Action = "REJECT"
	ActionComplete Action = "COMPLETE"
	ActionStartUse Action = "START_USE"
)

var actionCapability = map[Action]Capability{
	ActionCancel:   CapCancel,
	ActionAssign:   CapAssign,
	ActionApprove:  CapApprove,
	ActionFinalize: CapFinalize,
	ActionReject:   CapReject,
	ActionComplete: CapComplete,
	ActionStartUse: CapStartUse,
}

// ErrorKind tells callers how to surface a rejected transition.
type ErrorKind int

const (
	KindForbidden ErrorKind = iota + 1
	KindConflict
	KindInvalid
)

// Error is a rejected transition. Reason is safe to show to end users.
type Error struct {
	Kind   ErrorKind
	Action Action
	Reason string
}

func (e *Error) Error() string { return e.Reason }

func forbidden(a Action, reason string) *Error {
	return &Error{Kind: KindForbidden, Action: a, Reason: reason}
}

func conflict(a Action, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Action: a, Reason: fmt.Sprintf(format, args...)}
}

func invalid(a Action, reason string) *Error {
	return &Error{Kind: KindInvalid, Action: a, Reason: reason}
}

// Input carries the action-specific arguments.
type Input struct {
	Reason     string
	AssigneeID *uuid.UUID
}

// Outcome is an accepted transition. Changed is false when the action would
// leave the request as it is; callers must then skip writes and side effects.
type Outcome struct {
	Action  Action
	From    model.RequestStatus
	To      model.RequestStatus
	Changed bool
	Notify  bool
}

// Transition decides whether actor may apply action to r. It never mutates r.
func Transition(a Actor, r *model.Request, action Action, in Input) (Outcome, error) {
	capability, ok := actionCapability[action]
	if !ok {
		return Outcome{}, invalid(action, fmt.Sprintf("Unknown action %q", action))
	}
	if !Can(a, capability, r) {
		return Outcome{}, forbidden(action, forbiddenReason(action))
	}

	out := Outcome{Action: action, From: r.Status, To: r.Status}

	switch action {
	case ActionCancel:
		if r.Status != model.StatusPending {
			return Outcome{}, conflict(action, "Only pending requests can be cancelled")
		}
		if in.Reason == "" {
			return Outcome{}, invalid(action, "A cancellation reason is required")
		}
		out.To = model.StatusCancelled

	case ActionAssign:
		if r.Type != model.RequestTypeJob || r.JobRequest == nil {
			return Outcome{}, invalid(action, "Only job requests can be assigned personnel")
		}
		if r.Status != model.StatusPending {
			return Outcome{}, conflict(action, "Personnel can only be assigned while the request is pending")
		}
		if in.AssigneeID == nil {
			return Outcome{}, invalid(action, "Select personnel to assign")
		}
		current := r.JobRequest.AssignedToID
		out.Changed = current == nil || *current != *in.AssigneeID
		return out, nil

	case ActionApprove:
		if r.Status == model.StatusApproved ||
			(r.Status == model.StatusReviewed && r.Type != model.RequestTypeJob) {
			return out, nil
		}
		if r.Status != model.StatusPending {
			return Outcome{}, conflict(action, "Request is already %s", r.Status)
		}
		if r.Type == model.RequestTypeJob && r.AssigneeID() == nil {
			return Outcome{}, conflict(action, "Assign personnel before approving")
		}
		out.To = model.StatusReviewed
		if r.Type == model.RequestTypeJob {
			out.To = model.StatusApproved
		}
		out.Notify = true

	case ActionFinalize:
		if r.Status == model.StatusApproved {
			return out, nil
		}
		if r.Status != model.StatusReviewed {
			return Outcome{}, conflict(action, "Only reviewed requests can be finalized")
		}
		out.To = model.StatusApproved
		out.Notify = true

	case ActionReject:
		if r.Status != model.StatusPending && r.Status != model.StatusReviewed {
			return Outcome{}, conflict(action, "Request is already %s", r.Status)
		}
		if in.Reason == "" {
			return Outcome{}, invalid(action, "A rejection reason is required")
		}
		out.To = model.StatusRejected
		out.Notify = true

	case ActionComplete:
		if r.Status != model.StatusApproved {
			return Outcome{}, conflict(action, "Only approved requests can be completed")
		}
		out.To = model.StatusCompleted
		out.Notify = true

	case ActionStartUse:
		if r.Type != model.RequestTypeVenue && r.Type != model.RequestTypeTransport {
			return Outcome{}, invalid(action, "Only venue and transport requests can be put in use")
		}
		if r.Status != model.StatusApproved {
			return Outcome{}, conflict(action, "Only approved requests can be put in use")
		}
		out.Changed = !inProgress(r)
		return out, nil
	}

	out.Changed = out.To != out.From
	return out, nil
}

// Apply writes an accepted outcome onto r.
func Apply(r *model.Request, o Outcome, a Actor, in Input, now time.Time) {
	if !o.Changed {
		return
	}
	r.Status = o.To

	switch o.Action {
	case ActionCancel:
		reason := in.Reason
		r.CancellationReason = &reason
		cancelJob(r)

	case ActionReject:
		reason := in.Reason
		r.RejectionReason = &reason
		cancelJob(r)

	case ActionAssign:
		id := *in.AssigneeID
		r.JobRequest.AssignedToID = &id
		r.JobRequest.AssignedTo = nil

	case ActionApprove:
		r.ReviewedByID = &a.ID
		r.ReviewedAt = &now
		if o.To == model.StatusApproved {
			r.ApprovedByID = &a.ID
			r.ApprovedAt = &now
		}

	case ActionFinalize:
		r.ApprovedByID = &a.ID
		r.ApprovedAt = &now

	case ActionComplete:
		complete(r, now)

	case ActionStartUse:
		if r.VenueRequest != nil {
			r.VenueRequest.InProgress = true
		}
		if r.TransportRequest != nil {
			r.TransportRequest.InProgress = true
		}
	}
}

// ActionForStatus maps a requested target status onto the action that
// reaches it from current.
func ActionForStatus(current, target model.RequestStatus) (Action, error) {
	switch target {
	case model.StatusCancelled:
		return ActionCancel, nil
	case model.StatusRejected:
		return ActionReject, nil
	case model.StatusCompleted:
		return ActionComplete, nil
	case model.StatusReviewed:
		return ActionApprove, nil
	case model.StatusApproved:
		if current == model.StatusReviewed {
			return ActionFinalize, nil
		}
		return ActionApprove, nil
	}
	return "", invalid("", fmt.Sprintf("Cannot move a request to %s", target))
}

func complete(r *model.Request, now time.Time) {
	r.CompletedAt = &now
	if j := r.JobRequest; j != nil && j.Status != model.JobCancelled {
		j.Status = model.JobCompleted
		if j.FinishedAt == nil {
			j.FinishedAt = &now
		}
	}
	if r.VenueRequest != nil {
		r.VenueRequest.InProgress = false
	}
	if r.TransportRequest != nil {
		r.TransportRequest.InProgress = false
	}
	if rr := r.ReturnableRequest; rr != nil && rr.ReturnedAt == nil {
		rr.ReturnedAt = &now
	}
}

func cancelJob(r *model.Request) {
	if r.JobRequest != nil {
		r.JobRequest.Status = model.JobCancelled
	}
}

func inProgress(r *model.Request) bool {
	switch {
	case r.VenueRequest != nil:
		return r.VenueRequest.InProgress
	case r.TransportRequest != nil:
		return r.TransportRequest.InProgress
	}
	return false
}

func forbiddenReason(a Action) string {
	switch a {
	case ActionCancel:
		return "Only the requester can cancel this request"
	case ActionFinalize:
		return "Only approvers can finalize requests"
	case ActionComplete:
		return "You are not allowed to complete this request"
	}
	return "Only reviewers of this department can do that"
}
