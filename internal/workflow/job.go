package workflow

import (
	"time"

	"requestdesk/internal/model"
)

// Job statuses reachable by hand. A cancelled job leaves its request APPROVED
// so a reviewer can still close it with COMPLETE.
var jobTransitions = map[model.JobStatus]map[model.JobStatus]bool{
	model.JobPending:    {model.JobInProgress: true, model.JobOnHold: true, model.JobCancelled: true},
	model.JobInProgress: {model.JobOnHold: true, model.JobCompleted: true, model.JobCancelled: true},
	model.JobOnHold:     {model.JobInProgress: true, model.JobCancelled: true},
	model.JobCompleted:  {},
	model.JobCancelled:  {},
}

// JobOutcome is an accepted job status change.
type JobOutcome struct {
	From    model.JobStatus
	To      model.JobStatus
	Changed bool
	// CompletesRequest is set when the job finishing also completes the request.
	CompletesRequest bool
}

const actionJobStatus Action = "JOB_STATUS"

// JobTransition decides whether a may move the job of r to status to.
func JobTransition(a Actor, r *model.Request, to model.JobStatus) (JobOutcome, error) {
	if r.Type != model.RequestTypeJob || r.JobRequest == nil {
		return JobOutcome{}, invalid(actionJobStatus, "Only job requests have a job status")
	}
	if !Can(a, CapUpdateJob, r) {
		return JobOutcome{}, forbidden(actionJobStatus, "Only the assigned personnel or a department reviewer can update this job")
	}
	if r.Status != model.StatusApproved {
		return JobOutcome{}, conflict(actionJobStatus, "Work can only be tracked on approved requests")
	}

	from := r.JobRequest.Status
	out := JobOutcome{From: from, To: to}
	if from == to {
		return out, nil
	}
	if !jobTransitions[from][to] {
		return JobOutcome{}, conflict(actionJobStatus, "Cannot move job from %s to %s", from, to)
	}
	out.Changed = true
	out.CompletesRequest = to == model.JobCompleted
	return out, nil
}

// ApplyJob writes an accepted job outcome onto r.
func ApplyJob(r *model.Request, o JobOutcome, now time.Time) {
	if !o.Changed {
		return
	}
	j := r.JobRequest
	j.Status = o.To
	if o.To == model.JobInProgress && j.StartedAt == nil {
		j.StartedAt = &now
	}
	if o.CompletesRequest {
		r.Status = model.StatusCompleted
		complete(r, now)
	}
}
