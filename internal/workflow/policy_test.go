package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"requestdesk/internal/model"
)

func supplyRequest(owner Actor, quantities ...int) *model.Request {
	r := &model.Request{
		ID:            uuid.New(),
		Type:          model.RequestTypeResource,
		Status:        model.StatusPending,
		DepartmentID:  deptID,
		RequesterID:   owner.ID,
		SupplyRequest: &model.SupplyRequest{},
	}
	for _, q := range quantities {
		r.SupplyRequest.Items = append(r.SupplyRequest.Items, model.RequestItem{ID: uuid.New(), RequestID: r.ID, Quantity: q})
	}
	return r
}

func TestCanEdit(t *testing.T) {
	owner := requester()
	tests := []struct {
		name   string
		actor  Actor
		status model.RequestStatus
		want   bool
	}{
		{"requester while pending", owner, model.StatusPending, true},
		{"requester after review", owner, model.StatusReviewed, false},
		{"someone else", requester(), model.StatusPending, false},
		{"admin", Actor{ID: uuid.New(), Roles: []model.Role{model.RoleAdmin}}, model.StatusPending, false},
	}
	for _, tt := range tests {
		r := supplyRequest(owner, 1)
		r.Status = tt.status
		if got := CanEdit(tt.actor, r); got != tt.want {
			t.Errorf("%s: CanEdit = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRemoveLastItemIsRejected(t *testing.T) {
	owner := requester()
	r := supplyRequest(owner, 3)

	err := CheckRemoveItem(owner, r, r.SupplyRequest.Items[0].ID)
	if !errors.Is(err, ErrLastItem) {
		t.Fatalf("err = %v, want ErrLastItem", err)
	}
	if err.Error() != "Request must have at least one item" {
		t.Errorf("message = %q", err.Error())
	}

	r = supplyRequest(owner, 3, 4)
	if err := CheckRemoveItem(owner, r, r.SupplyRequest.Items[1].ID); err != nil {
		t.Fatalf("removing one of two items: %v", err)
	}
}

func TestItemQuantity(t *testing.T) {
	owner := requester()
	r := supplyRequest(owner, 2)
	item := r.SupplyRequest.Items[0].ID

	if err := CheckItemQuantity(owner, r, item, 5); err != nil {
		t.Fatalf("valid change: %v", err)
	}
	if err := CheckItemQuantity(owner, r, item, 0); err == nil {
		t.Error("zero quantity must be rejected")
	}
	if err := CheckItemQuantity(owner, r, uuid.New(), 5); err == nil {
		t.Error("unknown item must be rejected")
	}
	if err := CheckItemQuantity(requester(), r, item, 5); err == nil {
		t.Error("non-requester must be rejected")
	}

	r.Status = model.StatusApproved
	if err := CheckItemQuantity(owner, r, item, 5); err == nil {
		t.Error("edit after approval must be rejected")
	}
}

func TestJobTransitions(t *testing.T) {
	rev := reviewer()
	personnel := Actor{ID: uuid.New(), Roles: []model.Role{model.RolePersonnel}}
	r := jobRequest(requester())
	r.Status = model.StatusApproved
	r.JobRequest.AssignedToID = &personnel.ID
	now := time.Now()

	if _, err := JobTransition(personnel, r, model.JobCompleted); err == nil {
		t.Fatal("PENDING -> COMPLETED must be rejected")
	}

	out, err := JobTransition(personnel, r, model.JobInProgress)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	ApplyJob(r, out, now)
	if r.JobRequest.StartedAt == nil {
		t.Fatal("startedAt not set")
	}

	out, err = JobTransition(rev, r, model.JobOnHold)
	if err != nil {
		t.Fatalf("hold: %v", err)
	}
	ApplyJob(r, out, now)

	out, err = JobTransition(personnel, r, model.JobInProgress)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	ApplyJob(r, out, now)

	out, err = JobTransition(personnel, r, model.JobCompleted)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if !out.CompletesRequest {
		t.Fatal("finishing the job must complete the request")
	}
	ApplyJob(r, out, now)
	if r.Status != model.StatusCompleted || r.CompletedAt == nil || r.JobRequest.FinishedAt == nil {
		t.Fatalf("request after job completion = %+v", r)
	}
}

func TestJobCanBeCancelled(t *testing.T) {
	personnel := Actor{ID: uuid.New(), Roles: []model.Role{model.RolePersonnel}}
	now := time.Now()

	for _, from := range []model.JobStatus{model.JobPending, model.JobInProgress, model.JobOnHold} {
		r := jobRequest(requester())
		r.Status = model.StatusApproved
		r.JobRequest.AssignedToID = &personnel.ID
		r.JobRequest.Status = from

		out, err := JobTransition(reviewer(), r, model.JobCancelled)
		if err != nil {
			t.Fatalf("cancel from %s: %v", from, err)
		}
		if !out.Changed || out.CompletesRequest {
			t.Fatalf("cancel from %s: outcome = %+v", from, out)
		}
		ApplyJob(r, out, now)
		if r.JobRequest.Status != model.JobCancelled || r.Status != model.StatusApproved {
			t.Fatalf("cancel from %s: job %s, request %s", from, r.JobRequest.Status, r.Status)
		}
	}

	r := jobRequest(requester())
	r.Status = model.StatusApproved
	r.JobRequest.AssignedToID = &personnel.ID
	r.JobRequest.Status = model.JobCancelled
	if _, err := JobTransition(personnel, r, model.JobInProgress); err == nil {
		t.Fatal("a cancelled job must not be resumed")
	}

	rev := reviewer()
	out, err := Transition(rev, r, ActionComplete, Input{})
	if err != nil {
		t.Fatalf("close request: %v", err)
	}
	Apply(r, out, rev, Input{}, now)
	if r.Status != model.StatusCompleted || r.JobRequest.Status != model.JobCancelled || r.JobRequest.FinishedAt != nil {
		t.Fatalf("closing kept job %s finished=%v", r.JobRequest.Status, r.JobRequest.FinishedAt)
	}
}

func TestJobUpdateRequiresApprovedRequest(t *testing.T) {
	personnel := Actor{ID: uuid.New(), Roles: []model.Role{model.RolePersonnel}}
	r := jobRequest(requester())
	r.JobRequest.AssignedToID = &personnel.ID

	if _, err := JobTransition(personnel, r, model.JobInProgress); err == nil {
		t.Fatal("job work on a pending request must be rejected")
	}
	if _, err := JobTransition(requester(), r, model.JobInProgress); err == nil {
		t.Fatal("unrelated user must be rejected")
	}
}

func TestPanel(t *testing.T) {
	owner, rev := requester(), reviewer()
	r := jobRequest(owner)

	byAction := func(p []PanelAction) map[Action]PanelAction {
		m := make(map[Action]PanelAction, len(p))
		for _, e := range p {
			m[e.Action] = e
		}
		return m
	}

	ownerPanel := byAction(Panel(owner, r))
	if len(ownerPanel) != 1 || !ownerPanel[ActionCancel].Enabled {
		t.Fatalf("requester panel = %+v, want only an enabled CANCEL", ownerPanel)
	}

	revPanel := byAction(Panel(rev, r))
	approve, ok := revPanel[ActionApprove]
	if !ok {
		t.Fatal("reviewer panel lacks APPROVE")
	}
	if approve.Enabled {
		t.Fatal("APPROVE must be disabled before assignment")
	}
	if approve.Reason != "Assign personnel before approving" {
		t.Errorf("reason = %q", approve.Reason)
	}
	if !revPanel[ActionAssign].Enabled {
		t.Error("ASSIGN must be enabled for a pending job")
	}
	if _, ok := revPanel[ActionFinalize]; ok {
		t.Error("FINALIZE is not offered on job requests")
	}

	personnel := uuid.New()
	r.JobRequest.AssignedToID = &personnel
	if !byAction(Panel(rev, r))[ActionApprove].Enabled {
		t.Error("APPROVE must be enabled after assignment")
	}

	r.Status = model.StatusReviewed
	if byAction(Panel(owner, r))[ActionCancel].Enabled {
		t.Error("CANCEL must be disabled once the request leaves PENDING")
	}
}
