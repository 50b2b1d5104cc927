package workflow

import (
	"github.com/google/uuid"

	"requestdesk/internal/model"
)

// PanelAction is one button of an action panel.
type PanelAction struct {
	Action  Action `json:"action"`
	Enabled bool   `json:"enabled"`
	Reason  string `json:"reason,omitempty"`
}

// Panel lists the actions a sees for r, one entry per action its roles
// expose. Disabled entries carry the reason the transition would be refused.
func Panel(a Actor, r *model.Request) []PanelAction {
	order := []Action{ActionCancel, ActionAssign, ActionApprove, ActionFinalize, ActionReject, ActionStartUse, ActionComplete}

	// a fresh assignee id makes a dry run of ASSIGN report whether assignment
	// is possible at all
	assignee := uuid.New()
	probe := Input{Reason: "-", AssigneeID: &assignee}
	panel := make([]PanelAction, 0, len(order))
	for _, action := range order {
		if !Can(a, actionCapability[action], r) || !applicable(action, r) {
			continue
		}
		entry := PanelAction{Action: action}
		out, err := Transition(a, r, action, probe)
		switch {
		case err != nil:
			entry.Reason = err.Error()
		case !out.Changed && action == ActionStartUse:
			entry.Reason = "Already in use"
		case !out.Changed:
			entry.Reason = "Request is already " + string(r.Status)
		default:
			entry.Enabled = true
		}
		panel = append(panel, entry)
	}
	return panel
}

func applicable(action Action, r *model.Request) bool {
	switch action {
	case ActionAssign:
		return r.Type == model.RequestTypeJob
	case ActionFinalize:
		return r.Type != model.RequestTypeJob
	case ActionStartUse:
		return r.Type == model.RequestTypeVenue || r.Type == model.RequestTypeTransport
	}
	return true
}
