package badge

import (
	"testing"

	"requestdesk/internal/model"
)

func TestLookupsAreTotal(t *testing.T) {
	for _, s := range model.RequestStatuses {
		if b := RequestStatus(s); b.Variant == "" {
			t.Errorf("request status %s has no variant", s)
		}
	}
	for _, s := range model.JobStatuses {
		if b := JobStatus(s); b.Color == "" {
			t.Errorf("job status %s has no color", s)
		}
	}
	for _, s := range model.AssetStatuses {
		if VehicleStatus(s) != VenueStatus(s) {
			t.Errorf("asset status %s differs between vehicle and venue", s)
		}
	}
	for _, s := range model.ItemStatuses {
		if b := ItemStatus(s); b.Stroke == "" {
			t.Errorf("item status %s has no stroke", s)
		}
	}
	for _, p := range model.Priorities {
		if i := PriorityIcon(p); i.Icon == "" {
			t.Errorf("priority %s has no icon", p)
		}
	}
}

func TestStatusColors(t *testing.T) {
	tests := []struct {
		status  model.RequestStatus
		variant string
	}{
		{model.StatusPending, "warning"},
		{model.StatusApproved, "success"},
		{model.StatusRejected, "destructive"},
		{model.StatusCancelled, "secondary"},
	}
	for _, tt := range tests {
		if got := RequestStatus(tt.status).Variant; got != tt.variant {
			t.Errorf("RequestStatus(%s).Variant = %q, want %q", tt.status, got, tt.variant)
		}
	}
}

func TestUnknownStatusPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown status")
		}
	}()
	RequestStatus(model.RequestStatus("ARCHIVED"))
}

func TestAllCoversEveryEnum(t *testing.T) {
	c := All()
	if len(c.RequestStatuses) != len(model.RequestStatuses) {
		t.Errorf("request statuses = %d, want %d", len(c.RequestStatuses), len(model.RequestStatuses))
	}
	if len(c.Priorities) != len(model.Priorities) {
		t.Errorf("priorities = %d, want %d", len(c.Priorities), len(model.Priorities))
	}
	if c.JobStatuses[0].Value != string(model.JobPending) {
		t.Errorf("first job status = %s, want PENDING", c.JobStatuses[0].Value)
	}
}
