// Package badge maps status and priority enums to display metadata used by
// clients when rendering chips, chart series and calendar entries.
//
// Every lookup is total over its closed enum set. An unknown value means an
// unvalidated value reached the read path, so the lookups panic instead of
// guessing.
package badge

import (
	"fmt"

	"requestdesk/internal/model"
)

// Badge is the colour set for a status chip.
type Badge struct {
	Color   string `json:"color"`
	Stroke  string `json:"stroke"`
	Variant string `json:"variant"`
}

// Icon is the display metadata for a priority.
type Icon struct {
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

var (
	yellow = Badge{Color: "#FEF3C7", Stroke: "#D97706", Variant: "warning"}
	blue   = Badge{Color: "#DBEAFE", Stroke: "#2563EB", Variant: "info"}
	green  = Badge{Color: "#DCFCE7", Stroke: "#16A34A", Variant: "success"}
	red    = Badge{Color: "#FEE2E2", Stroke: "#DC2626", Variant: "destructive"}
	gray   = Badge{Color: "#F3F4F6", Stroke: "#6B7280", Variant: "secondary"}
	teal   = Badge{Color: "#CCFBF1", Stroke: "#0D9488", Variant: "default"}
	orange = Badge{Color: "#FFEDD5", Stroke: "#EA580C", Variant: "outline"}
)

var requestStatus = map[model.RequestStatus]Badge{
	model.StatusPending:   yellow,
	model.StatusReviewed:  blue,
	model.StatusApproved:  green,
	model.StatusRejected:  red,
	model.StatusCancelled: gray,
	model.StatusCompleted: teal,
}

var jobStatus = map[model.JobStatus]Badge{
	model.JobPending:    yellow,
	model.JobInProgress: blue,
	model.JobCompleted:  teal,
	model.JobOnHold:     orange,
	model.JobCancelled:  gray,
}

var assetStatus = map[model.AssetStatus]Badge{
	model.AssetAvailable:        green,
	model.AssetInUse:            blue,
	model.AssetUnderMaintenance: orange,
	model.AssetReserved:         yellow,
}

var itemStatus = map[model.ItemStatus]Badge{
	model.ItemAvailable:        green,
	model.ItemInUse:            blue,
	model.ItemLowStock:         yellow,
	model.ItemOutOfStock:       red,
	model.ItemUnderMaintenance: orange,
	model.ItemLost:             gray,
}

var priorityIcon = map[model.Priority]Icon{
	model.PriorityLow:    {Icon: "arrow-down", Color: "#6B7280"},
	model.PriorityMedium: {Icon: "arrow-right", Color: "#2563EB"},
	model.PriorityHigh:   {Icon: "arrow-up", Color: "#EA580C"},
	model.PriorityUrgent: {Icon: "alert-triangle", Color: "#DC2626"},
}

func RequestStatus(s model.RequestStatus) Badge {
	return lookup(requestStatus, s, "request status")
}

func JobStatus(s model.JobStatus) Badge {
	return lookup(jobStatus, s, "job status")
}

// VehicleStatus and VenueStatus share the asset palette.
func VehicleStatus(s model.AssetStatus) Badge {
	return lookup(assetStatus, s, "vehicle status")
}

func VenueStatus(s model.AssetStatus) Badge {
	return lookup(assetStatus, s, "venue status")
}

func ItemStatus(s model.ItemStatus) Badge {
	return lookup(itemStatus, s, "item status")
}

func PriorityIcon(p model.Priority) Icon {
	return lookup(priorityIcon, p, "priority")
}

func lookup[K ~string, V any](table map[K]V, key K, kind string) V {
	v, ok := table[key]
	if !ok {
		panic(fmt.Sprintf("badge: unknown %s %q", kind, string(key)))
	}
	return v
}

// Entry pairs an enum value with its badge for the metadata endpoint.
type Entry struct {
	Value string `json:"value"`
	Badge Badge  `json:"badge"`
}

// PriorityEntry pairs a priority with its icon.
type PriorityEntry struct {
	Value string `json:"value"`
	Icon  Icon   `json:"icon"`
}

// Catalog is every enum with its display metadata.
type Catalog struct {
	RequestStatuses []Entry         `json:"request_statuses"`
	JobStatuses     []Entry         `json:"job_statuses"`
	AssetStatuses   []Entry         `json:"asset_statuses"`
	ItemStatuses    []Entry         `json:"item_statuses"`
	Priorities      []PriorityEntry `json:"priorities"`
}

// All builds the catalog in declaration order.
func All() Catalog {
	var c Catalog
	for _, s := range model.RequestStatuses {
		c.RequestStatuses = append(c.RequestStatuses, Entry{Value: string(s), Badge: RequestStatus(s)})
	}
	for _, s := range model.JobStatuses {
		c.JobStatuses = append(c.JobStatuses, Entry{Value: string(s), Badge: JobStatus(s)})
	}
	for _, s := range model.AssetStatuses {
		c.AssetStatuses = append(c.AssetStatuses, Entry{Value: string(s), Badge: VehicleStatus(s)})
	}
	for _, s := range model.ItemStatuses {
		c.ItemStatuses = append(c.ItemStatuses, Entry{Value: string(s), Badge: ItemStatus(s)})
	}
	for _, p := range model.Priorities {
		c.Priorities = append(c.Priorities, PriorityEntry{Value: string(p), Icon: PriorityIcon(p)})
	}
	return c
}
