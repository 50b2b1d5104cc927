// Package report reduces collections of requests into KPI figures and chart
// series. Everything is recomputed from the slice it is given.
package report

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"requestdesk/internal/model"
)

var msPerHour = decimal.NewFromInt(int64(time.Hour / time.Millisecond))

// Range is an inclusive time window; a nil bound is open.
type Range struct {
	From *time.Time
	To   *time.Time
}

func (rg Range) Contains(t time.Time) bool {
	if rg.From != nil && t.Before(*rg.From) {
		return false
	}
	if rg.To != nil && t.After(*rg.To) {
		return false
	}
	return true
}

// FilterCreated keeps requests whose createdAt falls inside rg.
func FilterCreated(reqs []model.Request, rg Range) []model.Request {
	out := make([]model.Request, 0, len(reqs))
	for _, r := range reqs {
		if rg.Contains(r.CreatedAt) {
			out = append(out, r)
		}
	}
	return out
}

// FilterCompleted keeps completed requests whose completedAt falls inside rg.
func FilterCompleted(reqs []model.Request, rg Range) []model.Request {
	out := make([]model.Request, 0, len(reqs))
	for _, r := range reqs {
		if r.CompletedAt != nil && rg.Contains(*r.CompletedAt) {
			out = append(out, r)
		}
	}
	return out
}

// AverageCompletionHours is the mean of completedAt-createdAt over completed
// requests, in hours rounded to two decimals. Zero when nothing completed.
func AverageCompletionHours(reqs []model.Request) decimal.Decimal {
	total := decimal.Zero
	n := int64(0)
	for _, r := range reqs {
		if r.CompletedAt == nil {
			continue
		}
		total = total.Add(decimal.NewFromInt(r.CompletedAt.Sub(r.CreatedAt).Milliseconds()))
		n++
	}
	if n == 0 {
		return decimal.Zero
	}
	return total.Div(msPerHour).Div(decimal.NewFromInt(n)).Round(2)
}

// DistinctActiveUsers counts the distinct requesters in reqs.
func DistinctActiveUsers(reqs []model.Request) int {
	seen := make(map[uuid.UUID]struct{}, len(reqs))
	for _, r := range reqs {
		seen[r.RequesterID] = struct{}{}
	}
	return len(seen)
}

// KPIs are the headline figures of a dashboard.
type KPIs struct {
	Total                  int                         `json:"total"`
	Pending                int                         `json:"pending"`
	InReview               int                         `json:"in_review"`
	Approved               int                         `json:"approved"`
	Completed              int                         `json:"completed"`
	Rejected               int                         `json:"rejected"`
	Cancelled              int                         `json:"cancelled"`
	AverageCompletionHours float64                     `json:"average_completion_hours"`
	ActiveUsers            int                         `json:"active_users"`
	ByType                 map[model.RequestType]int   `json:"by_type"`
	ByPriority             map[model.Priority]int      `json:"by_priority"`
	ByStatus               map[model.RequestStatus]int `json:"by_status"`
}

// ComputeKPIs reduces reqs, which must already be range-filtered.
func ComputeKPIs(reqs []model.Request) KPIs {
	k := KPIs{
		Total:      len(reqs),
		ByType:     make(map[model.RequestType]int),
		ByPriority: make(map[model.Priority]int),
		ByStatus:   make(map[model.RequestStatus]int),
	}
	for _, r := range reqs {
		k.ByType[r.Type]++
		k.ByPriority[r.Priority]++
		k.ByStatus[r.Status]++
	}
	k.Pending = k.ByStatus[model.StatusPending]
	k.InReview = k.ByStatus[model.StatusReviewed]
	k.Approved = k.ByStatus[model.StatusApproved]
	k.Completed = k.ByStatus[model.StatusCompleted]
	k.Rejected = k.ByStatus[model.StatusRejected]
	k.Cancelled = k.ByStatus[model.StatusCancelled]
	k.AverageCompletionHours = AverageCompletionHours(reqs).InexactFloat64()
	k.ActiveUsers = DistinctActiveUsers(reqs)
	return k
}

// Bucket is the width of a chart series step.
type Bucket string

const (
	BucketDay   Bucket = "day"
	BucketWeek  Bucket = "week"
	BucketMonth Bucket = "month"
)

// ParseBucket defaults to day for empty or unknown input.
func ParseBucket(s string) Bucket {
	switch Bucket(s) {
	case BucketWeek, BucketMonth:
		return Bucket(s)
	}
	return BucketDay
}

// Truncate returns the start of the bucket containing t, in UTC. Weeks start
// on Monday.
func Truncate(t time.Time, b Bucket) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch b {
	case BucketWeek:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case BucketMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return day
}

// Point is one step of the created-vs-completed series.
type Point struct {
	Date      string `json:"date"`
	Created   int    `json:"created"`
	Completed int    `json:"completed"`
}

// Series buckets created by createdAt and completed by completedAt, keyed by
// ISO date and sorted ascending.
func Series(created, completed []model.Request, b Bucket) []Point {
	points := make(map[string]*Point)
	at := func(t time.Time) *Point {
		key := Truncate(t, b).Format("2006-01-02")
		p, ok := points[key]
		if !ok {
			p = &Point{Date: key}
			points[key] = p
		}
		return p
	}
	for _, r := range created {
		at(r.CreatedAt).Created++
	}
	for _, r := range completed {
		if r.CompletedAt != nil {
			at(*r.CompletedAt).Completed++
		}
	}

	out := make([]Point, 0, len(points))
	for _, p := range points {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Overview is what dashboards render: KPIs plus the chart series.
type Overview struct {
	KPIs   KPIs    `json:"kpis"`
	Series []Point `json:"series"`
	Bucket Bucket  `json:"bucket"`
}

// Summarize reduces reqs over rg. Volume figures count requests created in
// rg; the completed count, cycle time and completed series count requests
// completed in rg, whenever they were created.
func Summarize(reqs []model.Request, rg Range, b Bucket) Overview {
	created := FilterCreated(reqs, rg)
	completed := FilterCompleted(reqs, rg)

	k := ComputeKPIs(created)
	k.Completed = len(completed)
	k.AverageCompletionHours = AverageCompletionHours(completed).InexactFloat64()
	return Overview{
		KPIs:   k,
		Series: Series(created, completed, b),
		Bucket: b,
	}
}
