package report

import (
	"time"

	"github.com/shopspring/decimal"

	"requestdesk/internal/model"
)

// JobReport summarises the job requests assigned to one person.
type JobReport struct {
	Assigned               int     `json:"assigned"`
	Pending                int     `json:"pending"`
	InProgress             int     `json:"in_progress"`
	OnHold                 int     `json:"on_hold"`
	Completed              int     `json:"completed"`
	Cancelled              int     `json:"cancelled"`
	Overdue                int     `json:"overdue"`
	OnTimeRate             float64 `json:"on_time_rate"` // percent of completed jobs finished by their due date
	AverageCompletionHours float64 `json:"average_completion_hours"`
	EstimatedHours         float64 `json:"estimated_hours"`
}

// Jobs builds a JobReport from job requests; non-job requests are ignored.
func Jobs(reqs []model.Request, now time.Time) JobReport {
	var rep JobReport
	onTime := 0
	estimated := decimal.Zero
	completed := make([]model.Request, 0, len(reqs))

	for _, r := range reqs {
		j := r.JobRequest
		if j == nil {
			continue
		}
		rep.Assigned++
		if j.EstimatedTime.Valid {
			estimated = estimated.Add(j.EstimatedTime.Decimal)
		}
		switch j.Status {
		case model.JobPending:
			rep.Pending++
		case model.JobInProgress:
			rep.InProgress++
		case model.JobOnHold:
			rep.OnHold++
		case model.JobCancelled:
			rep.Cancelled++
		case model.JobCompleted:
			rep.Completed++
			completed = append(completed, r)
			if j.FinishedAt != nil && !j.FinishedAt.After(j.DueDate) {
				onTime++
			}
		}
		open := j.Status != model.JobCompleted && j.Status != model.JobCancelled
		if open && now.After(j.DueDate) {
			rep.Overdue++
		}
	}

	if rep.Completed > 0 {
		rep.OnTimeRate = decimal.NewFromInt(int64(onTime * 100)).
			Div(decimal.NewFromInt(int64(rep.Completed))).
			Round(2).
			InexactFloat64()
	}
	rep.AverageCompletionHours = AverageCompletionHours(completed).InexactFloat64()
	rep.EstimatedHours = estimated.Round(2).InexactFloat64()
	return rep
}
