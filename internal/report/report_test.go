package report

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"requestdesk/internal/model"
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func completedReq(created, completed time.Time) model.Request {
	return model.Request{
		ID:          uuid.New(),
		RequesterID: uuid.New(),
		Type:        model.RequestTypeVenue,
		Priority:    model.PriorityMedium,
		Status:      model.StatusCompleted,
		CreatedAt:   created,
		CompletedAt: &completed,
	}
}

func TestAverageCompletionHoursOneHour(t *testing.T) {
	created := at("2026-03-01T09:00:00Z")
	reqs := []model.Request{completedReq(created, created.Add(time.Hour))}

	got := AverageCompletionHours(reqs)
	if !got.Equal(decimal.RequireFromString("1.00")) {
		t.Fatalf("average = %s, want 1.00", got)
	}
	if got.StringFixed(2) != "1.00" {
		t.Fatalf("formatted = %s", got.StringFixed(2))
	}
}

func TestAverageCompletionHoursRounds(t *testing.T) {
	created := at("2026-03-01T09:00:00Z")
	reqs := []model.Request{
		completedReq(created, created.Add(time.Hour)),
		completedReq(created, created.Add(2*time.Hour+20*time.Minute)),
		{ID: uuid.New(), CreatedAt: created, Status: model.StatusPending},
	}
	// (60 + 140) / 2 = 100 minutes
	if got := AverageCompletionHours(reqs).StringFixed(2); got != "1.67" {
		t.Fatalf("average = %s, want 1.67", got)
	}
	if !AverageCompletionHours(nil).IsZero() {
		t.Fatal("empty input must average to zero")
	}
}

func TestRangeIsInclusive(t *testing.T) {
	from := at("2026-03-01T00:00:00Z")
	to := at("2026-03-31T23:59:59Z")
	rg := Range{From: &from, To: &to}

	reqs := []model.Request{
		{ID: uuid.New(), RequesterID: uuid.New(), CreatedAt: from, Status: model.StatusPending},
		{ID: uuid.New(), RequesterID: uuid.New(), CreatedAt: to, Status: model.StatusPending},
		{ID: uuid.New(), RequesterID: uuid.New(), CreatedAt: from.Add(-time.Second), Status: model.StatusPending},
		{ID: uuid.New(), RequesterID: uuid.New(), CreatedAt: to.Add(time.Second), Status: model.StatusPending},
	}

	ov := Summarize(reqs, rg, BucketMonth)
	if ov.KPIs.Total != 2 {
		t.Fatalf("total = %d, want 2 (boundaries in, outsiders out)", ov.KPIs.Total)
	}
	if len(ov.Series) != 1 || ov.Series[0].Date != "2026-03-01" || ov.Series[0].Created != 2 {
		t.Fatalf("series = %+v", ov.Series)
	}
}

func TestComputeKPIs(t *testing.T) {
	user := uuid.New()
	created := at("2026-03-02T08:00:00Z")
	done := completedReq(created, created.Add(3*time.Hour))
	done.RequesterID = user
	reqs := []model.Request{
		done,
		{ID: uuid.New(), RequesterID: user, Type: model.RequestTypeJob, Priority: model.PriorityHigh, Status: model.StatusPending, CreatedAt: created},
		{ID: uuid.New(), RequesterID: uuid.New(), Type: model.RequestTypeJob, Priority: model.PriorityHigh, Status: model.StatusRejected, CreatedAt: created},
	}

	k := ComputeKPIs(reqs)
	if k.Total != 3 || k.Pending != 1 || k.Completed != 1 || k.Rejected != 1 {
		t.Fatalf("kpis = %+v", k)
	}
	if k.ActiveUsers != 2 {
		t.Errorf("active users = %d, want 2", k.ActiveUsers)
	}
	if k.ByType[model.RequestTypeJob] != 2 || k.ByPriority[model.PriorityHigh] != 2 {
		t.Errorf("breakdown = %+v %+v", k.ByType, k.ByPriority)
	}
	if k.AverageCompletionHours != 3 {
		t.Errorf("average = %v, want 3", k.AverageCompletionHours)
	}
}

func TestTruncate(t *testing.T) {
	// 2026-03-05 is a Thursday
	ts := at("2026-03-05T17:30:00Z")
	tests := []struct {
		bucket Bucket
		want   string
	}{
		{BucketDay, "2026-03-05"},
		{BucketWeek, "2026-03-02"},
		{BucketMonth, "2026-03-01"},
	}
	for _, tt := range tests {
		if got := Truncate(ts, tt.bucket).Format("2006-01-02"); got != tt.want {
			t.Errorf("Truncate(%s) = %s, want %s", tt.bucket, got, tt.want)
		}
	}

	sunday := at("2026-03-08T12:00:00Z")
	if got := Truncate(sunday, BucketWeek).Format("2006-01-02"); got != "2026-03-02" {
		t.Errorf("sunday belongs to week %s, want 2026-03-02", got)
	}
}

func TestSeriesCountsCompletionsOnTheirOwnDay(t *testing.T) {
	created := at("2026-03-01T10:00:00Z")
	reqs := []model.Request{
		completedReq(created, at("2026-03-03T10:00:00Z")),
		{ID: uuid.New(), CreatedAt: at("2026-03-03T11:00:00Z")},
	}

	series := Series(reqs, reqs[:1], BucketDay)
	want := []Point{
		{Date: "2026-03-01", Created: 1},
		{Date: "2026-03-03", Created: 1, Completed: 1},
	}
	if len(series) != len(want) {
		t.Fatalf("series = %+v", series)
	}
	for i := range want {
		if series[i] != want[i] {
			t.Errorf("point %d = %+v, want %+v", i, series[i], want[i])
		}
	}
}

func TestSummarizeCountsCompletionsOfEarlierRequests(t *testing.T) {
	from := at("2026-03-01T00:00:00Z")
	to := at("2026-03-31T23:59:59Z")
	rg := Range{From: &from, To: &to}

	reqs := []model.Request{
		completedReq(at("2026-02-20T09:00:00Z"), at("2026-03-10T09:00:00Z")),
		completedReq(at("2026-03-02T09:00:00Z"), at("2026-04-02T09:00:00Z")),
		{ID: uuid.New(), RequesterID: uuid.New(), CreatedAt: at("2026-03-10T12:00:00Z"), Status: model.StatusPending},
	}

	ov := Summarize(reqs, rg, BucketDay)
	if ov.KPIs.Total != 2 {
		t.Errorf("total = %d, want 2 created in March", ov.KPIs.Total)
	}
	if ov.KPIs.Completed != 1 {
		t.Errorf("completed = %d, want 1 completed in March", ov.KPIs.Completed)
	}
	// 2026-02-20 09:00 to 2026-03-10 09:00 is 18 days
	if ov.KPIs.AverageCompletionHours != 432 {
		t.Errorf("average = %v, want 432", ov.KPIs.AverageCompletionHours)
	}

	want := []Point{
		{Date: "2026-03-02", Created: 1},
		{Date: "2026-03-10", Created: 1, Completed: 1},
	}
	if len(ov.Series) != len(want) {
		t.Fatalf("series = %+v", ov.Series)
	}
	for i := range want {
		if ov.Series[i] != want[i] {
			t.Errorf("point %d = %+v, want %+v", i, ov.Series[i], want[i])
		}
	}
}

func TestParseBucket(t *testing.T) {
	if ParseBucket("week") != BucketWeek || ParseBucket("month") != BucketMonth {
		t.Fatal("known buckets not parsed")
	}
	if ParseBucket("") != BucketDay || ParseBucket("year") != BucketDay {
		t.Fatal("unknown buckets must default to day")
	}
}

func TestJobs(t *testing.T) {
	now := at("2026-03-10T12:00:00Z")
	due := at("2026-03-08T00:00:00Z")
	finished := at("2026-03-07T12:00:00Z")
	late := at("2026-03-09T12:00:00Z")
	created := at("2026-03-07T10:00:00Z")

	job := func(status model.JobStatus, finishedAt *time.Time, hours string) model.Request {
		r := model.Request{
			ID:         uuid.New(),
			Type:       model.RequestTypeJob,
			CreatedAt:  created,
			JobRequest: &model.JobRequest{Status: status, DueDate: due, FinishedAt: finishedAt},
		}
		if hours != "" {
			r.JobRequest.EstimatedTime = decimal.NewNullDecimal(decimal.RequireFromString(hours))
		}
		if finishedAt != nil {
			r.CompletedAt = finishedAt
		}
		return r
	}

	reqs := []model.Request{
		job(model.JobCompleted, &finished, "1.5"),
		job(model.JobCompleted, &late, "2"),
		job(model.JobInProgress, nil, ""),
		job(model.JobOnHold, nil, ""),
		{ID: uuid.New(), Type: model.RequestTypeVenue},
	}

	rep := Jobs(reqs, now)
	if rep.Assigned != 4 || rep.Completed != 2 || rep.InProgress != 1 || rep.OnHold != 1 {
		t.Fatalf("report = %+v", rep)
	}
	if rep.Overdue != 2 {
		t.Errorf("overdue = %d, want 2", rep.Overdue)
	}
	if rep.OnTimeRate != 50 {
		t.Errorf("on-time rate = %v, want 50", rep.OnTimeRate)
	}
	if rep.EstimatedHours != 3.5 {
		t.Errorf("estimated hours = %v, want 3.5", rep.EstimatedHours)
	}
	// (2h + 50h) / 2
	if rep.AverageCompletionHours != 26 {
		t.Errorf("average = %v, want 26", rep.AverageCompletionHours)
	}
}
