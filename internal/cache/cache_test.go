package cache

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	type payload struct {
		Title string `json:"title"`
	}
	if err := s.Set(ctx, "k", payload{Title: "Projector"}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	var got payload
	found, err := s.Get(ctx, "k", &got)
	if err != nil || !found {
		t.Fatalf("Get = %v, %v", found, err)
	}
	if got.Title != "Projector" {
		t.Fatalf("got %+v", got)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_ = s.Set(ctx, "k", 1, time.Minute)
	now = now.Add(2 * time.Minute)

	var v int
	if found, _ := s.Get(ctx, "k", &v); found {
		t.Fatal("expired entry returned")
	}
}

func TestDeletePrefix(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u1, u2 := uuid.New(), uuid.New()
	req := uuid.New()

	keys := []string{
		DashboardKey(u1, "day"),
		DashboardKey(u2, "2026-03-01", "2026-03-31", "week"),
		RequestKey(req),
		NotificationsKey(u1),
	}
	for _, k := range keys {
		_ = s.Set(ctx, k, true, 0)
	}

	if err := s.DeletePrefix(ctx, DashboardPrefix); err != nil {
		t.Fatalf("DeletePrefix: %v", err)
	}

	got := s.Keys()
	sort.Strings(got)
	want := []string{NotificationsKey(u1), RequestKey(req)}
	sort.Strings(want)
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("remaining keys = %v, want %v", got, want)
	}
}

func TestKeyFormats(t *testing.T) {
	id := uuid.MustParse("6f1c1f8e-8d6a-4a4b-9b7a-1f2e3d4c5b6a")
	tests := map[string]string{
		RequestKey(id):       "request:6f1c1f8e-8d6a-4a4b-9b7a-1f2e3d4c5b6a",
		ActivityKey(id):      "activity:6f1c1f8e-8d6a-4a4b-9b7a-1f2e3d4c5b6a",
		DepartmentKey(id):    "department:6f1c1f8e-8d6a-4a4b-9b7a-1f2e3d4c5b6a",
		NotificationsKey(id): "get-user-notifications:6f1c1f8e-8d6a-4a4b-9b7a-1f2e3d4c5b6a",
		DashboardKey(id):     "user-dashboard-overview:6f1c1f8e-8d6a-4a4b-9b7a-1f2e3d4c5b6a",
	}
	for got, want := range tests {
		if got != want {
			t.Errorf("key = %s, want %s", got, want)
		}
	}
}

func TestRemember(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	calls := 0
	load := func() (string, error) {
		calls++
		return "fresh", nil
	}

	for i := 0; i < 3; i++ {
		v, err := Remember(ctx, s, "k", time.Minute, load)
		if err != nil || v != "fresh" {
			t.Fatalf("Remember = %q, %v", v, err)
		}
	}
	if calls != 1 {
		t.Fatalf("loader called %d times, want 1", calls)
	}

	boom := errors.New("boom")
	if _, err := Remember(ctx, s, "other", time.Minute, func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	var v int
	if found, _ := s.Get(ctx, "other", &v); found {
		t.Fatal("failed load must not be cached")
	}
}
