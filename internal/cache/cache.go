// Package cache is a read-aside cache for request reads and dashboards.
// Values are stored as JSON so both backends behave the same.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Store is a key/value cache with prefix invalidation.
type Store interface {
	// Get decodes the cached value into dest and reports whether it was found.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

const (
	requestPrefix       = "request:"
	activityPrefix      = "activity:"
	departmentPrefix    = "department:"
	DashboardPrefix     = "user-dashboard-overview:"
	notificationsPrefix = "get-user-notifications:"
	JobReportPrefix     = "user-job-report:"
)

func RequestKey(id uuid.UUID) string       { return requestPrefix + id.String() }
func ActivityKey(id uuid.UUID) string      { return activityPrefix + id.String() }
func DepartmentKey(id uuid.UUID) string    { return departmentPrefix + id.String() }
func NotificationsKey(id uuid.UUID) string { return notificationsPrefix + id.String() }
func JobReportKey(id uuid.UUID) string     { return JobReportPrefix + id.String() }

// DashboardKey scopes a dashboard overview to a user; extra parts (range,
// bucket) are appended.
func DashboardKey(userID uuid.UUID, parts ...string) string {
	key := DashboardPrefix + userID.String()
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

// Remember returns the cached value under key, or calls load and caches its
// result. Cache errors are logged and never fail the read.
func Remember[T any](ctx context.Context, s Store, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var v T
	found, err := s.Get(ctx, key, &v)
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("cache read failed")
	}
	if found {
		return v, nil
	}

	v, err = load()
	if err != nil {
		return v, err
	}
	if err := s.Set(ctx, key, v, ttl); err != nil {
		log.WithError(err).WithField("key", key).Warn("cache write failed")
	}
	return v, nil
}

func encode(value any) ([]byte, error) {
	return json.Marshal(value)
}

func decode(data []byte, dest any) error {
	return json.Unmarshal(data, dest)
}
