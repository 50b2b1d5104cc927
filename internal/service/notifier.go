package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"requestdesk/internal/cache"
	"requestdesk/internal/event"
	"requestdesk/internal/model"
	"requestdesk/internal/repository"
	"requestdesk/internal/workflow"
)

// notifier decides who hears about a request change, stores their
// notifications inside the caller's transaction and, after commit, invalidates
// caches and publishes live events.
type notifier struct {
	users  repository.UserRepository
	notes  repository.NotificationRepository
	store  cache.Store
	events event.Publisher
}

func newNotifier(users repository.UserRepository, notes repository.NotificationRepository, store cache.Store, events event.Publisher) *notifier {
	return &notifier{users: users, notes: notes, store: store, events: events}
}

// recipients collects distinct user ids, skipping the actor.
type recipients struct {
	actor uuid.UUID
	ids   []uuid.UUID
	seen  map[uuid.UUID]bool
}

func newRecipients(actor uuid.UUID) *recipients {
	return &recipients{actor: actor, seen: map[uuid.UUID]bool{actor: true}}
}

func (rc *recipients) add(ids ...uuid.UUID) {
	for _, id := range ids {
		if id == uuid.Nil || rc.seen[id] {
			continue
		}
		rc.seen[id] = true
		rc.ids = append(rc.ids, id)
	}
}

func (n *notifier) addRole(ctx context.Context, rc *recipients, role model.Role, departmentID *uuid.UUID) error {
	users, err := n.users.ListWithRole(ctx, role, departmentID)
	if err != nil {
		return fmt.Errorf("failed to load %s users: %w", strings.ToLower(string(role)), err)
	}
	for _, u := range users {
		rc.add(u.ID)
	}
	return nil
}

// send stores one notification per recipient and returns who was notified.
func (n *notifier) send(ctx context.Context, rc *recipients, r *model.Request, title, message string) ([]uuid.UUID, error) {
	if len(rc.ids) == 0 {
		return nil, nil
	}
	id := r.ID
	notes := make([]model.Notification, 0, len(rc.ids))
	for _, to := range rc.ids {
		notes = append(notes, model.Notification{RecipientID: to, RequestID: &id, Title: title, Message: message})
	}
	if err := n.notes.Create(ctx, notes); err != nil {
		return nil, fmt.Errorf("failed to store notifications: %w", err)
	}
	return rc.ids, nil
}

// Submitted notifies the reviewers of the request's department.
func (n *notifier) Submitted(ctx context.Context, actor workflow.Actor, r *model.Request) ([]uuid.UUID, error) {
	rc := newRecipients(actor.ID)
	dept := r.DepartmentID
	if err := n.addRole(ctx, rc, model.RoleReviewer, &dept); err != nil {
		return nil, err
	}
	return n.send(ctx, rc, r, "New request", fmt.Sprintf("%q was submitted and is waiting for review", r.Title))
}

// Transitioned notifies the people affected by an accepted workflow outcome.
func (n *notifier) Transitioned(ctx context.Context, actor workflow.Actor, r *model.Request, o workflow.Outcome) ([]uuid.UUID, error) {
	rc := newRecipients(actor.ID)
	var title, message string

	switch o.Action {
	case workflow.ActionAssign:
		if id := r.AssigneeID(); id != nil {
			rc.add(*id)
		}
		title, message = "Job assigned", fmt.Sprintf("You were assigned to %q", r.Title)

	case workflow.ActionApprove, workflow.ActionFinalize:
		rc.add(r.RequesterID)
		if id := r.AssigneeID(); id != nil {
			rc.add(*id)
		}
		if o.To == model.StatusReviewed {
			if err := n.addRole(ctx, rc, model.RoleApprover, nil); err != nil {
				return nil, err
			}
			title, message = "Request reviewed", fmt.Sprintf("%q was reviewed and awaits final approval", r.Title)
		} else {
			title, message = "Request approved", fmt.Sprintf("%q was approved", r.Title)
		}

	case workflow.ActionReject:
		rc.add(r.RequesterID)
		title, message = "Request rejected", fmt.Sprintf("%q was rejected: %s", r.Title, deref(r.RejectionReason))

	case workflow.ActionCancel:
		dept := r.DepartmentID
		if err := n.addRole(ctx, rc, model.RoleReviewer, &dept); err != nil {
			return nil, err
		}
		if id := r.AssigneeID(); id != nil {
			rc.add(*id)
		}
		title, message = "Request cancelled", fmt.Sprintf("%q was cancelled: %s", r.Title, deref(r.CancellationReason))

	case workflow.ActionComplete:
		rc.add(r.RequesterID)
		title, message = "Request completed", fmt.Sprintf("%q was completed", r.Title)

	default:
		return nil, nil
	}

	return n.send(ctx, rc, r, title, message)
}

// JobChanged tells the requester how the work on their job is going.
func (n *notifier) JobChanged(ctx context.Context, actor workflow.Actor, r *model.Request, o workflow.JobOutcome) ([]uuid.UUID, error) {
	rc := newRecipients(actor.ID)
	rc.add(r.RequesterID)
	title := "Job " + strings.ToLower(strings.ReplaceAll(string(o.To), "_", " "))
	return n.send(ctx, rc, r, title, fmt.Sprintf("Work on %q is now %s", r.Title, o.To))
}

// Committed runs after a request mutation committed. Failures are logged; the
// mutation itself already succeeded.
func (n *notifier) Committed(ctx context.Context, r *model.Request, notified []uuid.UUID) {
	logger := log.WithField("request_id", r.ID)

	if err := n.store.Delete(ctx, cache.RequestKey(r.ID), cache.ActivityKey(r.ID)); err != nil {
		logger.WithError(err).Warn("failed to invalidate request cache")
	}
	prefixes := []string{cache.DepartmentKey(r.DepartmentID), cache.DashboardPrefix, cache.JobReportPrefix}
	for _, id := range notified {
		prefixes = append(prefixes, cache.NotificationsKey(id))
	}
	for _, p := range prefixes {
		if err := n.store.DeletePrefix(ctx, p); err != nil {
			logger.WithError(err).WithField("prefix", p).Warn("failed to invalidate cache")
		}
	}

	if err := n.events.Publish(ctx, event.RequestUpdated(r.ID)); err != nil {
		logger.WithError(err).Warn("failed to publish request update")
	}
	for _, id := range notified {
		if err := n.events.Publish(ctx, event.NotificationsFor(id)); err != nil {
			logger.WithError(err).WithField("user_id", id).Warn("failed to publish notifications event")
		}
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
