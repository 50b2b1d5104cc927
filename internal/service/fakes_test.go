package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"requestdesk/internal/event"
	"requestdesk/internal/model"
	"requestdesk/internal/report"
	"requestdesk/internal/repository"
)

// clone deep-copies through JSON so callers never share state with the fakes.
func clone[T any](v *T) *T {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return &out
}

type fakeTx struct{ calls int }

func (t *fakeTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type fakeRequestRepo struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*model.Request
	files    []model.JobFile
	writes   int
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: map[uuid.UUID]*model.Request{}}
}

func (f *fakeRequestRepo) Create(_ context.Context, r *model.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	if r.JobRequest != nil {
		r.JobRequest.ID, r.JobRequest.RequestID = uuid.New(), r.ID
	}
	if r.VenueRequest != nil {
		r.VenueRequest.ID, r.VenueRequest.RequestID = uuid.New(), r.ID
	}
	if r.TransportRequest != nil {
		r.TransportRequest.ID, r.TransportRequest.RequestID = uuid.New(), r.ID
	}
	if r.SupplyRequest != nil {
		r.SupplyRequest.ID, r.SupplyRequest.RequestID = uuid.New(), r.ID
	}
	if r.ReturnableRequest != nil {
		r.ReturnableRequest.ID, r.ReturnableRequest.RequestID = uuid.New(), r.ID
	}
	items := r.Items()
	for i := range items {
		items[i].ID, items[i].RequestID = uuid.New(), r.ID
	}
	f.requests[r.ID] = clone(r)
	return nil
}

func (f *fakeRequestRepo) find(id uuid.UUID) (*model.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return clone(r), nil
}

func (f *fakeRequestRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Request, error) {
	return f.find(id)
}

func (f *fakeRequestRepo) FindForUpdate(_ context.Context, id uuid.UUID) (*model.Request, error) {
	return f.find(id)
}

func (f *fakeRequestRepo) match(r *model.Request, flt repository.RequestFilter) bool {
	switch {
	case flt.RequesterID != nil && r.RequesterID != *flt.RequesterID:
		return false
	case flt.DepartmentID != nil && r.DepartmentID != *flt.DepartmentID:
		return false
	case flt.AssigneeID != nil && (r.AssigneeID() == nil || *r.AssigneeID() != *flt.AssigneeID):
		return false
	case flt.Status != nil && r.Status != *flt.Status:
		return false
	case flt.Type != nil && r.Type != *flt.Type:
		return false
	}
	rg := report.Range{From: flt.From, To: flt.To}
	if rg.Contains(r.CreatedAt) {
		return true
	}
	return flt.OrCompleted && r.CompletedAt != nil && rg.Contains(*r.CompletedAt)
}

func (f *fakeRequestRepo) ListAll(_ context.Context, flt repository.RequestFilter) ([]model.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Request
	for _, r := range f.requests {
		if f.match(r, flt) {
			out = append(out, *clone(r))
		}
	}
	return out, nil
}

func (f *fakeRequestRepo) List(ctx context.Context, flt repository.RequestFilter) ([]model.Request, int64, error) {
	all, _ := f.ListAll(ctx, flt)
	return all, int64(len(all)), nil
}

func (f *fakeRequestRepo) ListScheduled(ctx context.Context, _, _ time.Time, dept *uuid.UUID) ([]model.Request, error) {
	return f.ListAll(ctx, repository.RequestFilter{DepartmentID: dept})
}

func (f *fakeRequestRepo) UpdateHeader(_ context.Context, r *model.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	stored := f.requests[r.ID]
	header := clone(r)
	header.JobRequest, header.VenueRequest, header.TransportRequest = stored.JobRequest, stored.VenueRequest, stored.TransportRequest
	header.SupplyRequest, header.ReturnableRequest = stored.SupplyRequest, stored.ReturnableRequest
	f.requests[r.ID] = header
	return nil
}

func (f *fakeRequestRepo) SaveDetail(_ context.Context, detail interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	for _, r := range f.requests {
		switch d := detail.(type) {
		case *model.JobRequest:
			if r.JobRequest != nil && r.JobRequest.ID == d.ID {
				files := r.JobRequest.Files
				r.JobRequest = clone(d)
				r.JobRequest.Files = files
			}
		case *model.VenueRequest:
			if r.VenueRequest != nil && r.VenueRequest.ID == d.ID {
				r.VenueRequest = clone(d)
			}
		case *model.TransportRequest:
			if r.TransportRequest != nil && r.TransportRequest.ID == d.ID {
				r.TransportRequest = clone(d)
			}
		case *model.SupplyRequest:
			if r.SupplyRequest != nil && r.SupplyRequest.ID == d.ID {
				items := r.SupplyRequest.Items
				r.SupplyRequest = clone(d)
				r.SupplyRequest.Items = items
			}
		case *model.ReturnableRequest:
			if r.ReturnableRequest != nil && r.ReturnableRequest.ID == d.ID {
				items := r.ReturnableRequest.Items
				r.ReturnableRequest = clone(d)
				r.ReturnableRequest.Items = items
			}
		}
	}
	return nil
}

func (f *fakeRequestRepo) itemsOf(r *model.Request) *[]model.RequestItem {
	switch {
	case r.SupplyRequest != nil:
		return &r.SupplyRequest.Items
	case r.ReturnableRequest != nil:
		return &r.ReturnableRequest.Items
	}
	return nil
}

func (f *fakeRequestRepo) AddItem(_ context.Context, item *model.RequestItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	item.ID = uuid.New()
	items := f.itemsOf(f.requests[item.RequestID])
	*items = append(*items, *item)
	return nil
}

func (f *fakeRequestRepo) UpdateItemQuantity(_ context.Context, itemID uuid.UUID, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	for _, r := range f.requests {
		if items := f.itemsOf(r); items != nil {
			for i := range *items {
				if (*items)[i].ID == itemID {
					(*items)[i].Quantity = quantity
				}
			}
		}
	}
	return nil
}

func (f *fakeRequestRepo) DeleteItem(_ context.Context, itemID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	for _, r := range f.requests {
		if items := f.itemsOf(r); items != nil {
			kept := (*items)[:0]
			for _, it := range *items {
				if it.ID != itemID {
					kept = append(kept, it)
				}
			}
			*items = kept
		}
	}
	return nil
}

func (f *fakeRequestRepo) AddJobFile(_ context.Context, file *model.JobFile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	file.ID = uuid.New()
	f.files = append(f.files, *file)
	for _, r := range f.requests {
		if r.JobRequest != nil && r.JobRequest.ID == file.JobRequestID {
			r.JobRequest.Files = append(r.JobRequest.Files, *file)
		}
	}
	return nil
}

func (f *fakeRequestRepo) FindJobFile(_ context.Context, requestID, fileID uuid.UUID) (*model.JobFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[requestID]
	if !ok || r.JobRequest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	for _, file := range r.JobRequest.Files {
		if file.ID == fileID {
			out := file
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeUserRepo struct {
	users  map[uuid.UUID]*model.User
	tokens map[string]*model.RefreshToken
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]*model.User{}, tokens: map[string]*model.RefreshToken{}}
}

func (f *fakeUserRepo) add(name string, dept *uuid.UUID, roles ...model.Role) *model.User {
	u := &model.User{ID: uuid.New(), Name: name, Email: name + "@example.com", DepartmentID: dept, Roles: roles}
	f.users[u.ID] = u
	return u
}

func (f *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	u.ID = uuid.New()
	out := *u
	f.users[u.ID] = &out
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *u
	return &out, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) List(_ context.Context, flt repository.UserFilter) ([]model.User, int64, error) {
	var out []model.User
	for _, u := range f.users {
		if flt.Role != "" && !u.HasRole(flt.Role) {
			continue
		}
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (f *fakeUserRepo) ListWithRole(_ context.Context, role model.Role, dept *uuid.UUID) ([]model.User, error) {
	var out []model.User
	for _, u := range f.users {
		if !u.HasRole(role) {
			continue
		}
		if dept != nil && (u.DepartmentID == nil || *u.DepartmentID != *dept) {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserRepo) Update(_ context.Context, u *model.User) error {
	out := *u
	f.users[u.ID] = &out
	return nil
}

func (f *fakeUserRepo) SaveRefreshToken(_ context.Context, t *model.RefreshToken) error {
	out := *t
	f.tokens[t.Token] = &out
	return nil
}

func (f *fakeUserRepo) FindRefreshToken(_ context.Context, token string) (*model.RefreshToken, error) {
	t, ok := f.tokens[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *t
	return &out, nil
}

func (f *fakeUserRepo) DeleteRefreshToken(_ context.Context, token string) error {
	delete(f.tokens, token)
	return nil
}

type fakeDepartmentRepo struct {
	depts map[uuid.UUID]*model.Department
}

func (f *fakeDepartmentRepo) add(name string) *model.Department {
	d := &model.Department{ID: uuid.New(), Name: name, Acronym: name}
	f.depts[d.ID] = d
	return d
}

func (f *fakeDepartmentRepo) Create(_ context.Context, d *model.Department) error {
	d.ID = uuid.New()
	out := *d
	f.depts[d.ID] = &out
	return nil
}

func (f *fakeDepartmentRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Department, error) {
	d, ok := f.depts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *d
	return &out, nil
}

func (f *fakeDepartmentRepo) FindByName(_ context.Context, name string) (*model.Department, error) {
	for _, d := range f.depts {
		if d.Name == name {
			out := *d
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeDepartmentRepo) List(context.Context) ([]model.Department, error) {
	var out []model.Department
	for _, d := range f.depts {
		out = append(out, *d)
	}
	return out, nil
}

type fakeCatalogRepo struct {
	venues   map[uuid.UUID]*model.Venue
	vehicles map[uuid.UUID]*model.Vehicle
	supplies map[uuid.UUID]*model.SupplyItem
}

func (f *fakeCatalogRepo) CreateVenue(_ context.Context, v *model.Venue) error {
	v.ID = uuid.New()
	f.venues[v.ID] = v
	return nil
}

func (f *fakeCatalogRepo) FindVenue(_ context.Context, id uuid.UUID) (*model.Venue, error) {
	if v, ok := f.venues[id]; ok {
		return v, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCatalogRepo) ListVenues(context.Context, *uuid.UUID) ([]model.Venue, error) {
	var out []model.Venue
	for _, v := range f.venues {
		out = append(out, *v)
	}
	return out, nil
}

func (f *fakeCatalogRepo) CreateVehicle(_ context.Context, v *model.Vehicle) error {
	v.ID = uuid.New()
	f.vehicles[v.ID] = v
	return nil
}

func (f *fakeCatalogRepo) FindVehicle(_ context.Context, id uuid.UUID) (*model.Vehicle, error) {
	if v, ok := f.vehicles[id]; ok {
		return v, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCatalogRepo) ListVehicles(context.Context, *uuid.UUID) ([]model.Vehicle, error) {
	var out []model.Vehicle
	for _, v := range f.vehicles {
		out = append(out, *v)
	}
	return out, nil
}

func (f *fakeCatalogRepo) CreateSupplyItem(_ context.Context, item *model.SupplyItem) error {
	item.ID = uuid.New()
	f.supplies[item.ID] = item
	return nil
}

func (f *fakeCatalogRepo) FindSupplyItems(_ context.Context, ids []uuid.UUID) ([]model.SupplyItem, error) {
	var out []model.SupplyItem
	for _, id := range ids {
		if it, ok := f.supplies[id]; ok {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (f *fakeCatalogRepo) ListSupplyItems(_ context.Context, _ *uuid.UUID, returnable *bool) ([]model.SupplyItem, error) {
	var out []model.SupplyItem
	for _, it := range f.supplies {
		if returnable == nil || it.Returnable == *returnable {
			out = append(out, *it)
		}
	}
	return out, nil
}

type fakeActivityRepo struct {
	entries []model.Activity
}

func (f *fakeActivityRepo) Log(_ context.Context, entries ...*model.Activity) error {
	for _, e := range entries {
		e.ID = uuid.New()
		f.entries = append(f.entries, *e)
	}
	return nil
}

func (f *fakeActivityRepo) ListByRequest(_ context.Context, id uuid.UUID) ([]model.Activity, error) {
	var out []model.Activity
	for _, e := range f.entries {
		if e.RequestID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeNotificationRepo struct {
	notes []model.Notification
}

func (f *fakeNotificationRepo) Create(_ context.Context, notes []model.Notification) error {
	for _, n := range notes {
		n.ID = uuid.New()
		f.notes = append(f.notes, n)
	}
	return nil
}

func (f *fakeNotificationRepo) ListByRecipient(_ context.Context, id uuid.UUID, _, _ int) ([]model.Notification, int64, error) {
	var out []model.Notification
	for _, n := range f.notes {
		if n.RecipientID == id {
			out = append(out, n)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeNotificationRepo) CountUnread(_ context.Context, id uuid.UUID) (int64, error) {
	var n int64
	for _, note := range f.notes {
		if note.RecipientID == id && note.ReadAt == nil {
			n++
		}
	}
	return n, nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, id, recipient uuid.UUID, at time.Time) error {
	for i := range f.notes {
		if f.notes[i].ID == id && f.notes[i].RecipientID == recipient {
			f.notes[i].ReadAt = &at
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeNotificationRepo) MarkAllRead(_ context.Context, recipient uuid.UUID, at time.Time) error {
	for i := range f.notes {
		if f.notes[i].RecipientID == recipient && f.notes[i].ReadAt == nil {
			f.notes[i].ReadAt = &at
		}
	}
	return nil
}

type fakePublisher struct {
	events []event.Event
}

func (p *fakePublisher) Publish(_ context.Context, e event.Event) error {
	p.events = append(p.events, e)
	return nil
}

func (p *fakePublisher) has(name string, id uuid.UUID) bool {
	for _, e := range p.events {
		if e.Event == name && e.ID == id {
			return true
		}
	}
	return false
}
