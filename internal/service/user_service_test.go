package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"requestdesk/internal/cache"
	"requestdesk/internal/model"
	"requestdesk/internal/repository"
)

func newUserService(users *fakeUserRepo, depts *fakeDepartmentRepo) *userService {
	return NewUserService(users, depts, cache.NewMemoryStore(), "test-secret", time.Hour, 24*time.Hour).(*userService)
}

func TestRegisterLoginAuthenticate(t *testing.T) {
	users := newFakeUserRepo()
	svc := newUserService(users, &fakeDepartmentRepo{depts: map[uuid.UUID]*model.Department{}})
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterRequest{Name: "Rita", Email: "Rita@Example.com ", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Email != "rita@example.com" || len(u.Roles) != 1 || u.Roles[0] != model.RoleUser {
		t.Errorf("unexpected user %+v", u)
	}

	if _, err := svc.Register(ctx, RegisterRequest{Name: "Rita", Email: "rita@example.com", Password: "secret1"}); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate email: got %v", err)
	}

	if _, err := svc.Login(ctx, LoginUserRequest{Email: "rita@example.com", Password: "wrong"}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("wrong password: got %v", err)
	}

	tok, err := svc.Login(ctx, LoginUserRequest{Email: "rita@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if tok.Token == "" || tok.RefreshToken == "" {
		t.Fatal("tokens missing")
	}

	got, err := svc.Authenticate(ctx, tok.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("authenticated %s, want %s", got.ID, u.ID)
	}

	if _, err := svc.Authenticate(ctx, tok.Token+"x"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("tampered token: got %v", err)
	}
}

func TestAuthenticateRejectsExpiredToken(t *testing.T) {
	users := newFakeUserRepo()
	svc := newUserService(users, &fakeDepartmentRepo{depts: map[uuid.UUID]*model.Department{}})
	u := users.add("rita", nil, model.RoleUser)

	issued := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issued }
	tok, err := svc.issueTokens(context.Background(), u)
	if err != nil {
		t.Fatal(err)
	}

	svc.now = time.Now
	if _, err := svc.Authenticate(context.Background(), tok.Token); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expired token: got %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	users := newFakeUserRepo()
	svc := newUserService(users, &fakeDepartmentRepo{depts: map[uuid.UUID]*model.Department{}})
	u := users.add("rita", nil, model.RoleUser)
	ctx := context.Background()

	first, err := svc.issueTokens(ctx, u)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Refresh(ctx, RefreshTokenRequest{RefreshToken: first.RefreshToken})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Error("refresh token was not rotated")
	}
	if _, err := svc.Refresh(ctx, RefreshTokenRequest{RefreshToken: first.RefreshToken}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("reused refresh token: got %v", err)
	}

	if err := svc.Logout(ctx, second.RefreshToken); err != nil {
		t.Fatal(err)
	}
	if _, ok := users.tokens[second.RefreshToken]; ok {
		t.Error("logout should revoke the refresh token")
	}
}

func TestUpdateRoles(t *testing.T) {
	users := newFakeUserRepo()
	depts := &fakeDepartmentRepo{depts: map[uuid.UUID]*model.Department{}}
	svc := newUserService(users, depts)
	dept := depts.add("Facilities")
	admin := users.add("root", nil, model.RoleAdmin)
	target := users.add("pete", nil, model.RoleUser)
	ctx := context.Background()

	req := UpdateRolesRequest{Roles: []model.Role{model.RolePersonnel, model.RolePersonnel}, DepartmentID: &dept.ID}
	if _, err := svc.UpdateRoles(ctx, actorOf(target), target.ID, req); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-admin: got %v", err)
	}

	res, err := svc.UpdateRoles(ctx, actorOf(admin), target.ID, req)
	if err != nil {
		t.Fatalf("update roles: %v", err)
	}
	if len(res.Roles) != 1 || res.Roles[0] != model.RolePersonnel {
		t.Errorf("roles = %v", res.Roles)
	}
	if res.DepartmentID == nil || *res.DepartmentID != dept.ID {
		t.Error("department not assigned")
	}

	_, err = svc.UpdateRoles(ctx, actorOf(admin), admin.ID, UpdateRolesRequest{Roles: []model.Role{model.RoleUser}})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("admin demoting self: got %v", err)
	}

	list, total, err := svc.ListUsers(ctx, repository.UserFilter{Role: model.RolePersonnel})
	if err != nil || total != 1 || list[0].ID != target.ID {
		t.Errorf("list personnel: %v %d %v", list, total, err)
	}
}

func TestUpdateRolesInvalidatesStaffViews(t *testing.T) {
	users := newFakeUserRepo()
	depts := &fakeDepartmentRepo{depts: map[uuid.UUID]*model.Department{}}
	svc := newUserService(users, depts)
	store := svc.store.(*cache.MemoryStore)
	from, to := depts.add("Facilities"), depts.add("Transport")
	admin := users.add("root", nil, model.RoleAdmin)
	target := users.add("pete", &from.ID, model.RolePersonnel)
	other := users.add("rita", nil, model.RoleUser)
	ctx := context.Background()

	stale := []string{
		cache.DepartmentKey(from.ID),
		cache.DepartmentKey(from.ID) + ":insights:::month",
		cache.DepartmentKey(to.ID),
		cache.DashboardKey(target.ID, "", "", "day"),
	}
	kept := []string{
		cache.DashboardKey(other.ID, "", "", "day"),
		cache.RequestKey(uuid.New()),
	}
	for _, k := range append(append([]string{}, stale...), kept...) {
		if err := store.Set(ctx, k, "cached", time.Minute); err != nil {
			t.Fatal(err)
		}
	}

	req := UpdateRolesRequest{Roles: []model.Role{model.RoleReviewer}, DepartmentID: &to.ID}
	if _, err := svc.UpdateRoles(ctx, actorOf(admin), target.ID, req); err != nil {
		t.Fatalf("update roles: %v", err)
	}

	left := map[string]bool{}
	for _, k := range store.Keys() {
		left[k] = true
	}
	for _, k := range stale {
		if left[k] {
			t.Errorf("%q survived a role change", k)
		}
	}
	for _, k := range kept {
		if !left[k] {
			t.Errorf("%q was invalidated", k)
		}
	}
}
