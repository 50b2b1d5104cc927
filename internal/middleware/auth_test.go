package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"requestdesk/internal/model"
	"requestdesk/internal/service"
)

type stubAuth struct {
	users map[string]*model.User
}

func (s stubAuth) Authenticate(_ context.Context, token string) (*model.User, error) {
	if u, ok := s.users[token]; ok {
		return u, nil
	}
	return nil, &service.Error{Kind: service.ErrUnauthorized, Message: "Invalid or expired token"}
}

func newRouter(auth Authenticator, guards ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{Auth(auth)}, guards...)
	handlers = append(handlers, func(c *gin.Context) {
		actor, _ := CurrentActor(c)
		c.String(http.StatusOK, actor.ID.String())
	})
	r.GET("/me", handlers...)
	return r
}

func TestAuth(t *testing.T) {
	user := &model.User{ID: uuid.New(), Roles: []model.Role{model.RoleUser}}
	auth := stubAuth{users: map[string]*model.User{"good": user}}

	tests := []struct {
		name   string
		header string
		cookie string
		status int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"malformed header", "Token good", "", http.StatusUnauthorized},
		{"bad token", "Bearer nope", "", http.StatusUnauthorized},
		{"bearer", "Bearer good", "", http.StatusOK},
		{"cookie", "", "good", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AccessTokenName, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			newRouter(auth).ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.status, w.Body.String())
			}
			if tt.status == http.StatusOK && w.Body.String() != user.ID.String() {
				t.Errorf("actor = %s, want %s", w.Body.String(), user.ID)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	plain := &model.User{ID: uuid.New(), Roles: []model.Role{model.RoleUser}}
	reviewer := &model.User{ID: uuid.New(), Roles: []model.Role{model.RoleReviewer}}
	admin := &model.User{ID: uuid.New(), Roles: []model.Role{model.RoleAdmin}}
	auth := stubAuth{users: map[string]*model.User{"plain": plain, "reviewer": reviewer, "admin": admin}}
	router := newRouter(auth, RequireRole(model.RoleReviewer, model.RoleApprover))

	for token, want := range map[string]int{
		"plain":    http.StatusForbidden,
		"reviewer": http.StatusOK,
		"admin":    http.StatusOK,
	} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != want {
			t.Errorf("%s: status = %d, want %d", token, w.Code, want)
		}
	}
}
