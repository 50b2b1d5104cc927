package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"requestdesk/internal/cache"
	"requestdesk/internal/model"
	"requestdesk/internal/repository"
	"requestdesk/internal/workflow"
)

// DTOs for Request validation
type RegisterRequest struct {
	Name         string     `json:"name" binding:"required,max=255"`
	Email        string     `json:"email" binding:"required,email"`
	Password     string     `json:"password" binding:"required,min=6"`
	DepartmentID *uuid.UUID `json:"department_id"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type UpdateRolesRequest struct {
	Roles        []model.Role `json:"roles" binding:"required,min=1,dive,role"`
	DepartmentID *uuid.UUID   `json:"department_id"`
}

type TokenResponse struct {
	Token        string        `json:"token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresAt    time.Time     `json:"expires_at"`
	User         *UserResponse `json:"user"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	DepartmentID *uuid.UUID   `json:"department_id"`
	Department   string       `json:"department,omitempty"`
	Roles        []model.Role `json:"roles"`
	CreatedAt    string       `json:"created_at"`
	UpdatedAt    string       `json:"updated_at"`
}

// Claims is the access token payload. Roles are informational; the
// middleware reloads the user on every request.
type Claims struct {
	Roles []model.Role `json:"roles"`
	jwt.RegisteredClaims
}

// UserService covers authentication and user administration.
type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, req RefreshTokenRequest) (*TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	// Authenticate resolves an access token to its current user.
	Authenticate(ctx context.Context, token string) (*model.User, error)
	Me(ctx context.Context, id uuid.UUID) (*UserResponse, error)
	ListUsers(ctx context.Context, f repository.UserFilter) ([]UserResponse, int64, error)
	UpdateRoles(ctx context.Context, actor workflow.Actor, id uuid.UUID, req UpdateRolesRequest) (*UserResponse, error)
}

type userService struct {
	repo        repository.UserRepository
	departments repository.DepartmentRepository
	store       cache.Store
	secret      []byte
	accessTTL   time.Duration
	refreshTTL  time.Duration
	now         func() time.Time
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository, departments repository.DepartmentRepository, store cache.Store, secret string, accessTTL, refreshTTL time.Duration) UserService {
	return &userService{
		repo:        repo,
		departments: departments,
		store:       store,
		secret:      []byte(secret),
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
		now:         time.Now,
	}
}

// Helper: parse model to standard json API response
func mapToResponse(user *model.User) *UserResponse {
	res := &UserResponse{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		DepartmentID: user.DepartmentID,
		Roles:        user.Roles,
		CreatedAt:    user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    user.UpdatedAt.Format(time.RFC3339),
	}
	if user.Department != nil {
		res.Department = user.Department.Name
	}
	return res
}

func (s *userService) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, newError(ErrConflict, "Email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	if req.DepartmentID != nil {
		if _, err := s.departments.FindByID(ctx, *req.DepartmentID); err != nil {
			return nil, catalogErr(err, "Department")
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Password:     string(hashedPassword),
		DepartmentID: req.DepartmentID,
		Roles:        []model.Role{model.RoleUser},
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.WithField("user_id", user.ID).Info("user registered")
	return mapToResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrUnauthorized, "Invalid email or password")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, newError(ErrUnauthorized, "Invalid email or password")
	}

	return s.issueTokens(ctx, user)
}

func (s *userService) Refresh(ctx context.Context, req RefreshTokenRequest) (*TokenResponse, error) {
	stored, err := s.repo.FindRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrUnauthorized, "Invalid refresh token")
		}
		return nil, fmt.Errorf("failed to load refresh token: %w", err)
	}
	// refresh tokens are single use
	if err := s.repo.DeleteRefreshToken(ctx, stored.Token); err != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if s.now().After(stored.ExpiresAt) {
		return nil, newError(ErrUnauthorized, "Refresh token expired")
	}

	user, err := s.repo.GetByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrUnauthorized, "Invalid refresh token")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return s.issueTokens(ctx, user)
}

func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.repo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (s *userService) issueTokens(ctx context.Context, user *model.User) (*TokenResponse, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	claims := Claims{
		Roles: user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	refresh := &model.RefreshToken{
		UserID:    user.ID,
		Token:     hex.EncodeToString(raw),
		ExpiresAt: now.Add(s.refreshTTL),
	}
	if err := s.repo.SaveRefreshToken(ctx, refresh); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return &TokenResponse{
		Token:        tokenString,
		RefreshToken: refresh.Token,
		ExpiresAt:    expiresAt,
		User:         mapToResponse(user),
	}, nil
}

func (s *userService) Authenticate(ctx context.Context, tokenString string) (*model.User, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, newError(ErrUnauthorized, "Invalid or expired token")
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, newError(ErrUnauthorized, "Invalid token subject")
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrUnauthorized, "User no longer exists")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (s *userService) Me(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "User")
	}
	return mapToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, f repository.UserFilter) ([]UserResponse, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 10
	}

	users, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapToResponse(&users[i]))
	}
	return responses, total, nil
}

func (s *userService) UpdateRoles(ctx context.Context, actor workflow.Actor, id uuid.UUID, req UpdateRolesRequest) (*UserResponse, error) {
	if !actor.IsAdmin() {
		return nil, newError(ErrForbidden, "Only administrators can change roles")
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "User")
	}
	previousDept := user.DepartmentID
	if user.ID == actor.ID && !containsRole(req.Roles, model.RoleAdmin) {
		return nil, newError(ErrValidation, "You cannot remove your own admin role")
	}

	if req.DepartmentID != nil {
		dept, err := s.departments.FindByID(ctx, *req.DepartmentID)
		if err != nil {
			return nil, catalogErr(err, "Department")
		}
		user.DepartmentID = &dept.ID
		user.Department = dept
	}
	user.Roles = dedupRoles(req.Roles)

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	log.WithFields(log.Fields{"user_id": user.ID, "roles": user.Roles, "by": actor.ID}).Info("user roles updated")
	s.forgetStaff(ctx, user.ID, previousDept, user.DepartmentID)
	return mapToResponse(user), nil
}

// forgetStaff drops cached views that depend on a user's roles or
// department: their dashboard and the staff lists of both departments.
func (s *userService) forgetStaff(ctx context.Context, userID uuid.UUID, depts ...*uuid.UUID) {
	prefixes := []string{cache.DashboardKey(userID)}
	for _, d := range depts {
		if d != nil {
			prefixes = append(prefixes, cache.DepartmentKey(*d))
		}
	}
	for _, p := range prefixes {
		if err := s.store.DeletePrefix(ctx, p); err != nil {
			log.WithError(err).WithField("prefix", p).Warn("failed to invalidate cache")
		}
	}
}

func containsRole(roles []model.Role, r model.Role) bool {
	for _, have := range roles {
		if have == r {
			return true
		}
	}
	return false
}

func dedupRoles(roles []model.Role) []model.Role {
	out := make([]model.Role, 0, len(roles))
	for _, r := range roles {
		if !containsRole(out, r) {
			out = append(out, r)
		}
	}
	return out
}
