package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"requestdesk/internal/model"
)

// UserFilter narrows user listings
type UserFilter struct {
	DepartmentID *uuid.UUID
	Role         model.Role
	Page         int
	Limit        int
}

// UserRepository defines the interface for data access of User entities
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, f UserFilter) ([]model.User, int64, error)
	// ListWithRole returns every user holding role, optionally within one department.
	ListWithRole(ctx context.Context, role model.Role, departmentID *uuid.UUID) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error

	SaveRefreshToken(ctx context.Context, token *model.RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).Preload("Department").First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func roleContains(db *gorm.DB, role model.Role) *gorm.DB {
	return db.Where("roles @> ?::jsonb", `["`+string(role)+`"]`)
}

func (r *userRepository) List(ctx context.Context, f UserFilter) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := GetDB(ctx, r.db).Model(&model.User{})
	if f.DepartmentID != nil {
		db = db.Where("department_id = ?", *f.DepartmentID)
	}
	if f.Role != "" {
		db = roleContains(db, f.Role)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (f.Page - 1) * f.Limit
	if err := db.Preload("Department").Order("name asc").Offset(offset).Limit(f.Limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) ListWithRole(ctx context.Context, role model.Role, departmentID *uuid.UUID) ([]model.User, error) {
	var users []model.User
	db := roleContains(GetDB(ctx, r.db), role)
	if departmentID != nil {
		db = db.Where("department_id = ?", *departmentID)
	}
	err := db.Find(&users).Error
	return users, err
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Omit("Department").Save(user).Error
}

func (r *userRepository) SaveRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	return GetDB(ctx, r.db).Create(token).Error
}

func (r *userRepository) FindRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	var rt model.RefreshToken
	err := GetDB(ctx, r.db).First(&rt, "token = ? AND expires_at > ?", token, time.Now()).Error
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *userRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	return GetDB(ctx, r.db).Where("token = ?", token).Delete(&model.RefreshToken{}).Error
}
