package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Role is a closed set of capabilities a user can hold. Roles are granted by
// membership; none of them implies another except ADMIN.
type Role string

const (
	RoleUser      Role = "USER"
	RolePersonnel Role = "PERSONNEL"
	RoleReviewer  Role = "REVIEWER"
	RoleApprover  Role = "APPROVER"
	RoleAdmin     Role = "ADMIN"
)

// Roles lists every known role.
var Roles = []Role{RoleUser, RolePersonnel, RoleReviewer, RoleApprover, RoleAdmin}

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RolePersonnel, RoleReviewer, RoleApprover, RoleAdmin:
		return true
	}
	return false
}

// User is a requester and/or a member of department staff
type User struct {
	ID           uuid.UUID                 `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string                    `gorm:"type:varchar(255);not null" json:"name"`
	Email        string                    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password     string                    `gorm:"type:varchar(255);not null" json:"-"`
	DepartmentID *uuid.UUID                `gorm:"type:uuid;index" json:"department_id"`
	Department   *Department               `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	Roles        datatypes.JSONSlice[Role] `gorm:"type:jsonb;not null" json:"roles"`
	CreatedAt    time.Time                 `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time                 `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt            `gorm:"index" json:"-"`
}

// HasRole reports whether the user holds role r.
func (u *User) HasRole(r Role) bool {
	for _, have := range u.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// RefreshToken stores long-lived tokens allowing users to request new access tokens
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Department groups staff; every request belongs to exactly one department.
type Department struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Acronym     string    `gorm:"type:varchar(20);not null" json:"acronym"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
