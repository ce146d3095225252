package models

import (
	"time"

	"github.com/google/uuid"
)

// Role gates which endpoints a user may reach.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleStaffGudang Role = "staff_gudang"
	RoleManajer     Role = "manajer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaffGudang, RoleManajer:
		return true
	}
	return false
}

type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Username     string    `json:"username" gorm:"type:varchar(150);not null;uniqueIndex"`
	FullName     string    `json:"fullName" gorm:"type:varchar(255)"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	Role         Role      `json:"role" gorm:"type:varchar(20);not null;default:'staff_gudang'"`
	Active       bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
