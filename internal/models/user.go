package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleStudent    UserRole = "student"
	RoleInstructor UserRole = "instructor"
	RoleAdmin      UserRole = "admin"
)

// User mirrors the identity provider's user record. Only display fields are read here.
type User struct {
	ID        string   `json:"id" gorm:"primaryKey;size:255"`
	FullName  string   `json:"full_name" gorm:"size:100"`
	Email     string   `json:"email" gorm:"size:255"`
	Role      UserRole `json:"role" gorm:"size:20;default:student"`
	AvatarURL *string  `json:"avatar_url" gorm:"size:500"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
