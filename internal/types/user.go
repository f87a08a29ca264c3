package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string         `gorm:"column:name;not null" json:"name"`
	Email        string         `gorm:"column:email;not null;uniqueIndex" json:"email"`
	Password     string         `gorm:"column:password;not null" json:"-"`
	Role         string         `gorm:"column:role;not null;default:'student'" json:"role"`
	IsVerified   bool           `gorm:"column:is_verified;not null;default:false" json:"is_verified"`
	OTPCode      string         `gorm:"column:otp_code" json:"-"`
	OTPExpiresAt *time.Time     `gorm:"column:otp_expires_at" json:"-"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }
