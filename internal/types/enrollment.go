package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	EnrollmentStatusPending = "pending"
	EnrollmentStatusActive  = "active"
)

// Enrollment records paid access to a course. At most one row exists per
// (user, course) pair; an active row is what the access guard treats as
// proof of purchase.
type Enrollment struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_user_course,unique" json:"user_id"`
	User        *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	CourseID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_user_course,unique" json:"course_id"`
	Course      *Course        `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	Status      string         `gorm:"column:status;not null;default:'pending'" json:"status"`
	CheckoutRef string         `gorm:"column:checkout_ref;index" json:"checkout_ref,omitempty"`
	ActivatedAt *time.Time     `gorm:"column:activated_at" json:"activated_at,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Enrollment) TableName() string { return "enrollment" }

func (e *Enrollment) Active() bool {
	return e != nil && e.Status == EnrollmentStatusActive
}
