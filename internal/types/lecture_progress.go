package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LectureProgress is one completion record per (user, lecture). CompletedAt is
// written once, when Completed first flips true, and never updated afterwards.
type LectureProgress struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_user_lecture,unique" json:"user_id"`
	User        *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	CourseID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"course_id"`
	Course      *Course        `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	LectureID   uuid.UUID      `gorm:"type:uuid;not null;index:idx_user_lecture,unique" json:"lecture_id"`
	Lecture     *Lecture       `gorm:"constraint:OnDelete:CASCADE;foreignKey:LectureID;references:ID" json:"lecture,omitempty"`
	Completed   bool           `gorm:"column:completed;not null;default:false" json:"completed"`
	CompletedAt *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (LectureProgress) TableName() string { return "lecture_progress" }
