package types

import (
	"time"

	"github.com/google/uuid"
)

// Certificate is the issuance record unlocked by course completion. Rendering
// the printable artifact is the client's concern; this row is the proof.
type Certificate struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index:idx_user_course_cert,unique" json:"user_id"`
	User     *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;index:idx_user_course_cert,unique" json:"course_id"`
	Course   *Course   `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	Serial   string    `gorm:"column:serial;not null;uniqueIndex" json:"serial"`
	IssuedAt time.Time `gorm:"column:issued_at;not null" json:"issued_at"`
}

func (Certificate) TableName() string { return "certificate" }
