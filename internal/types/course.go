package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Course struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatorID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"creator_id"`
	Creator     *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:CreatorID;references:ID" json:"creator,omitempty"`
	Title       string         `gorm:"column:title;not null" json:"title"`
	Description string         `gorm:"column:description" json:"description"`
	Category    string         `gorm:"column:category" json:"category"`
	Level       string         `gorm:"column:level" json:"level"`
	PriceCents  int64          `gorm:"column:price_cents;not null;default:0" json:"price_cents"`
	ImageURL    string         `gorm:"column:image_url" json:"image_url"`
	IsPublished bool           `gorm:"column:is_published;not null;default:false" json:"is_published"`
	Metadata    datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	// Lectures are ordered by Position; that order defines lecture numbering
	// and the default "next lecture" progression.
	Lectures  []*Lecture     `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"lectures,omitempty"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Course) TableName() string { return "course" }

// LectureIDs returns the ids of the course lectures in position order.
func (c *Course) LectureIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Lectures))
	for _, l := range c.Lectures {
		if l != nil {
			ids = append(ids, l.ID)
		}
	}
	return ids
}

// HasFreePreview reports whether any lecture is viewable without enrollment.
func (c *Course) HasFreePreview() bool {
	for _, l := range c.Lectures {
		if l != nil && l.IsPreviewFree {
			return true
		}
	}
	return false
}
