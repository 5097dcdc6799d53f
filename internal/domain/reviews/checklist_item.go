package reviews

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeficiencyLevel string

const (
	DeficiencyNone  DeficiencyLevel = "none"
	DeficiencyMinor DeficiencyLevel = "minor"
	DeficiencyMajor DeficiencyLevel = "major"
)

func (d DeficiencyLevel) Valid() bool {
	return d == DeficiencyNone || d == DeficiencyMinor || d == DeficiencyMajor
}

// ChecklistItem is one section of a review round's checklist.
// SectionNumber and SectionName are fixed at seeding time.
type ChecklistItem struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ReviewID            uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_checklist_review_section,priority:1" json:"review_id"`
	SectionNumber       int             `gorm:"column:section_number;not null;uniqueIndex:idx_checklist_review_section,priority:2" json:"section_number"`
	SectionName         string          `gorm:"column:section_name;not null" json:"section_name"`
	IsApplicable        bool            `gorm:"column:is_applicable;not null" json:"is_applicable"`
	IsComplete          bool            `gorm:"column:is_complete;not null" json:"is_complete"`
	CompletenessPercent int             `gorm:"column:completeness_percent;not null" json:"completeness_percent"`
	DeficiencyLevel     DeficiencyLevel `gorm:"column:deficiency_level;not null" json:"deficiency_level"`
	Assignee            string          `gorm:"column:assignee" json:"assignee,omitempty"`
	ReviewerNotes       string          `gorm:"column:reviewer_notes" json:"reviewer_notes,omitempty"`
	CheckedAt           *time.Time      `gorm:"column:checked_at" json:"checked_at,omitempty"`
	CreatedAt           time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"not null" json:"updated_at"`
}

func (ChecklistItem) TableName() string { return "review_checklist_item" }

func (i *ChecklistItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.DeficiencyLevel == "" {
		i.DeficiencyLevel = DeficiencyNone
	}
	return nil
}
