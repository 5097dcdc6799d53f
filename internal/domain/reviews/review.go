package reviews

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReviewStatus string

const (
	ReviewDraft     ReviewStatus = "draft"
	ReviewActive    ReviewStatus = "active"
	ReviewApproved  ReviewStatus = "approved"
	ReviewRejected  ReviewStatus = "rejected"
	ReviewAbandoned ReviewStatus = "abandoned"
)

// Terminal reports whether no further mutation is accepted for a review in s.
func (s ReviewStatus) Terminal() bool {
	return s == ReviewApproved || s == ReviewRejected || s == ReviewAbandoned
}

// Review is one round of human review over a submission's generated draft.
// OverallProgressPercent is derived from Items and never set by callers.
type Review struct {
	ID                     uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	SubmissionID           uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_review_submission_round,priority:1" json:"submission_id"`
	Round                  int          `gorm:"column:round;not null;uniqueIndex:idx_review_submission_round,priority:2" json:"round"`
	ReviewerName           string       `gorm:"column:reviewer_name;not null" json:"reviewer_name"`
	Status                 ReviewStatus `gorm:"column:status;not null;index" json:"status"`
	OverallProgressPercent int          `gorm:"column:overall_progress_percent;not null" json:"overall_progress_percent"`
	OverallNotes           string       `gorm:"column:overall_notes" json:"overall_notes,omitempty"`
	StartedAt              *time.Time   `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt            *time.Time   `gorm:"column:completed_at" json:"completed_at,omitempty"`

	Items []ChecklistItem `gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE" json:"checklist_items,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Review) TableName() string { return "review" }

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = ReviewDraft
	}
	return nil
}
