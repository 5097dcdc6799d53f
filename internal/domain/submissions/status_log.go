package submissions

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SubjectSubmission = "submission"
	SubjectReview     = "review"
)

// StatusLog is an append-only audit row for status changes of a submission
// or one of its review rounds.
type StatusLog struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SubmissionID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"submission_id"`
	ReviewID       *uuid.UUID `gorm:"type:uuid;index" json:"review_id,omitempty"`
	Subject        string     `gorm:"column:subject;not null" json:"subject"`
	PreviousStatus string     `gorm:"column:previous_status" json:"previous_status"`
	NewStatus      string     `gorm:"column:new_status;not null" json:"new_status"`
	ChangedBy      string     `gorm:"column:changed_by" json:"changed_by"`
	Notes          string     `gorm:"column:notes" json:"notes,omitempty"`
	ChangedAt      time.Time  `gorm:"column:changed_at;not null;index" json:"changed_at"`
}

func (StatusLog) TableName() string { return "submission_status_log" }

func (l *StatusLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.ChangedAt.IsZero() {
		l.ChangedAt = time.Now().UTC()
	}
	return nil
}
