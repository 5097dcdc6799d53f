package submissions

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SupportingDocument is metadata for a file uploaded against a submission.
// Only documents with AIReviewed set contribute their summary to generation.
type SupportingDocument struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SubmissionID    uuid.UUID `gorm:"type:uuid;not null;index" json:"submission_id"`
	DocumentType    string    `gorm:"column:document_type;not null" json:"document_type"`
	Filename        string    `gorm:"column:filename;not null" json:"filename"`
	StorageKey      string    `gorm:"column:storage_key" json:"storage_key,omitempty"`
	FileSize        int64     `gorm:"column:file_size" json:"file_size"`
	MimeType        string    `gorm:"column:mime_type" json:"mime_type,omitempty"`
	UploadedBy      string    `gorm:"column:uploaded_by" json:"uploaded_by,omitempty"`
	AIReviewed      bool      `gorm:"column:ai_reviewed;not null;index" json:"ai_reviewed"`
	AIReviewSummary string    `gorm:"column:ai_review_summary" json:"ai_review_summary,omitempty"`
	Status          string    `gorm:"column:status;not null" json:"status"`
	CreatedAt       time.Time `gorm:"not null" json:"uploaded_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}

func (SupportingDocument) TableName() string { return "supporting_document" }

func (d *SupportingDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Status == "" {
		d.Status = "uploaded"
	}
	return nil
}
