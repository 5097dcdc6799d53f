package submissions

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SubmissionStatus string

const (
	StatusDraft         SubmissionStatus = "draft"
	StatusGenerating    SubmissionStatus = "generating"
	StatusReviewPending SubmissionStatus = "review_pending"
	StatusApproved      SubmissionStatus = "approved"
	StatusRejected      SubmissionStatus = "rejected"
	StatusSubmitted     SubmissionStatus = "submitted"
)

func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusGenerating, StatusReviewPending, StatusApproved, StatusRejected, StatusSubmitted:
		return true
	}
	return false
}

type ComplianceStatus string

const (
	ComplianceCompliant    ComplianceStatus = "compliant"
	ComplianceNonCompliant ComplianceStatus = "non_compliant"
	ComplianceNeedsReview  ComplianceStatus = "needs_review"
)

type SubmissionType string

const (
	Type510k   SubmissionType = "510k"
	TypePMA    SubmissionType = "pma"
	TypeDeNovo SubmissionType = "de_novo"
	TypeIDE    SubmissionType = "ide"
)

func (t SubmissionType) Valid() bool {
	switch t {
	case Type510k, TypePMA, TypeDeNovo, TypeIDE:
		return true
	}
	return false
}

// Submission is a device dossier under preparation. GeneratedDocument and the
// compliance fields are only ever written by a successful generation run.
type Submission struct {
	ID                  uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	SubmissionType      SubmissionType   `gorm:"column:submission_type;not null" json:"submission_type"`
	Status              SubmissionStatus `gorm:"column:status;not null;index" json:"status"`
	DeviceName          string           `gorm:"column:device_name;not null" json:"device_name"`
	DeviceDescription   string           `gorm:"column:device_description" json:"device_description,omitempty"`
	Manufacturer        string           `gorm:"column:manufacturer" json:"manufacturer,omitempty"`
	IndicationsForUse   string           `gorm:"column:indications_for_use" json:"indications_for_use,omitempty"`
	PredicateDeviceName string           `gorm:"column:predicate_device_name" json:"predicate_device_name,omitempty"`
	PredicateKNumber    string           `gorm:"column:predicate_k_number;index" json:"predicate_k_number,omitempty"`
	ClinicalData        datatypes.JSON   `gorm:"column:clinical_data" json:"clinical_data,omitempty"`

	GeneratedDocument *string          `gorm:"column:generated_document" json:"generated_document,omitempty"`
	ComplianceScore   *int             `gorm:"column:compliance_score" json:"compliance_score,omitempty"`
	ComplianceStatus  ComplianceStatus `gorm:"column:compliance_status;not null" json:"compliance_status"`
	ComplianceReport  datatypes.JSON   `gorm:"column:compliance_report" json:"compliance_report,omitempty"`
	GeneratedAt       *time.Time       `gorm:"column:generated_at" json:"generated_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Submission) TableName() string { return "submission" }

func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = StatusDraft
	}
	if s.ComplianceStatus == "" {
		s.ComplianceStatus = ComplianceNeedsReview
	}
	return nil
}
