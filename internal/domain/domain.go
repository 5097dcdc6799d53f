package domain

import (
	"github.com/yungbote/regdraft-backend/internal/domain/reviews"
	"github.com/yungbote/regdraft-backend/internal/domain/submissions"
)

type (
	Submission         = submissions.Submission
	SubmissionStatus   = submissions.SubmissionStatus
	SubmissionType     = submissions.SubmissionType
	ComplianceStatus   = submissions.ComplianceStatus
	PredicateDevice    = submissions.PredicateDevice
	SupportingDocument = submissions.SupportingDocument
	StatusLog          = submissions.StatusLog
	KnowledgeEntry     = submissions.KnowledgeEntry

	Review          = reviews.Review
	ReviewStatus    = reviews.ReviewStatus
	ChecklistItem   = reviews.ChecklistItem
	DeficiencyLevel = reviews.DeficiencyLevel
)

const (
	SubmissionDraft         = submissions.StatusDraft
	SubmissionGenerating    = submissions.StatusGenerating
	SubmissionReviewPending = submissions.StatusReviewPending
	SubmissionApproved      = submissions.StatusApproved
	SubmissionRejected      = submissions.StatusRejected
	SubmissionSubmitted     = submissions.StatusSubmitted

	ComplianceCompliant    = submissions.ComplianceCompliant
	ComplianceNonCompliant = submissions.ComplianceNonCompliant
	ComplianceNeedsReview  = submissions.ComplianceNeedsReview

	ReviewDraft     = reviews.ReviewDraft
	ReviewActive    = reviews.ReviewActive
	ReviewApproved  = reviews.ReviewApproved
	ReviewRejected  = reviews.ReviewRejected
	ReviewAbandoned = reviews.ReviewAbandoned

	DeficiencyNone  = reviews.DeficiencyNone
	DeficiencyMinor = reviews.DeficiencyMinor
	DeficiencyMajor = reviews.DeficiencyMajor

	SubjectSubmission = submissions.SubjectSubmission
	SubjectReview     = submissions.SubjectReview
)

// AllModels lists every persisted model in migration order.
func AllModels() []any {
	return []any{
		&Submission{},
		&PredicateDevice{},
		&SupportingDocument{},
		&StatusLog{},
		&KnowledgeEntry{},
		&Review{},
		&ChecklistItem{},
	}
}
