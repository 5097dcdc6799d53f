package repos

import (
	"github.com/yungbote/regdraft-backend/internal/data/repos/repoerr"
	"github.com/yungbote/regdraft-backend/internal/data/repos/reviews"
	"github.com/yungbote/regdraft-backend/internal/data/repos/submissions"
	"github.com/yungbote/regdraft-backend/internal/platform/logger"
	"gorm.io/gorm"
)

var ErrNotFound = repoerr.ErrNotFound

type SubmissionRepo = submissions.SubmissionRepo
type SubmissionFilter = submissions.SubmissionFilter
type PredicateDeviceRepo = submissions.PredicateDeviceRepo
type SupportingDocumentRepo = submissions.SupportingDocumentRepo
type StatusLogRepo = submissions.StatusLogRepo
type KnowledgeEntryRepo = submissions.KnowledgeEntryRepo
type KnowledgeFilter = submissions.KnowledgeFilter
type KnowledgeStats = submissions.KnowledgeStats

type ReviewRepo = reviews.ReviewRepo
type ChecklistItemRepo = reviews.ChecklistItemRepo

func NewSubmissionRepo(db *gorm.DB, log *logger.Logger) SubmissionRepo {
	return submissions.NewSubmissionRepo(db, log)
}
func NewPredicateDeviceRepo(db *gorm.DB, log *logger.Logger) PredicateDeviceRepo {
	return submissions.NewPredicateDeviceRepo(db, log)
}
func NewSupportingDocumentRepo(db *gorm.DB, log *logger.Logger) SupportingDocumentRepo {
	return submissions.NewSupportingDocumentRepo(db, log)
}
func NewStatusLogRepo(db *gorm.DB, log *logger.Logger) StatusLogRepo {
	return submissions.NewStatusLogRepo(db, log)
}
func NewKnowledgeEntryRepo(db *gorm.DB, log *logger.Logger) KnowledgeEntryRepo {
	return submissions.NewKnowledgeEntryRepo(db, log)
}

func NewReviewRepo(db *gorm.DB, log *logger.Logger) ReviewRepo {
	return reviews.NewReviewRepo(db, log)
}
func NewChecklistItemRepo(db *gorm.DB, log *logger.Logger) ChecklistItemRepo {
	return reviews.NewChecklistItemRepo(db, log)
}
