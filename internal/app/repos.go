package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/regdraft-backend/internal/data/repos"
	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

type Repos struct {
	Submission    repos.SubmissionRepo
	Predicate     repos.PredicateDeviceRepo
	Document      repos.SupportingDocumentRepo
	StatusLog     repos.StatusLogRepo
	Knowledge     repos.KnowledgeEntryRepo
	Review        repos.ReviewRepo
	ChecklistItem repos.ChecklistItemRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Submission:    repos.NewSubmissionRepo(db, log),
		Predicate:     repos.NewPredicateDeviceRepo(db, log),
		Document:      repos.NewSupportingDocumentRepo(db, log),
		StatusLog:     repos.NewStatusLogRepo(db, log),
		Knowledge:     repos.NewKnowledgeEntryRepo(db, log),
		Review:        repos.NewReviewRepo(db, log),
		ChecklistItem: repos.NewChecklistItemRepo(db, log),
	}
}
