package submissions

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/regdraft-backend/internal/domain"
	"github.com/yungbote/regdraft-backend/internal/platform/dbctx"
	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

type StatusLogRepo interface {
	Create(dbc dbctx.Context, entry *types.StatusLog) error
	ListBySubmission(dbc dbctx.Context, submissionID uuid.UUID) ([]*types.StatusLog, error)
}

type statusLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStatusLogRepo(db *gorm.DB, baseLog *logger.Logger) StatusLogRepo {
	repoLog := baseLog.With("repo", "StatusLogRepo")
	return &statusLogRepo{db: db, log: repoLog}
}

func (r *statusLogRepo) Create(dbc dbctx.Context, entry *types.StatusLog) error {
	return dbc.DB(r.db).Create(entry).Error
}

// ListBySubmission returns history newest first.
func (r *statusLogRepo) ListBySubmission(dbc dbctx.Context, submissionID uuid.UUID) ([]*types.StatusLog, error) {
	var results []*types.StatusLog
	if err := dbc.DB(r.db).
		Where("submission_id = ?", submissionID).
		Order("changed_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
