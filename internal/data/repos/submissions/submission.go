package submissions

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/regdraft-backend/internal/data/repos/repoerr"
	types "github.com/yungbote/regdraft-backend/internal/domain"
	"github.com/yungbote/regdraft-backend/internal/platform/dbctx"
	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

type SubmissionFilter struct {
	Status types.SubmissionStatus
	Offset int
	Limit  int
}

type SubmissionRepo interface {
	Create(dbc dbctx.Context, s *types.Submission) (*types.Submission, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Submission, error)
	List(dbc dbctx.Context, filter SubmissionFilter) ([]*types.Submission, int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	SoftDeleteByID(dbc dbctx.Context, id uuid.UUID) error
}

type submissionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubmissionRepo(db *gorm.DB, baseLog *logger.Logger) SubmissionRepo {
	repoLog := baseLog.With("repo", "SubmissionRepo")
	return &submissionRepo{db: db, log: repoLog}
}

func (r *submissionRepo) Create(dbc dbctx.Context, s *types.Submission) (*types.Submission, error) {
	if s == nil {
		return nil, fmt.Errorf("nil submission")
	}
	if err := dbc.DB(r.db).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

func (r *submissionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Submission, error) {
	var out types.Submission
	err := dbc.DB(r.db).Where("id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("submission %s: %w", id, repoerr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *submissionRepo) List(dbc dbctx.Context, filter SubmissionFilter) ([]*types.Submission, int64, error) {
	q := dbc.DB(r.db).Model(&types.Submission{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var results []*types.Submission
	if err := q.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r *submissionRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := dbc.DB(r.db).Model(&types.Submission{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("submission %s: %w", id, repoerr.ErrNotFound)
	}
	return nil
}

func (r *submissionRepo) SoftDeleteByID(dbc dbctx.Context, id uuid.UUID) error {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.Submission{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("submission %s: %w", id, repoerr.ErrNotFound)
	}
	return nil
}
