package reviews

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/regdraft-backend/internal/data/repos/repoerr"
	types "github.com/yungbote/regdraft-backend/internal/domain"
	"github.com/yungbote/regdraft-backend/internal/platform/dbctx"
	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

type ReviewRepo interface {
	// Create inserts the review and its seeded items in one statement batch.
	Create(dbc dbctx.Context, r *types.Review) (*types.Review, error)
	GetByID(dbc dbctx.Context, submissionID, reviewID uuid.UUID) (*types.Review, error)
	GetWithItems(dbc dbctx.Context, submissionID, reviewID uuid.UUID) (*types.Review, error)
	// LockByID reads the review under a row lock where the dialect supports one.
	LockByID(dbc dbctx.Context, submissionID, reviewID uuid.UUID) (*types.Review, error)
	ListBySubmission(dbc dbctx.Context, submissionID uuid.UUID) ([]*types.Review, error)
	// Latest returns the highest round for the submission, or nil when none exists.
	Latest(dbc dbctx.Context, submissionID uuid.UUID) (*types.Review, error)
	UpdateFields(dbc dbctx.Context, reviewID uuid.UUID, updates map[string]any) error
}

type reviewRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewRepo(db *gorm.DB, baseLog *logger.Logger) ReviewRepo {
	repoLog := baseLog.With("repo", "ReviewRepo")
	return &reviewRepo{db: db, log: repoLog}
}

func (r *reviewRepo) Create(dbc dbctx.Context, rev *types.Review) (*types.Review, error) {
	if err := dbc.DB(r.db).Create(rev).Error; err != nil {
		return nil, err
	}
	return rev, nil
}

func (r *reviewRepo) GetByID(dbc dbctx.Context, submissionID, reviewID uuid.UUID) (*types.Review, error) {
	return r.first(dbc.DB(r.db), submissionID, reviewID)
}

func (r *reviewRepo) GetWithItems(dbc dbctx.Context, submissionID, reviewID uuid.UUID) (*types.Review, error) {
	q := dbc.DB(r.db).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("section_number ASC")
	})
	return r.first(q, submissionID, reviewID)
}

func (r *reviewRepo) LockByID(dbc dbctx.Context, submissionID, reviewID uuid.UUID) (*types.Review, error) {
	q := dbc.DB(r.db)
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.first(q, submissionID, reviewID)
}

func (r *reviewRepo) first(q *gorm.DB, submissionID, reviewID uuid.UUID) (*types.Review, error) {
	var out types.Review
	err := q.Where("id = ? AND submission_id = ?", reviewID, submissionID).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("review %s: %w", reviewID, repoerr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *reviewRepo) ListBySubmission(dbc dbctx.Context, submissionID uuid.UUID) ([]*types.Review, error) {
	var results []*types.Review
	if err := dbc.DB(r.db).
		Where("submission_id = ?", submissionID).
		Order("round ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *reviewRepo) Latest(dbc dbctx.Context, submissionID uuid.UUID) (*types.Review, error) {
	var results []*types.Review
	if err := dbc.DB(r.db).
		Where("submission_id = ?", submissionID).
		Order("round DESC").
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *reviewRepo) UpdateFields(dbc dbctx.Context, reviewID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := dbc.DB(r.db).Model(&types.Review{}).Where("id = ?", reviewID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("review %s: %w", reviewID, repoerr.ErrNotFound)
	}
	return nil
}
