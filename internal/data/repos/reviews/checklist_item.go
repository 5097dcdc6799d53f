package reviews

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

type ChecklistItemRepo interface {
	GetByID(dbc dbctx.Context, reviewID, itemID uuid.UUID) (*types.ChecklistItem, error)
	ListByReview(dbc dbctx.Context, reviewID uuid.UUID) ([]*types.ChecklistItem, error)
	UpdateFields(dbc dbctx.Context, reviewID, itemID uuid.UUID, updates map[string]any) error
}

type checklistItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChecklistItemRepo(db *gorm.DB, baseLog *logger.Logger) ChecklistItemRepo {
	repoLog := baseLog.With("repo", "ChecklistItemRepo")
	return &checklistItemRepo{db: db, log: repoLog}
}

func (r *checklistItemRepo) GetByID(dbc dbctx.Context, reviewID, itemID uuid.UUID) (*types.ChecklistItem, error) {
	var out types.ChecklistItem
	err := dbc.DB(r.db).Where("id = ? AND review_id = ?", itemID, reviewID).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("checklist item %s: %w", itemID, repoerr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *checklistItemRepo) ListByReview(dbc dbctx.Context, reviewID uuid.UUID) ([]*types.ChecklistItem, error) {
	var results []*types.ChecklistItem
	if err := dbc.DB(r.db).
		Where("review_id = ?", reviewID).
		Order("section_number ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *checklistItemRepo) UpdateFields(dbc dbctx.Context, reviewID, itemID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := dbc.DB(r.db).Model(&types.ChecklistItem{}).
		Where("id = ? AND review_id = ?", itemID, reviewID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("checklist item %s: %w", itemID, repoerr.ErrNotFound)
	}
	return nil
}
