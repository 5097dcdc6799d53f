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

type SupportingDocumentRepo interface {
	Create(dbc dbctx.Context, doc *types.SupportingDocument) (*types.SupportingDocument, error)
	ListBySubmission(dbc dbctx.Context, submissionID uuid.UUID) ([]*types.SupportingDocument, error)
	ListReviewedBySubmission(dbc dbctx.Context, submissionID uuid.UUID) ([]*types.SupportingDocument, error)
	SetAIReview(dbc dbctx.Context, submissionID, docID uuid.UUID, summary string) error
	Delete(dbc dbctx.Context, submissionID, docID uuid.UUID) (*types.SupportingDocument, error)
}

type supportingDocumentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSupportingDocumentRepo(db *gorm.DB, baseLog *logger.Logger) SupportingDocumentRepo {
	repoLog := baseLog.With("repo", "SupportingDocumentRepo")
	return &supportingDocumentRepo{db: db, log: repoLog}
}

func (r *supportingDocumentRepo) Create(dbc dbctx.Context, doc *types.SupportingDocument) (*types.SupportingDocument, error) {
	if err := dbc.DB(r.db).Create(doc).Error; err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *supportingDocumentRepo) ListBySubmission(dbc dbctx.Context, submissionID uuid.UUID) ([]*types.SupportingDocument, error) {
	var results []*types.SupportingDocument
	if err := dbc.DB(r.db).
		Where("submission_id = ?", submissionID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *supportingDocumentRepo) ListReviewedBySubmission(dbc dbctx.Context, submissionID uuid.UUID) ([]*types.SupportingDocument, error) {
	var results []*types.SupportingDocument
	if err := dbc.DB(r.db).
		Where("submission_id = ? AND ai_reviewed = ?", submissionID, true).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *supportingDocumentRepo) SetAIReview(dbc dbctx.Context, submissionID, docID uuid.UUID, summary string) error {
	res := dbc.DB(r.db).Model(&types.SupportingDocument{}).
		Where("id = ? AND submission_id = ?", docID, submissionID).
		Updates(map[string]any{
			"ai_reviewed":       true,
			"ai_review_summary": summary,
			"status":            "reviewed",
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("supporting document %s: %w", docID, repoerr.ErrNotFound)
	}
	return nil
}

// Delete removes the document row and returns it so callers can clean up the
// stored object it referenced.
func (r *supportingDocumentRepo) Delete(dbc dbctx.Context, submissionID, docID uuid.UUID) (*types.SupportingDocument, error) {
	var doc types.SupportingDocument
	err := dbc.DB(r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND submission_id = ?", docID, submissionID).First(&doc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("supporting document %s: %w", docID, repoerr.ErrNotFound)
			}
			return err
		}
		return tx.Delete(&types.SupportingDocument{}, "id = ?", docID).Error
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
