package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/regdraft-backend/internal/data/repos"
	types "github.com/yungbote/regdraft-backend/internal/domain"
	"github.com/yungbote/regdraft-backend/internal/modules/compliance"
	"github.com/yungbote/regdraft-backend/internal/modules/generation"
	"github.com/yungbote/regdraft-backend/internal/platform/apierr"
	"github.com/yungbote/regdraft-backend/internal/platform/dbctx"
	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

type ComplianceCheck struct {
	SubmissionID     uuid.UUID              `json:"submission_id"`
	ComplianceStatus types.ComplianceStatus `json:"compliance_status"`
	Score            int                    `json:"score"`
	Compliant        bool                   `json:"compliant"`
	Findings         []compliance.Finding   `json:"findings"`
	Analysis         string                 `json:"analysis,omitempty"`
	CheckedAt        time.Time              `json:"checked_at"`
}

// ComplianceService re-scores a stored draft outside of a generation run.
// Only the compliance fields change; the submission status is left alone.
type ComplianceService interface {
	Check(dbc dbctx.Context, submissionID uuid.UUID) (*ComplianceCheck, error)
}

type complianceService struct {
	db          *gorm.DB
	log         *logger.Logger
	submissions repos.SubmissionRepo
	scorer      generation.Scorer
	now         func() time.Time
}

func NewComplianceService(db *gorm.DB, baseLog *logger.Logger, submissionRepo repos.SubmissionRepo, scorer generation.Scorer) ComplianceService {
	return &complianceService{
		db:          db,
		log:         baseLog.With("service", "ComplianceService"),
		submissions: submissionRepo,
		scorer:      scorer,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *complianceService) Check(dbc dbctx.Context, submissionID uuid.UUID) (*ComplianceCheck, error) {
	sub, err := s.submissions.GetByID(dbc, submissionID)
	if err != nil {
		return nil, classify(err, "submission_not_found")
	}
	if sub.GeneratedDocument == nil || strings.TrimSpace(*sub.GeneratedDocument) == "" {
		return nil, apierr.Conflict("draft_not_generated", fmt.Errorf("submission has no generated draft to check"))
	}

	result, err := s.scorer.Score(dbc.Ctx, *sub.GeneratedDocument)
	if err != nil {
		if dbc.Ctx.Err() != nil {
			return nil, classify(dbc.Ctx.Err(), "submission_not_found")
		}
		return nil, fmt.Errorf("score draft: %w", err)
	}

	now := s.now()
	updates, err := complianceColumns(result, now)
	if err != nil {
		return nil, err
	}
	if err := s.submissions.UpdateFields(dbc, submissionID, updates); err != nil {
		return nil, classify(err, "submission_not_found")
	}
	s.log.Info("Compliance re-checked", "submission_id", submissionID, "score", result.Score, "compliant", result.Compliant)

	findings := result.Findings
	if findings == nil {
		findings = []compliance.Finding{}
	}
	return &ComplianceCheck{
		SubmissionID:     submissionID,
		ComplianceStatus: complianceStatusFor(result),
		Score:            result.Score,
		Compliant:        result.Compliant,
		Findings:         findings,
		Analysis:         result.Analysis,
		CheckedAt:        now,
	}, nil
}
