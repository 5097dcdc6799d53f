package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/regdraft-backend/internal/data/repos"
	types "github.com/yungbote/regdraft-backend/internal/domain"
	"github.com/yungbote/regdraft-backend/internal/modules/compliance"
	"github.com/yungbote/regdraft-backend/internal/modules/generation"
	"github.com/yungbote/regdraft-backend/internal/platform/apierr"
	"github.com/yungbote/regdraft-backend/internal/platform/ctxutil"
	"github.com/yungbote/regdraft-backend/internal/platform/dbctx"
	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

// GenerationStore is the orchestrator's view of the database: it loads run
// inputs and saves finished drafts.
type GenerationStore struct {
	db          *gorm.DB
	log         *logger.Logger
	submissions repos.SubmissionRepo
	predicates  repos.PredicateDeviceRepo
	documents   repos.SupportingDocumentRepo
	statusLogs  repos.StatusLogRepo
	now         func() time.Time
}

func NewGenerationStore(
	db *gorm.DB,
	baseLog *logger.Logger,
	submissionRepo repos.SubmissionRepo,
	predicateRepo repos.PredicateDeviceRepo,
	documentRepo repos.SupportingDocumentRepo,
	statusLogRepo repos.StatusLogRepo,
) *GenerationStore {
	return &GenerationStore{
		db:          db,
		log:         baseLog.With("service", "GenerationStore"),
		submissions: submissionRepo,
		predicates:  predicateRepo,
		documents:   documentRepo,
		statusLogs:  statusLogRepo,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *GenerationStore) LoadSubmission(ctx context.Context, id uuid.UUID) (*types.Submission, error) {
	return s.submissions.GetByID(dbctx.Context{Ctx: ctx}, id)
}

// LoadPredicate prefers the catalogued record for the submission's K-number
// and falls back to the predicate fields stored on the submission itself.
func (s *GenerationStore) LoadPredicate(ctx context.Context, sub *types.Submission) (*types.PredicateDevice, error) {
	if sub.PredicateKNumber != "" {
		p, err := s.predicates.GetByKNumber(dbctx.Context{Ctx: ctx}, sub.PredicateKNumber)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, repos.ErrNotFound) {
			return nil, err
		}
	}
	if sub.PredicateKNumber == "" && sub.PredicateDeviceName == "" {
		return nil, nil
	}
	return &types.PredicateDevice{KNumber: sub.PredicateKNumber, DeviceName: sub.PredicateDeviceName}, nil
}

func (s *GenerationStore) LoadReviewedDocuments(ctx context.Context, id uuid.UUID) ([]*types.SupportingDocument, error) {
	return s.documents.ListReviewedBySubmission(dbctx.Context{Ctx: ctx}, id)
}

type complianceReport struct {
	Score     int                  `json:"score"`
	Analysis  string               `json:"analysis"`
	Findings  []compliance.Finding `json:"findings"`
	CheckedAt time.Time            `json:"checked_at"`
}

// complianceColumns renders a scoring result as the submission's compliance
// fields.
func complianceColumns(result compliance.Result, now time.Time) (map[string]any, error) {
	findings := result.Findings
	if findings == nil {
		findings = []compliance.Finding{}
	}
	report, err := json.Marshal(complianceReport{
		Score:     result.Score,
		Analysis:  result.Analysis,
		Findings:  findings,
		CheckedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("encode compliance report: %w", err)
	}
	return map[string]any{
		"compliance_score":  result.Score,
		"compliance_status": complianceStatusFor(result),
		"compliance_report": datatypes.JSON(report),
	}, nil
}

func complianceStatusFor(result compliance.Result) types.ComplianceStatus {
	if result.Compliant {
		return types.ComplianceCompliant
	}
	return types.ComplianceNonCompliant
}

// SaveGenerated writes the draft, the compliance outcome and the new status
// in one transaction, with a status log row for the change.
func (s *GenerationStore) SaveGenerated(ctx context.Context, id uuid.UUID, document string, result compliance.Result, newStatus types.SubmissionStatus) error {
	now := s.now()
	updates, err := complianceColumns(result, now)
	if err != nil {
		return err
	}
	updates["generated_document"] = document
	updates["status"] = newStatus
	updates["generated_at"] = now

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		current, err := s.submissions.GetByID(inner, id)
		if err != nil {
			return err
		}
		if err := s.submissions.UpdateFields(inner, id, updates); err != nil {
			return err
		}
		return s.statusLogs.Create(inner, &types.StatusLog{
			SubmissionID:   id,
			Subject:        types.SubjectSubmission,
			PreviousStatus: string(current.Status),
			NewStatus:      string(newStatus),
			ChangedBy:      ctxutil.Actor(ctx, "generation"),
			Notes:          fmt.Sprintf("Draft generated; compliance score %d", result.Score),
			ChangedAt:      now,
		})
	})
}

type GenerationService interface {
	// Start validates the submission and begins a run. The channel closes
	// when the run ends; cancelling ctx aborts it.
	Start(ctx context.Context, submissionID uuid.UUID) (<-chan generation.Event, error)
}

type generationService struct {
	log          *logger.Logger
	submissions  repos.SubmissionRepo
	orchestrator *generation.Orchestrator
}

func NewGenerationService(baseLog *logger.Logger, submissionRepo repos.SubmissionRepo, orchestrator *generation.Orchestrator) GenerationService {
	return &generationService{
		log:          baseLog.With("service", "GenerationService"),
		submissions:  submissionRepo,
		orchestrator: orchestrator,
	}
}

func (s *generationService) Start(ctx context.Context, submissionID uuid.UUID) (<-chan generation.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify(err, "submission_not_found")
	}
	sub, err := s.submissions.GetByID(dbctx.Context{Ctx: ctx}, submissionID)
	if err != nil {
		return nil, classify(err, "submission_not_found")
	}
	if strings.TrimSpace(sub.DeviceName) == "" {
		return nil, apierr.BadRequest("missing_device_name", fmt.Errorf("submission has no device name"))
	}
	events, err := s.orchestrator.Start(ctx, submissionID)
	if err != nil {
		return nil, classify(err, "submission_not_found")
	}
	s.log.Info("Generation started", "submission_id", submissionID)
	return events, nil
}
