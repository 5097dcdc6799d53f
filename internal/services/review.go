package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/regdraft-backend/internal/data/repos"
	types "github.com/yungbote/regdraft-backend/internal/domain"
	"github.com/yungbote/regdraft-backend/internal/modules/review"
	"github.com/yungbote/regdraft-backend/internal/observability"
	"github.com/yungbote/regdraft-backend/internal/platform/apierr"
	"github.com/yungbote/regdraft-backend/internal/platform/ctxutil"
	"github.com/yungbote/regdraft-backend/internal/platform/dbctx"
	"github.com/yungbote/regdraft-backend/internal/platform/keylock"
	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

// ChecklistItemPatch is a partial update; nil fields are left unchanged.
type ChecklistItemPatch struct {
	IsApplicable        *bool   `json:"is_applicable"`
	IsComplete          *bool   `json:"is_complete"`
	CompletenessPercent *int    `json:"completeness_percent"`
	DeficiencyLevel     *string `json:"deficiency_level"`
	Assignee            *string `json:"assignee"`
	ReviewerNotes       *string `json:"reviewer_notes"`
}

type ReviewService interface {
	CreateRound(dbc dbctx.Context, submissionID uuid.UUID, reviewerName, notes string) (*types.Review, error)
	ListRounds(dbc dbctx.Context, submissionID uuid.UUID) ([]*types.Review, error)
	Get(dbc dbctx.Context, submissionID, reviewID uuid.UUID) (*types.Review, error)
	// UpdateItem applies patch and recomputes the round's progress from the
	// post-write item set in the same transaction.
	UpdateItem(dbc dbctx.Context, submissionID, reviewID, itemID uuid.UUID, patch ChecklistItemPatch) (*types.ChecklistItem, *types.Review, error)
	SetStatus(dbc dbctx.Context, submissionID, reviewID uuid.UUID, status types.ReviewStatus, notes string) (*types.Review, error)
}

type reviewService struct {
	db          *gorm.DB
	log         *logger.Logger
	submissions repos.SubmissionRepo
	reviews     repos.ReviewRepo
	items       repos.ChecklistItemRepo
	statusLogs  repos.StatusLogRepo
	metrics     *observability.Metrics
	locks       *keylock.Map
	now         func() time.Time
}

func NewReviewService(
	db *gorm.DB,
	baseLog *logger.Logger,
	submissionRepo repos.SubmissionRepo,
	reviewRepo repos.ReviewRepo,
	itemRepo repos.ChecklistItemRepo,
	statusLogRepo repos.StatusLogRepo,
	metrics *observability.Metrics,
) ReviewService {
	return &reviewService{
		db:          db,
		log:         baseLog.With("service", "ReviewService"),
		submissions: submissionRepo,
		reviews:     reviewRepo,
		items:       itemRepo,
		statusLogs:  statusLogRepo,
		metrics:     metrics,
		locks:       keylock.New(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *reviewService) CreateRound(dbc dbctx.Context, submissionID uuid.UUID, reviewerName, notes string) (*types.Review, error) {
	reviewerName = strings.TrimSpace(reviewerName)
	if reviewerName == "" {
		reviewerName = ctxutil.Actor(dbc.Ctx, "")
	}
	if reviewerName == "" {
		return nil, apierr.BadRequest("missing_reviewer", fmt.Errorf("reviewer_name is required"))
	}
	seed, err := review.SeedItems()
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock("submission:" + submissionID.String())
	defer unlock()

	var created *types.Review
	err = dbc.DB(s.db).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		if _, err := s.submissions.GetByID(inner, submissionID); err != nil {
			return err
		}
		latest, err := s.reviews.Latest(inner, submissionID)
		if err != nil {
			return err
		}
		if err := review.CanStartRound(latest); err != nil {
			return err
		}
		round := 1
		if latest != nil {
			round = latest.Round + 1
		}
		created, err = s.reviews.Create(inner, &types.Review{
			SubmissionID: submissionID,
			Round:        round,
			ReviewerName: reviewerName,
			Status:       types.ReviewDraft,
			OverallNotes: strings.TrimSpace(notes),
			Items:        seed,
		})
		return err
	})
	if err != nil {
		return nil, classify(err, "submission_not_found")
	}
	s.log.Info("Review round created", "submission_id", submissionID, "round", created.Round, "reviewer", reviewerName)
	return created, nil
}

func (s *reviewService) ListRounds(dbc dbctx.Context, submissionID uuid.UUID) ([]*types.Review, error) {
	if _, err := s.submissions.GetByID(dbc, submissionID); err != nil {
		return nil, classify(err, "submission_not_found")
	}
	rows, err := s.reviews.ListBySubmission(dbc, submissionID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *reviewService) Get(dbc dbctx.Context, submissionID, reviewID uuid.UUID) (*types.Review, error) {
	r, err := s.reviews.GetWithItems(dbc, submissionID, reviewID)
	if err != nil {
		return nil, classify(err, "review_not_found")
	}
	return r, nil
}

func (s *reviewService) UpdateItem(dbc dbctx.Context, submissionID, reviewID, itemID uuid.UUID, patch ChecklistItemPatch) (*types.ChecklistItem, *types.Review, error) {
	if err := patch.validate(); err != nil {
		return nil, nil, apierr.BadRequest("invalid_checklist_update", err)
	}

	unlock := s.locks.Lock("review:" + reviewID.String())
	defer unlock()

	var (
		updated *types.ChecklistItem
		rev     *types.Review
	)
	err := dbc.DB(s.db).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		var err error
		rev, err = s.reviews.LockByID(inner, submissionID, reviewID)
		if err != nil {
			return err
		}
		next, err := review.Touch(rev.Status)
		if err != nil {
			return err
		}
		if _, err := s.items.GetByID(inner, reviewID, itemID); err != nil {
			return err
		}

		now := s.now()
		if err := s.items.UpdateFields(inner, reviewID, itemID, patch.updates(now)); err != nil {
			return err
		}

		all, err := s.items.ListByReview(inner, reviewID)
		if err != nil {
			return err
		}
		for _, it := range all {
			if it.ID == itemID {
				updated = it
			}
		}

		revUpdates := map[string]any{"overall_progress_percent": review.Recompute(all)}
		if next != rev.Status {
			revUpdates["status"] = next
			revUpdates["started_at"] = now
			if err := s.statusLogs.Create(inner, &types.StatusLog{
				SubmissionID:   submissionID,
				ReviewID:       &reviewID,
				Subject:        types.SubjectReview,
				PreviousStatus: string(rev.Status),
				NewStatus:      string(next),
				ChangedBy:      ctxutil.Actor(dbc.Ctx, rev.ReviewerName),
				ChangedAt:      now,
			}); err != nil {
				return err
			}
		}
		if err := s.reviews.UpdateFields(inner, reviewID, revUpdates); err != nil {
			return err
		}
		rev, err = s.reviews.GetByID(inner, submissionID, reviewID)
		return err
	})
	if err != nil {
		return nil, nil, classify(err, "checklist_item_not_found")
	}
	s.metrics.ChecklistUpdated(dbc.Ctx)
	s.log.Debug("Checklist item updated", "review_id", reviewID, "item_id", itemID, "overall_progress", rev.OverallProgressPercent)
	return updated, rev, nil
}

func (s *reviewService) SetStatus(dbc dbctx.Context, submissionID, reviewID uuid.UUID, status types.ReviewStatus, notes string) (*types.Review, error) {
	unlock := s.locks.Lock("review:" + reviewID.String())
	defer unlock()

	var rev *types.Review
	err := dbc.DB(s.db).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		current, err := s.reviews.LockByID(inner, submissionID, reviewID)
		if err != nil {
			return err
		}
		if err := review.Transition(current.Status, status); err != nil {
			return err
		}

		now := s.now()
		updates := map[string]any{"status": status}
		if notes = strings.TrimSpace(notes); notes != "" {
			updates["overall_notes"] = notes
		}
		if current.StartedAt == nil {
			updates["started_at"] = now
		}
		if status.Terminal() {
			updates["completed_at"] = now
		}
		if err := s.reviews.UpdateFields(inner, reviewID, updates); err != nil {
			return err
		}
		if err := s.statusLogs.Create(inner, &types.StatusLog{
			SubmissionID:   submissionID,
			ReviewID:       &reviewID,
			Subject:        types.SubjectReview,
			PreviousStatus: string(current.Status),
			NewStatus:      string(status),
			ChangedBy:      ctxutil.Actor(dbc.Ctx, current.ReviewerName),
			Notes:          notes,
			ChangedAt:      now,
		}); err != nil {
			return err
		}
		rev, err = s.reviews.GetByID(inner, submissionID, reviewID)
		return err
	})
	if err != nil {
		return nil, classify(err, "review_not_found")
	}
	s.log.Info("Review status changed", "review_id", reviewID, "status", status)
	return rev, nil
}

func (p ChecklistItemPatch) validate() error {
	if p == (ChecklistItemPatch{}) {
		return fmt.Errorf("update must set at least one field")
	}
	if p.CompletenessPercent != nil && (*p.CompletenessPercent < 0 || *p.CompletenessPercent > 100) {
		return fmt.Errorf("completeness_percent must be within 0..100")
	}
	if p.DeficiencyLevel != nil && !types.DeficiencyLevel(*p.DeficiencyLevel).Valid() {
		return fmt.Errorf("deficiency_level must be one of none, minor, major")
	}
	return nil
}

// updates converts the patch into column updates. Marking an item complete
// without an explicit percent also sets it to 100.
func (p ChecklistItemPatch) updates(now time.Time) map[string]any {
	out := map[string]any{"updated_at": now}
	if p.IsApplicable != nil {
		out["is_applicable"] = *p.IsApplicable
	}
	if p.CompletenessPercent != nil {
		out["completeness_percent"] = *p.CompletenessPercent
	}
	if p.IsComplete != nil {
		out["is_complete"] = *p.IsComplete
		if *p.IsComplete {
			out["checked_at"] = now
			if p.CompletenessPercent == nil {
				out["completeness_percent"] = 100
			}
		}
	}
	if p.DeficiencyLevel != nil {
		out["deficiency_level"] = *p.DeficiencyLevel
	}
	if p.Assignee != nil {
		out["assignee"] = strings.TrimSpace(*p.Assignee)
	}
	if p.ReviewerNotes != nil {
		out["reviewer_notes"] = *p.ReviewerNotes
	}
	return out
}
