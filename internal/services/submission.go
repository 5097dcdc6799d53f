package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/regdraft-backend/internal/data/repos"
	types "github.com/yungbote/regdraft-backend/internal/domain"
	"github.com/yungbote/regdraft-backend/internal/platform/apierr"
	"github.com/yungbote/regdraft-backend/internal/platform/ctxutil"
	"github.com/yungbote/regdraft-backend/internal/platform/dbctx"
	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

type CreateSubmissionInput struct {
	SubmissionType      string          `json:"submission_type"`
	DeviceName          string          `json:"device_name"`
	DeviceDescription   string          `json:"device_description"`
	Manufacturer        string          `json:"manufacturer"`
	IndicationsForUse   string          `json:"indications_for_use"`
	PredicateDeviceName string          `json:"predicate_device_name"`
	PredicateKNumber    string          `json:"predicate_k_number"`
	ClinicalData        json.RawMessage `json:"clinical_data"`
}

// SubmissionPatch is a partial update; nil fields are left unchanged.
type SubmissionPatch struct {
	Status              *string         `json:"status"`
	DeviceName          *string         `json:"device_name"`
	DeviceDescription   *string         `json:"device_description"`
	Manufacturer        *string         `json:"manufacturer"`
	IndicationsForUse   *string         `json:"indications_for_use"`
	PredicateDeviceName *string         `json:"predicate_device_name"`
	PredicateKNumber    *string         `json:"predicate_k_number"`
	ClinicalData        json.RawMessage `json:"clinical_data"`
	Notes               string          `json:"notes"`
}

type SubmissionService interface {
	Create(dbc dbctx.Context, in CreateSubmissionInput) (*types.Submission, error)
	Get(dbc dbctx.Context, id uuid.UUID) (*types.Submission, error)
	List(dbc dbctx.Context, filter repos.SubmissionFilter) ([]*types.Submission, int64, error)
	Update(dbc dbctx.Context, id uuid.UUID, patch SubmissionPatch) (*types.Submission, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
	StatusHistory(dbc dbctx.Context, id uuid.UUID) ([]*types.StatusLog, error)
}

type submissionService struct {
	db          *gorm.DB
	log         *logger.Logger
	submissions repos.SubmissionRepo
	statusLogs  repos.StatusLogRepo
}

func NewSubmissionService(db *gorm.DB, baseLog *logger.Logger, submissionRepo repos.SubmissionRepo, statusLogRepo repos.StatusLogRepo) SubmissionService {
	return &submissionService{
		db:          db,
		log:         baseLog.With("service", "SubmissionService"),
		submissions: submissionRepo,
		statusLogs:  statusLogRepo,
	}
}

func (s *submissionService) Create(dbc dbctx.Context, in CreateSubmissionInput) (*types.Submission, error) {
	name := strings.TrimSpace(in.DeviceName)
	if name == "" {
		return nil, apierr.BadRequest("missing_device_name", fmt.Errorf("device_name is required"))
	}
	st := types.SubmissionType(strings.ToLower(strings.TrimSpace(in.SubmissionType)))
	if st == "" {
		st = "510k"
	}
	if !st.Valid() {
		return nil, apierr.BadRequest("invalid_submission_type", fmt.Errorf("unknown submission_type %q", in.SubmissionType))
	}
	clinical, err := clinicalJSON(in.ClinicalData)
	if err != nil {
		return nil, err
	}
	created, err := s.submissions.Create(dbc, &types.Submission{
		SubmissionType:      st,
		DeviceName:          name,
		DeviceDescription:   strings.TrimSpace(in.DeviceDescription),
		Manufacturer:        strings.TrimSpace(in.Manufacturer),
		IndicationsForUse:   strings.TrimSpace(in.IndicationsForUse),
		PredicateDeviceName: strings.TrimSpace(in.PredicateDeviceName),
		PredicateKNumber:    strings.ToUpper(strings.TrimSpace(in.PredicateKNumber)),
		ClinicalData:        clinical,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Submission created", "submission_id", created.ID, "device_name", created.DeviceName)
	return created, nil
}

func (s *submissionService) Get(dbc dbctx.Context, id uuid.UUID) (*types.Submission, error) {
	sub, err := s.submissions.GetByID(dbc, id)
	if err != nil {
		return nil, classify(err, "submission_not_found")
	}
	return sub, nil
}

func (s *submissionService) List(dbc dbctx.Context, filter repos.SubmissionFilter) ([]*types.Submission, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, apierr.BadRequest("invalid_status", fmt.Errorf("unknown status %q", filter.Status))
	}
	return s.submissions.List(dbc, filter)
}

func (s *submissionService) Update(dbc dbctx.Context, id uuid.UUID, patch SubmissionPatch) (*types.Submission, error) {
	updates := map[string]any{}
	setString := func(col string, v *string) {
		if v != nil {
			updates[col] = strings.TrimSpace(*v)
		}
	}
	if patch.DeviceName != nil && strings.TrimSpace(*patch.DeviceName) == "" {
		return nil, apierr.BadRequest("missing_device_name", fmt.Errorf("device_name cannot be empty"))
	}
	setString("device_name", patch.DeviceName)
	setString("device_description", patch.DeviceDescription)
	setString("manufacturer", patch.Manufacturer)
	setString("indications_for_use", patch.IndicationsForUse)
	setString("predicate_device_name", patch.PredicateDeviceName)
	if patch.PredicateKNumber != nil {
		updates["predicate_k_number"] = strings.ToUpper(strings.TrimSpace(*patch.PredicateKNumber))
	}
	if len(patch.ClinicalData) > 0 {
		clinical, err := clinicalJSON(patch.ClinicalData)
		if err != nil {
			return nil, err
		}
		updates["clinical_data"] = clinical
	}

	var newStatus types.SubmissionStatus
	if patch.Status != nil {
		newStatus = types.SubmissionStatus(strings.TrimSpace(*patch.Status))
		if !newStatus.Valid() {
			return nil, apierr.BadRequest("invalid_status", fmt.Errorf("unknown status %q", *patch.Status))
		}
	}

	var updated *types.Submission
	err := dbc.DB(s.db).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		current, err := s.submissions.GetByID(inner, id)
		if err != nil {
			return err
		}
		if newStatus != "" && newStatus != current.Status {
			updates["status"] = newStatus
			if err := s.statusLogs.Create(inner, &types.StatusLog{
				SubmissionID:   id,
				Subject:        types.SubjectSubmission,
				PreviousStatus: string(current.Status),
				NewStatus:      string(newStatus),
				ChangedBy:      ctxutil.Actor(dbc.Ctx, "system"),
				Notes:          strings.TrimSpace(patch.Notes),
			}); err != nil {
				return err
			}
		}
		if len(updates) > 0 {
			if err := s.submissions.UpdateFields(inner, id, updates); err != nil {
				return err
			}
		}
		updated, err = s.submissions.GetByID(inner, id)
		return err
	})
	if err != nil {
		return nil, classify(err, "submission_not_found")
	}
	return updated, nil
}

func (s *submissionService) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if err := s.submissions.SoftDeleteByID(dbc, id); err != nil {
		return classify(err, "submission_not_found")
	}
	s.log.Info("Submission deleted", "submission_id", id)
	return nil
}

func (s *submissionService) StatusHistory(dbc dbctx.Context, id uuid.UUID) ([]*types.StatusLog, error) {
	if _, err := s.submissions.GetByID(dbc, id); err != nil {
		return nil, classify(err, "submission_not_found")
	}
	return s.statusLogs.ListBySubmission(dbc, id)
}

// clinicalJSON accepts a JSON object or null.
func clinicalJSON(raw json.RawMessage) (datatypes.JSON, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, apierr.BadRequest("invalid_clinical_data", fmt.Errorf("clinical_data must be a JSON object"))
	}
	return datatypes.JSON(trimmed), nil
}
