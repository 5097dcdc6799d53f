package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/regdraft-backend/internal/data/repos"
	"github.com/yungbote/regdraft-backend/internal/data/repos/testutil"
	types "github.com/yungbote/regdraft-backend/internal/domain"
	"github.com/yungbote/regdraft-backend/internal/modules/compliance"
	"github.com/yungbote/regdraft-backend/internal/platform/dbctx"
)

type stubScorer struct {
	result compliance.Result
	err    error
	calls  int
}

func (s *stubScorer) Score(ctx context.Context, document string) (compliance.Result, error) {
	s.calls++
	return s.result, s.err
}

func TestComplianceCheckRescoresStoredDraft(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	sub := testutil.SeedSubmission(t, ctx, db, "GlucoPro")
	require.NoError(t, db.Model(&types.Submission{}).Where("id = ?", sub.ID).Updates(map[string]any{
		"generated_document": "EXECUTIVE SUMMARY\nLABELING\n",
		"status":             types.SubmissionReviewPending,
	}).Error)

	svc := NewComplianceService(db, log, repos.NewSubmissionRepo(db, log), compliance.CoverageScorer{})
	check, err := svc.Check(dbc, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, 22, check.Score)
	assert.False(t, check.Compliant)
	assert.Equal(t, types.ComplianceNonCompliant, check.ComplianceStatus)
	assert.NotEmpty(t, check.Findings)

	var saved types.Submission
	require.NoError(t, db.First(&saved, "id = ?", sub.ID).Error)
	require.NotNil(t, saved.ComplianceScore)
	assert.Equal(t, 22, *saved.ComplianceScore)
	assert.Equal(t, types.ComplianceNonCompliant, saved.ComplianceStatus)
	assert.Equal(t, types.SubmissionReviewPending, saved.Status, "status is not touched by a re-check")

	var report map[string]any
	require.NoError(t, json.Unmarshal(saved.ComplianceReport, &report))
	assert.EqualValues(t, 22, report["score"])
	assert.Contains(t, report, "checked_at")
}

func TestComplianceCheckNeedsDraft(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	sub := testutil.SeedSubmission(t, ctx, db, "GlucoPro")
	scorer := &stubScorer{}

	svc := NewComplianceService(db, log, repos.NewSubmissionRepo(db, log), scorer)
	_, err := svc.Check(dbctx.Context{Ctx: ctx}, sub.ID)
	requireCode(t, err, 409, "draft_not_generated")
	assert.Zero(t, scorer.calls)

	_, err = svc.Check(dbctx.Context{Ctx: ctx}, uuid.New())
	requireCode(t, err, 404, "submission_not_found")
}

func TestComplianceCheckScorerFailureKeepsStoredResult(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	sub := testutil.SeedSubmission(t, ctx, db, "GlucoPro")
	require.NoError(t, db.Model(&types.Submission{}).Where("id = ?", sub.ID).Updates(map[string]any{
		"generated_document": "EXECUTIVE SUMMARY\n",
		"compliance_score":   91,
		"compliance_status":  types.ComplianceCompliant,
	}).Error)

	svc := NewComplianceService(db, log, repos.NewSubmissionRepo(db, log), &stubScorer{err: errors.New("model unavailable")})
	_, err := svc.Check(dbctx.Context{Ctx: ctx}, sub.ID)
	require.Error(t, err)

	var saved types.Submission
	require.NoError(t, db.First(&saved, "id = ?", sub.ID).Error)
	assert.Equal(t, 91, *saved.ComplianceScore)
	assert.Equal(t, types.ComplianceCompliant, saved.ComplianceStatus)
}
