package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/regdraft-backend/internal/data/repos"
	"github.com/yungbote/regdraft-backend/internal/data/repos/testutil"
	types "github.com/yungbote/regdraft-backend/internal/domain"
	"github.com/yungbote/regdraft-backend/internal/platform/ctxutil"
	"github.com/yungbote/regdraft-backend/internal/platform/dbctx"
)

func newSubmissionService(t *testing.T) (SubmissionService, DocumentService) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	subs := repos.NewSubmissionRepo(db, log)
	return NewSubmissionService(db, log, subs, repos.NewStatusLogRepo(db, log)),
		NewDocumentService(log, subs, repos.NewSupportingDocumentRepo(db, log))
}

func TestSubmissionLifecycle(t *testing.T) {
	svc, _ := newSubmissionService(t)
	dbc := dbctx.Context{Ctx: ctxutil.WithActor(context.Background(), "ra-lead")}

	created, err := svc.Create(dbc, CreateSubmissionInput{
		DeviceName:       "  PulseSense  ",
		PredicateKNumber: "k901234",
		ClinicalData:     json.RawMessage(`{"subjects": 40}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "PulseSense", created.DeviceName)
	assert.Equal(t, types.SubmissionType("510k"), created.SubmissionType)
	assert.Equal(t, types.SubmissionDraft, created.Status)
	assert.Equal(t, "K901234", created.PredicateKNumber)

	updated, err := svc.Update(dbc, created.ID, SubmissionPatch{
		Status:       strp("submitted"),
		Manufacturer: strp("Acme"),
		Notes:        "filed",
	})
	require.NoError(t, err)
	assert.Equal(t, types.SubmissionSubmitted, updated.Status)
	assert.Equal(t, "Acme", updated.Manufacturer)

	// unchanged status writes no history row
	_, err = svc.Update(dbc, created.ID, SubmissionPatch{Status: strp("submitted")})
	require.NoError(t, err)

	history, err := svc.StatusHistory(dbc, created.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "draft", history[0].PreviousStatus)
	assert.Equal(t, "submitted", history[0].NewStatus)
	assert.Equal(t, "ra-lead", history[0].ChangedBy)
	assert.Equal(t, "filed", history[0].Notes)

	rows, total, err := svc.List(dbc, repos.SubmissionFilter{Status: types.SubmissionSubmitted})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, rows, 1)

	require.NoError(t, svc.Delete(dbc, created.ID))
	_, err = svc.Get(dbc, created.ID)
	requireCode(t, err, 404, "submission_not_found")
	requireCode(t, svc.Delete(dbc, created.ID), 404, "submission_not_found")
}

func TestSubmissionValidation(t *testing.T) {
	svc, _ := newSubmissionService(t)
	dbc := dbctx.Context{Ctx: context.Background()}

	_, err := svc.Create(dbc, CreateSubmissionInput{DeviceName: " "})
	requireCode(t, err, 400, "missing_device_name")

	_, err = svc.Create(dbc, CreateSubmissionInput{DeviceName: "X", SubmissionType: "pmn"})
	requireCode(t, err, 400, "invalid_submission_type")

	_, err = svc.Create(dbc, CreateSubmissionInput{DeviceName: "X", ClinicalData: json.RawMessage(`[1,2]`)})
	requireCode(t, err, 400, "invalid_clinical_data")

	created, err := svc.Create(dbc, CreateSubmissionInput{DeviceName: "X", SubmissionType: "De_Novo"})
	require.NoError(t, err)
	assert.Equal(t, types.SubmissionType("de_novo"), created.SubmissionType)

	_, err = svc.Update(dbc, created.ID, SubmissionPatch{Status: strp("shipped")})
	requireCode(t, err, 400, "invalid_status")

	_, err = svc.Update(dbc, created.ID, SubmissionPatch{DeviceName: strp("")})
	requireCode(t, err, 400, "missing_device_name")

	_, _, err = svc.List(dbc, repos.SubmissionFilter{Status: "bogus"})
	requireCode(t, err, 400, "invalid_status")
}

func TestDocumentService(t *testing.T) {
	subs, docs := newSubmissionService(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	sub, err := subs.Create(dbc, CreateSubmissionInput{DeviceName: "PulseSense"})
	require.NoError(t, err)

	doc, err := docs.Create(dbc, sub.ID, CreateDocumentInput{DocumentType: "test_report", Filename: "bench.pdf", FileSize: 2048})
	require.NoError(t, err)
	assert.Equal(t, "uploaded", doc.Status)
	assert.False(t, doc.AIReviewed)

	_, err = docs.Create(dbc, sub.ID, CreateDocumentInput{Filename: "x.pdf"})
	requireCode(t, err, 400, "invalid_document")

	requireCode(t, docs.RecordAIReview(dbc, sub.ID, doc.ID, " "), 400, "missing_summary")
	require.NoError(t, docs.RecordAIReview(dbc, sub.ID, doc.ID, "Bench testing passed."))
	requireCode(t, docs.RecordAIReview(dbc, sub.ID, sub.ID, "x"), 404, "document_not_found")

	list, err := docs.List(dbc, sub.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].AIReviewed)
	assert.Equal(t, "reviewed", list[0].Status)
}

func TestDocumentDelete(t *testing.T) {
	subs, docs := newSubmissionService(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	sub, err := subs.Create(dbc, CreateSubmissionInput{DeviceName: "PulseSense"})
	require.NoError(t, err)
	other, err := subs.Create(dbc, CreateSubmissionInput{DeviceName: "Stent"})
	require.NoError(t, err)

	doc, err := docs.Create(dbc, sub.ID, CreateDocumentInput{DocumentType: "labeling", Filename: "ifu.pdf", StorageKey: "uploads/ifu.pdf"})
	require.NoError(t, err)

	requireCode(t, docs.Delete(dbc, other.ID, doc.ID), 404, "document_not_found")
	require.NoError(t, docs.Delete(dbc, sub.ID, doc.ID))
	requireCode(t, docs.Delete(dbc, sub.ID, doc.ID), 404, "document_not_found")

	list, err := docs.List(dbc, sub.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
