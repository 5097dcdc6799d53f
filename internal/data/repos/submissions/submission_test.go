package submissions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/regdraft-backend/internal/data/repos/repoerr"
	"github.com/yungbote/regdraft-backend/internal/data/repos/testutil"
	types "github.com/yungbote/regdraft-backend/internal/domain"
	"github.com/yungbote/regdraft-backend/internal/platform/dbctx"
)

func TestSubmissionRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewSubmissionRepo(db, testutil.Logger(t))

	s, err := repo.Create(dbc, &types.Submission{SubmissionType: "510k", DeviceName: "Pulse Oximeter"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.ID == uuid.Nil || s.Status != types.SubmissionDraft || s.ComplianceStatus != types.ComplianceNeedsReview {
		t.Fatalf("Create defaults: id=%s status=%s compliance=%s", s.ID, s.Status, s.ComplianceStatus)
	}
	testutil.SeedSubmission(t, ctx, tx, "Infusion Pump")

	got, err := repo.GetByID(dbc, s.ID)
	if err != nil || got.DeviceName != "Pulse Oximeter" {
		t.Fatalf("GetByID: err=%v got=%+v", err, got)
	}

	if _, err := repo.GetByID(dbc, uuid.New()); !errors.Is(err, repoerr.ErrNotFound) {
		t.Fatalf("GetByID missing: want ErrNotFound, got %v", err)
	}

	if err := repo.UpdateFields(dbc, s.ID, map[string]any{"status": types.SubmissionApproved}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	rows, total, err := repo.List(dbc, SubmissionFilter{Status: types.SubmissionApproved})
	if err != nil || total != 1 || len(rows) != 1 || rows[0].ID != s.ID {
		t.Fatalf("List by status: err=%v total=%d len=%d", err, total, len(rows))
	}
	if _, total, err := repo.List(dbc, SubmissionFilter{}); err != nil || total != 2 {
		t.Fatalf("List all: err=%v total=%d", err, total)
	}
	if rows, _, err := repo.List(dbc, SubmissionFilter{Limit: 1}); err != nil || len(rows) != 1 {
		t.Fatalf("List limit: err=%v len=%d", err, len(rows))
	}

	if err := repo.UpdateFields(dbc, uuid.New(), map[string]any{"status": "draft"}); !errors.Is(err, repoerr.ErrNotFound) {
		t.Fatalf("UpdateFields missing: want ErrNotFound, got %v", err)
	}

	if err := repo.SoftDeleteByID(dbc, s.ID); err != nil {
		t.Fatalf("SoftDeleteByID: %v", err)
	}
	if _, err := repo.GetByID(dbc, s.ID); !errors.Is(err, repoerr.ErrNotFound) {
		t.Fatalf("GetByID after delete: want ErrNotFound, got %v", err)
	}
}

func TestPredicateDeviceRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewPredicateDeviceRepo(db, testutil.Logger(t))

	devices := []*types.PredicateDevice{
		{KNumber: "k201234", DeviceName: "GlucoCheck 2", Manufacturer: "Acme"},
		{KNumber: "K199999", DeviceName: "CardioTrack", Manufacturer: "Beta"},
	}
	if err := repo.Upsert(dbc, devices); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := repo.GetByKNumber(dbc, " k201234 ")
	if err != nil || got.DeviceName != "GlucoCheck 2" {
		t.Fatalf("GetByKNumber: err=%v got=%+v", err, got)
	}

	if err := repo.Upsert(dbc, []*types.PredicateDevice{{KNumber: "K201234", DeviceName: "GlucoCheck 3"}}); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}
	got, err = repo.GetByKNumber(dbc, "K201234")
	if err != nil || got.DeviceName != "GlucoCheck 3" {
		t.Fatalf("GetByKNumber after upsert: err=%v got=%+v", err, got)
	}

	rows, err := repo.SearchByName(dbc, "cardio", 10)
	if err != nil || len(rows) != 1 || rows[0].KNumber != "K199999" {
		t.Fatalf("SearchByName: err=%v rows=%d", err, len(rows))
	}

	if _, err := repo.GetByKNumber(dbc, "K000000"); !errors.Is(err, repoerr.ErrNotFound) {
		t.Fatalf("GetByKNumber missing: want ErrNotFound, got %v", err)
	}
}

func TestSupportingDocumentAndStatusLogRepos(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	docs := NewSupportingDocumentRepo(db, testutil.Logger(t))
	logs := NewStatusLogRepo(db, testutil.Logger(t))

	sub := testutil.SeedSubmission(t, ctx, tx, "Thermometer")

	d1, err := docs.Create(dbc, &types.SupportingDocument{SubmissionID: sub.ID, DocumentType: "test_report", Filename: "bench.pdf"})
	if err != nil {
		t.Fatalf("Create doc: %v", err)
	}
	if _, err := docs.Create(dbc, &types.SupportingDocument{SubmissionID: sub.ID, DocumentType: "labeling", Filename: "ifu.pdf"}); err != nil {
		t.Fatalf("Create doc 2: %v", err)
	}

	if err := docs.SetAIReview(dbc, sub.ID, d1.ID, "Bench testing passed."); err != nil {
		t.Fatalf("SetAIReview: %v", err)
	}
	if err := docs.SetAIReview(dbc, uuid.New(), d1.ID, "x"); !errors.Is(err, repoerr.ErrNotFound) {
		t.Fatalf("SetAIReview wrong submission: want ErrNotFound, got %v", err)
	}

	all, err := docs.ListBySubmission(dbc, sub.ID)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListBySubmission: err=%v len=%d", err, len(all))
	}
	reviewed, err := docs.ListReviewedBySubmission(dbc, sub.ID)
	if err != nil || len(reviewed) != 1 || reviewed[0].AIReviewSummary != "Bench testing passed." {
		t.Fatalf("ListReviewedBySubmission: err=%v len=%d", err, len(reviewed))
	}

	if err := logs.Create(dbc, &types.StatusLog{SubmissionID: sub.ID, Subject: types.SubjectSubmission, PreviousStatus: "draft", NewStatus: "review_pending"}); err != nil {
		t.Fatalf("Create log: %v", err)
	}
	if err := logs.Create(dbc, &types.StatusLog{SubmissionID: sub.ID, Subject: types.SubjectSubmission, PreviousStatus: "review_pending", NewStatus: "approved", ChangedAt: time.Now().UTC().Add(time.Minute)}); err != nil {
		t.Fatalf("Create log 2: %v", err)
	}
	history, err := logs.ListBySubmission(dbc, sub.ID)
	if err != nil || len(history) != 2 || history[0].NewStatus != "approved" {
		t.Fatalf("ListBySubmission history: err=%v len=%d", err, len(history))
	}
}

func TestSupportingDocumentDelete(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	docs := NewSupportingDocumentRepo(db, testutil.Logger(t))
	sub := testutil.SeedSubmission(t, ctx, tx, "Infusion pump")
	other := testutil.SeedSubmission(t, ctx, tx, "Stent")

	doc, err := docs.Create(dbc, &types.SupportingDocument{SubmissionID: sub.ID, DocumentType: "test_report", Filename: "bench.pdf", StorageKey: "uploads/bench.pdf"})
	if err != nil {
		t.Fatalf("Create doc: %v", err)
	}

	if _, err := docs.Delete(dbc, other.ID, doc.ID); !errors.Is(err, repoerr.ErrNotFound) {
		t.Fatalf("Delete under another submission: want ErrNotFound, got %v", err)
	}
	removed, err := docs.Delete(dbc, sub.ID, doc.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if removed.StorageKey != "uploads/bench.pdf" {
		t.Fatalf("Delete should return the removed row, got %+v", removed)
	}
	left, err := docs.ListBySubmission(dbc, sub.ID)
	if err != nil || len(left) != 0 {
		t.Fatalf("ListBySubmission after delete: err=%v len=%d", err, len(left))
	}
	if _, err := docs.Delete(dbc, sub.ID, doc.ID); !errors.Is(err, repoerr.ErrNotFound) {
		t.Fatalf("second Delete: want ErrNotFound, got %v", err)
	}
}

func TestKnowledgeEntryListStatsAndClear(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewKnowledgeEntryRepo(db, testutil.Logger(t))

	if _, err := repo.Create(dbc, []*types.KnowledgeEntry{
		{Title: "SE", Content: "Substantial equivalence", Section: "510k", Embedding: []byte("[0.1,0.2]")},
		{Title: "Bio", Content: "ISO 10993-1", Section: "biocompatibility", ContentType: "standard", Embedding: []byte("[0.3,0.4]")},
		{Title: "IFU", Content: "21 CFR 801", Section: "labeling"},
		{Title: "Predicate", Content: "K123456 summary", Section: "510k", ContentType: "predicate_summary"},
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	page, total, err := repo.List(dbc, KnowledgeFilter{Section: "510k", Limit: 1})
	if err != nil || total != 2 || len(page) != 1 {
		t.Fatalf("List section: err=%v total=%d len=%d", err, total, len(page))
	}
	page, total, err = repo.List(dbc, KnowledgeFilter{Section: "510k", ContentType: "guidance"})
	if err != nil || total != 1 || page[0].Title != "SE" {
		t.Fatalf("List section+type: err=%v total=%d", err, total)
	}

	stats, err := repo.Stats(dbc)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 4 || stats.WithEmbedding != 2 || stats.MissingEmbedding != 2 {
		t.Fatalf("Stats counts: %+v", stats)
	}
	if stats.BySection["510k"] != 2 || stats.BySection["labeling"] != 1 {
		t.Fatalf("Stats by section: %+v", stats.BySection)
	}
	if stats.ByContentType["guidance"] != 2 || stats.ByContentType["standard"] != 1 {
		t.Fatalf("Stats by content type: %+v", stats.ByContentType)
	}

	n, err := repo.DeleteAll(dbc)
	if err != nil || n != 4 {
		t.Fatalf("DeleteAll: err=%v n=%d", err, n)
	}
	stats, err = repo.Stats(dbc)
	if err != nil || stats.Total != 0 || len(stats.BySection) != 0 {
		t.Fatalf("Stats after clear: err=%v %+v", err, stats)
	}
}
