package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/regdraft-backend/internal/data/repos"
	"github.com/yungbote/regdraft-backend/internal/data/repos/testutil"
	types "github.com/yungbote/regdraft-backend/internal/domain"
	"github.com/yungbote/regdraft-backend/internal/modules/compliance"
	"github.com/yungbote/regdraft-backend/internal/modules/generation"
	"github.com/yungbote/regdraft-backend/internal/modules/knowledge"
	"github.com/yungbote/regdraft-backend/internal/platform/dbctx"
)

const fullDraft = "EXECUTIVE SUMMARY\nDEVICE DESCRIPTION\nINDICATIONS FOR USE\nTECHNOLOGICAL CHARACTERISTICS\n" +
	"PERFORMANCE TESTING\nSUBSTANTIAL EQUIVALENCE COMPARISON\nCLINICAL SUMMARY\nLABELING\nCONCLUSION\n"

type gatedProvider struct {
	text  string
	gate  chan struct{}
	fail  error
	calls int
}

func (p *gatedProvider) Generate(ctx context.Context, prompt generation.Prompt, onDelta func(string)) error {
	p.calls++
	if p.gate != nil {
		select {
		case <-p.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if p.fail != nil {
		return p.fail
	}
	for _, line := range strings.SplitAfter(p.text, "\n") {
		onDelta(line)
	}
	return nil
}

type generationFixture struct {
	db       *gorm.DB
	svc      GenerationService
	store    *GenerationStore
	provider *gatedProvider
	sub      *types.Submission
	logs     repos.StatusLogRepo
}

func newGenerationFixture(t *testing.T) generationFixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	subs := repos.NewSubmissionRepo(db, log)
	preds := repos.NewPredicateDeviceRepo(db, log)
	logs := repos.NewStatusLogRepo(db, log)
	store := NewGenerationStore(db, log, subs, preds, repos.NewSupportingDocumentRepo(db, log), logs)
	provider := &gatedProvider{text: fullDraft}

	orch, err := generation.NewOrchestrator(generation.Deps{
		Source:    store,
		Retriever: knowledge.NewRetriever(repos.NewKnowledgeEntryRepo(db, log), nil, 0, log),
		Provider:  provider,
		Scorer:    compliance.CoverageScorer{},
		Store:     store,
		Registry:  generation.NewMemoryRegistry(),
	}, generation.Config{}, log)
	require.NoError(t, err)

	return generationFixture{
		db:       db,
		svc:      NewGenerationService(log, subs, orch),
		store:    store,
		provider: provider,
		sub:      testutil.SeedSubmission(t, ctx, db, "GlucoPro"),
		logs:     logs,
	}
}

func drain(t *testing.T, ch <-chan generation.Event) []generation.Event {
	t.Helper()
	var out []generation.Event
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-deadline:
			t.Fatalf("generation did not finish")
		}
	}
}

func TestGenerationPersistsDraftAndHistory(t *testing.T) {
	f := newGenerationFixture(t)
	ctx := context.Background()

	ch, err := f.svc.Start(ctx, f.sub.ID)
	require.NoError(t, err)
	events := drain(t, ch)

	last := events[len(events)-1]
	require.Equal(t, generation.EventCompleted, last.Type)
	assert.Equal(t, 100, *last.ComplianceScore)
	assert.True(t, *last.Compliant)

	var saved types.Submission
	require.NoError(t, f.db.First(&saved, "id = ?", f.sub.ID).Error)
	assert.Equal(t, types.SubmissionReviewPending, saved.Status)
	require.NotNil(t, saved.GeneratedDocument)
	assert.Equal(t, fullDraft, *saved.GeneratedDocument)
	require.NotNil(t, saved.ComplianceScore)
	assert.Equal(t, 100, *saved.ComplianceScore)
	assert.Equal(t, types.ComplianceCompliant, saved.ComplianceStatus)
	assert.NotNil(t, saved.GeneratedAt)

	var report map[string]any
	require.NoError(t, json.Unmarshal(saved.ComplianceReport, &report))
	assert.EqualValues(t, 100, report["score"])
	assert.Contains(t, report, "checked_at")

	history, err := f.logs.ListBySubmission(dbctx.Context{Ctx: ctx}, f.sub.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "draft", history[0].PreviousStatus)
	assert.Equal(t, "review_pending", history[0].NewStatus)
	assert.Equal(t, "generation", history[0].ChangedBy)
}

func TestGenerationFailureLeavesSubmissionUntouched(t *testing.T) {
	f := newGenerationFixture(t)
	f.provider.fail = errors.New("model overloaded")

	ch, err := f.svc.Start(context.Background(), f.sub.ID)
	require.NoError(t, err)
	events := drain(t, ch)
	assert.Equal(t, generation.EventError, events[len(events)-1].Type)

	var saved types.Submission
	require.NoError(t, f.db.First(&saved, "id = ?", f.sub.ID).Error)
	assert.Equal(t, types.SubmissionDraft, saved.Status)
	assert.Nil(t, saved.GeneratedDocument)
	assert.Nil(t, saved.ComplianceScore)
}

func TestGenerationConflictAndNotFound(t *testing.T) {
	f := newGenerationFixture(t)
	f.provider.gate = make(chan struct{})

	first, err := f.svc.Start(context.Background(), f.sub.ID)
	require.NoError(t, err)

	_, err = f.svc.Start(context.Background(), f.sub.ID)
	requireCode(t, err, 409, "generation_in_progress")

	close(f.provider.gate)
	events := drain(t, first)
	assert.Equal(t, generation.EventCompleted, events[len(events)-1].Type)
	assert.Equal(t, 1, f.provider.calls)

	_, err = f.svc.Start(context.Background(), uuid.New())
	requireCode(t, err, 404, "submission_not_found")
}

func TestLoadPredicateFallsBackToSubmissionFields(t *testing.T) {
	f := newGenerationFixture(t)
	ctx := context.Background()

	p, err := f.store.LoadPredicate(ctx, f.sub)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "K123456", p.KNumber)
	assert.Equal(t, "GlucoCheck 2", p.DeviceName)

	require.NoError(t, repos.NewPredicateDeviceRepo(f.db, testutil.Logger(t)).Upsert(dbctx.Context{Ctx: ctx}, []*types.PredicateDevice{
		{KNumber: "K123456", DeviceName: "GlucoCheck 2", Manufacturer: "Catalogued Inc"},
	}))
	p, err = f.store.LoadPredicate(ctx, f.sub)
	require.NoError(t, err)
	assert.Equal(t, "Catalogued Inc", p.Manufacturer)

	p, err = f.store.LoadPredicate(ctx, &types.Submission{})
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestStartWithCancelledRequestIsNotAServerError(t *testing.T) {
	f := newGenerationFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Start(ctx, f.sub.ID)
	requireCode(t, err, 499, "request_cancelled")
	assert.Zero(t, f.provider.calls)
}
