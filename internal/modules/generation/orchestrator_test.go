package generation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/regdraft-backend/internal/domain"
	"github.com/yungbote/regdraft-backend/internal/modules/compliance"
	"github.com/yungbote/regdraft-backend/internal/modules/knowledge"
	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

type fakeSource struct {
	sub     *types.Submission
	loadErr error
}

func (f *fakeSource) LoadSubmission(ctx context.Context, id uuid.UUID) (*types.Submission, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.sub, nil
}

func (f *fakeSource) LoadPredicate(ctx context.Context, s *types.Submission) (*types.PredicateDevice, error) {
	return &types.PredicateDevice{KNumber: "K123456", DeviceName: "GlucoCheck 2"}, nil
}

func (f *fakeSource) LoadReviewedDocuments(ctx context.Context, id uuid.UUID) ([]*types.SupportingDocument, error) {
	return []*types.SupportingDocument{{DocumentType: "test_report", Filename: "bench.pdf", AIReviewSummary: "All bench tests passed."}}, nil
}

type fakeRetriever struct {
	snippets []knowledge.Snippet
	err      error
}

func (f *fakeRetriever) Search(ctx context.Context, q []knowledge.Query) ([]knowledge.Snippet, error) {
	return f.snippets, f.err
}

// scriptedProvider emits deltas in order, then optionally blocks on gate.
type scriptedProvider struct {
	mu      sync.Mutex
	deltas  []string
	gate    chan struct{}
	block   bool
	err     error
	calls   int
	prompts []Prompt
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt Prompt, onDelta func(string)) error {
	p.mu.Lock()
	p.calls++
	p.prompts = append(p.prompts, prompt)
	p.mu.Unlock()
	for _, d := range p.deltas {
		if err := ctx.Err(); err != nil {
			return err
		}
		onDelta(d)
	}
	if p.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if p.gate != nil {
		select {
		case <-p.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return p.err
}

type fakeScorer struct {
	result compliance.Result
	err    error
	calls  int
}

func (f *fakeScorer) Score(ctx context.Context, doc string) (compliance.Result, error) {
	f.calls++
	return f.result, f.err
}

type fakeStore struct {
	mu       sync.Mutex
	calls    int
	document string
	status   types.SubmissionStatus
	err      error
}

func (f *fakeStore) SaveGenerated(ctx context.Context, id uuid.UUID, doc string, r compliance.Result, status types.SubmissionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.document = doc
	f.status = status
	return f.err
}

type harness struct {
	source    *fakeSource
	retriever *fakeRetriever
	provider  *scriptedProvider
	scorer    *fakeScorer
	store     *fakeStore
	registry  *MemoryRegistry
	orch      *Orchestrator
}

func newHarness(t *testing.T, cfg Config, deltas ...string) *harness {
	t.Helper()
	h := &harness{
		source:    &fakeSource{sub: &types.Submission{ID: uuid.New(), DeviceName: "GlucoPro", SubmissionType: "510k"}},
		retriever: &fakeRetriever{},
		provider:  &scriptedProvider{deltas: deltas},
		scorer:    &fakeScorer{result: compliance.Result{Score: 92, Compliant: true}},
		store:     &fakeStore{},
		registry:  NewMemoryRegistry(),
	}
	orch, err := NewOrchestrator(Deps{
		Source:    h.source,
		Retriever: h.retriever,
		Provider:  h.provider,
		Scorer:    h.scorer,
		Store:     h.store,
		Registry:  h.registry,
	}, cfg, logger.Nop())
	require.NoError(t, err)
	h.orch = orch
	return h
}

func collect(t *testing.T, ch <-chan Event) []Event {
	t.Helper()
	var out []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("stream did not finish; got %d events", len(out))
		}
	}
}

func progressPercents(events []Event) []int {
	var out []int
	for _, ev := range events {
		if ev.Type == EventProgress {
			out = append(out, ev.Percent)
		}
	}
	return out
}

func chunkText(events []Event) string {
	var b strings.Builder
	for _, ev := range events {
		if ev.Type == EventChunk {
			b.WriteString(ev.Text)
		}
	}
	return b.String()
}

func TestRunCompletesWithOrderedEvents(t *testing.T) {
	h := newHarness(t, Config{}, "Sec", "tion 1", "...")
	id := h.source.sub.ID

	ch, err := h.orch.Start(context.Background(), id)
	require.NoError(t, err)
	events := collect(t, ch)

	require.NotEmpty(t, events)
	assert.Equal(t, EventStarted, events[0].Type)
	assert.Equal(t, []int{2, 8, 15, 25, 30, 30, 90, 95, 100}, progressPercents(events))
	assert.Equal(t, "Section 1...", chunkText(events))

	last := events[len(events)-1]
	require.Equal(t, EventCompleted, last.Type)
	assert.Equal(t, 100, last.Percent)
	require.NotNil(t, last.ComplianceScore)
	assert.Equal(t, 92, *last.ComplianceScore)
	require.NotNil(t, last.Compliant)
	assert.True(t, *last.Compliant)
	assert.Equal(t, id.String(), last.SubmissionID)

	assert.Equal(t, 1, h.store.calls)
	assert.Equal(t, "Section 1...", h.store.document)
	assert.Equal(t, types.SubmissionReviewPending, h.store.status)
	assert.False(t, h.registry.Active(id))
}

func TestGenerateRampIsMonotonic(t *testing.T) {
	h := newHarness(t, Config{ExpectedChars: 10}, "ab", "ab", "ab", "ab", "ab", "ab")
	ch, err := h.orch.Start(context.Background(), h.source.sub.ID)
	require.NoError(t, err)
	events := collect(t, ch)

	got := progressPercents(events)
	assert.Equal(t, []int{2, 8, 15, 25, 30, 30, 42, 54, 66, 78, 89, 90, 95, 100}, got)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i], got[i-1])
	}
}

func TestCancelStopsRunWithoutPersisting(t *testing.T) {
	h := newHarness(t, Config{}, "partial")
	h.provider.block = true
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := h.orch.Start(ctx, h.source.sub.ID)
	require.NoError(t, err)

	var events []Event
	for ev := range ch {
		events = append(events, ev)
		if ev.Type == EventChunk {
			cancel()
		}
	}

	for _, ev := range events {
		assert.NotEqual(t, EventCompleted, ev.Type)
		assert.NotEqual(t, EventError, ev.Type)
	}
	assert.Equal(t, EventChunk, events[len(events)-1].Type)
	assert.Zero(t, h.scorer.calls)
	assert.Zero(t, h.store.calls)
	assert.False(t, h.registry.Active(h.source.sub.ID))
}

func TestCancelBeforeStartEmitsNothing(t *testing.T) {
	h := newHarness(t, Config{}, "x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.orch.Start(ctx, h.source.sub.ID)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, h.provider.calls)
}

func TestSecondStartIsRejectedWithoutDisturbingFirst(t *testing.T) {
	h := newHarness(t, Config{}, "Sec", "tion 1", "...")
	h.provider.gate = make(chan struct{})
	id := h.source.sub.ID

	first, err := h.orch.Start(context.Background(), id)
	require.NoError(t, err)

	_, err = h.orch.Start(context.Background(), id)
	require.ErrorIs(t, err, ErrRunInProgress)
	assert.True(t, IsConflict(err))

	close(h.provider.gate)
	events := collect(t, first)
	assert.Equal(t, EventStarted, events[0].Type)
	assert.Equal(t, EventCompleted, events[len(events)-1].Type)
	assert.Equal(t, "Section 1...", chunkText(events))
	assert.Equal(t, 1, h.provider.calls)

	again, err := h.orch.Start(context.Background(), id)
	require.NoError(t, err)
	collect(t, again)
}

func TestCollaboratorFailureEndsWithPhaseScopedError(t *testing.T) {
	cases := []struct {
		name    string
		setup   func(h *harness)
		wantMsg string
	}{
		{
			name:    "load",
			setup:   func(h *harness) { h.source.loadErr = errors.New("record not found") },
			wantMsg: "loading submission",
		},
		{
			name:    "provider",
			setup:   func(h *harness) { h.provider.err = errors.New("upstream 500") },
			wantMsg: "generating draft",
		},
		{
			name:    "empty output",
			setup:   func(h *harness) { h.provider.deltas = []string{"  "} },
			wantMsg: "provider returned no text",
		},
		{
			name:    "scorer",
			setup:   func(h *harness) { h.scorer.err = errors.New("scorer down") },
			wantMsg: "running compliance check",
		},
		{
			name:    "persist",
			setup:   func(h *harness) { h.store.err = errors.New("deadlock") },
			wantMsg: "saving document",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, Config{}, "Section 1")
			tc.setup(h)
			ch, err := h.orch.Start(context.Background(), h.source.sub.ID)
			require.NoError(t, err)
			events := collect(t, ch)

			last := events[len(events)-1]
			require.Equal(t, EventError, last.Type)
			assert.Contains(t, last.Message, tc.wantMsg)
			for _, ev := range events {
				assert.NotEqual(t, EventCompleted, ev.Type)
			}
			if tc.name != "persist" {
				assert.Zero(t, h.store.calls)
			}
			assert.False(t, h.registry.Active(h.source.sub.ID))
		})
	}
}

func TestRetrievalFailureDegradesToEmptyContext(t *testing.T) {
	h := newHarness(t, Config{}, "Section 1")
	h.retriever.err = errors.New("vector store offline")

	ch, err := h.orch.Start(context.Background(), h.source.sub.ID)
	require.NoError(t, err)
	events := collect(t, ch)

	assert.Equal(t, EventCompleted, events[len(events)-1].Type)
	require.Len(t, h.provider.prompts, 1)
	assert.NotContains(t, h.provider.prompts[0].User, "RELEVANT FDA REGULATORY GUIDANCE")
}

func TestRetrievedGuidanceReachesPrompt(t *testing.T) {
	h := newHarness(t, Config{}, "Section 1")
	h.retriever.snippets = []knowledge.Snippet{{ID: uuid.New(), Title: "SE guidance", Section: "510k", ContentType: "guidance", Text: "Compare intended use."}}

	ch, err := h.orch.Start(context.Background(), h.source.sub.ID)
	require.NoError(t, err)
	collect(t, ch)

	require.Len(t, h.provider.prompts, 1)
	user := h.provider.prompts[0].User
	assert.Contains(t, user, "## RELEVANT FDA REGULATORY GUIDANCE")
	assert.Contains(t, user, "### [GUIDANCE] SE guidance")
	assert.Contains(t, user, "**Document 1: test_report** (File: bench.pdf)")
	assert.Contains(t, user, "- K-Number: K123456")
}

func TestNewOrchestratorRequiresCollaborators(t *testing.T) {
	_, err := NewOrchestrator(Deps{}, Config{}, logger.Nop())
	assert.Error(t, err)
}

func startFirstChunk(t *testing.T, ch <-chan Event) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			require.True(t, ok, "stream closed before the first chunk")
			if ev.Type == EventChunk {
				return
			}
		case <-timeout:
			t.Fatalf("no chunk arrived")
		}
	}
}

func TestLostLeaseStopsRunAndLetsNextRunPersistAlone(t *testing.T) {
	h := newHarness(t, Config{}, "Sec", "tion 1")
	h.provider.gate = make(chan struct{})
	reg, mr := newRedisRegistry(t, 150*time.Millisecond)
	orch, err := NewOrchestrator(Deps{
		Source:    h.source,
		Retriever: h.retriever,
		Provider:  h.provider,
		Scorer:    h.scorer,
		Store:     h.store,
		Registry:  reg,
	}, Config{}, logger.Nop())
	require.NoError(t, err)
	id := h.source.sub.ID

	first, err := orch.Start(context.Background(), id)
	require.NoError(t, err)
	startFirstChunk(t, first)

	mr.Del(reg.key(id))
	rest := collect(t, first)
	require.NotEmpty(t, rest)
	last := rest[len(rest)-1]
	require.Equal(t, EventError, last.Type)
	assert.Equal(t, msgLeaseLost, last.Message)
	assert.Zero(t, h.scorer.calls)
	assert.Zero(t, h.store.calls)

	close(h.provider.gate)
	second, err := orch.Start(context.Background(), id)
	require.NoError(t, err)
	events := collect(t, second)
	assert.Equal(t, EventCompleted, events[len(events)-1].Type)
	assert.Equal(t, 1, h.store.calls)
}

type revokedLease struct{ lost chan struct{} }

func (l *revokedLease) Lost() <-chan struct{}             { return l.lost }
func (l *revokedLease) Confirm(ctx context.Context) error { return ErrLeaseLost }
func (l *revokedLease) Release()                          {}

type revokedRegistry struct{}

func (revokedRegistry) Acquire(ctx context.Context, id uuid.UUID) (Lease, error) {
	return &revokedLease{lost: make(chan struct{})}, nil
}

func TestPersistRequiresHeldLease(t *testing.T) {
	h := newHarness(t, Config{}, "Section 1")
	orch, err := NewOrchestrator(Deps{
		Source:    h.source,
		Retriever: h.retriever,
		Provider:  h.provider,
		Scorer:    h.scorer,
		Store:     h.store,
		Registry:  revokedRegistry{},
	}, Config{}, logger.Nop())
	require.NoError(t, err)

	ch, err := orch.Start(context.Background(), h.source.sub.ID)
	require.NoError(t, err)
	events := collect(t, ch)

	last := events[len(events)-1]
	require.Equal(t, EventError, last.Type)
	assert.Equal(t, msgLeaseLost, last.Message)
	assert.Equal(t, 1, h.scorer.calls)
	assert.Zero(t, h.store.calls)
}
