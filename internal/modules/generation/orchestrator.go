package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	types "github.com/yungbote/regdraft-backend/internal/domain"
	"github.com/yungbote/regdraft-backend/internal/modules/compliance"
	"github.com/yungbote/regdraft-backend/internal/modules/knowledge"
	"github.com/yungbote/regdraft-backend/internal/observability"
	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

const (
	defaultExpectedChars = 12000
	defaultBufferSize    = 64

	msgStarted   = "Initialising generation pipeline..."
	msgGenerated = "Draft generated."
	msgCompleted = "510(k) submission generated and saved successfully."
	msgLeaseLost = "Generation stopped: this run no longer holds the submission. Start a new run."
)

// SubmissionSource loads the inputs of a run. LoadPredicate returns nil, nil
// when the submission names no predicate.
type SubmissionSource interface {
	LoadSubmission(ctx context.Context, submissionID uuid.UUID) (*types.Submission, error)
	LoadPredicate(ctx context.Context, submission *types.Submission) (*types.PredicateDevice, error)
	LoadReviewedDocuments(ctx context.Context, submissionID uuid.UUID) ([]*types.SupportingDocument, error)
}

type Retriever interface {
	Search(ctx context.Context, queries []knowledge.Query) ([]knowledge.Snippet, error)
}

type Scorer interface {
	Score(ctx context.Context, document string) (compliance.Result, error)
}

// Persister stores a finished draft atomically, including its status log.
type Persister interface {
	SaveGenerated(ctx context.Context, submissionID uuid.UUID, document string, result compliance.Result, newStatus types.SubmissionStatus) error
}

type Deps struct {
	Source    SubmissionSource
	Retriever Retriever
	Provider  Provider
	Scorer    Scorer
	Store     Persister
	Registry  Registry
	Metrics   *observability.Metrics
}

type Config struct {
	// ExpectedChars is the draft length the Generate ramp is scaled to.
	ExpectedChars int
	BufferSize    int
}

type Orchestrator struct {
	deps Deps
	cfg  Config
	log  *logger.Logger
}

func NewOrchestrator(deps Deps, cfg Config, baseLog *logger.Logger) (*Orchestrator, error) {
	switch {
	case deps.Source == nil:
		return nil, fmt.Errorf("generation: submission source required")
	case deps.Provider == nil:
		return nil, fmt.Errorf("generation: provider required")
	case deps.Scorer == nil:
		return nil, fmt.Errorf("generation: scorer required")
	case deps.Store == nil:
		return nil, fmt.Errorf("generation: store required")
	}
	if deps.Registry == nil {
		deps.Registry = NewMemoryRegistry()
	}
	if cfg.ExpectedChars <= 0 {
		cfg.ExpectedChars = defaultExpectedChars
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	return &Orchestrator{deps: deps, cfg: cfg, log: baseLog.With("service", "GenerationOrchestrator")}, nil
}

// Start claims the submission and runs the pipeline on its own goroutine.
// The returned channel is closed when the run ends. Cancelling ctx stops the
// run; nothing is persisted after cancellation is observed.
func (o *Orchestrator) Start(ctx context.Context, submissionID uuid.UUID) (<-chan Event, error) {
	lease, err := o.deps.Registry.Acquire(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	runCtx, cancel := context.WithCancelCause(ctx)
	out := make(chan Event, o.cfg.BufferSize)
	r := &run{
		o:            o,
		parent:       ctx,
		ctx:          runCtx,
		lease:        lease,
		submissionID: submissionID,
		out:          out,
		log:          o.log.With("submission_id", submissionID.String()),
	}
	go func() {
		select {
		case <-lease.Lost():
			cancel(ErrLeaseLost)
		case <-runCtx.Done():
		}
	}()
	go func() {
		defer close(out)
		defer lease.Release()
		defer cancel(nil)
		r.execute()
	}()
	return out, nil
}

type run struct {
	o            *Orchestrator
	// parent is the caller's context; ctx also ends when the lease is lost.
	parent       context.Context
	ctx          context.Context
	lease        Lease
	submissionID uuid.UUID
	out          chan<- Event
	log          *logger.Logger
	percent      int
}

func (r *run) execute() {
	started := time.Now()
	err := r.pipeline()

	outcome := "completed"
	switch {
	case err == nil:
		r.log.Info("Generation completed", "elapsed", time.Since(started).String())
	case r.parent.Err() == nil && (errors.Is(err, ErrLeaseLost) || errors.Is(context.Cause(r.ctx), ErrLeaseLost)):
		outcome = "error"
		r.log.Error("Generation stopped; run lease lost", "elapsed", time.Since(started).String())
		r.send(r.parent, Event{Type: EventError, Message: msgLeaseLost})
	case r.ctx.Err() != nil:
		outcome = "cancelled"
		r.log.Info("Generation cancelled", "elapsed", time.Since(started).String())
	default:
		outcome = "error"
		r.log.Error("Generation failed", "error", err)
		r.emit(Event{Type: EventError, Message: err.Error()})
	}
	r.o.deps.Metrics.RunFinished(context.WithoutCancel(r.parent), outcome)
}

func (r *run) pipeline() error {
	d := r.o.deps
	if !r.emit(Event{Type: EventStarted, Message: msgStarted}) {
		return r.ctx.Err()
	}

	var (
		sub       *types.Submission
		predicate *types.PredicateDevice
		docs      []*types.SupportingDocument
		guidance  string
		prompt    Prompt
		document  string
		result    compliance.Result
	)

	if err := r.phase(PhaseLoad, func(ctx context.Context) (err error) {
		sub, err = d.Source.LoadSubmission(ctx, r.submissionID)
		return err
	}); err != nil {
		return err
	}

	if err := r.phase(PhasePredicate, func(ctx context.Context) (err error) {
		predicate, err = d.Source.LoadPredicate(ctx, sub)
		return err
	}); err != nil {
		return err
	}

	if err := r.phase(PhaseDocuments, func(ctx context.Context) (err error) {
		docs, err = d.Source.LoadReviewedDocuments(ctx, r.submissionID)
		if err == nil && len(docs) > 0 {
			r.log.Info("Including AI-reviewed documents", "count", len(docs))
		}
		return err
	}); err != nil {
		return err
	}

	if err := r.phase(PhaseRetrieve, func(ctx context.Context) error {
		guidance = r.retrieve(ctx, sub)
		return nil
	}); err != nil {
		return err
	}

	if err := r.phase(PhasePrompt, func(ctx context.Context) error {
		prompt = BuildPrompt(PromptInput{Submission: sub, Predicate: predicate, Documents: docs, Guidance: guidance})
		return nil
	}); err != nil {
		return err
	}

	if err := r.phase(PhaseGenerate, func(ctx context.Context) (err error) {
		document, err = r.generate(ctx, prompt)
		return err
	}); err != nil {
		return err
	}

	if err := r.phase(PhaseScore, func(ctx context.Context) (err error) {
		result, err = d.Scorer.Score(ctx, document)
		return err
	}); err != nil {
		return err
	}

	if err := r.phase(PhasePersist, func(ctx context.Context) error {
		if err := r.lease.Confirm(ctx); err != nil {
			return err
		}
		return d.Store.SaveGenerated(ctx, r.submissionID, document, result, types.SubmissionReviewPending)
	}); err != nil {
		return err
	}

	score, compliant := result.Score, result.Compliant
	r.emit(Event{
		Type:            EventCompleted,
		Percent:         100,
		Message:         msgCompleted,
		ComplianceScore: &score,
		Compliant:       &compliant,
		SubmissionID:    r.submissionID.String(),
	})
	return nil
}

// phase reports entry at the phase floor, then runs fn inside a span.
func (r *run) phase(p Phase, fn func(ctx context.Context) error) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	if !r.progress(p.Floor(), phases[p].message) {
		return r.ctx.Err()
	}

	ctx, span := observability.Tracer().Start(r.ctx, "generation."+string(p))
	span.SetAttributes(
		attribute.String("submission_id", r.submissionID.String()),
		attribute.String("phase", string(p)),
	)
	t0 := time.Now()
	err := fn(ctx)
	r.o.deps.Metrics.PhaseDuration(context.WithoutCancel(r.ctx), string(p), time.Since(t0))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	if cerr := r.ctx.Err(); cerr != nil {
		return cerr
	}
	if err != nil {
		return &PhaseError{Phase: p, Err: err}
	}
	return nil
}

// retrieve never fails the run; missing guidance only weakens the prompt.
func (r *run) retrieve(ctx context.Context, sub *types.Submission) string {
	if r.o.deps.Retriever == nil {
		return ""
	}
	snippets, err := r.o.deps.Retriever.Search(ctx, knowledge.QueriesFor(sub))
	if err != nil {
		if ctx.Err() == nil {
			r.log.Warn("Guidance retrieval failed; continuing without context", "error", err)
		}
		return ""
	}
	guidance := knowledge.Format(snippets)
	if guidance != "" {
		r.log.Info("Guidance context built", "snippets", len(snippets), "chars", len(guidance))
	}
	return guidance
}

func (r *run) generate(ctx context.Context, prompt Prompt) (string, error) {
	var buf strings.Builder
	err := r.o.deps.Provider.Generate(ctx, prompt, func(delta string) {
		if delta == "" || ctx.Err() != nil {
			return
		}
		buf.WriteString(delta)
		if !r.emit(Event{Type: EventChunk, Text: delta}) {
			return
		}
		r.o.deps.Metrics.Chunk(ctx)
		if pct := rampPercent(buf.Len(), r.o.cfg.ExpectedChars); pct > r.percent {
			r.progress(pct, phases[PhaseGenerate].message)
		}
	})
	if err != nil {
		return "", err
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	document := buf.String()
	if strings.TrimSpace(document) == "" {
		return "", ErrEmptyOutput
	}
	r.progress(generateCeiling, msgGenerated)
	return document, nil
}

// progress emits a percent clamped so the stream never goes backwards.
func (r *run) progress(pct int, message string) bool {
	if pct < r.percent {
		pct = r.percent
	}
	r.percent = pct
	return r.emit(Event{Type: EventProgress, Percent: pct, Message: message})
}

// emit delivers ev unless the run has been cancelled.
func (r *run) emit(ev Event) bool {
	return r.send(r.ctx, ev)
}

func (r *run) send(ctx context.Context, ev Event) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case r.out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// IsConflict reports whether err means another run holds the submission.
func IsConflict(err error) bool {
	return errors.Is(err, ErrRunInProgress)
}
