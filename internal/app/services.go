package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/regdraft-backend/internal/modules/compliance"
	"github.com/yungbote/regdraft-backend/internal/modules/generation"
	"github.com/yungbote/regdraft-backend/internal/modules/knowledge"
	"github.com/yungbote/regdraft-backend/internal/modules/seed"
	"github.com/yungbote/regdraft-backend/internal/observability"
	"github.com/yungbote/regdraft-backend/internal/platform/logger"
	"github.com/yungbote/regdraft-backend/internal/services"
)

type Services struct {
	Submission services.SubmissionService
	Document   services.DocumentService
	Review     services.ReviewService
	Predicate  services.PredicateService
	Knowledge  services.KnowledgeService
	Compliance services.ComplianceService
	Generation services.GenerationService
	Seeder     *seed.Seeder
}

// modelClient is what both the OpenAI and Vertex clients offer.
type modelClient interface {
	generation.TextStreamer
	compliance.TextGenerator
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	var model modelClient
	switch {
	case cfg.Provider == ProviderVertex && clients.Vertex != nil:
		model = clients.Vertex
	case cfg.Provider == ProviderOpenAI && clients.OpenAI != nil:
		model = clients.OpenAI
	}
	if model == nil {
		return Services{}, fmt.Errorf("no model client for provider %q", cfg.Provider)
	}
	provider, err := generation.NewStreamingProvider(cfg.Provider, model)
	if err != nil {
		return Services{}, err
	}

	var scorer generation.Scorer = compliance.CoverageScorer{Threshold: cfg.ComplianceThreshold}
	if cfg.LLMCompliance {
		scorer = compliance.NewScorer(model, cfg.ComplianceThreshold, log)
	}

	var embedder knowledge.Embedder = knowledge.HashEmbedder{}
	if clients.OpenAI != nil {
		embedder = clients.OpenAI
	}
	ingester := knowledge.NewIngester(reposet.Knowledge, embedder, log)
	retriever := knowledge.NewRetriever(reposet.Knowledge, embedder, cfg.MinSimilarity, log)

	var registry generation.Registry = generation.NewMemoryRegistry()
	if clients.Redis != nil {
		registry = generation.NewRedisRegistry(clients.Redis, cfg.RunLeaseTTL, log)
	}

	store := services.NewGenerationStore(db, log, reposet.Submission, reposet.Predicate, reposet.Document, reposet.StatusLog)
	orchestrator, err := generation.NewOrchestrator(generation.Deps{
		Source:    store,
		Retriever: retriever,
		Provider:  provider,
		Scorer:    scorer,
		Store:     store,
		Registry:  registry,
		Metrics:   metrics,
	}, generation.Config{ExpectedChars: cfg.ExpectedChars}, log)
	if err != nil {
		return Services{}, fmt.Errorf("init orchestrator: %w", err)
	}

	return Services{
		Submission: services.NewSubmissionService(db, log, reposet.Submission, reposet.StatusLog),
		Document:   services.NewDocumentService(log, reposet.Submission, reposet.Document),
		Review: services.NewReviewService(db, log,
			reposet.Submission, reposet.Review, reposet.ChecklistItem, reposet.StatusLog, metrics),
		Predicate:  services.NewPredicateService(log, reposet.Predicate),
		Knowledge:  services.NewKnowledgeService(log, ingester, retriever, reposet.Knowledge),
		Compliance: services.NewComplianceService(db, log, reposet.Submission, scorer),
		Generation: services.NewGenerationService(log, reposet.Submission, orchestrator),
		Seeder:     seed.NewSeeder(reposet.Predicate, reposet.Knowledge, ingester, log),
	}, nil
}
