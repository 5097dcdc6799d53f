package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yungbote/regdraft-backend/internal/data/repos"
	types "github.com/yungbote/regdraft-backend/internal/domain"
	"github.com/yungbote/regdraft-backend/internal/modules/knowledge"
	"github.com/yungbote/regdraft-backend/internal/platform/apierr"
	"github.com/yungbote/regdraft-backend/internal/platform/dbctx"
	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

const (
	maxIngestBatch     = 200
	minSimilarQuery    = 3
	defaultSimilarHits = 5
	maxSimilarHits     = 20
)

type SimilarInput struct {
	Query   string
	Section string
	Limit   int
}

type KnowledgeService interface {
	Ingest(ctx context.Context, entries []knowledge.EntryInput) ([]*types.KnowledgeEntry, error)
	// Similar ranks guidance against a free-text device description.
	Similar(ctx context.Context, in SimilarInput) ([]knowledge.Snippet, error)
	List(dbc dbctx.Context, filter repos.KnowledgeFilter) ([]*types.KnowledgeEntry, int64, error)
	Stats(dbc dbctx.Context) (repos.KnowledgeStats, error)
	Clear(dbc dbctx.Context) (int64, error)
}

type knowledgeService struct {
	log       *logger.Logger
	ingester  *knowledge.Ingester
	retriever *knowledge.Retriever
	entries   repos.KnowledgeEntryRepo
}

func NewKnowledgeService(
	baseLog *logger.Logger,
	ingester *knowledge.Ingester,
	retriever *knowledge.Retriever,
	entryRepo repos.KnowledgeEntryRepo,
) KnowledgeService {
	return &knowledgeService{
		log:       baseLog.With("service", "KnowledgeService"),
		ingester:  ingester,
		retriever: retriever,
		entries:   entryRepo,
	}
}

func (s *knowledgeService) Ingest(ctx context.Context, entries []knowledge.EntryInput) ([]*types.KnowledgeEntry, error) {
	if len(entries) == 0 {
		return nil, apierr.BadRequest("invalid_knowledge_entries", fmt.Errorf("at least one entry is required"))
	}
	if len(entries) > maxIngestBatch {
		return nil, apierr.BadRequest("invalid_knowledge_entries", fmt.Errorf("at most %d entries per request", maxIngestBatch))
	}
	for i, e := range entries {
		if e.Title == "" || e.Content == "" {
			return nil, apierr.BadRequest("invalid_knowledge_entries", fmt.Errorf("entry %d: title and content are required", i))
		}
	}
	return s.ingester.Store(ctx, entries)
}

func (s *knowledgeService) Similar(ctx context.Context, in SimilarInput) ([]knowledge.Snippet, error) {
	q := strings.TrimSpace(in.Query)
	if utf8.RuneCountInString(q) < minSimilarQuery {
		return nil, apierr.BadRequest("invalid_search_query", fmt.Errorf("q must be at least %d characters", minSimilarQuery))
	}
	limit := in.Limit
	if limit == 0 {
		limit = defaultSimilarHits
	}
	if limit < 1 || limit > maxSimilarHits {
		return nil, apierr.BadRequest("invalid_search_query", fmt.Errorf("limit must be within 1..%d", maxSimilarHits))
	}
	hits, err := s.retriever.Similar(ctx, knowledge.Query{Text: q, Limit: limit, Section: strings.TrimSpace(in.Section)})
	if err != nil {
		return nil, classify(err, "knowledge_entry_not_found")
	}
	if hits == nil {
		hits = []knowledge.Snippet{}
	}
	return hits, nil
}

func (s *knowledgeService) List(dbc dbctx.Context, filter repos.KnowledgeFilter) ([]*types.KnowledgeEntry, int64, error) {
	if filter.Offset < 0 || filter.Limit < 0 || filter.Limit > 100 {
		return nil, 0, apierr.BadRequest("invalid_pagination", fmt.Errorf("skip must be >= 0 and limit within 1..100"))
	}
	return s.entries.List(dbc, filter)
}

func (s *knowledgeService) Stats(dbc dbctx.Context) (repos.KnowledgeStats, error) {
	return s.entries.Stats(dbc)
}

func (s *knowledgeService) Clear(dbc dbctx.Context) (int64, error) {
	n, err := s.entries.DeleteAll(dbc)
	if err != nil {
		return 0, err
	}
	s.log.Warn("Knowledge base cleared by request", "entries_deleted", n)
	return n, nil
}
