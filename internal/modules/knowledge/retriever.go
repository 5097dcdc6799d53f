package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/yungbote/regdraft-backend/internal/data/repos"
	types "github.com/yungbote/regdraft-backend/internal/domain"
	"github.com/yungbote/regdraft-backend/internal/platform/dbctx"
	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

const DefaultMinSimilarity = 0.65

type Query struct {
	Text  string
	Limit int
	// Section, when set, restricts candidates to one topic section.
	Section string
}

// Snippet is one retrieved guidance chunk, most relevant first in results.
type Snippet struct {
	ID          uuid.UUID
	Title       string
	Section     string
	ContentType string
	Text        string
	Source      string
	Score       float64
}

type Retriever struct {
	entries       repos.KnowledgeEntryRepo
	embedder      Embedder
	fallback      Embedder
	minSimilarity float64
	log           *logger.Logger
}

// NewRetriever ranks stored entries by cosine similarity. When embedder is
// nil or fails, HashEmbedder is used for the query instead.
func NewRetriever(entries repos.KnowledgeEntryRepo, embedder Embedder, minSimilarity float64, log *logger.Logger) *Retriever {
	if minSimilarity <= 0 {
		minSimilarity = DefaultMinSimilarity
	}
	return &Retriever{
		entries:       entries,
		embedder:      embedder,
		fallback:      HashEmbedder{},
		minSimilarity: minSimilarity,
		log:           log.With("service", "KnowledgeRetriever"),
	}
}

// Search runs queries concurrently and merges their results in query order,
// keeping the first occurrence of each entry.
func (r *Retriever) Search(ctx context.Context, queries []Query) ([]Snippet, error) {
	entries, err := r.entries.ListAll(dbctx.Context{Ctx: ctx}, 0)
	if err != nil {
		return nil, fmt.Errorf("load knowledge entries: %w", err)
	}
	if len(entries) == 0 || len(queries) == 0 {
		return nil, nil
	}

	results := make([][]Snippet, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			vec, err := r.embedQuery(gctx, q.Text)
			if err != nil {
				return err
			}
			results[i] = aboveFloor(rank(vec, entries, q), r.minSimilarity)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := map[uuid.UUID]bool{}
	var merged []Snippet
	for _, list := range results {
		for _, s := range list {
			if seen[s.ID] {
				continue
			}
			seen[s.ID] = true
			merged = append(merged, s)
		}
	}
	return merged, nil
}

func (r *Retriever) embedQuery(ctx context.Context, text string) ([]float32, error) {
	text = truncate(text)
	if r.embedder != nil {
		vecs, err := r.embedder.Embed(ctx, []string{text})
		if err == nil && len(vecs) == 1 {
			return vecs[0], nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.log.Warn("Embedding failed; falling back to hash embedding", "error", err)
	}
	vecs, err := r.fallback.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// Similar returns the nearest entries to text without a similarity floor,
// for browsing the knowledge base rather than grounding a prompt.
func (r *Retriever) Similar(ctx context.Context, q Query) ([]Snippet, error) {
	entries, err := r.entries.ListAll(dbctx.Context{Ctx: ctx}, 0)
	if err != nil {
		return nil, fmt.Errorf("load knowledge entries: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}
	vec, err := r.embedQuery(ctx, q.Text)
	if err != nil {
		return nil, err
	}
	return rank(vec, entries, q), nil
}

func rank(query []float32, entries []*types.KnowledgeEntry, q Query) []Snippet {
	limit := q.Limit
	if limit <= 0 {
		limit = 5
	}
	scored := make([]Snippet, 0, len(entries))
	for _, e := range entries {
		if q.Section != "" && e.Section != q.Section {
			continue
		}
		vec, err := DecodeEmbedding(e.Embedding)
		if err != nil {
			continue
		}
		scored = append(scored, Snippet{
			ID:          e.ID,
			Title:       e.Title,
			Section:     e.Section,
			ContentType: e.ContentType,
			Text:        e.Content,
			Source:      e.Section + "/" + e.Title,
			Score:       cosine(query, vec),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

func aboveFloor(snippets []Snippet, floor float64) []Snippet {
	out := snippets[:0]
	for _, s := range snippets {
		if s.Score >= floor {
			out = append(out, s)
		}
	}
	return out
}

// QueriesFor builds the device-specific and procedural queries for a submission.
func QueriesFor(s *types.Submission) []Query {
	device := strings.TrimSpace(strings.Join([]string{s.DeviceName, s.DeviceDescription, s.IndicationsForUse}, " "))
	return []Query{
		{Text: device, Limit: 3},
		{Text: "510k premarket notification requirements substantial equivalence " + s.DeviceName, Limit: 2},
	}
}

// Format renders snippets as markdown blocks separated by rules.
func Format(snippets []Snippet) string {
	blocks := make([]string, 0, len(snippets))
	for _, s := range snippets {
		blocks = append(blocks, fmt.Sprintf("### [%s] %s\n*Section: %s*\n\n%s",
			strings.ToUpper(s.ContentType), s.Title, s.Section, s.Text))
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

func EncodeEmbedding(vec []float32) (datatypes.JSON, error) {
	raw, err := json.Marshal(vec)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func DecodeEmbedding(raw datatypes.JSON) ([]float32, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty embedding")
	}
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		return nil, err
	}
	return vec, nil
}
