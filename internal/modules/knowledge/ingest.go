package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/regdraft-backend/internal/data/repos"
	types "github.com/yungbote/regdraft-backend/internal/domain"
	"github.com/yungbote/regdraft-backend/internal/platform/dbctx"
	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

type EntryInput struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
	Section     string `json:"section"`
}

// Ingester embeds and stores guidance entries.
type Ingester struct {
	entries  repos.KnowledgeEntryRepo
	embedder Embedder
	log      *logger.Logger
}

func NewIngester(entries repos.KnowledgeEntryRepo, embedder Embedder, log *logger.Logger) *Ingester {
	if embedder == nil {
		embedder = HashEmbedder{}
	}
	return &Ingester{entries: entries, embedder: embedder, log: log.With("service", "KnowledgeIngester")}
}

func (in *Ingester) Store(ctx context.Context, inputs []EntryInput) ([]*types.KnowledgeEntry, error) {
	if len(inputs) == 0 {
		return []*types.KnowledgeEntry{}, nil
	}
	texts := make([]string, len(inputs))
	for i, e := range inputs {
		if strings.TrimSpace(e.Title) == "" || strings.TrimSpace(e.Content) == "" {
			return nil, fmt.Errorf("entry %d: title and content are required", i)
		}
		texts[i] = truncate(e.Title + " " + e.Content)
	}

	vecs, err := in.embedder.Embed(ctx, texts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		in.log.Warn("Embedding failed; storing hash embeddings", "error", err)
		if vecs, err = (HashEmbedder{}).Embed(ctx, texts); err != nil {
			return nil, err
		}
	}

	rows := make([]*types.KnowledgeEntry, len(inputs))
	for i, e := range inputs {
		raw, err := EncodeEmbedding(vecs[i])
		if err != nil {
			return nil, err
		}
		rows[i] = &types.KnowledgeEntry{
			Title:       strings.TrimSpace(e.Title),
			Content:     e.Content,
			ContentType: strings.TrimSpace(e.ContentType),
			Section:     strings.TrimSpace(e.Section),
			Embedding:   raw,
		}
	}
	created, err := in.entries.Create(dbctx.Context{Ctx: ctx}, rows)
	if err != nil {
		return nil, err
	}
	in.log.Info("Stored knowledge entries", "count", len(created))
	return created, nil
}
