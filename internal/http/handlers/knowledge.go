package handlers

import (
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/regdraft-backend/internal/data/repos"
	types "github.com/yungbote/regdraft-backend/internal/domain"
	"github.com/yungbote/regdraft-backend/internal/http/response"
	"github.com/yungbote/regdraft-backend/internal/modules/knowledge"
	"github.com/yungbote/regdraft-backend/internal/services"
)

const (
	listPreviewChars   = 200
	searchPreviewChars = 400
)

type KnowledgeHandler struct {
	knowledge services.KnowledgeService
}

func NewKnowledgeHandler(knowledge services.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{knowledge: knowledge}
}

// POST /api/v1/knowledge
// body: { "entries": [ { "title", "content", "content_type", "section" } ] }
func (h *KnowledgeHandler) Ingest(c *gin.Context) {
	var req struct {
		Entries []knowledge.EntryInput `json:"entries"`
	}
	if !bindJSON(c, &req) {
		return
	}
	stored, err := h.knowledge.Ingest(c.Request.Context(), req.Entries)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"entries": stored, "count": len(stored)})
}

type similarHit struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	ContentType    string    `json:"content_type"`
	Section        string    `json:"section"`
	Score          float64   `json:"score"`
	ContentPreview string    `json:"content_preview"`
	Content        string    `json:"content"`
}

// GET /api/v1/similar-submissions?q=...&section=...&limit=5
func (h *KnowledgeHandler) Similar(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	section := c.Query("section")
	hits, err := h.knowledge.Similar(c.Request.Context(), services.SimilarInput{
		Query:   c.Query("q"),
		Section: section,
		Limit:   limit,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	results := make([]similarHit, 0, len(hits))
	for _, s := range hits {
		results = append(results, similarHit{
			ID:             s.ID,
			Title:          s.Title,
			ContentType:    s.ContentType,
			Section:        s.Section,
			Score:          s.Score,
			ContentPreview: preview(s.Text, searchPreviewChars),
			Content:        s.Text,
		})
	}
	response.RespondOK(c, gin.H{
		"query":          c.Query("q"),
		"section_filter": section,
		"total_results":  len(results),
		"results":        results,
	})
}

type entrySummary struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	ContentType    string    `json:"content_type"`
	Section        string    `json:"section"`
	ContentPreview string    `json:"content_preview"`
	HasEmbedding   bool      `json:"has_embedding"`
	CreatedAt      time.Time `json:"created_at"`
}

// GET /api/v1/admin/knowledge-base?section=...&content_type=...&offset=0&limit=20
func (h *KnowledgeHandler) List(c *gin.Context) {
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 20)
	if !ok {
		return
	}
	entries, total, err := h.knowledge.List(reqCtx(c), repos.KnowledgeFilter{
		Section:     c.Query("section"),
		ContentType: c.Query("content_type"),
		Offset:      offset,
		Limit:       limit,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	out := make([]entrySummary, 0, len(entries))
	for _, e := range entries {
		out = append(out, summarizeEntry(e))
	}
	response.RespondOK(c, gin.H{"entries": out, "total": total, "offset": offset, "limit": limit})
}

// GET /api/v1/admin/knowledge-base/stats
func (h *KnowledgeHandler) Stats(c *gin.Context) {
	stats, err := h.knowledge.Stats(reqCtx(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, stats)
}

// DELETE /api/v1/admin/knowledge-base
func (h *KnowledgeHandler) Clear(c *gin.Context) {
	n, err := h.knowledge.Clear(reqCtx(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"entries_deleted": n})
}

func summarizeEntry(e *types.KnowledgeEntry) entrySummary {
	return entrySummary{
		ID:             e.ID,
		Title:          e.Title,
		ContentType:    e.ContentType,
		Section:        e.Section,
		ContentPreview: preview(e.Content, listPreviewChars),
		HasEmbedding:   len(e.Embedding) > 0,
		CreatedAt:      e.CreatedAt,
	}
}

// preview cuts s to n runes, marking the cut with an ellipsis.
func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
