package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/regdraft-backend/internal/http/response"
	"github.com/yungbote/regdraft-backend/internal/services"
)

type DocumentHandler struct {
	documents services.DocumentService
}

func NewDocumentHandler(documents services.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// GET /api/v1/submissions/:id/documents
func (h *DocumentHandler) List(c *gin.Context) {
	subID, ok := uuidParam(c, "id", "invalid_submission_id")
	if !ok {
		return
	}
	docs, err := h.documents.List(reqCtx(c), subID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"documents": docs})
}

// POST /api/v1/submissions/:id/documents
// body: { "document_type": "...", "filename": "...", "file_size": 0, "mime_type": "..." }
func (h *DocumentHandler) Create(c *gin.Context) {
	subID, ok := uuidParam(c, "id", "invalid_submission_id")
	if !ok {
		return
	}
	var req services.CreateDocumentInput
	if !bindJSON(c, &req) {
		return
	}
	doc, err := h.documents.Create(reqCtx(c), subID, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"document": doc})
}

// PATCH /api/v1/submissions/:id/documents/:docID/ai-review
// body: { "summary": "..." }
func (h *DocumentHandler) RecordAIReview(c *gin.Context) {
	subID, ok := uuidParam(c, "id", "invalid_submission_id")
	if !ok {
		return
	}
	docID, ok := uuidParam(c, "docID", "invalid_document_id")
	if !ok {
		return
	}
	var req struct {
		Summary string `json:"summary"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.documents.RecordAIReview(reqCtx(c), subID, docID, req.Summary); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// DELETE /api/v1/submissions/:id/documents/:docID
func (h *DocumentHandler) Delete(c *gin.Context) {
	subID, ok := uuidParam(c, "id", "invalid_submission_id")
	if !ok {
		return
	}
	docID, ok := uuidParam(c, "docID", "invalid_document_id")
	if !ok {
		return
	}
	if err := h.documents.Delete(reqCtx(c), subID, docID); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
