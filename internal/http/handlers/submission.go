package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/regdraft-backend/internal/data/repos"
	types "github.com/yungbote/regdraft-backend/internal/domain"
	"github.com/yungbote/regdraft-backend/internal/http/response"
	"github.com/yungbote/regdraft-backend/internal/services"
)

const maxListLimit = 100

type SubmissionHandler struct {
	submissions services.SubmissionService
}

func NewSubmissionHandler(submissions services.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions}
}

// POST /api/v1/submissions
func (h *SubmissionHandler) Create(c *gin.Context) {
	var req services.CreateSubmissionInput
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.submissions.Create(reqCtx(c), req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"submission": sub})
}

// GET /api/v1/submissions?status=&offset=&limit=
func (h *SubmissionHandler) List(c *gin.Context) {
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 50)
	if !ok {
		return
	}
	if limit == 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	filter := repos.SubmissionFilter{
		Status: types.SubmissionStatus(strings.ToLower(strings.TrimSpace(c.Query("status")))),
		Offset: offset,
		Limit:  limit,
	}
	subs, total, err := h.submissions.List(reqCtx(c), filter)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"submissions": subs, "total": total, "offset": offset, "limit": limit})
}

// GET /api/v1/submissions/:id
func (h *SubmissionHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_submission_id")
	if !ok {
		return
	}
	sub, err := h.submissions.Get(reqCtx(c), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"submission": sub})
}

// PATCH /api/v1/submissions/:id
func (h *SubmissionHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_submission_id")
	if !ok {
		return
	}
	var req services.SubmissionPatch
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.submissions.Update(reqCtx(c), id, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"submission": sub})
}

// DELETE /api/v1/submissions/:id
func (h *SubmissionHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_submission_id")
	if !ok {
		return
	}
	if err := h.submissions.Delete(reqCtx(c), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/v1/submissions/:id/status-history
func (h *SubmissionHandler) StatusHistory(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_submission_id")
	if !ok {
		return
	}
	history, err := h.submissions.StatusHistory(reqCtx(c), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status_history": history})
}
