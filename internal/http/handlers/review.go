package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/regdraft-backend/internal/domain"
	"github.com/yungbote/regdraft-backend/internal/http/response"
	"github.com/yungbote/regdraft-backend/internal/services"
)

type ReviewHandler struct {
	reviews services.ReviewService
}

func NewReviewHandler(reviews services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// POST /api/v1/submissions/:id/reviews
// body: { "reviewer_name": "...", "notes": "..." }
// reviewer_name defaults to the request identity.
func (h *ReviewHandler) CreateRound(c *gin.Context) {
	subID, ok := uuidParam(c, "id", "invalid_submission_id")
	if !ok {
		return
	}
	var req struct {
		ReviewerName string `json:"reviewer_name"`
		Notes        string `json:"notes"`
	}
	if !bindJSON(c, &req) {
		return
	}
	rev, err := h.reviews.CreateRound(reqCtx(c), subID, req.ReviewerName, req.Notes)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"review": rev})
}

// GET /api/v1/submissions/:id/reviews
func (h *ReviewHandler) ListRounds(c *gin.Context) {
	subID, ok := uuidParam(c, "id", "invalid_submission_id")
	if !ok {
		return
	}
	revs, err := h.reviews.ListRounds(reqCtx(c), subID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reviews": revs})
}

// GET /api/v1/submissions/:id/reviews/:reviewID
func (h *ReviewHandler) Get(c *gin.Context) {
	subID, reviewID, ok := reviewParams(c)
	if !ok {
		return
	}
	rev, err := h.reviews.Get(reqCtx(c), subID, reviewID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"review": rev})
}

// PATCH /api/v1/submissions/:id/reviews/:reviewID
// body: { "status": "active|approved|rejected|abandoned", "notes": "..." }
func (h *ReviewHandler) SetStatus(c *gin.Context) {
	subID, reviewID, ok := reviewParams(c)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
		Notes  string `json:"notes"`
	}
	if !bindJSON(c, &req) {
		return
	}
	status := types.ReviewStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	rev, err := h.reviews.SetStatus(reqCtx(c), subID, reviewID, status, req.Notes)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"review": rev})
}

// PATCH /api/v1/submissions/:id/reviews/:reviewID/checklist/:itemID
func (h *ReviewHandler) UpdateItem(c *gin.Context) {
	subID, reviewID, ok := reviewParams(c)
	if !ok {
		return
	}
	itemID, ok := uuidParam(c, "itemID", "invalid_item_id")
	if !ok {
		return
	}
	var patch services.ChecklistItemPatch
	if !bindJSON(c, &patch) {
		return
	}
	item, rev, err := h.reviews.UpdateItem(reqCtx(c), subID, reviewID, itemID, patch)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"item":                     item,
		"review_status":            rev.Status,
		"overall_progress_percent": rev.OverallProgressPercent,
	})
}

func reviewParams(c *gin.Context) (subID, reviewID uuid.UUID, ok bool) {
	if subID, ok = uuidParam(c, "id", "invalid_submission_id"); !ok {
		return
	}
	reviewID, ok = uuidParam(c, "reviewID", "invalid_review_id")
	return
}
