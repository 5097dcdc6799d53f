package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/regdraft-backend/internal/http/response"
	"github.com/yungbote/regdraft-backend/internal/services"
)

type ComplianceHandler struct {
	compliance services.ComplianceService
}

func NewComplianceHandler(compliance services.ComplianceService) *ComplianceHandler {
	return &ComplianceHandler{compliance: compliance}
}

// POST /api/v1/submissions/:id/compliance/check
func (h *ComplianceHandler) Check(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_submission_id")
	if !ok {
		return
	}
	check, err := h.compliance.Check(reqCtx(c), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"compliance": check})
}
