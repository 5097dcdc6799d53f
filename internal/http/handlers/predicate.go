package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/regdraft-backend/internal/http/response"
	"github.com/yungbote/regdraft-backend/internal/services"
)

type PredicateHandler struct {
	predicates services.PredicateService
}

func NewPredicateHandler(predicates services.PredicateService) *PredicateHandler {
	return &PredicateHandler{predicates: predicates}
}

// GET /api/v1/predicate-devices?q=&limit=
func (h *PredicateHandler) Search(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 20)
	if !ok {
		return
	}
	devices, err := h.predicates.Search(reqCtx(c), strings.TrimSpace(c.Query("q")), limit)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"predicate_devices": devices})
}

// GET /api/v1/predicate-devices/:kNumber
func (h *PredicateHandler) Get(c *gin.Context) {
	device, err := h.predicates.Get(reqCtx(c), strings.ToUpper(strings.TrimSpace(c.Param("kNumber"))))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"predicate_device": device})
}
