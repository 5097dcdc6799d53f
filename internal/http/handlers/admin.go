package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/regdraft-backend/internal/http/response"
	"github.com/yungbote/regdraft-backend/internal/modules/seed"
)

type Seeder interface {
	Run(ctx context.Context) (seed.Result, error)
}

type AdminHandler struct {
	seeder Seeder
}

func NewAdminHandler(seeder Seeder) *AdminHandler {
	return &AdminHandler{seeder: seeder}
}

// POST /api/v1/admin/seed
func (h *AdminHandler) Seed(c *gin.Context) {
	res, err := h.seeder.Run(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"seeded": res})
}
