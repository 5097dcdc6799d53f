package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/regdraft-backend/internal/http/response"
	"github.com/yungbote/regdraft-backend/internal/platform/logger"
	"github.com/yungbote/regdraft-backend/internal/services"
	"github.com/yungbote/regdraft-backend/internal/sse"
)

type GenerationHandler struct {
	log        *logger.Logger
	generation services.GenerationService
	heartbeat  time.Duration
}

func NewGenerationHandler(log *logger.Logger, generation services.GenerationService, heartbeat time.Duration) *GenerationHandler {
	return &GenerationHandler{
		log:        log.With("handler", "GenerationHandler"),
		generation: generation,
		heartbeat:  heartbeat,
	}
}

// POST /api/v1/submissions/:id/generate-stream
// Errors before the run starts are ordinary JSON responses. Once the stream
// is open every outcome arrives as an event; closing the connection cancels
// the run.
func (h *GenerationHandler) Stream(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_submission_id")
	if !ok {
		return
	}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	events, err := h.generation.Start(ctx, id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	w, err := sse.NewWriter(c.Writer)
	if err != nil {
		cancel()
		response.RespondError(c, http.StatusInternalServerError, "streaming_unsupported", err)
		return
	}

	err = sse.Pump(ctx, w, events, h.heartbeat, h.log)
	if err != nil && !errors.Is(err, context.Canceled) {
		h.log.Warn("Generation stream ended early", "submission_id", id, "error", err)
	}
}
