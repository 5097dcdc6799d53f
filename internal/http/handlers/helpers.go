package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/regdraft-backend/internal/http/response"
	"github.com/yungbote/regdraft-backend/internal/platform/dbctx"
)

// uuidParam parses a path parameter, writing a 400 with code when it is not
// a uuid.
func uuidParam(c *gin.Context, name, code string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, code, err)
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes the request body, writing a 400 invalid_request on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return false
	}
	return true
}

func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_"+name, strconv.ErrSyntax)
		return 0, false
	}
	return v, true
}

func reqCtx(c *gin.Context) dbctx.Context {
	return dbctx.Context{Ctx: c.Request.Context()}
}
