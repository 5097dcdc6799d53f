package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/regdraft-backend/internal/platform/apierr"
)

var errInternal = errors.New("internal server error")

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError renders err using the status and code of the *apierr.Error
// in its chain. Anything else is a 500.
func RespondAPIError(c *gin.Context, err error) {
	ae := apierr.As(err)
	if ae == nil {
		RespondError(c, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if ae.Status >= http.StatusInternalServerError {
		c.Error(err)
		RespondError(c, ae.Status, ae.Code, errInternal)
		return
	}
	RespondError(c, ae.Status, ae.Code, ae)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
