package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/yungbote/regdraft-backend/internal/data/repos"
	"github.com/yungbote/regdraft-backend/internal/modules/generation"
	"github.com/yungbote/regdraft-backend/internal/modules/review"
	"github.com/yungbote/regdraft-backend/internal/platform/apierr"
)

// classify maps domain sentinels onto API errors; unknown errors pass through.
func classify(err error, notFoundCode string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repos.ErrNotFound):
		return apierr.NotFound(notFoundCode, err)
	case errors.Is(err, review.ErrReviewClosed):
		return apierr.Conflict("review_closed", err)
	case errors.Is(err, review.ErrRoundOpen):
		return apierr.Conflict("review_round_open", err)
	case errors.Is(err, generation.ErrRunInProgress):
		return apierr.Conflict("generation_in_progress", err)
	case errors.Is(err, review.ErrInvalidTransition):
		return apierr.BadRequest("invalid_transition", err)
	case errors.Is(err, context.Canceled):
		return apierr.Cancelled(err)
	case errors.Is(err, context.DeadlineExceeded):
		return apierr.New(http.StatusGatewayTimeout, "request_timeout", err)
	}
	return err
}
