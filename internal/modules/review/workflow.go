package review

import (
	"errors"
	"fmt"

	types "github.com/yungbote/regdraft-backend/internal/domain"
)

var (
	ErrReviewClosed      = errors.New("review is closed")
	ErrInvalidTransition = errors.New("invalid review status transition")
	ErrRoundOpen         = errors.New("previous review round is still open")
)

// allowed lists the reviewer-driven transitions. draft→active also happens
// implicitly through Touch.
var allowed = map[types.ReviewStatus][]types.ReviewStatus{
	types.ReviewDraft:  {types.ReviewActive, types.ReviewApproved, types.ReviewRejected, types.ReviewAbandoned},
	types.ReviewActive: {types.ReviewApproved, types.ReviewRejected, types.ReviewAbandoned},
}

// Transition validates a status change requested by a reviewer.
func Transition(from, to types.ReviewStatus) error {
	if from.Terminal() {
		return fmt.Errorf("%s review: %w", from, ErrReviewClosed)
	}
	for _, s := range allowed[from] {
		if s == to {
			return nil
		}
	}
	return fmt.Errorf("%s -> %s: %w", from, to, ErrInvalidTransition)
}

// Touch returns the status a review moves to when one of its items is
// mutated, or ErrReviewClosed when it no longer accepts changes.
func Touch(status types.ReviewStatus) (types.ReviewStatus, error) {
	if status.Terminal() {
		return status, fmt.Errorf("%s review: %w", status, ErrReviewClosed)
	}
	if status == types.ReviewDraft {
		return types.ReviewActive, nil
	}
	return status, nil
}

// CanStartRound reports whether a new round may follow latest.
func CanStartRound(latest *types.Review) error {
	if latest == nil || latest.Status.Terminal() {
		return nil
	}
	return fmt.Errorf("round %d is %s: %w", latest.Round, latest.Status, ErrRoundOpen)
}
