package review

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/regdraft-backend/internal/domain"
)

func TestTransition(t *testing.T) {
	cases := []struct {
		name    string
		from    types.ReviewStatus
		to      types.ReviewStatus
		wantErr error
	}{
		{name: "draft_to_active", from: types.ReviewDraft, to: types.ReviewActive},
		{name: "draft_approve", from: types.ReviewDraft, to: types.ReviewApproved},
		{name: "active_reject", from: types.ReviewActive, to: types.ReviewRejected},
		{name: "active_abandon", from: types.ReviewActive, to: types.ReviewAbandoned},
		{name: "active_back_to_draft", from: types.ReviewActive, to: types.ReviewDraft, wantErr: ErrInvalidTransition},
		{name: "approved_is_closed", from: types.ReviewApproved, to: types.ReviewRejected, wantErr: ErrReviewClosed},
		{name: "abandoned_is_closed", from: types.ReviewAbandoned, to: types.ReviewActive, wantErr: ErrReviewClosed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Transition(tc.from, tc.to)
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.True(t, errors.Is(err, tc.wantErr), "got %v", err)
		})
	}
}

func TestTouch(t *testing.T) {
	next, err := Touch(types.ReviewDraft)
	require.NoError(t, err)
	assert.Equal(t, types.ReviewActive, next)

	next, err = Touch(types.ReviewActive)
	require.NoError(t, err)
	assert.Equal(t, types.ReviewActive, next)

	_, err = Touch(types.ReviewRejected)
	assert.ErrorIs(t, err, ErrReviewClosed)
}

func TestCanStartRound(t *testing.T) {
	assert.NoError(t, CanStartRound(nil))
	assert.NoError(t, CanStartRound(&types.Review{Round: 1, Status: types.ReviewAbandoned}))
	assert.NoError(t, CanStartRound(&types.Review{Round: 1, Status: types.ReviewApproved}))
	assert.ErrorIs(t, CanStartRound(&types.Review{Round: 2, Status: types.ReviewActive}), ErrRoundOpen)
}
