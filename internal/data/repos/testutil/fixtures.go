package testutil

import (
	"context"
	"fmt"
	"testing"

	types "github.com/yungbote/regdraft-backend/internal/domain"
	"gorm.io/gorm"
)

func SeedSubmission(tb testing.TB, ctx context.Context, tx *gorm.DB, deviceName string) *types.Submission {
	tb.Helper()
	s := &types.Submission{
		SubmissionType:      "510k",
		DeviceName:          deviceName,
		DeviceDescription:   "Single-use sterile device",
		Manufacturer:        "Acme Medical",
		IndicationsForUse:   "For measuring blood glucose",
		PredicateDeviceName: "GlucoCheck 2",
		PredicateKNumber:    "K123456",
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed submission: %v", err)
	}
	return s
}

// SeedReview creates a review round with n applicable, untouched checklist items.
func SeedReview(tb testing.TB, ctx context.Context, tx *gorm.DB, submission *types.Submission, round, n int) *types.Review {
	tb.Helper()
	r := &types.Review{
		SubmissionID: submission.ID,
		Round:        round,
		ReviewerName: "reviewer",
		Status:       types.ReviewDraft,
	}
	for i := 1; i <= n; i++ {
		r.Items = append(r.Items, types.ChecklistItem{
			SectionNumber: i,
			SectionName:   fmt.Sprintf("Section %d", i),
			IsApplicable:  true,
		})
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed review: %v", err)
	}
	return r
}
