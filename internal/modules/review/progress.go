package review

import types "github.com/yungbote/regdraft-backend/internal/domain"

// Recompute returns the overall completion of a checklist: the mean
// completeness of applicable items rounded half up, or 0 when none apply.
func Recompute(items []*types.ChecklistItem) int {
	sum, n := 0, 0
	for _, it := range items {
		if it == nil || !it.IsApplicable {
			continue
		}
		sum += clampPercent(it.CompletenessPercent)
		n++
	}
	if n == 0 {
		return 0
	}
	// Integer round-half-up of sum/n; both operands are non-negative.
	return (2*sum + n) / (2 * n)
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
