package compliance

import (
	"context"
	"fmt"
	"strings"
)

// RequiredSections are the headings every generated draft must contain.
var RequiredSections = []string{
	"EXECUTIVE SUMMARY",
	"DEVICE DESCRIPTION",
	"INDICATIONS FOR USE",
	"TECHNOLOGICAL CHARACTERISTICS",
	"PERFORMANCE TESTING",
	"SUBSTANTIAL EQUIVALENCE",
	"CLINICAL SUMMARY",
	"LABELING",
	"CONCLUSION",
}

// CoverageScorer scores a draft by the share of required sections it
// contains. It needs no model and is used when none is configured.
type CoverageScorer struct {
	Threshold int
}

func (c CoverageScorer) Score(ctx context.Context, document string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(document) == "" {
		return Result{}, fmt.Errorf("empty document")
	}
	threshold := c.Threshold
	if threshold <= 0 || threshold > 100 {
		threshold = DefaultThreshold
	}

	upper := strings.ToUpper(document)
	var (
		found    int
		findings []Finding
	)
	for _, s := range RequiredSections {
		if strings.Contains(upper, s) {
			found++
			continue
		}
		findings = append(findings, Finding{Severity: "high", Text: "Missing section: " + s})
	}
	score := (found*100 + len(RequiredSections)/2) / len(RequiredSections)
	return Result{
		Score:               score,
		Compliant:           score >= threshold,
		RequiresRemediation: score < threshold,
		Findings:            findings,
		Analysis:            fmt.Sprintf("Section coverage: %d of %d required sections present.", found, len(RequiredSections)),
	}, nil
}
