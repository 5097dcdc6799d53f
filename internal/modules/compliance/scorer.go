package compliance

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

const (
	DefaultThreshold = 75
	defaultScore     = 50
	maxDocumentChars = 60000
)

type Finding struct {
	Severity string `json:"severity,omitempty"`
	Text     string `json:"text"`
}

type Result struct {
	Score               int       `json:"score"`
	Compliant           bool      `json:"compliant"`
	RequiresRemediation bool      `json:"requires_remediation"`
	Findings            []Finding `json:"findings"`
	Analysis            string    `json:"analysis"`
}

// TextGenerator is the slice of the model client the scorer needs.
type TextGenerator interface {
	GenerateText(ctx context.Context, system string, user string) (string, error)
}

// Scorer asks a model to audit a finished draft and extracts a score and
// findings from its report.
type Scorer struct {
	gen       TextGenerator
	threshold int
	log       *logger.Logger
}

func NewScorer(gen TextGenerator, threshold int, log *logger.Logger) *Scorer {
	if threshold <= 0 || threshold > 100 {
		threshold = DefaultThreshold
	}
	return &Scorer{gen: gen, threshold: threshold, log: log.With("service", "ComplianceScorer")}
}

func (s *Scorer) Score(ctx context.Context, document string) (Result, error) {
	if strings.TrimSpace(document) == "" {
		return Result{}, fmt.Errorf("empty document")
	}
	if len(document) > maxDocumentChars {
		document = document[:maxDocumentChars]
	}
	analysis, err := s.gen.GenerateText(ctx, systemPrompt, fmt.Sprintf(userPromptTemplate, document))
	if err != nil {
		return Result{}, fmt.Errorf("compliance analysis: %w", err)
	}
	res := Evaluate(analysis, s.threshold)
	s.log.Debug("Compliance scored", "score", res.Score, "findings", len(res.Findings))
	return res, nil
}

// Evaluate turns a free-text compliance report into a Result.
func Evaluate(analysis string, threshold int) Result {
	score := ParseScore(analysis)
	return Result{
		Score:               score,
		Compliant:           score >= threshold,
		RequiresRemediation: score < threshold,
		Findings:            ParseFindings(analysis),
		Analysis:            analysis,
	}
}

var scorePattern = regexp.MustCompile(`(?i)(?:compliance\s+)?score[:\s]+(\d+)`)

// ParseScore returns the first "score: N" in text clamped to 0..100, or 50
// when none is present.
func ParseScore(text string) int {
	m := scorePattern.FindStringSubmatch(text)
	if m == nil {
		return defaultScore
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 100
	}
	return min(max(n, 0), 100)
}

var (
	severityPattern = regexp.MustCompile(`(?i)\b(critical|high|medium|low)\b`)
	headingPattern  = regexp.MustCompile(`^(#+\s*|\d+\.\s+|\*\*)`)
)

// ParseFindings collects bullet lines under an "issues" heading, plus any
// bullet elsewhere that names a severity.
func ParseFindings(text string) []Finding {
	var (
		out      []Finding
		inIssues bool
	)
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if headingPattern.MatchString(line) && !isBullet(line) {
			inIssues = strings.Contains(strings.ToLower(line), "issue") ||
				strings.Contains(strings.ToLower(line), "deficienc")
			continue
		}
		if !isBullet(line) {
			continue
		}
		body := strings.TrimSpace(strings.TrimLeft(line, "-*•"))
		sev := ""
		if m := severityPattern.FindStringSubmatch(body); m != nil {
			sev = strings.ToLower(m[1])
		}
		if inIssues || (sev != "" && strings.Contains(strings.ToLower(body), "severity")) {
			out = append(out, Finding{Severity: sev, Text: body})
		}
	}
	return out
}

func isBullet(line string) bool {
	return strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") || strings.HasPrefix(line, "•")
}
