package generation

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	types "github.com/yungbote/regdraft-backend/internal/domain"
)

const systemPrompt = "You are an FDA regulatory affairs expert specializing in medical device submissions. " +
	"Generate comprehensive, compliant 510(k) premarket notification submissions. " +
	"Use clear section headers, professional regulatory language, and follow 21 CFR Part 807."

var requiredSections = []string{
	"EXECUTIVE SUMMARY",
	"DEVICE DESCRIPTION",
	"INDICATIONS FOR USE",
	"TECHNOLOGICAL CHARACTERISTICS",
	"PERFORMANCE TESTING",
	"SUBSTANTIAL EQUIVALENCE COMPARISON",
	"CLINICAL SUMMARY (if applicable)",
	"LABELING",
	"CONCLUSION",
}

type Prompt struct {
	System string
	User   string
}

// PromptInput is everything gathered by the phases before Generate.
type PromptInput struct {
	Submission *types.Submission
	Predicate  *types.PredicateDevice
	Documents  []*types.SupportingDocument
	Guidance   string
}

func BuildPrompt(in PromptInput) Prompt {
	s := in.Submission
	parts := []string{
		"Generate a comprehensive 510(k) Premarket Notification submission for the following device:\n",
		"**Device Information:**",
		"- Device Name: " + s.DeviceName,
		"- Manufacturer: " + orDefault(s.Manufacturer, "Not specified"),
		"- Description: " + orDefault(s.DeviceDescription, "Not provided"),
		"- Indications for Use: " + orDefault(s.IndicationsForUse, "Not provided"),
		"",
		"**Predicate Device:**",
		formatPredicate(in.Predicate),
		"",
		"**Clinical Data:**",
		formatClinical(s.ClinicalData),
	}

	if len(in.Documents) > 0 {
		parts = append(parts,
			"",
			"### SUPPORTING DOCUMENTS (AI-Reviewed):",
			"The following documents were uploaded by the regulatory team and reviewed by AI. "+
				"Incorporate their key findings into the relevant sections of the submission.\n",
		)
		for i, d := range in.Documents {
			parts = append(parts, fmt.Sprintf("**Document %d: %s** (File: %s)\n%s\n", i+1, d.DocumentType, d.Filename, d.AIReviewSummary))
		}
	}

	if strings.TrimSpace(in.Guidance) != "" {
		parts = append(parts,
			"",
			"## RELEVANT FDA REGULATORY GUIDANCE (Retrieved from Knowledge Base):",
			"The following regulatory guidance has been retrieved to help ensure this submission meets current FDA standards. "+
				"Incorporate applicable requirements into the relevant sections below.",
			"",
			in.Guidance,
		)
	}

	parts = append(parts, "", "Generate a complete submission document with the following sections:")
	for i, name := range requiredSections {
		parts = append(parts, fmt.Sprintf("%d. %s", i+1, name))
	}
	parts = append(parts, "", "Each section should be comprehensive, professionally written, and FDA-compliant.")

	return Prompt{System: systemPrompt, User: strings.Join(parts, "\n")}
}

func formatPredicate(p *types.PredicateDevice) string {
	if p == nil {
		return "No predicate device specified"
	}
	return fmt.Sprintf("\n- K-Number: %s\n- Device Name: %s\n- Manufacturer: %s\n- Indications: %s\n",
		orDefault(p.KNumber, "N/A"),
		orDefault(p.DeviceName, "N/A"),
		orDefault(p.Manufacturer, "N/A"),
		orDefault(p.IndicationsForUse, "N/A"),
	)
}

// formatClinical renders a JSON object as sorted "- key: value" lines.
func formatClinical(raw []byte) string {
	const none = "No clinical data provided"
	if len(raw) == 0 {
		return none
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil || len(data) == 0 {
		return none
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		v := data[k]
		switch v.(type) {
		case map[string]any, []any:
			b, _ := json.Marshal(v)
			lines = append(lines, fmt.Sprintf("- %s: %s", k, b))
		default:
			lines = append(lines, fmt.Sprintf("- %s: %v", k, v))
		}
	}
	return strings.Join(lines, "\n")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
