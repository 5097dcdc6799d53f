package review

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	types "github.com/yungbote/regdraft-backend/internal/domain"
)

//go:embed sections.yaml
var sectionsYAML []byte

type Section struct {
	Number int    `yaml:"number"`
	Name   string `yaml:"name"`
}

type sectionFile struct {
	Sections []Section `yaml:"sections"`
}

var (
	sectionsOnce sync.Once
	sections     []Section
	sectionsErr  error
)

// Sections returns the checklist template. The slice is shared; do not modify.
func Sections() ([]Section, error) {
	sectionsOnce.Do(func() {
		sections, sectionsErr = parseSections(sectionsYAML)
	})
	return sections, sectionsErr
}

func parseSections(raw []byte) ([]Section, error) {
	var f sectionFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse checklist sections: %w", err)
	}
	if len(f.Sections) == 0 {
		return nil, fmt.Errorf("checklist template has no sections")
	}
	seen := make(map[int]bool, len(f.Sections))
	for _, s := range f.Sections {
		if s.Number <= 0 || s.Name == "" {
			return nil, fmt.Errorf("invalid checklist section %+v", s)
		}
		if seen[s.Number] {
			return nil, fmt.Errorf("duplicate checklist section %d", s.Number)
		}
		seen[s.Number] = true
	}
	return f.Sections, nil
}

// SeedItems builds a fresh, fully applicable checklist from the template.
func SeedItems() ([]types.ChecklistItem, error) {
	secs, err := Sections()
	if err != nil {
		return nil, err
	}
	items := make([]types.ChecklistItem, 0, len(secs))
	for _, s := range secs {
		items = append(items, types.ChecklistItem{
			SectionNumber:   s.Number,
			SectionName:     s.Name,
			IsApplicable:    true,
			DeficiencyLevel: types.DeficiencyNone,
		})
	}
	return items, nil
}
