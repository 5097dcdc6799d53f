package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"

	"github.com/yungbote/regdraft-backend/internal/data/repos"
	types "github.com/yungbote/regdraft-backend/internal/domain"
	"github.com/yungbote/regdraft-backend/internal/modules/knowledge"
	"github.com/yungbote/regdraft-backend/internal/platform/dbctx"
	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

//go:embed catalog.yaml
var catalogYAML []byte

type predicateDoc struct {
	KNumber           string            `yaml:"k_number"`
	DeviceName        string            `yaml:"device_name"`
	Manufacturer      string            `yaml:"manufacturer"`
	DeviceClass       string            `yaml:"device_class"`
	ProductCode       string            `yaml:"product_code"`
	IndicationsForUse string            `yaml:"indications_for_use"`
	Decision          string            `yaml:"decision"`
	DecisionDate      string            `yaml:"decision_date"`
	Characteristics   map[string]string `yaml:"technological_characteristics"`
}

type knowledgeDoc struct {
	Title       string `yaml:"title"`
	Content     string `yaml:"content"`
	ContentType string `yaml:"content_type"`
	Section     string `yaml:"section"`
}

type catalogFile struct {
	Predicates []predicateDoc `yaml:"predicates"`
	Knowledge  []knowledgeDoc `yaml:"knowledge"`
}

// Catalog is the parsed reference data.
type Catalog struct {
	Predicates []*types.PredicateDevice
	Knowledge  []knowledge.EntryInput
}

var (
	catalogOnce sync.Once
	catalog     *Catalog
	catalogErr  error
)

// Load parses the embedded catalog once. Callers get fresh predicate rows on
// every call since Upsert mutates them.
func Load() (*Catalog, error) {
	catalogOnce.Do(func() {
		catalog, catalogErr = parseCatalog(catalogYAML)
	})
	if catalogErr != nil {
		return nil, catalogErr
	}
	out := &Catalog{Knowledge: catalog.Knowledge}
	for _, p := range catalog.Predicates {
		cp := *p
		out.Predicates = append(out.Predicates, &cp)
	}
	return out, nil
}

func parseCatalog(raw []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed catalog: %w", err)
	}
	c := &Catalog{}
	for _, p := range f.Predicates {
		if strings.TrimSpace(p.KNumber) == "" || strings.TrimSpace(p.DeviceName) == "" {
			return nil, fmt.Errorf("seed predicate missing k_number or device_name: %+v", p)
		}
		dev := &types.PredicateDevice{
			KNumber:           p.KNumber,
			DeviceName:        p.DeviceName,
			Manufacturer:      p.Manufacturer,
			DeviceClass:       p.DeviceClass,
			ProductCode:       p.ProductCode,
			IndicationsForUse: p.IndicationsForUse,
			Decision:          p.Decision,
		}
		if p.DecisionDate != "" {
			d, err := time.Parse(time.DateOnly, p.DecisionDate)
			if err != nil {
				return nil, fmt.Errorf("seed predicate %s decision_date: %w", p.KNumber, err)
			}
			dev.DecisionDate = &d
		}
		if len(p.Characteristics) > 0 {
			b, err := json.Marshal(p.Characteristics)
			if err != nil {
				return nil, err
			}
			dev.TechnologicalCharacteristics = datatypes.JSON(b)
		}
		c.Predicates = append(c.Predicates, dev)
	}
	for _, k := range f.Knowledge {
		c.Knowledge = append(c.Knowledge, knowledge.EntryInput{
			Title:       strings.TrimSpace(k.Title),
			Content:     strings.TrimSpace(k.Content),
			ContentType: k.ContentType,
			Section:     k.Section,
		})
	}
	return c, nil
}

type Result struct {
	Predicates       int `json:"predicates"`
	KnowledgeEntries int `json:"knowledge_entries"`
}

// Seeder loads the catalog into the database. Predicates are upserted by
// K-number; knowledge entries are skipped when an entry with the same title
// exists, so running it twice adds nothing.
type Seeder struct {
	predicates repos.PredicateDeviceRepo
	entries    repos.KnowledgeEntryRepo
	ingester   *knowledge.Ingester
	log        *logger.Logger
}

func NewSeeder(predicates repos.PredicateDeviceRepo, entries repos.KnowledgeEntryRepo, ingester *knowledge.Ingester, baseLog *logger.Logger) *Seeder {
	return &Seeder{
		predicates: predicates,
		entries:    entries,
		ingester:   ingester,
		log:        baseLog.With("service", "Seeder"),
	}
}

func (s *Seeder) Run(ctx context.Context) (Result, error) {
	var res Result
	c, err := Load()
	if err != nil {
		return res, err
	}
	dbc := dbctx.Context{Ctx: ctx}

	if err := s.predicates.Upsert(dbc, c.Predicates); err != nil {
		return res, fmt.Errorf("seed predicates: %w", err)
	}
	res.Predicates = len(c.Predicates)

	titles, err := s.entries.ListTitles(dbc)
	if err != nil {
		return res, fmt.Errorf("seed knowledge: %w", err)
	}
	have := make(map[string]bool, len(titles))
	for _, t := range titles {
		have[t] = true
	}
	var missing []knowledge.EntryInput
	for _, e := range c.Knowledge {
		if !have[e.Title] {
			missing = append(missing, e)
		}
	}
	if len(missing) > 0 {
		stored, err := s.ingester.Store(ctx, missing)
		if err != nil {
			return res, fmt.Errorf("seed knowledge: %w", err)
		}
		res.KnowledgeEntries = len(stored)
	}
	s.log.Info("Seed complete", "predicates", res.Predicates, "knowledge_entries", res.KnowledgeEntries)
	return res, nil
}
