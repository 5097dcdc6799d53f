package submissions

import (
	"gorm.io/gorm"

	types "github.com/yungbote/regdraft-backend/internal/domain"
	"github.com/yungbote/regdraft-backend/internal/platform/dbctx"
	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

type KnowledgeFilter struct {
	Section     string
	ContentType string
	Offset      int
	Limit       int
}

type KnowledgeStats struct {
	Total            int64            `json:"total_entries"`
	BySection        map[string]int64 `json:"entries_by_section"`
	ByContentType    map[string]int64 `json:"entries_by_content_type"`
	WithEmbedding    int64            `json:"has_embeddings"`
	MissingEmbedding int64            `json:"missing_embeddings"`
}

type KnowledgeEntryRepo interface {
	Create(dbc dbctx.Context, entries []*types.KnowledgeEntry) ([]*types.KnowledgeEntry, error)
	ListAll(dbc dbctx.Context, limit int) ([]*types.KnowledgeEntry, error)
	ListTitles(dbc dbctx.Context) ([]string, error)
	List(dbc dbctx.Context, filter KnowledgeFilter) ([]*types.KnowledgeEntry, int64, error)
	Stats(dbc dbctx.Context) (KnowledgeStats, error)
	DeleteAll(dbc dbctx.Context) (int64, error)
}

type knowledgeEntryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewKnowledgeEntryRepo(db *gorm.DB, baseLog *logger.Logger) KnowledgeEntryRepo {
	repoLog := baseLog.With("repo", "KnowledgeEntryRepo")
	return &knowledgeEntryRepo{db: db, log: repoLog}
}

func (r *knowledgeEntryRepo) Create(dbc dbctx.Context, entries []*types.KnowledgeEntry) ([]*types.KnowledgeEntry, error) {
	if len(entries) == 0 {
		return []*types.KnowledgeEntry{}, nil
	}
	if err := dbc.DB(r.db).Create(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ListAll loads candidate entries for in-process similarity ranking.
func (r *knowledgeEntryRepo) ListAll(dbc dbctx.Context, limit int) ([]*types.KnowledgeEntry, error) {
	if limit <= 0 {
		limit = 5000
	}
	var results []*types.KnowledgeEntry
	if err := dbc.DB(r.db).
		Order("created_at ASC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *knowledgeEntryRepo) ListTitles(dbc dbctx.Context) ([]string, error) {
	var titles []string
	if err := dbc.DB(r.db).Model(&types.KnowledgeEntry{}).Pluck("title", &titles).Error; err != nil {
		return nil, err
	}
	return titles, nil
}

func (r *knowledgeEntryRepo) List(dbc dbctx.Context, filter KnowledgeFilter) ([]*types.KnowledgeEntry, int64, error) {
	q := dbc.DB(r.db).Model(&types.KnowledgeEntry{})
	if filter.Section != "" {
		q = q.Where("section = ?", filter.Section)
	}
	if filter.ContentType != "" {
		q = q.Where("content_type = ?", filter.ContentType)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	var results []*types.KnowledgeEntry
	if err := q.Order("created_at ASC").Order("id ASC").Offset(offset).Limit(limit).Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

type countBucket struct {
	Bucket string
	N      int64
}

func (r *knowledgeEntryRepo) Stats(dbc dbctx.Context) (KnowledgeStats, error) {
	stats := KnowledgeStats{BySection: map[string]int64{}, ByContentType: map[string]int64{}}
	base := func() *gorm.DB { return dbc.DB(r.db).Model(&types.KnowledgeEntry{}) }

	if err := base().Count(&stats.Total).Error; err != nil {
		return KnowledgeStats{}, err
	}
	if err := base().Where("embedding IS NOT NULL").Count(&stats.WithEmbedding).Error; err != nil {
		return KnowledgeStats{}, err
	}
	stats.MissingEmbedding = stats.Total - stats.WithEmbedding

	for col, into := range map[string]map[string]int64{"section": stats.BySection, "content_type": stats.ByContentType} {
		var rows []countBucket
		if err := base().Select(col + " AS bucket, COUNT(*) AS n").Group(col).Scan(&rows).Error; err != nil {
			return KnowledgeStats{}, err
		}
		for _, row := range rows {
			into[row.Bucket] = row.N
		}
	}
	return stats, nil
}

// DeleteAll clears the knowledge base and reports how many entries went.
func (r *knowledgeEntryRepo) DeleteAll(dbc dbctx.Context) (int64, error) {
	res := dbc.DB(r.db).Where("1 = 1").Delete(&types.KnowledgeEntry{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
