package submissions

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// KnowledgeEntry is one chunk of regulatory guidance with its embedding,
// stored as a JSON float array so the same schema works on postgres and sqlite.
type KnowledgeEntry struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string         `gorm:"column:title;not null" json:"title"`
	Content     string         `gorm:"column:content;not null" json:"content"`
	ContentType string         `gorm:"column:content_type;not null" json:"content_type"`
	Section     string         `gorm:"column:section;not null;index" json:"section"`
	Embedding   datatypes.JSON `gorm:"column:embedding" json:"-"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
}

func (KnowledgeEntry) TableName() string { return "knowledge_entry" }

func (k *KnowledgeEntry) BeforeCreate(tx *gorm.DB) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	if k.ContentType == "" {
		k.ContentType = "guidance"
	}
	if k.Section == "" {
		k.Section = "general"
	}
	return nil
}
