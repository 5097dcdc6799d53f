package submissions

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PredicateDevice is a previously cleared device a 510(k) claims equivalence to.
type PredicateDevice struct {
	ID                           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	KNumber                      string         `gorm:"column:k_number;not null;uniqueIndex" json:"k_number"`
	DeviceName                   string         `gorm:"column:device_name;not null;index" json:"device_name"`
	Manufacturer                 string         `gorm:"column:manufacturer" json:"manufacturer,omitempty"`
	DeviceClass                  string         `gorm:"column:device_class" json:"device_class,omitempty"`
	ProductCode                  string         `gorm:"column:product_code" json:"product_code,omitempty"`
	IndicationsForUse            string         `gorm:"column:indications_for_use" json:"indications_for_use,omitempty"`
	TechnologicalCharacteristics datatypes.JSON `gorm:"column:technological_characteristics" json:"technological_characteristics,omitempty"`
	DecisionDate                 *time.Time     `gorm:"column:decision_date" json:"decision_date,omitempty"`
	Decision                     string         `gorm:"column:decision" json:"decision,omitempty"`
	CreatedAt                    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt                    time.Time      `gorm:"not null" json:"updated_at"`
}

func (PredicateDevice) TableName() string { return "predicate_device" }

func (p *PredicateDevice) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
