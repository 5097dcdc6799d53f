package submissions

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/regdraft-backend/internal/data/repos/repoerr"
	types "github.com/yungbote/regdraft-backend/internal/domain"
	"github.com/yungbote/regdraft-backend/internal/platform/dbctx"
	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

type PredicateDeviceRepo interface {
	GetByKNumber(dbc dbctx.Context, kNumber string) (*types.PredicateDevice, error)
	SearchByName(dbc dbctx.Context, query string, limit int) ([]*types.PredicateDevice, error)
	Upsert(dbc dbctx.Context, devices []*types.PredicateDevice) error
}

type predicateDeviceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPredicateDeviceRepo(db *gorm.DB, baseLog *logger.Logger) PredicateDeviceRepo {
	repoLog := baseLog.With("repo", "PredicateDeviceRepo")
	return &predicateDeviceRepo{db: db, log: repoLog}
}

func (r *predicateDeviceRepo) GetByKNumber(dbc dbctx.Context, kNumber string) (*types.PredicateDevice, error) {
	kNumber = strings.ToUpper(strings.TrimSpace(kNumber))
	if kNumber == "" {
		return nil, fmt.Errorf("predicate device: %w", repoerr.ErrNotFound)
	}
	var out types.PredicateDevice
	err := dbc.DB(r.db).Where("k_number = ?", kNumber).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("predicate device %s: %w", kNumber, repoerr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *predicateDeviceRepo) SearchByName(dbc dbctx.Context, query string, limit int) ([]*types.PredicateDevice, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	q := dbc.DB(r.db).Model(&types.PredicateDevice{})
	if query = strings.TrimSpace(query); query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Where("LOWER(device_name) LIKE ? OR LOWER(k_number) LIKE ?", like, like)
	}
	var results []*types.PredicateDevice
	if err := q.Order("device_name ASC").Limit(limit).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *predicateDeviceRepo) Upsert(dbc dbctx.Context, devices []*types.PredicateDevice) error {
	if len(devices) == 0 {
		return nil
	}
	for _, d := range devices {
		d.KNumber = strings.ToUpper(strings.TrimSpace(d.KNumber))
	}
	return dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "k_number"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"device_name", "manufacturer", "device_class", "product_code",
			"indications_for_use", "technological_characteristics",
			"decision_date", "decision", "updated_at",
		}),
	}).Create(&devices).Error
}
