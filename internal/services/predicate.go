package services

import (
	"github.com/yungbote/regdraft-backend/internal/data/repos"
	types "github.com/yungbote/regdraft-backend/internal/domain"
	"github.com/yungbote/regdraft-backend/internal/platform/dbctx"
	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

type PredicateService interface {
	Get(dbc dbctx.Context, kNumber string) (*types.PredicateDevice, error)
	Search(dbc dbctx.Context, query string, limit int) ([]*types.PredicateDevice, error)
}

type predicateService struct {
	log        *logger.Logger
	predicates repos.PredicateDeviceRepo
}

func NewPredicateService(baseLog *logger.Logger, predicateRepo repos.PredicateDeviceRepo) PredicateService {
	return &predicateService{log: baseLog.With("service", "PredicateService"), predicates: predicateRepo}
}

func (s *predicateService) Get(dbc dbctx.Context, kNumber string) (*types.PredicateDevice, error) {
	p, err := s.predicates.GetByKNumber(dbc, kNumber)
	if err != nil {
		return nil, classify(err, "predicate_not_found")
	}
	return p, nil
}

func (s *predicateService) Search(dbc dbctx.Context, query string, limit int) ([]*types.PredicateDevice, error) {
	return s.predicates.SearchByName(dbc, query, limit)
}
