package app

import (
	"gorm.io/gorm"

	apphttp "github.com/yungbote/regdraft-backend/internal/http"
	httpH "github.com/yungbote/regdraft-backend/internal/http/handlers"
	httpMW "github.com/yungbote/regdraft-backend/internal/http/middleware"
	"github.com/yungbote/regdraft-backend/internal/observability"
	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

type Handlers struct {
	Health     *httpH.HealthHandler
	Submission *httpH.SubmissionHandler
	Document   *httpH.DocumentHandler
	Review     *httpH.ReviewHandler
	Predicate  *httpH.PredicateHandler
	Knowledge  *httpH.KnowledgeHandler
	Compliance *httpH.ComplianceHandler
	Generation *httpH.GenerationHandler
	Admin      *httpH.AdminHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, cfg Config, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(db),
		Submission: httpH.NewSubmissionHandler(services.Submission),
		Document:   httpH.NewDocumentHandler(services.Document),
		Review:     httpH.NewReviewHandler(services.Review),
		Predicate:  httpH.NewPredicateHandler(services.Predicate),
		Knowledge:  httpH.NewKnowledgeHandler(services.Knowledge),
		Compliance: httpH.NewComplianceHandler(services.Compliance),
		Generation: httpH.NewGenerationHandler(log, services.Generation, cfg.Heartbeat),
		Admin:      httpH.NewAdminHandler(services.Seeder),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *apphttp.Server {
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:               log.With("component", "http"),
		Metrics:           metrics,
		ServiceName:       cfg.ServiceName,
		CORSOrigins:       cfg.CORSOrigins,
		Identity:          httpMW.NewIdentity(log, cfg.JWTSecret),
		HealthHandler:     handlers.Health,
		SubmissionHandler: handlers.Submission,
		DocumentHandler:   handlers.Document,
		ReviewHandler:     handlers.Review,
		PredicateHandler:  handlers.Predicate,
		KnowledgeHandler:  handlers.Knowledge,
		ComplianceHandler: handlers.Compliance,
		GenerationHandler: handlers.Generation,
		AdminHandler:      handlers.Admin,
	})
}
