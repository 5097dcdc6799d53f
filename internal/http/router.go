package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/regdraft-backend/internal/http/handlers"
	httpMW "github.com/yungbote/regdraft-backend/internal/http/middleware"
	"github.com/yungbote/regdraft-backend/internal/observability"
	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string
	Identity    *httpMW.Identity

	HealthHandler     *httpH.HealthHandler
	SubmissionHandler *httpH.SubmissionHandler
	DocumentHandler   *httpH.DocumentHandler
	ReviewHandler     *httpH.ReviewHandler
	PredicateHandler  *httpH.PredicateHandler
	KnowledgeHandler  *httpH.KnowledgeHandler
	ComplianceHandler *httpH.ComplianceHandler
	GenerationHandler *httpH.GenerationHandler
	AdminHandler      *httpH.AdminHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api/v1")
	if cfg.Identity != nil {
		api.Use(cfg.Identity.Attach())
	}
	{
		// Submissions
		if cfg.SubmissionHandler != nil {
			api.POST("/submissions", cfg.SubmissionHandler.Create)
			api.GET("/submissions", cfg.SubmissionHandler.List)
			api.GET("/submissions/:id", cfg.SubmissionHandler.Get)
			api.PATCH("/submissions/:id", cfg.SubmissionHandler.Update)
			api.DELETE("/submissions/:id", cfg.SubmissionHandler.Delete)
			api.GET("/submissions/:id/status-history", cfg.SubmissionHandler.StatusHistory)
		}

		// Generation (SSE)
		if cfg.GenerationHandler != nil {
			api.POST("/submissions/:id/generate-stream", cfg.GenerationHandler.Stream)
		}

		// Supporting documents
		if cfg.DocumentHandler != nil {
			api.GET("/submissions/:id/documents", cfg.DocumentHandler.List)
			api.POST("/submissions/:id/documents", cfg.DocumentHandler.Create)
			api.PATCH("/submissions/:id/documents/:docID/ai-review", cfg.DocumentHandler.RecordAIReview)
			api.DELETE("/submissions/:id/documents/:docID", cfg.DocumentHandler.Delete)
		}

		// Compliance
		if cfg.ComplianceHandler != nil {
			api.POST("/submissions/:id/compliance/check", cfg.ComplianceHandler.Check)
		}

		// Reviews
		if cfg.ReviewHandler != nil {
			api.POST("/submissions/:id/reviews", cfg.ReviewHandler.CreateRound)
			api.GET("/submissions/:id/reviews", cfg.ReviewHandler.ListRounds)
			api.GET("/submissions/:id/reviews/:reviewID", cfg.ReviewHandler.Get)
			api.PATCH("/submissions/:id/reviews/:reviewID", cfg.ReviewHandler.SetStatus)
			api.PATCH("/submissions/:id/reviews/:reviewID/checklist/:itemID", cfg.ReviewHandler.UpdateItem)
		}

		// Predicate devices
		if cfg.PredicateHandler != nil {
			api.GET("/predicate-devices", cfg.PredicateHandler.Search)
			api.GET("/predicate-devices/:kNumber", cfg.PredicateHandler.Get)
		}

		// Knowledge base
		if cfg.KnowledgeHandler != nil {
			api.POST("/knowledge", cfg.KnowledgeHandler.Ingest)
			api.GET("/similar-submissions", cfg.KnowledgeHandler.Similar)
			api.GET("/admin/knowledge-base", cfg.KnowledgeHandler.List)
			api.GET("/admin/knowledge-base/stats", cfg.KnowledgeHandler.Stats)
			api.DELETE("/admin/knowledge-base", cfg.KnowledgeHandler.Clear)
		}

		// Admin
		if cfg.AdminHandler != nil {
			api.POST("/admin/seed", cfg.AdminHandler.Seed)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "route not found", "code": "not_found"}})
	})
	return r
}
