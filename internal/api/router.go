package api

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/findoc_server/config"
	"github.com/qs3c/findoc_server/internal/api/handler"
	"github.com/qs3c/findoc_server/internal/api/middleware"
)

type Router struct {
	analysisHandler  *handler.AnalysisHandler
	statusHandler    *handler.StatusHandler
	healthHandler    *handler.HealthHandler
	websocketHandler *handler.WebSocketHandler
	cfg              *config.Config
}

func NewRouter(
	analysisHandler *handler.AnalysisHandler,
	statusHandler *handler.StatusHandler,
	healthHandler *handler.HealthHandler,
	websocketHandler *handler.WebSocketHandler,
	cfg *config.Config,
) *Router {
	return &Router{
		analysisHandler:  analysisHandler,
		statusHandler:    statusHandler,
		healthHandler:    healthHandler,
		websocketHandler: websocketHandler,
		cfg:              cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))
	if r.cfg.Upload.MaxSize > 0 {
		engine.MaxMultipartMemory = r.cfg.Upload.MaxSize
	}

	engine.GET("/", r.healthHandler.Banner)
	engine.GET("/health", r.healthHandler.Health)

	// 可选认证：带 token 时取 token 中的 user_ref
	identified := engine.Group("")
	identified.Use(middleware.Identity(r.cfg.JWT.Secret, r.cfg.Server.DefaultUserRef))
	{
		identified.POST("/analyze", r.analysisHandler.Analyze)
		identified.GET("/status/:job_id", r.statusHandler.Get)
	}

	if r.websocketHandler != nil {
		engine.GET("/ws/jobs/:job_id", r.websocketHandler.Handle)
	}

	return engine
}
