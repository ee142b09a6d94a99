package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"pixmuse/internal/handler/api"
	"pixmuse/internal/handler/middleware"
	"pixmuse/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	generationHandler *api.GenerationHandler,
	processingHandler *api.ProcessingHandler,
	wsHandler *api.WSHandler,
	healthHandler *api.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	setupMiddleware(engine, cfg)
	setupRoutes(engine, generationHandler, processingHandler, wsHandler, healthHandler, authMiddleware)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(nil, cfg.Log))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(
	engine *gin.Engine,
	generationHandler *api.GenerationHandler,
	processingHandler *api.ProcessingHandler,
	wsHandler *api.WSHandler,
	healthHandler *api.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	addRoutes(engine.Group(""), []route{
		{Method: http.MethodGet, Path: "/health", Handler: healthHandler.Health},
		{Method: http.MethodGet, Path: "/health/queue", Handler: healthHandler.Queue},
		{Method: http.MethodGet, Path: "/health/workers", Handler: healthHandler.Workers},
		{Method: http.MethodGet, Path: "/health/notifier", Handler: healthHandler.Notifier},
	})

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	apiGroup := engine.Group("/api")
	{
		generations := apiGroup.Group("/generations")
		generations.Use(authMiddleware.RequireAuth())
		{
			addRoutes(generations, []route{
				{Method: http.MethodPost, Path: "", Handler: generationHandler.CreateGeneration},
			})
		}
	}

	processing := engine.Group("/processing")
	processing.Use(authMiddleware.RequireAuth())
	{
		addRoutes(processing, []route{
			{Method: http.MethodGet, Path: "/mine", Handler: processingHandler.ListMine},
			{Method: http.MethodGet, Path: "/:id", Handler: processingHandler.GetStatus},
		})
	}

	ws := engine.Group("/ws")
	ws.Use(authMiddleware.RequireAuth())
	{
		addRoutes(ws, []route{
			{Method: http.MethodGet, Path: "/processing", Handler: wsHandler.Processing},
		})
	}
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
