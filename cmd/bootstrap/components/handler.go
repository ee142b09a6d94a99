package components

import (
	"pixmuse/internal/handler"
	"pixmuse/internal/handler/api"
	"pixmuse/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewGenerationHandler,
		api.NewProcessingHandler,
		api.NewWSHandler,
		api.NewHealthHandler,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)
