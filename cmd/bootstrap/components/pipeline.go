package components

import (
	"pixmuse/internal/notifier"
	"pixmuse/internal/pkg/config"
	"pixmuse/internal/worker"

	"go.uber.org/fx"
)

var PipelineModule = fx.Module("pipeline",
	fx.Provide(
		worker.NewExecutor,
		worker.NewPool,
		worker.NewReaper,
		notifier.NewHub,
	),
	fx.Invoke(registerPipeline),
)

// registerPipeline ties the background components to the fx lifecycle. The
// pool and reaper only run when async dispatch is enabled; the notifier hub
// always runs because sync-only deployments still serve /ws/processing.
func registerPipeline(
	lc fx.Lifecycle,
	cfg config.PipelineConfig,
	pool *worker.Pool,
	reaper *worker.Reaper,
	hub *notifier.Hub,
) {
	if cfg.AsyncEnabled {
		lc.Append(fx.Hook{OnStart: pool.Start, OnStop: pool.Stop})
		lc.Append(fx.Hook{OnStart: reaper.Start, OnStop: reaper.Stop})
	}
	lc.Append(fx.Hook{OnStart: hub.Start, OnStop: hub.Stop})
}
