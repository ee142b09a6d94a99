package components

import (
	"pixmuse/internal/handler/api"
	"pixmuse/internal/infra/queue"
	"pixmuse/internal/infra/repository"
	"pixmuse/internal/infra/statusstore"
	"pixmuse/internal/infra/storage"
	"pixmuse/internal/notifier"
	"pixmuse/internal/usecase/commands"
	"pixmuse/internal/worker"

	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		fx.Annotate(
			repository.NewCreditsRepository,
			fx.As(new(commands.CreditsRepository)),
		),
		fx.Annotate(
			repository.NewChargeRepository,
			fx.As(new(commands.ChargeRepository)),
		),
		fx.Annotate(
			repository.NewSetsRepository,
			fx.As(new(commands.SetsRepository)),
		),
		fx.Annotate(
			storage.NewUploader,
			fx.As(new(commands.ArtifactUploader)),
		),
		// one queue serves the producer, the worker pool and the health probe
		fx.Annotate(
			queue.NewRedisQueue,
			fx.As(new(commands.JobQueue)),
			fx.As(new(worker.DeliverySource)),
			fx.As(new(api.QueuePinger)),
		),
		fx.Annotate(
			statusstore.NewRedisStore,
			fx.As(new(statusstore.Store)),
			fx.As(new(notifier.Watcher)),
		),
	),
)
