package bootstrap

import (
	"pixmuse/internal/pkg/config"

	"go.uber.org/fx"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		config.LoadConfig,
		func(cfg config.Config) config.PipelineConfig { return cfg.Pipeline },
		func(cfg config.Config) config.ProviderConfig { return cfg.Provider },
		func(cfg config.Config) config.S3Config { return cfg.S3 },
	),
)
