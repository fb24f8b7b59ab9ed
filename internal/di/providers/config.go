// Package providers contains dependency injection providers for the chapterd server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/chapterdapp/chapterd/internal/config"
	"github.com/chapterdapp/chapterd/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("starting chapterd",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Data.BasePath,
		"inbox_path", cfg.Library.InboxPath,
	)

	return log, nil
}
