package api

import (
	"github.com/mimamori/mimamori/internal/config"
	"github.com/mimamori/mimamori/internal/infrastructure"
	"github.com/mimamori/mimamori/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Agent:     cfg.Agent,
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Storage:   infra.Storage,
			Notifier:  infra.Notifier,
		},
		Pagination: cfg.API.Pagination,
	}
}
