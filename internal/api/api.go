// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/mimamori/mimamori/internal/config"
	"github.com/mimamori/mimamori/internal/infrastructure"
	"github.com/mimamori/mimamori/pkg/middleware"
	"github.com/mimamori/mimamori/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, *Domain, error) {
	runtime := NewRuntime(cfg, infra)

	domain, err := NewDomain(cfg, runtime)
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	registerRoutes(mux, domain)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Infrastructure.Logger))

	return m, domain, nil
}
