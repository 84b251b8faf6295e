package api

import (
	"net/http"

	"github.com/mimamori/mimamori/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain) {
	routes.Register(
		mux,
		domain.Patients.Handler().Routes(),
		domain.Reports.Handler().Routes(),
		domain.Alerts.Handler().Routes(),
		domain.Scan.Handler().Routes(),
		domain.Orgs.Handler().Routes(),
		domain.Dashboard.Handler().Routes(),
	)
}
