package api

import (
	"fmt"

	"github.com/mimamori/mimamori/internal/alerts"
	"github.com/mimamori/mimamori/internal/bps"
	"github.com/mimamori/mimamori/internal/config"
	"github.com/mimamori/mimamori/internal/dashboard"
	"github.com/mimamori/mimamori/internal/orgs"
	"github.com/mimamori/mimamori/internal/patients"
	"github.com/mimamori/mimamori/internal/reports"
	"github.com/mimamori/mimamori/internal/risk"
	"github.com/mimamori/mimamori/internal/scan"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Patients  patients.System
	Reports   reports.System
	Alerts    alerts.System
	Risk      risk.System
	Scan      scan.System
	Orgs      orgs.System
	Dashboard dashboard.System
}

// NewDomain creates all domain systems from the API runtime, in dependency
// order: risk feeds alerts, both feed patients, and everything feeds scan.
func NewDomain(cfg *config.Config, runtime *Runtime) (*Domain, error) {
	db := runtime.Database.Connection()

	riskSystem := risk.New(db, runtime.Logger)

	catalog, err := alerts.NewCatalog(cfg.Scan.Patterns)
	if err != nil {
		return nil, fmt.Errorf("pattern catalog: %w", err)
	}

	alertsSystem := alerts.New(
		db,
		catalog,
		riskSystem,
		runtime.Logger,
		runtime.Pagination,
	)

	classifier, summarizer := buildBPS(cfg, runtime)
	aggregator := bps.NewAggregator(summarizer, cfg.BPS.WindowDays)

	reportsSystem := reports.New(
		db,
		classifier,
		aggregator,
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
		cfg.API.MaxUploadSizeBytes(),
	)

	patientsSystem := patients.New(
		db,
		reportsSystem,
		alertsSystem,
		riskSystem,
		runtime.Logger,
		runtime.Pagination,
	)

	scanSystem := scan.New(
		&scan.Runtime{
			Agent:        runtime.Agent,
			AgentEnabled: cfg.BPS.Mode == config.BPSModeAgent,
			Patients:     patientsSystem,
			Reports:      reportsSystem,
			Alerts:       alertsSystem,
			Risk:         riskSystem,
			Logger:       runtime.Logger,
		},
		cfg.Scan.LookbackDays,
		cfg.Scan.PatientTimeoutDuration(),
		cfg.Scan.Concurrency,
	)

	return &Domain{
		Patients:  patientsSystem,
		Reports:   reportsSystem,
		Alerts:    alertsSystem,
		Risk:      riskSystem,
		Scan:      scanSystem,
		Orgs:      orgs.New(db, runtime.Logger),
		Dashboard: dashboard.New(db, runtime.Logger),
	}, nil
}

// buildBPS selects the classification backend. Agent mode wraps the agent
// implementations with rule fallbacks so an unreachable model degrades to
// deterministic behavior instead of failing ingestion.
func buildBPS(cfg *config.Config, runtime *Runtime) (bps.Classifier, bps.Summarizer) {
	ruleClassifier := bps.NewRuleClassifier()
	ruleSummarizer := bps.NewRuleSummarizer()

	if cfg.BPS.Mode != config.BPSModeAgent {
		return ruleClassifier, ruleSummarizer
	}

	classifier := bps.NewFallbackClassifier(
		bps.NewAgentClassifier(runtime.Agent),
		ruleClassifier,
		runtime.Logger,
	)
	summarizer := bps.NewFallbackSummarizer(
		bps.NewAgentSummarizer(runtime.Agent),
		ruleSummarizer,
		runtime.Logger,
	)
	return classifier, summarizer
}
