package scan

import (
	"log/slog"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/mimamori/mimamori/internal/alerts"
	"github.com/mimamori/mimamori/internal/patients"
	"github.com/mimamori/mimamori/internal/reports"
	"github.com/mimamori/mimamori/internal/risk"
)

// Runtime bundles the dependencies that scan nodes require.
// It is constructed by higher-level composition code from Infrastructure
// and Domain systems. AgentEnabled routes the graph through the optional
// assessment node.
type Runtime struct {
	Agent        gaconfig.AgentConfig
	AgentEnabled bool
	Patients     patients.System
	Reports      reports.System
	Alerts       alerts.System
	Risk         risk.System
	Logger       *slog.Logger
}
