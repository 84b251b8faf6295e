package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"
)

// Execute runs the alert scan for a single patient. It builds the state
// graph (init → detect → assess? → finalize), executes it, and extracts
// the PatientResult from the final state.
func Execute(ctx context.Context, rt *Runtime, patientID uuid.UUID, lookback time.Duration) (*PatientResult, error) {
	graph, err := buildGraph(rt)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	initialState := state.New(nil)
	initialState = initialState.Set(KeyPatientID, patientID)
	initialState = initialState.Set(KeyLookback, lookback)

	finalState, err := graph.Execute(ctx, initialState)
	if err != nil {
		return nil, fmt.Errorf("execute graph: %w", err)
	}

	return extractResult(finalState)
}

func buildGraph(rt *Runtime) (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("mimamori-scan")
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	if err := graph.AddNode("init", InitNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("detect", DetectNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("assess", AssessNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("finalize", FinalizeNode(rt)); err != nil {
		return nil, err
	}

	agentEnabled := func(state.State) bool { return rt.AgentEnabled }

	// init → detect (unconditional)
	if err := graph.AddEdge("init", "detect", nil); err != nil {
		return nil, err
	}

	// detect → assess (when an agent is configured)
	if err := graph.AddEdge("detect", "assess", agentEnabled); err != nil {
		return nil, err
	}

	// detect → finalize (rule-only path)
	if err := graph.AddEdge("detect", "finalize", state.Not(agentEnabled)); err != nil {
		return nil, err
	}

	// assess → finalize (unconditional)
	if err := graph.AddEdge("assess", "finalize", nil); err != nil {
		return nil, err
	}

	if err := graph.SetEntryPoint("init"); err != nil {
		return nil, err
	}

	if err := graph.SetExitPoint("finalize"); err != nil {
		return nil, err
	}

	return graph, nil
}

func extractResult(s state.State) (*PatientResult, error) {
	ss, err := extractScanState(s)
	if err != nil {
		return nil, err
	}

	return &PatientResult{
		Success:     true,
		PatientID:   ss.Patient.ID,
		PatientName: ss.Patient.Name,
		Alerts:      ss.Created,
		CompletedAt: time.Now(),
	}, nil
}

func extractScanState(s state.State) (*ScanState, error) {
	val, ok := s.Get(KeyScanState)
	if !ok {
		return nil, fmt.Errorf("missing %s in state", KeyScanState)
	}

	ss, ok := val.(ScanState)
	if !ok {
		return nil, fmt.Errorf("%s is not ScanState", KeyScanState)
	}

	return &ss, nil
}
