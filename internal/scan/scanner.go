package scan

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type scanner struct {
	rt             *Runtime
	lookbackDays   int
	patientTimeout time.Duration
	concurrency    int
}

// New creates a scan system over the given runtime and execution bounds.
func New(rt *Runtime, lookbackDays int, patientTimeout time.Duration, concurrency int) System {
	return &scanner{
		rt:             rt,
		lookbackDays:   lookbackDays,
		patientTimeout: patientTimeout,
		concurrency:    concurrency,
	}
}

func (s *scanner) Handler() *Handler {
	return NewHandler(s, s.rt.Logger)
}

func (s *scanner) ScanPatient(ctx context.Context, patientID uuid.UUID) (*PatientResult, error) {
	return s.scanPatient(ctx, patientID, s.lookback(0))
}

func (s *scanner) ScanAll(ctx context.Context, orgID uuid.UUID, lookbackDays int) (*BatchResult, error) {
	roster, err := s.rt.Patients.ListActiveByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}

	lookback := s.lookback(lookbackDays)
	results := make([]PatientResult, len(roster))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, p := range roster {
		g.Go(func() error {
			scanCtx, cancel := context.WithTimeout(gctx, s.patientTimeout)
			defer cancel()

			result, err := s.scanPatient(scanCtx, p.ID, lookback)
			if err != nil {
				s.rt.Logger.ErrorContext(
					gctx, "patient scan failed",
					"patient_id", p.ID,
					"error", err,
				)
				results[i] = PatientResult{
					PatientID:   p.ID,
					PatientName: p.Name,
					Error:       err.Error(),
					CompletedAt: time.Now(),
				}
				return nil
			}

			results[i] = *result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.rt.Logger.Info("batch scan complete",
		"org", orgID,
		"patients", len(roster))

	return &BatchResult{
		Success:     true,
		Report:      FormatDigest(time.Now(), results),
		ScanResults: results,
	}, nil
}

func (s *scanner) scanPatient(ctx context.Context, patientID uuid.UUID, lookback time.Duration) (*PatientResult, error) {
	return Execute(ctx, s.rt, patientID, lookback)
}

func (s *scanner) lookback(days int) time.Duration {
	if days <= 0 {
		days = s.lookbackDays
	}
	return time.Duration(days) * 24 * time.Hour
}
