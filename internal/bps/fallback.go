package bps

import (
	"context"
	"log/slog"
)

// FallbackClassifier tries a primary classifier and falls back to a
// secondary when the primary fails. Used to keep ingest working when the
// language model is unreachable.
type FallbackClassifier struct {
	primary   Classifier
	secondary Classifier
	logger    *slog.Logger
}

// NewFallbackClassifier creates a FallbackClassifier.
func NewFallbackClassifier(primary, secondary Classifier, logger *slog.Logger) *FallbackClassifier {
	return &FallbackClassifier{
		primary:   primary,
		secondary: secondary,
		logger:    logger.With("system", "bps"),
	}
}

func (c *FallbackClassifier) Classify(ctx context.Context, text string) (*Classification, error) {
	result, err := c.primary.Classify(ctx, text)
	if err == nil {
		return result, nil
	}

	c.logger.Warn("primary classifier failed, falling back", "error", err)
	return c.secondary.Classify(ctx, text)
}

// FallbackSummarizer mirrors FallbackClassifier for narrative generation.
type FallbackSummarizer struct {
	primary   Summarizer
	secondary Summarizer
	logger    *slog.Logger
}

// NewFallbackSummarizer creates a FallbackSummarizer.
func NewFallbackSummarizer(primary, secondary Summarizer, logger *slog.Logger) *FallbackSummarizer {
	return &FallbackSummarizer{
		primary:   primary,
		secondary: secondary,
		logger:    logger.With("system", "bps"),
	}
}

func (s *FallbackSummarizer) Summarize(ctx context.Context, axis Axis, summary AxisSummary, reportCount int) (string, error) {
	narrative, err := s.primary.Summarize(ctx, axis, summary, reportCount)
	if err == nil {
		return narrative, nil
	}

	s.logger.Warn("primary summarizer failed, falling back", "axis", axis, "error", err)
	return s.secondary.Summarize(ctx, axis, summary, reportCount)
}
