package bps

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/mimamori/mimamori/pkg/formatting"
)

// AgentClassifier classifies report text with a language model. Each call
// creates its own agent so concurrent classifications do not share provider
// state. Responses are parsed fence-tolerantly and validated against the
// axis vocabulary; on any failure the caller decides whether to fall back.
type AgentClassifier struct {
	cfg gaconfig.AgentConfig
}

// NewAgentClassifier creates an AgentClassifier with the given agent configuration.
func NewAgentClassifier(cfg gaconfig.AgentConfig) *AgentClassifier {
	return &AgentClassifier{cfg: cfg}
}

func (c *AgentClassifier) Classify(ctx context.Context, text string) (*Classification, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	a, err := agent.New(&c.cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: create agent: %w", ErrClassifyFailed, err)
	}

	resp, err := a.Chat(ctx, classifyPrompt(text))
	if err != nil {
		return nil, fmt.Errorf("%w: chat call: %w", ErrClassifyFailed, err)
	}

	parsed, err := formatting.Parse[Classification](resp.Content())
	if err != nil {
		return nil, fmt.Errorf("%w: parse response: %w", ErrClassifyFailed, err)
	}

	normalize(&parsed)
	return &parsed, nil
}

// AgentSummarizer generates axis narratives with a language model.
type AgentSummarizer struct {
	cfg gaconfig.AgentConfig
}

// NewAgentSummarizer creates an AgentSummarizer with the given agent configuration.
func NewAgentSummarizer(cfg gaconfig.AgentConfig) *AgentSummarizer {
	return &AgentSummarizer{cfg: cfg}
}

func (s *AgentSummarizer) Summarize(ctx context.Context, axis Axis, summary AxisSummary, reportCount int) (string, error) {
	a, err := agent.New(&s.cfg)
	if err != nil {
		return "", fmt.Errorf("%w: create agent: %w", ErrSummarizeFailed, err)
	}

	resp, err := a.Chat(ctx, summaryPrompt(axis, summary, reportCount))
	if err != nil {
		return "", fmt.Errorf("%w: chat call: %w", ErrSummarizeFailed, err)
	}

	narrative := strings.TrimSpace(resp.Content())
	if narrative == "" {
		return "", fmt.Errorf("%w: empty response", ErrSummarizeFailed)
	}

	return narrative, nil
}

// normalize drops findings with unknown polarities and guarantees non-nil
// axis slices, so model output cannot widen the vocabulary.
func normalize(c *Classification) {
	c.Bio = normalizeAxis(c.Bio)
	c.Psycho = normalizeAxis(c.Psycho)
	c.Social = normalizeAxis(c.Social)
}

func normalizeAxis(findings []Finding) []Finding {
	cleaned := make([]Finding, 0, len(findings))
	for _, f := range findings {
		switch f.Polarity {
		case Worsening, Improving, Neutral:
		case "":
			f.Polarity = Neutral
		default:
			continue
		}
		if f.Label == "" {
			f.Label = f.Text
		}
		cleaned = append(cleaned, f)
	}
	return cleaned
}
