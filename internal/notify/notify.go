// Package notify delivers outbound messages to chat channels. The morning
// digest is its only producer today.
package notify

import (
	"context"
	"log/slog"

	"github.com/slack-go/slack"
)

// Notifier posts a message to a named channel.
type Notifier interface {
	Post(ctx context.Context, channel, text string) error
}

// Slack posts messages through the Slack Web API.
type Slack struct {
	client *slack.Client
	logger *slog.Logger
}

// NewSlack creates a Slack notifier with the given bot token.
func NewSlack(token string, logger *slog.Logger) *Slack {
	return &Slack{
		client: slack.New(token),
		logger: logger.With("system", "notify"),
	}
}

func (s *Slack) Post(ctx context.Context, channel, text string) error {
	_, _, err := s.client.PostMessageContext(
		ctx,
		channel,
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return err
	}

	s.logger.Info("message posted", "channel", channel, "chars", len(text))
	return nil
}

// Noop discards messages. Used when no token is configured.
type Noop struct {
	logger *slog.Logger
}

func NewNoop(logger *slog.Logger) *Noop {
	return &Noop{logger: logger.With("system", "notify")}
}

func (n *Noop) Post(_ context.Context, channel, text string) error {
	n.logger.Debug("notification discarded", "channel", channel, "chars", len(text))
	return nil
}
