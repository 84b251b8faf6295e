package config

import "os"

const (
	EnvNotifyToken   = "MIMAMORI_NOTIFY_TOKEN"
	EnvNotifyChannel = "MIMAMORI_NOTIFY_CHANNEL"
)

// NotifyConfig holds Slack delivery settings for the morning digest.
// An empty token disables outbound notifications.
type NotifyConfig struct {
	Token   string `toml:"token"`
	Channel string `toml:"channel"`
}

func (c *NotifyConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return nil
}

func (c *NotifyConfig) Merge(overlay *NotifyConfig) {
	if overlay.Token != "" {
		c.Token = overlay.Token
	}
	if overlay.Channel != "" {
		c.Channel = overlay.Channel
	}
}

func (c *NotifyConfig) loadDefaults() {
	if c.Channel == "" {
		c.Channel = "#mimamori-digest"
	}
}

func (c *NotifyConfig) loadEnv() {
	if v := os.Getenv(EnvNotifyToken); v != "" {
		c.Token = v
	}
	if v := os.Getenv(EnvNotifyChannel); v != "" {
		c.Channel = v
	}
}
