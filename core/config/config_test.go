package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Telegram: TelegramConfig{Token: "123:abc", RunMode: "longpoll"},
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		description string
		mutate      func(*Config)
		wantErr     string
		check       func(t *testing.T, cfg *Config)
	}{
		{
			description: "defaults",
			mutate:      func(*Config) {},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
				assert.Equal(t, SequenceStoreMemory, cfg.Sequence.Store)
			},
		},
		{
			description: "missing token",
			mutate:      func(c *Config) { c.Telegram.Token = "" },
			wantErr:     "token is required",
		},
		{
			description: "polling alias",
			mutate:      func(c *Config) { c.Telegram.RunMode = "polling" },
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
			},
		},
		{
			description: "unknown run mode",
			mutate:      func(c *Config) { c.Telegram.RunMode = "carrier-pigeon" },
			wantErr:     "invalid telegram.run_mode",
		},
		{
			description: "webhook requires url",
			mutate:      func(c *Config) { c.Telegram.RunMode = "webhook" },
			wantErr:     "webhook.url is required",
		},
		{
			description: "webhook complete",
			mutate: func(c *Config) {
				c.Telegram.RunMode = "WEBHOOK"
				c.Webhook = WebhookConfig{URL: "https://bot.example", Listen: "0.0.0.0", Port: 8443}
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, RunModeWebhook, cfg.Telegram.RunMode)
			},
		},
		{
			description: "unknown sequence store",
			mutate:      func(c *Config) { c.Sequence.Store = "redis" },
			wantErr:     "invalid sequence.store",
		},
		{
			description: "exclude updates normalized",
			mutate: func(c *Config) {
				c.RateLimit.ExcludeUpdates = []string{" Callback ", "message"}
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"callback", "message"}, cfg.RateLimit.ExcludeUpdates)
			},
		},
		{
			description: "unknown exclude update",
			mutate: func(c *Config) {
				c.RateLimit.ExcludeUpdates = []string{"poll"}
			},
			wantErr: "invalid rate_limit.exclude_updates",
		},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := Normalize(&cfg)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			if tc.check != nil {
				tc.check(t, &cfg)
			}
		})
	}
}
