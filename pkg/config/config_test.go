package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 20, cfg.MaxConcurrent)
	assert.Equal(t, int64(100<<20), cfg.Upload.MultipartThreshold)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"zero max_concurrent", func(c *Config) { c.MaxConcurrent = 0 }, true},
		{"missing windows workspace", func(c *Config) { c.Workspace.Windows = "" }, true},
		{"missing unix workspace", func(c *Config) { c.Workspace.Unix = "" }, true},
		{"zero retry attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, true},
		{"max backoff below base", func(c *Config) { c.Retry.MaxBackoff = c.Retry.BaseBackoff / 2 }, true},
		{"factor not greater than one", func(c *Config) { c.Retry.Factor = 1 }, true},
		{"zero multipart threshold", func(c *Config) { c.Upload.MultipartThreshold = 0 }, true},
		{"zero upload concurrency", func(c *Config) { c.Upload.MaxConcurrency = 0 }, true},
		{"proxy enabled without host", func(c *Config) { c.Proxy = Proxy{Enabled: true} }, true},
		{"proxy enabled with host", func(c *Config) { c.Proxy = Proxy{Enabled: true, Host: "proxy:8080"} }, false},
		{"unmodified default", func(c *Config) {}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultTimeoutsMatchSpec(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 600*time.Second, cfg.Timeouts.SessionIdle)
	assert.Equal(t, 300*time.Second, cfg.Timeouts.Pulse)
	assert.Equal(t, 15*time.Second, cfg.Timeouts.Stability)
	assert.Equal(t, 5*time.Second, cfg.Retry.MaxBackoff/6) // sanity: 30s max backoff
}
