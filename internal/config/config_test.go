// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "http://127.0.0.1:4444", cfg.Server.URL)
	assert.Equal(t, 60*time.Second, cfg.Server.Timeout)
	assert.Equal(t, DriverNone, cfg.Driver.Kind)
	assert.Equal(t, 20*time.Second, cfg.Driver.StartTimeout)
	assert.Equal(t, "firefox", cfg.Browser.Name)
	assert.True(t, cfg.Browser.Headless)
	assert.Empty(t, cfg.Browser.Args)
	assert.Equal(t, 100*time.Millisecond, cfg.Typing.BaseDelay)
	assert.Equal(t, 20*time.Millisecond, cfg.Typing.Jitter)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, "wdctl", cfg.Logger.ServiceName)
}

func TestNewConfigFromViper(t *testing.T) {
	t.Run("yaml file overrides defaults", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		yaml := []byte(`
server:
  url: http://grid:4444/wd/hub
  timeout: 5s
browser:
  name: chrome
  args: ["--headless=new", "--no-sandbox"]
typing:
  base_delay: 250ms
`)
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yaml)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "http://grid:4444/wd/hub", cfg.Server.URL)
		assert.Equal(t, 5*time.Second, cfg.Server.Timeout)
		assert.Equal(t, "chrome", cfg.Browser.Name)
		assert.Equal(t, []string{"--headless=new", "--no-sandbox"}, cfg.Browser.Args)
		assert.Equal(t, 250*time.Millisecond, cfg.Typing.BaseDelay)
		// untouched keys keep their default
		assert.Equal(t, 20*time.Millisecond, cfg.Typing.Jitter)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv("WDCTL_SERVER_URL", "http://env-host:9515")
		t.Setenv("WDCTL_LOGGER_LEVEL", "debug")

		v := viper.New()
		SetDefaults(v)
		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "http://env-host:9515", cfg.Server.URL)
		assert.Equal(t, "debug", cfg.Logger.Level)
	})

	t.Run("home directory is expanded", func(t *testing.T) {
		home, err := homedir.Dir()
		require.NoError(t, err)

		v := viper.New()
		SetDefaults(v)
		v.Set("output.dir", "~/shots")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, "shots"), cfg.Output.Dir)
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("driver.kind", "opera")

		_, err := NewConfigFromViper(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Contains(t, err.Error(), "opera")
	})
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"relative server url", func(c *Config) { c.Server.URL = "localhost:4444" }, "server.url"},
		{"chrome without path", func(c *Config) { c.Driver.Kind = DriverChrome }, "driver.path is required"},
		{"gecko with path", func(c *Config) {
			c.Driver.Kind = DriverGecko
			c.Driver.Path = "/usr/bin/geckodriver"
			c.Server.URL = ""
		}, ""},
		{"port out of range", func(c *Config) {
			c.Driver.Kind = DriverChrome
			c.Driver.Path = "/usr/bin/chromedriver"
			c.Driver.Port = 70000
		}, "driver.port"},
		{"negative jitter", func(c *Config) { c.Typing.Jitter = -time.Millisecond }, "typing delays"},
		{"negative timeout", func(c *Config) { c.Server.Timeout = -time.Second }, "server.timeout"},
		{"no browser", func(c *Config) { c.Browser.Name = "" }, "browser.name"},
		{"bad log format", func(c *Config) { c.Logger.Format = "xml" }, "logger.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
