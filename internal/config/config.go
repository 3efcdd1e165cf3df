// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config holds the settings of the wdctl command line tool.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. WDCTL_SERVER_URL.
const EnvPrefix = "WDCTL"

// Driver kinds.
const (
	DriverNone   = "none"
	DriverChrome = "chrome"
	DriverGecko  = "gecko"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Driver  DriverConfig  `mapstructure:"driver" yaml:"driver"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Typing  TypingConfig  `mapstructure:"typing" yaml:"typing"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
}

// ServerConfig locates the WebDriver server. It is ignored when a local
// driver is started, the driver's own URL is used instead.
type ServerConfig struct {
	URL       string        `mapstructure:"url" yaml:"url"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// DriverConfig describes a driver binary to launch before connecting.
type DriverConfig struct {
	Kind         string        `mapstructure:"kind" yaml:"kind"`
	Path         string        `mapstructure:"path" yaml:"path"`
	Port         int           `mapstructure:"port" yaml:"port"`
	LogFile      string        `mapstructure:"log_file" yaml:"log_file"`
	StartTimeout time.Duration `mapstructure:"start_timeout" yaml:"start_timeout"`
}

// BrowserConfig goes into the alwaysMatch capabilities of new sessions.
type BrowserConfig struct {
	Name     string   `mapstructure:"name" yaml:"name"`
	Headless bool     `mapstructure:"headless" yaml:"headless"`
	Args     []string `mapstructure:"args" yaml:"args"`
}

type TypingConfig struct {
	BaseDelay time.Duration `mapstructure:"base_delay" yaml:"base_delay"`
	Jitter    time.Duration `mapstructure:"jitter" yaml:"jitter"`
}

type OutputConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// LoggerConfig configures the zap logger of the tool.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	// -- Server --
	v.SetDefault("server.url", "http://127.0.0.1:4444")
	v.SetDefault("server.timeout", "60s")
	v.SetDefault("server.user_agent", "")

	// -- Driver --
	v.SetDefault("driver.kind", DriverNone)
	v.SetDefault("driver.path", "")
	v.SetDefault("driver.port", 0)
	v.SetDefault("driver.log_file", "")
	v.SetDefault("driver.start_timeout", "20s")

	// -- Browser --
	v.SetDefault("browser.name", "firefox")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.args", []string{})

	// -- Typing --
	v.SetDefault("typing.base_delay", "100ms")
	v.SetDefault("typing.jitter", "20ms")

	// -- Output --
	v.SetDefault("output.dir", ".")

	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "wdctl")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)
	v.SetDefault("logger.compress", false)
}

// NewDefaultConfig returns the configuration made of defaults only.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := NewConfigFromViper(v)
	if err != nil {
		// defaults are valid
		panic(fmt.Sprintf("failed to load default config: %v", err))
	}
	return cfg
}

// NewConfigFromViper decodes, expands and validates the settings held by v.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.Output.Dir, &c.Driver.Path, &c.Driver.LogFile, &c.Logger.LogFile} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("expand %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	switch c.Driver.Kind {
	case DriverNone:
		u, err := url.Parse(c.Server.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("server.url %q is not an absolute URL", c.Server.URL)
		}
	case DriverChrome, DriverGecko:
		if c.Driver.Path == "" {
			return fmt.Errorf("driver.path is required for driver.kind %q", c.Driver.Kind)
		}
		if c.Driver.Port < 0 || c.Driver.Port > 65535 {
			return fmt.Errorf("driver.port %d is out of range", c.Driver.Port)
		}
	default:
		return fmt.Errorf("driver.kind must be one of none, chrome, gecko; got %q", c.Driver.Kind)
	}
	if c.Server.Timeout < 0 {
		return errors.New("server.timeout must not be negative")
	}
	if c.Typing.BaseDelay < 0 || c.Typing.Jitter < 0 {
		return errors.New("typing delays must not be negative")
	}
	if c.Browser.Name == "" {
		return errors.New("browser.name is a required configuration field")
	}
	switch c.Logger.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logger.format must be console or json; got %q", c.Logger.Format)
	}
	return nil
}
