// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/fedesog/webdriver/v2"
	"github.com/fedesog/webdriver/v2/internal/config"
	"go.uber.org/zap"
)

// app connects the configuration to a WebDriver server, launching a local
// driver first when one is configured.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	service webdriver.Service
	url     string
}

func newApp(cfg *config.Config, logger *zap.Logger) *app {
	return &app{cfg: cfg, logger: logger, url: cfg.Server.URL}
}

// start launches the configured driver, if any.
func (a *app) start() error {
	d := a.cfg.Driver
	switch d.Kind {
	case config.DriverChrome:
		s := webdriver.NewChromeDriver(d.Path)
		s.Port = d.Port
		s.LogFile = d.LogFile
		s.StartTimeout = d.StartTimeout
		s.Logger = a.logger.Named("chromedriver")
		a.service = s
	case config.DriverGecko:
		s := webdriver.NewGeckoDriver(d.Path)
		s.Port = d.Port
		s.LogFile = d.LogFile
		s.StartTimeout = d.StartTimeout
		s.Logger = a.logger.Named("geckodriver")
		a.service = s
	default:
		return nil
	}
	if err := a.service.Start(); err != nil {
		a.service = nil
		return err
	}
	a.url = a.service.URL()
	return nil
}

// stop stops the driver started by start.
func (a *app) stop() {
	if a.service == nil {
		return
	}
	if err := a.service.Stop(); err != nil {
		a.logger.Warn("driver did not stop cleanly", zap.Error(err))
	}
	a.service = nil
}

// client returns a new client for the server. Clients are not shared
// between goroutines.
func (a *app) client() *webdriver.Client {
	opts := []webdriver.Option{
		webdriver.WithLogger(a.logger.Named("client")),
		webdriver.WithTypingJitter(a.cfg.Typing.Jitter),
	}
	if a.cfg.Server.Timeout > 0 {
		opts = append(opts, webdriver.WithTimeout(a.cfg.Server.Timeout))
	}
	if a.cfg.Server.UserAgent != "" {
		opts = append(opts, webdriver.WithUserAgent(a.cfg.Server.UserAgent))
	}
	return webdriver.NewClient(a.url, opts...)
}

// session returns a client with a new session. Close it with endSession.
func (a *app) session() (*webdriver.Client, error) {
	c := a.client()
	sid, err := c.CreateSession(capabilities(a.cfg.Browser))
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	a.logger.Debug("session started", zap.String("session", sid), zap.String("url", a.url))
	return c, nil
}

func (a *app) endSession(c *webdriver.Client) {
	if c == nil || c.SessionID() == "" {
		return
	}
	if err := c.DeleteSession(); err != nil {
		a.logger.Warn("failed to delete session", zap.String("session", c.SessionID()), zap.Error(err))
	}
}

// capabilities is the new-session request for b. Headless mode and extra
// arguments go into the vendor options of Chrome and Firefox.
func capabilities(b config.BrowserConfig) webdriver.Value {
	always := map[string]webdriver.Value{
		"browserName": webdriver.StringValue(b.Name),
	}
	args := append([]string{}, b.Args...)
	switch b.Name {
	case "chrome", "chromium", "MicrosoftEdge":
		if b.Headless {
			args = append(args, "--headless=new")
		}
		key := "goog:chromeOptions"
		if b.Name == "MicrosoftEdge" {
			key = "ms:edgeOptions"
		}
		if len(args) > 0 {
			always[key] = webdriver.ObjectValue(map[string]webdriver.Value{
				"args": webdriver.MustValueOf(args),
			})
		}
	case "firefox":
		if b.Headless {
			args = append(args, "-headless")
		}
		if len(args) > 0 {
			always["moz:firefoxOptions"] = webdriver.ObjectValue(map[string]webdriver.Value{
				"args": webdriver.MustValueOf(args),
			})
		}
	}
	return webdriver.NewCapabilities(webdriver.ObjectValue(always))
}
