// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webdriver

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/phayes/freeport"
	"go.uber.org/zap"
)

// GeckoDriver runs Mozilla's geckodriver, the WebDriver server for Firefox.
type GeckoDriver struct {
	// The port geckodriver listens on. Default: 0, a free port is picked by Start.
	Port int
	// Firefox binary to drive. Default: "" lets geckodriver find it.
	FirefoxBinary string
	// geckodriver log level: fatal, error, warn, info, config, debug or trace. Default: ""
	LogLevel string
	// Log file to dump geckodriver stdout/stderr, rotated by size. If "" send to terminal. Default: ""
	LogFile string
	// Start method fails if geckodriver doesn't start in less than StartTimeout. Default 20s.
	StartTimeout time.Duration
	// Logger traces the driver lifecycle. Default: no logging.
	Logger *zap.Logger

	path string
	proc *driverProcess
}

func NewGeckoDriver(path string) *GeckoDriver {
	return &GeckoDriver{
		path:         path,
		StartTimeout: 20 * time.Second,
		Logger:       zap.NewNop(),
	}
}

func (d *GeckoDriver) URL() string {
	return fmt.Sprintf("http://127.0.0.1:%d", d.Port)
}

func (d *GeckoDriver) Start() error {
	gsferr := "geckodriver start failed: "
	if d.proc != nil {
		return errors.New(gsferr + "geckodriver already running")
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Port == 0 {
		port, err := freeport.GetFreePort()
		if err != nil {
			return errors.New(gsferr + err.Error())
		}
		d.Port = port
	}
	switches := []string{"--host", "127.0.0.1", "--port", strconv.Itoa(d.Port)}
	if d.FirefoxBinary != "" {
		switches = append(switches, "--binary", d.FirefoxBinary)
	}
	if d.LogLevel != "" {
		switches = append(switches, "--log", d.LogLevel)
	}

	proc, err := startDriver(d.Logger, d.path, switches, d.LogFile)
	if err != nil {
		return errors.New(gsferr + err.Error())
	}
	//probe d.Port until geckodriver replies or StartTimeout is up
	if err := probePort(d.Port, d.StartTimeout); err != nil {
		proc.stop(d.Logger)
		return errors.New(gsferr + err.Error())
	}
	d.proc = proc
	d.Logger.Info("geckodriver listening", zap.String("url", d.URL()))
	return nil
}

func (d *GeckoDriver) Stop() error {
	if d.proc == nil {
		return errors.New("stop failed: geckodriver not running")
	}
	defer func() {
		d.proc = nil
	}()
	return d.proc.stop(d.Logger)
}
