// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webdriver

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/phayes/freeport"
	"go.uber.org/zap"
)

type ChromeDriver struct {
	//The port that ChromeDriver listens on. Default: 0, a free port is picked by Start.
	Port int
	//The URL path prefix to use for all incoming WebDriver REST requests. Default: ""
	BaseURL string
	//The path to use for the ChromeDriver server log. Default: "" (no log)
	LogPath string
	// Log file to dump chromedriver stdout/stderr, rotated by size. If "" send to terminal. Default: ""
	LogFile string
	// Start method fails if Chromedriver doesn't start in less than StartTimeout. Default 20s.
	StartTimeout time.Duration
	// Logger traces the driver lifecycle. Default: no logging.
	Logger *zap.Logger

	path string
	proc *driverProcess
}

//create a new service using chromedriver at path.
func NewChromeDriver(path string) *ChromeDriver {
	return &ChromeDriver{
		path:         path,
		StartTimeout: 20 * time.Second,
		Logger:       zap.NewNop(),
	}
}

func (d *ChromeDriver) URL() string {
	return fmt.Sprintf("http://127.0.0.1:%d%s", d.Port, d.BaseURL)
}

func (d *ChromeDriver) Start() error {
	csferr := "chromedriver start failed: "
	if d.proc != nil {
		return errors.New(csferr + "chromedriver already running")
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Port == 0 {
		port, err := freeport.GetFreePort()
		if err != nil {
			return errors.New(csferr + err.Error())
		}
		d.Port = port
	}

	switches := []string{"--port=" + strconv.Itoa(d.Port)}
	if d.LogPath != "" {
		logPath, err := homedir.Expand(d.LogPath)
		if err != nil {
			return errors.New(csferr + err.Error())
		}
		//check if log-path is writable
		file, err := os.OpenFile(logPath, os.O_WRONLY|os.O_CREATE, 0664)
		if err != nil {
			return errors.New(csferr + "unable to write in log path: " + err.Error())
		}
		file.Close()
		switches = append(switches, "--log-path="+logPath)
	}
	if d.BaseURL != "" {
		switches = append(switches, "--url-base="+d.BaseURL)
	}

	proc, err := startDriver(d.Logger, d.path, switches, d.LogFile)
	if err != nil {
		return errors.New(csferr + err.Error())
	}
	if err := probePort(d.Port, d.StartTimeout); err != nil {
		proc.stop(d.Logger)
		return errors.New(csferr + err.Error())
	}
	d.proc = proc
	d.Logger.Info("chromedriver listening", zap.String("url", d.URL()))
	return nil
}

func (d *ChromeDriver) Stop() error {
	if d.proc == nil {
		return errors.New("stop failed: chromedriver not running")
	}
	defer func() {
		d.proc = nil
	}()
	return d.proc.stop(d.Logger)
}
