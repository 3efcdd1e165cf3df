// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webdriver

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Service is a WebDriver server process run on this machine, such as
// chromedriver or geckodriver. Pass URL() to NewClient once started.
type Service interface {
	Start() error
	Stop() error
	URL() string
}

// stopGrace is how long a driver gets to exit after an interrupt.
const stopGrace = 5 * time.Second

// driverProcess is a running driver and the sink of its output.
type driverProcess struct {
	cmd  *exec.Cmd
	out  io.WriteCloser
	done chan error
}

// startDriver runs path with args. Output goes to a size-rotated logFile
// when one is given, to the terminal otherwise.
func startDriver(logger *zap.Logger, path string, args []string, logFile string) (*driverProcess, error) {
	cmd := exec.Command(path, args...)
	p := &driverProcess{cmd: cmd, done: make(chan error, 1)}
	if logFile != "" {
		name, err := homedir.Expand(logFile)
		if err != nil {
			return nil, err
		}
		p.out = &lumberjack.Logger{Filename: name, MaxSize: 10, MaxBackups: 3}
		cmd.Stdout = p.out
		cmd.Stderr = p.out
	} else {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Start(); err != nil {
		if p.out != nil {
			p.out.Close()
		}
		return nil, err
	}
	go func() { p.done <- cmd.Wait() }()
	logger.Debug("driver started", zap.String("path", path), zap.Strings("args", args), zap.Int("pid", cmd.Process.Pid))
	return p, nil
}

// stop interrupts the driver and kills it if it does not exit in time.
func (p *driverProcess) stop(logger *zap.Logger) error {
	defer func() {
		if p.out != nil {
			p.out.Close()
		}
	}()
	if err := p.cmd.Process.Signal(os.Interrupt); err != nil {
		// already gone, or no interrupts on this platform
		logger.Debug("interrupt failed, killing driver", zap.Error(err))
		if kerr := p.cmd.Process.Kill(); kerr != nil && !errors.Is(kerr, os.ErrProcessDone) {
			return kerr
		}
	}
	select {
	case err := <-p.done:
		logger.Debug("driver exited", zap.Error(err))
		return nil
	case <-time.After(stopGrace):
		logger.Warn("driver ignored interrupt, killing it", zap.Int("pid", p.cmd.Process.Pid))
		if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return err
		}
		<-p.done
		return nil
	}
}
