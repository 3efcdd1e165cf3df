// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webdriver

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/phayes/freeport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	_ Service = (*ChromeDriver)(nil)
	_ Service = (*GeckoDriver)(nil)
)

func TestChromeDriverURL(t *testing.T) {
	d := NewChromeDriver("chromedriver")
	d.Port = 9515
	assert.Equal(t, "http://127.0.0.1:9515", d.URL())
	d.BaseURL = "/wd/hub"
	assert.Equal(t, "http://127.0.0.1:9515/wd/hub", d.URL())
	assert.Equal(t, 20*time.Second, d.StartTimeout)
}

func TestDriverStartFailures(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-driver")

	chrome := NewChromeDriver(missing)
	err := chrome.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chromedriver start failed")
	assert.NotZero(t, chrome.Port, "a free port is picked before launching")

	gecko := NewGeckoDriver(missing)
	err = gecko.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "geckodriver start failed")

	chrome = NewChromeDriver(os.Args[0])
	chrome.LogPath = filepath.Join(t.TempDir(), "missing-dir", "chromedriver.log")
	err = chrome.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to write in log path")
}

func TestDriverStopWithoutStart(t *testing.T) {
	assert.EqualError(t, NewChromeDriver("chromedriver").Stop(), "stop failed: chromedriver not running")
	assert.EqualError(t, NewGeckoDriver("geckodriver").Stop(), "stop failed: geckodriver not running")
}

func TestDriverLifecycle(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("drivers are stopped with an interrupt")
	}
	t.Setenv(fakeDriverEnv, "1")

	t.Run("chromedriver", func(t *testing.T) {
		d := NewChromeDriver(os.Args[0])
		d.Logger = zaptest.NewLogger(t)
		d.LogFile = filepath.Join(t.TempDir(), "chromedriver.out")
		d.BaseURL = "/wd"
		d.StartTimeout = 10 * time.Second
		checkService(t, d, "--port=", "--url-base=/wd")

		out, err := os.ReadFile(d.LogFile)
		require.NoError(t, err)
		assert.Contains(t, string(out), "fake driver listening")
	})

	t.Run("geckodriver", func(t *testing.T) {
		port, err := freeport.GetFreePort()
		require.NoError(t, err)
		d := NewGeckoDriver(os.Args[0])
		d.Port = port
		d.Logger = zaptest.NewLogger(t)
		d.LogFile = filepath.Join(t.TempDir(), "geckodriver.out")
		d.FirefoxBinary = "/opt/firefox/firefox"
		d.StartTimeout = 10 * time.Second
		checkService(t, d, "--host 127.0.0.1", "--binary /opt/firefox/firefox")
		assert.Equal(t, port, d.Port)
	})
}

// checkService starts s, asks it for its status and stops it.
func checkService(t *testing.T, s Service, wantArgs ...string) {
	t.Helper()
	require.NoError(t, s.Start())
	assert.Error(t, s.Start(), "a running driver cannot be started again")

	c := NewClient(s.URL())
	status, err := c.GetStatus()
	require.NoError(t, err)
	msg, _ := status.Get("message")
	args, err := msg.AsString()
	require.NoError(t, err)
	for _, want := range wantArgs {
		assert.Contains(t, args, want)
	}

	require.NoError(t, s.Stop())
	assert.Error(t, s.Stop(), "a stopped driver cannot be stopped again")
	_, err = c.GetStatus()
	var terr *TransportError
	assert.ErrorAs(t, err, &terr, "nothing listens after Stop")
}
