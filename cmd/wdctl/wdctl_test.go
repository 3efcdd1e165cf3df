// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fedesog/webdriver/v2/internal/config"
	"github.com/fedesog/webdriver/v2/internal/wdtest"
	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runWdctl executes a fresh root command and returns what it printed on
// standard output and standard error.
func runWdctl(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// writeConfig stores a YAML configuration and returns its path.
func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wdctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	return path
}

func newSessionRequests(srv *wdtest.Server) []wdtest.Request {
	var out []wdtest.Request
	for _, r := range srv.Requests() {
		if r.Method == "POST" && r.Path == "/session" {
			out = append(out, r)
		}
	}
	return out
}

func TestVersion(t *testing.T) {
	out, _, err := runWdctl(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)
}

func TestStatus(t *testing.T) {
	srv := wdtest.NewServer()
	defer srv.Close()

	out, _, err := runWdctl(t, "--url", srv.URL, "status")
	require.NoError(t, err)
	assert.Equal(t, "ready: true\nmessage: wdtest ready\n", out)
	assert.Empty(t, newSessionRequests(srv), "status needs no session")
}

func TestStatusNotReady(t *testing.T) {
	srv := wdtest.NewServer()
	defer srv.Close()
	srv.Respond("GET", "/status", 200, `{"value":{"ready":false,"message":"busy"}}`)

	out, _, err := runWdctl(t, "--url", srv.URL, "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not ready")
	assert.Contains(t, out, "message: busy")
}

func TestInvalidConfig(t *testing.T) {
	_, _, err := runWdctl(t, "--driver", "bogus", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "driver.kind")

	_, _, err = runWdctl(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestDriverStartFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "chromedriver")
	_, _, err := runWdctl(t, "--driver", "chrome", "--driver-path", missing, "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chromedriver start failed")
}

func TestScreenshot(t *testing.T) {
	srv := wdtest.NewServer()
	defer srv.Close()
	dir := t.TempDir()

	out, _, err := runWdctl(t, "--url", srv.URL, "-o", dir, "screenshot", "-p", "2", "--rate", "100",
		"http://a.test/one", "http://b.test/", "http://c.test/three")
	require.NoError(t, err)

	want := []string{"01-a.test-one.png", "02-b.test.png", "03-c.test-three.png"}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, len(want))
	for i, name := range want {
		path := filepath.Join(dir, name)
		assert.Equal(t, path, lines[i])
		f, err := os.Open(path)
		require.NoError(t, err)
		img, err := png.Decode(f)
		f.Close()
		require.NoError(t, err)
		assert.Equal(t, wdtest.ScreenshotSize, img.Bounds().Size())
	}
	assert.Len(t, newSessionRequests(srv), 3, "one session per page")
	assert.Equal(t, 0, srv.SessionCount(), "sessions are deleted")
}

func TestScreenshotFailure(t *testing.T) {
	srv := wdtest.NewServer()
	defer srv.Close()
	srv.Respond("GET", "/screenshot", 500, `{"value":{"error":"unable to capture screen","message":"gpu"}}`)

	_, _, err := runWdctl(t, "--url", srv.URL, "-o", t.TempDir(), "screenshot", "http://a.test/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http://a.test/")
	assert.Equal(t, 0, srv.SessionCount())
}

func TestPrint(t *testing.T) {
	srv := wdtest.NewServer()
	defer srv.Close()
	srv.AddPage("http://docs.test/guide", &wdtest.Page{Title: "Guide"})
	path := filepath.Join(t.TempDir(), "pdf", "guide.pdf")

	out, _, err := runWdctl(t, "--url", srv.URL, "print", "--landscape", "--scale", "0.5",
		"--pages", "1-2", "--out", path, "http://docs.test/guide")
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)

	var body map[string]interface{}
	for _, r := range srv.Requests() {
		if strings.HasSuffix(r.Path, "/print") {
			body = r.JSON()
		}
	}
	assert.Equal(t, map[string]interface{}{
		"orientation": "landscape",
		"scale":       0.5,
		"background":  false,
		"pageRanges":  []interface{}{"1-2"},
	}, body)

	f, r, err := pdf.Open(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, 1, r.NumPage())
	assert.Equal(t, 0, srv.SessionCount())
}

func TestPrintBadScale(t *testing.T) {
	srv := wdtest.NewServer()
	defer srv.Close()
	_, _, err := runWdctl(t, "--url", srv.URL, "print", "--scale", "3", "http://docs.test/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--scale")
	assert.Empty(t, srv.Requests())
}

func TestExec(t *testing.T) {
	srv := wdtest.NewServer()
	defer srv.Close()
	srv.AddPage("http://app.test/", &wdtest.Page{Title: "App"})

	out, _, err := runWdctl(t, "--url", srv.URL, "exec", "return arguments[0] + arguments[1]", "2", `"x"`)
	require.NoError(t, err)
	assert.Equal(t, "\"2x\"\n", out)

	out, _, err = runWdctl(t, "--url", srv.URL, "exec", "--open", "http://app.test/", "return document.title")
	require.NoError(t, err)
	assert.Equal(t, "\"App\"\n", out)

	out, _, err = runWdctl(t, "--url", srv.URL, "exec", "--async", `arguments[arguments.length - 1]({"ok": true})`)
	require.NoError(t, err)
	assert.Equal(t, "{\"ok\":true}\n", out)

	_, _, err = runWdctl(t, "--url", srv.URL, "exec", "return 1", "{")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not JSON")
	assert.Equal(t, 0, srv.SessionCount())
}

func TestSessionSettings(t *testing.T) {
	srv := wdtest.NewServer()
	defer srv.Close()
	cfg := writeConfig(t, `
browser:
  name: chrome
  headless: true
  args: ["--no-sandbox"]
`)
	t.Setenv(config.EnvPrefix+"_SERVER_USER_AGENT", "wdctl-test")

	_, _, err := runWdctl(t, "--config", cfg, "--url", srv.URL, "exec", "return 1")
	require.NoError(t, err)

	reqs := newSessionRequests(srv)
	require.Len(t, reqs, 1)
	assert.Equal(t, "wdctl-test", reqs[0].Header.Get("User-Agent"))
	caps := reqs[0].JSON()["capabilities"].(map[string]interface{})
	always := caps["alwaysMatch"].(map[string]interface{})
	assert.Equal(t, "chrome", always["browserName"])
	assert.Equal(t, map[string]interface{}{
		"args": []interface{}{"--no-sandbox", "--headless=new"},
	}, always["goog:chromeOptions"])
}

func TestDemo(t *testing.T) {
	srv := wdtest.NewServer()
	defer srv.Close()
	input := func(css, typ string) *wdtest.Element {
		return &wdtest.Element{Tag: "input", CSS: css, Attrs: map[string]string{"type": typ}}
	}
	name := input(`input[name="custname"]`, "text")
	large := input(`input[type="radio"][name="size"][value="large"]`, "radio")
	mushroom := input(`input[type="checkbox"][name="topping"][value="mushroom"]`, "checkbox")
	comments := &wdtest.Element{Tag: "textarea", CSS: `textarea[name="comments"]`}
	srv.AddPage("http://forms.test/post", &wdtest.Page{
		Title: "Order",
		Elements: []*wdtest.Element{{Tag: "form", Children: []*wdtest.Element{
			name,
			input(`input[name="custtel"]`, "tel"),
			input(`input[name="custemail"]`, "email"),
			large,
			mushroom,
			input(`input[type="time"][name="delivery"]`, "time"),
			comments,
			{Tag: "button", CSS: "form button", Text: "Submit order"},
		}}},
	})
	cfg := writeConfig(t, `
typing:
  base_delay: 0s
  jitter: 0s
`)
	dir := t.TempDir()

	out, _, err := runWdctl(t, "--config", cfg, "--url", srv.URL, "-o", dir,
		"demo", "--pause", "0s", "http://forms.test/post")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "demo.png")+"\n", out)
	assert.FileExists(t, filepath.Join(dir, "demo.png"))

	assert.Equal(t, "Curly Chungus", name.Value())
	assert.Equal(t, "NO ANCHOVIES!", comments.Value())
	assert.True(t, large.Selected)
	assert.True(t, mushroom.Selected)
	assert.Equal(t, 0, srv.SessionCount())
}

func TestDemoStopsAtFirstFailure(t *testing.T) {
	srv := wdtest.NewServer()
	defer srv.Close()
	srv.AddPage("http://forms.test/empty", &wdtest.Page{Title: "Empty"})

	_, _, err := runWdctl(t, "--url", srv.URL, "-o", t.TempDir(), "demo", "--pause", "0s", "http://forms.test/empty")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `type into input[name="custname"]`)
	assert.Equal(t, 0, srv.SessionCount())
}

func TestCapabilities(t *testing.T) {
	tests := []struct {
		browser config.BrowserConfig
		want    string
	}{
		{config.BrowserConfig{Name: "firefox"}, `{"capabilities":{"alwaysMatch":{"browserName":"firefox"}}}`},
		{config.BrowserConfig{Name: "firefox", Headless: true},
			`{"capabilities":{"alwaysMatch":{"browserName":"firefox","moz:firefoxOptions":{"args":["-headless"]}}}}`},
		{config.BrowserConfig{Name: "chrome", Args: []string{"--lang=it"}},
			`{"capabilities":{"alwaysMatch":{"browserName":"chrome","goog:chromeOptions":{"args":["--lang=it"]}}}}`},
		{config.BrowserConfig{Name: "MicrosoftEdge", Headless: true},
			`{"capabilities":{"alwaysMatch":{"browserName":"MicrosoftEdge","ms:edgeOptions":{"args":["--headless=new"]}}}}`},
		{config.BrowserConfig{Name: "safari", Headless: true}, `{"capabilities":{"alwaysMatch":{"browserName":"safari"}}}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, capabilities(tt.browser).String(), tt.browser.Name)
	}
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "01-example.org-docs.png", outputName(0, "https://example.org/docs/", ".png"))
	assert.Equal(t, "12-127.0.0.1-8080-a_b.pdf", outputName(11, "http://127.0.0.1:8080/a_b", ".pdf"))
	assert.Equal(t, "01-about-blank.png", outputName(0, "about:blank", ".png"))
	assert.Equal(t, "02-page.png", outputName(1, "///", ".png"))
}
