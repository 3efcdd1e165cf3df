// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fedesog/webdriver/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// withApp runs fn with the driver started, and stops it afterwards.
func withApp(opts *rootOptions, fn func(a *app) error) error {
	a := newApp(opts.cfg, opts.logger)
	if err := a.start(); err != nil {
		return err
	}
	defer a.stop()
	return fn(a)
}

// withSession runs fn with a fresh session, deleted afterwards.
func withSession(opts *rootOptions, fn func(a *app, c *webdriver.Client) error) error {
	return withApp(opts, func(a *app) error {
		c, err := a.session()
		if err != nil {
			return err
		}
		defer a.endSession(c)
		return fn(a, c)
	})
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print whether the server is ready for new sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				v, err := a.client().GetStatus()
				if err != nil {
					return err
				}
				var st webdriver.Status
				if err := v.Decode(&st); err != nil {
					return fmt.Errorf("unexpected status reply %s: %w", v, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ready: %t\nmessage: %s\n", st.Ready, st.Message)
				if !st.Ready {
					return fmt.Errorf("server at %s is not ready", a.url)
				}
				return nil
			})
		},
	}
}

func newScreenshotCmd(opts *rootOptions) *cobra.Command {
	var (
		parallel  int
		perSecond float64
	)
	cmd := &cobra.Command{
		Use:   "screenshot URL...",
		Short: "Save a PNG screenshot of each page into the output directory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				if err := os.MkdirAll(a.cfg.Output.Dir, 0755); err != nil {
					return err
				}
				g, ctx := errgroup.WithContext(cmd.Context())
				if parallel > 0 {
					g.SetLimit(parallel)
				}
				limiter := rate.NewLimiter(rate.Inf, 1)
				if perSecond > 0 {
					limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
				}
				files := make([]string, len(args))
				for i, u := range args {
					i, u := i, u
					files[i] = filepath.Join(a.cfg.Output.Dir, outputName(i, u, ".png"))
					g.Go(func() error {
						return screenshot(ctx, a, limiter, u, files[i])
					})
				}
				if err := g.Wait(); err != nil {
					return err
				}
				for _, f := range files {
					fmt.Fprintln(cmd.OutOrStdout(), f)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&parallel, "parallel", "p", 2, "number of browser sessions used at once")
	cmd.Flags().Float64Var(&perSecond, "rate", 0, "maximum new sessions per second, 0 for no limit")
	return cmd
}

// screenshot opens its own session, so several can run at once.
func screenshot(ctx context.Context, a *app, limiter *rate.Limiter, page, file string) error {
	if err := limiter.Wait(ctx); err != nil {
		return err
	}
	c, err := a.session()
	if err != nil {
		return err
	}
	defer a.endSession(c)
	if err := c.NavigateTo(page); err != nil {
		return fmt.Errorf("%s: %w", page, err)
	}
	if err := c.SaveScreenshot(file); err != nil {
		return fmt.Errorf("%s: %w", page, err)
	}
	a.logger.Info("screenshot saved", zap.String("url", page), zap.String("file", file))
	return nil
}

func newPrintCmd(opts *rootOptions) *cobra.Command {
	var (
		out        string
		landscape  bool
		background bool
		scale      float64
		pages      []string
	)
	cmd := &cobra.Command{
		Use:   "print URL",
		Short: "Render a page to PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if scale < 0.1 || scale > 2 {
				return fmt.Errorf("--scale must be between 0.1 and 2, got %g", scale)
			}
			return withSession(opts, func(a *app, c *webdriver.Client) error {
				path := out
				if path == "" {
					path = filepath.Join(a.cfg.Output.Dir, outputName(0, args[0], ".pdf"))
				}
				if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
					return err
				}
				if err := c.NavigateTo(args[0]); err != nil {
					return err
				}
				options := map[string]interface{}{
					"background": background,
					"scale":      scale,
				}
				if landscape {
					options["orientation"] = "landscape"
				}
				if len(pages) > 0 {
					options["pageRanges"] = pages
				}
				printOpts, err := webdriver.ValueOf(options)
				if err != nil {
					return err
				}
				if err := c.SavePDF(printOpts, path); err != nil {
					return err
				}
				a.logger.Info("page printed", zap.String("url", args[0]), zap.String("file", path))
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&out, "out", "", "PDF file (default: derived from the URL, in the output directory)")
	f.BoolVar(&landscape, "landscape", false, "landscape orientation")
	f.BoolVar(&background, "background", false, "print background graphics")
	f.Float64Var(&scale, "scale", 1, "scale of the page rendering, 0.1 to 2")
	f.StringSliceVar(&pages, "pages", nil, "page ranges to print, e.g. 1-3,5")
	return cmd
}

func newExecCmd(opts *rootOptions) *cobra.Command {
	var (
		open  string
		async bool
	)
	cmd := &cobra.Command{
		Use:   "exec SCRIPT [JSON_ARG...]",
		Short: "Run a script in a new session and print its JSON result",
		Long: `Run a script in a new session and print its JSON result.

The script is a function body; each JSON_ARG is a JSON document passed in
arguments[i]. With --async the script must call arguments[arguments.length - 1]
with its result.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scriptArgs := make([]webdriver.Value, 0, len(args)-1)
			for _, raw := range args[1:] {
				v, err := webdriver.ParseValue([]byte(raw))
				if err != nil {
					return fmt.Errorf("argument %q is not JSON: %w", raw, err)
				}
				scriptArgs = append(scriptArgs, v)
			}
			return withSession(opts, func(a *app, c *webdriver.Client) error {
				if open != "" {
					if err := c.NavigateTo(open); err != nil {
						return err
					}
				}
				run := c.ExecuteScript
				if async {
					run = c.ExecuteAsyncScript
				}
				result, err := run(args[0], scriptArgs...)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), result.String())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&open, "open", "", "navigate to this URL before running the script")
	cmd.Flags().BoolVar(&async, "async", false, "run the script asynchronously")
	return cmd
}

// DemoFormURL is the order form filled in by the demo command.
const DemoFormURL = "https://httpbin.org/forms/post"

func newDemoCmd(opts *rootOptions) *cobra.Command {
	var pause time.Duration
	cmd := &cobra.Command{
		Use:   "demo [FORM_URL]",
		Short: "Fill in the httpbin order form the way a person would",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form := DemoFormURL
			if len(args) == 1 {
				form = args[0]
			}
			return withSession(opts, func(a *app, c *webdriver.Client) error {
				d := &demo{c: c, logger: a.logger, pause: pause, typing: a.cfg.Typing.BaseDelay}
				file := filepath.Join(a.cfg.Output.Dir, "demo.png")
				if err := os.MkdirAll(a.cfg.Output.Dir, 0755); err != nil {
					return err
				}
				if err := d.run(form, file); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), file)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&pause, "pause", time.Second, "pause between steps")
	return cmd
}

// demo walks through the browser, window, alert and form commands.
type demo struct {
	c      *webdriver.Client
	logger *zap.Logger
	pause  time.Duration
	typing time.Duration
	err    error
}

// step runs fn unless an earlier step failed, then pauses.
func (d *demo) step(name string, fn func() error) {
	if d.err != nil {
		return
	}
	d.logger.Debug("demo step", zap.String("step", name))
	if err := fn(); err != nil {
		d.err = fmt.Errorf("%s: %w", name, err)
		return
	}
	d.c.Wait(d.pause)
}

func (d *demo) fill(selector, text string) {
	d.step("type into "+selector, func() error {
		eid, err := d.c.FindElement(webdriver.CSSSelector, selector)
		if err != nil {
			return err
		}
		return d.c.SendKeysSlowly(eid, text, d.typing)
	})
}

func (d *demo) click(selector string) {
	d.step("click "+selector, func() error {
		eid, err := d.c.FindElement(webdriver.CSSSelector, selector)
		if err != nil {
			return err
		}
		return d.c.ClickElement(eid)
	})
}

func (d *demo) run(form, screenshot string) error {
	c := d.c
	d.step("navigate", func() error { return c.NavigateTo(form) })
	d.step("title", func() error {
		title, err := c.GetTitle()
		d.logger.Info("form opened", zap.String("title", title))
		return err
	})
	d.step("alert", func() error {
		if _, err := c.ExecuteScript("alert('testing alert message 1')"); err != nil {
			return err
		}
		return c.AcceptAlert()
	})
	d.step("confirm", func() error {
		if _, err := c.ExecuteScript("confirm('testing alert message 2')"); err != nil {
			return err
		}
		return c.DismissAlert()
	})
	d.step("back", c.Back)
	d.step("forward", c.Forward)
	d.step("refresh", c.Refresh)
	d.step("minimize", c.MinimizeWindow)
	d.step("maximize", c.MaximizeWindow)

	d.fill(`input[name="custname"]`, "Curly Chungus")
	d.step("clear name", func() error {
		eid, err := c.FindElement(webdriver.CSSSelector, `input[name="custname"]`)
		if err != nil {
			return err
		}
		return c.ClearElement(eid)
	})
	d.fill(`input[name="custname"]`, "Curly Chungus")
	d.fill(`input[name="custtel"]`, "1 234 567 8901")
	d.fill(`input[name="custemail"]`, "curly@example.com")
	d.click(`input[type="radio"][name="size"][value="large"]`)
	d.click(`input[type="checkbox"][name="topping"][value="mushroom"]`)
	d.fill(`input[type="time"][name="delivery"]`, "11:15")
	d.fill(`textarea[name="comments"]`, "NO ANCHOVIES!")
	d.click("form button")
	d.step("screenshot", func() error { return c.SaveScreenshot(screenshot) })
	return d.err
}

// outputName derives a file name from a page URL, e.g.
// "01-example.org-docs.png" for the first of https://example.org/docs/.
func outputName(i int, page, ext string) string {
	name := page
	if u, err := url.Parse(page); err == nil && u.Host != "" {
		name = u.Host + u.Path
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_':
			return r
		}
		return '-'
	}, name)
	name = strings.Trim(name, "-.")
	if name == "" {
		name = "page"
	}
	return fmt.Sprintf("%02d-%s%s", i+1, name, ext)
}
