// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fedesog/webdriver/v2/internal/config"
	"github.com/fedesog/webdriver/v2/internal/observability"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

// rootOptions is the state shared by every subcommand once the
// persistent flags have been parsed.
type rootOptions struct {
	cfgFile string
	v       *viper.Viper

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{v: viper.New()}
	cmd := &cobra.Command{
		Use:           "wdctl",
		Short:         "wdctl drives a browser through a W3C WebDriver server.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				observability.Sync(opts.logger)
			}
		},
	}
	cmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.cfgFile, "config", "c", "", "config file (default is ./wdctl.yaml or ~/.config/wdctl/wdctl.yaml)")
	flags.String("url", "", "WebDriver server URL (server.url)")
	flags.String("driver", "", "local driver to launch: none, chrome or gecko (driver.kind)")
	flags.String("driver-path", "", "path of the driver binary (driver.path)")
	flags.String("browser", "", "browser name for new sessions (browser.name)")
	flags.StringP("output-dir", "o", "", "directory for screenshots and PDFs (output.dir)")
	flags.String("log-level", "", "debug, info, warn or error (logger.level)")
	for key, name := range map[string]string{
		"server.url":   "url",
		"driver.kind":  "driver",
		"driver.path":  "driver-path",
		"browser.name": "browser",
		"output.dir":   "output-dir",
		"logger.level": "log-level",
	} {
		if err := opts.v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	cmd.AddCommand(
		newStatusCmd(opts),
		newScreenshotCmd(opts),
		newPrintCmd(opts),
		newExecCmd(opts),
		newDemoCmd(opts),
	)
	return cmd
}

// load reads the configuration file and the environment, then builds the
// logger. Precedence: flags, WDCTL_* variables, config file, defaults.
func (o *rootOptions) load(cmd *cobra.Command) error {
	v := o.v
	config.SetDefaults(v)
	if o.cfgFile != "" {
		path, err := homedir.Expand(o.cfgFile)
		if err != nil {
			return err
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("wdctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "wdctl"))
		}
	}
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// an explicit --config must exist
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || o.cfgFile != "" {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg, err := config.NewConfigFromViper(v)
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.logger = observability.New(cfg.Logger, zapcore.Lock(zapcore.AddSync(cmd.ErrOrStderr())))
	if used := v.ConfigFileUsed(); used != "" {
		o.logger.Debug("config loaded", zap.String("file", used))
	}
	return nil
}
