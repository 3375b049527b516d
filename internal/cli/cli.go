/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package cli implements the gocollage command-line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"gocollage/internal/clipboard"
	"gocollage/internal/config"
	applog "gocollage/internal/log"
	"gocollage/internal/session"
	"gocollage/internal/storage"
	"gocollage/internal/version"
)

// CLI holds state shared by all commands.
type CLI struct {
	Config config.AppConfig
	// Clipboard is used by paste and copy; nil selects xclip.
	Clipboard clipboard.Source
	// skipEnv keeps the loaded config instead of reading file and environment again.
	skipEnv bool
	log     *slog.Logger
	sess    *session.Session
}

// New creates a CLI with default configuration. The config file and the
// environment are read when a command runs.
func New() *CLI {
	return &CLI{Config: config.Defaults(), log: applog.WithComponent("cli")}
}

// WithConfig creates a CLI that uses cfg as is.
func WithConfig(cfg config.AppConfig) *CLI {
	return &CLI{Config: cfg, skipEnv: true, log: applog.WithComponent("cli")}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "gocollage",
		Short:         "GoCollage arranges pasted images without overlaps",
		Long:          `GoCollage keeps a folder of pasted images laid out on an infinite board. Every paste, move and zoom runs a collision pass that nudges items apart.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !c.skipEnv {
				config.LoadDotEnv()
				cfg, err := config.Load()
				if err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "Warning:", err)
				}
				c.Config = cfg
			}
			lo := c.Config.Logging.LogOptions()
			if verbose {
				lo.Level = "debug"
			}
			applog.Init(lo)
			c.log = applog.WithComponent("cli")
			c.log.Debug("start", slog.String("cmd", cmd.CommandPath()), slog.Int("args", len(args)))
			return nil
		},
	}
	root.SetVersionTemplate("gocollage {{.Version}}\n")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(c.initCommand())
	root.AddCommand(c.addCommand())
	root.AddCommand(c.pasteCommand())
	root.AddCommand(c.moveCommand())
	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.boundaryCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.revertCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.copyCommand())
	root.AddCommand(c.publishCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.remoteCommand())
	root.AddCommand(c.uiCommand())
	root.AddCommand(c.versionCommand())
	return root
}

func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "gocollage", version.String())
		},
	}
}

func (c *CLI) sessionOptions() session.Options {
	return session.Options{Board: c.Config.Layout.BoardOptions()}
}

// open loads the collage at dir. A missing manifest is an error unless create is set.
func (c *CLI) open(ctx context.Context, dir string, create bool, name string) (*session.Session, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if !create {
		if err := requireCollage(abs); err != nil {
			return nil, err
		}
	}
	s, err := session.Open(applog.WithCollage(ctx, abs), abs, name, c.sessionOptions())
	if err != nil {
		return nil, err
	}
	c.sess = s
	return s, nil
}

// Current returns the collage the running command has open, for crash snapshots.
func (c *CLI) Current() *storage.CollageHandle {
	if c.sess == nil {
		return nil
	}
	return c.sess.Sync()
}

func (c *CLI) clipboard() clipboard.Source {
	if c.Clipboard != nil {
		return c.Clipboard
	}
	return clipboard.NewXClip()
}
