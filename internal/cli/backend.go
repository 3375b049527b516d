/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"gocollage/internal/backend"
)

func (c *CLI) timeout() time.Duration {
	if ms := c.Config.Backend.TimeoutMs; ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return 15 * time.Second
}

func (c *CLI) dsn(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if c.Config.Backend.DSN != "" {
		return c.Config.Backend.DSN, nil
	}
	return "", errors.New("no database configured: pass --dsn or set GCL_BACKEND_DSN")
}

func (c *CLI) publishCommand() *cobra.Command {
	var dsnFlag string
	cmd := &cobra.Command{
		Use:   "publish <dir>",
		Short: "Publish the current layout to the shared archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn, err := c.dsn(dsnFlag)
			if err != nil {
				return err
			}
			s, err := c.open(cmd.Context(), args[0], false, "")
			if err != nil {
				return err
			}
			// Save assigns the stable id on first use.
			if s.Handle.Collage.ID == "" {
				if err := s.Save(cmd.Context(), "publish"); err != nil {
					return err
				}
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout())
			defer cancel()
			arc, err := backend.Open(ctx, dsn)
			if err != nil {
				return err
			}
			defer func() { _ = arc.Close() }()
			pub, err := arc.Publish(ctx, s.Sync().Collage)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published %s version %d (%d items)\n", pub.StableID, pub.Version, pub.Items)
			return nil
		},
	}
	cmd.Flags().StringVar(&dsnFlag, "dsn", "", "PostgreSQL connection string (default from config)")
	return cmd
}

func (c *CLI) serveCommand() *cobra.Command {
	var dsnFlag, addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the published collage archive over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dsn, err := c.dsn(dsnFlag)
			if err != nil {
				return err
			}
			if c.Config.Backend.Secret == "" {
				return errors.New("no archive key configured: set backend.secret or GCL_BACKEND_SECRET")
			}
			if addr == "" {
				addr = c.Config.Backend.Listen
			}
			openCtx, cancel := context.WithTimeout(cmd.Context(), c.timeout())
			arc, err := backend.Open(openCtx, dsn)
			cancel()
			if err != nil {
				return err
			}
			defer func() { _ = arc.Close() }()
			c.log.Info("serving archive", slog.String("addr", addr))
			return backend.Serve(cmd.Context(), addr, arc, c.Config.Backend.Secret)
		},
	}
	cmd.Flags().StringVar(&dsnFlag, "dsn", "", "PostgreSQL connection string (default from config)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func (c *CLI) remoteCommand() *cobra.Command {
	var url, key string
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Query an archive server",
	}
	cmd.PersistentFlags().StringVar(&url, "url", "", "archive server URL (default from config)")
	cmd.PersistentFlags().StringVar(&key, "key", "", "archive key (default from config)")

	// client logs in with a token scoped to collage, or archive-wide when empty.
	client := func(ctx context.Context, collage string) (*backend.Client, error) {
		if url == "" {
			url = c.Config.Backend.URL
		}
		if key == "" {
			key = c.Config.Backend.Secret
		}
		if key == "" {
			return nil, errors.New("no archive key: pass --key or set GCL_BACKEND_SECRET")
		}
		cl := backend.NewClient(url, "")
		if err := cl.Login(ctx, key, collage); err != nil {
			return nil, err
		}
		return cl, nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List published collages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout())
			defer cancel()
			cl, err := client(ctx, "")
			if err != nil {
				return err
			}
			list, err := cl.ListCollages(ctx)
			if err != nil {
				return err
			}
			for _, s := range list {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tv%d\t%s\n", s.StableID, s.Name, s.Version, s.UpdatedAt.Local().Format(time.RFC3339))
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <stable-id>",
		Short: "Print the latest published layout of a collage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout())
			defer cancel()
			cl, err := client(ctx, args[0])
			if err != nil {
				return err
			}
			pub, err := cl.Latest(ctx, args[0])
			if err != nil {
				return err
			}
			col, err := pub.Collage()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s version %d, published %s\n", col.Name, pub.Version, pub.CreatedAt.Local().Format(time.RFC3339))
			for i, it := range col.Items {
				fmt.Fprintf(w, "  #%-3d %s  centre (%g,%g)  size %gx%g\n", i, it.ID, it.X, it.Y, it.Width, it.Height)
			}
			return nil
		},
	})
	return cmd
}
