/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"stickyboard/internal/storage"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print a line whenever the board file changes on disk",
	Long:  "Only the file backend keeps a single watchable file; stop with Ctrl+C.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Storage.Backend != storage.BackendFile {
			return fmt.Errorf("watch needs the file backend, not %q", cfg.Storage.Backend)
		}
		dataDir, err := cfg.DataDir()
		if err != nil {
			return err
		}
		fb, err := storage.NewFileBackend(dataDir, 0)
		if err != nil {
			return err
		}
		path := fb.PathFor(storage.DefaultKey)
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		fmt.Fprintf(cmd.ErrOrStderr(), "watching %s\n", path)
		return storage.Watch(ctx, path, func(ev storage.WatchEvent) {
			what := "changed"
			if ev.Removed {
				what = "removed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ev.At.Format("15:04:05.000"), what)
		})
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
