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
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"stickyboard/internal/domain"
	"stickyboard/internal/storage"
)

var (
	searchCanvas string
	searchColor  string
	searchLimit  int
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Full-text search over note contents",
	Long: `Search refreshes the note index from the stored board, then runs the query. Query syntax is SQLite FTS5: words, "phrases",
AND / OR / NOT. Without a query every note is listed.`,
	RunE: withBoard(func(cmd *cobra.Command, args []string, a *boardApp) error {
		ctx := context.Background()
		data := a.store.Load()
		if data == nil {
			data = domain.NewAppData()
		}
		rebuilt, err := storage.DetectAndRebuildIndex(ctx, a.dataDir, data)
		if err != nil {
			return fmt.Errorf("repair index: %w", err)
		}
		if !rebuilt {
			if err := storage.RebuildIndex(ctx, a.dataDir, data); err != nil {
				return fmt.Errorf("rebuild index: %w", err)
			}
		}
		q := storage.SearchQuery{Text: strings.Join(args, " "), Color: strings.ToUpper(searchColor), Limit: searchLimit}
		if searchCanvas != "" {
			id, err := resolveCanvas(a, searchCanvas)
			if err != nil {
				return err
			}
			q.CanvasID = id
		}
		res, err := storage.Search(ctx, a.dataDir, q)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, r := range res {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.NoteID, r.Color, strings.Join(r.Canvases, ","), r.Snippet)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%d result(s)\n", len(res))
		return nil
	}),
}

func init() {
	searchCmd.Flags().StringVar(&searchCanvas, "canvas", "", "Only notes on this canvas (id or name)")
	searchCmd.Flags().StringVar(&searchColor, "color", "", "Only notes of this colour")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 50, "Maximum results")
	rootCmd.AddCommand(searchCmd)
}
