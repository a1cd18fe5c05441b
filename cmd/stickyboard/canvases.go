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
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var canvasesJSON bool

type canvasRow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Notes     int       `json:"notes"`
	Active    bool      `json:"active"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var canvasesCmd = &cobra.Command{
	Use:     "canvases",
	Aliases: []string{"ls"},
	Short:   "List canvases, most recently updated first",
	Args:    cobra.NoArgs,
	RunE: withBoard(func(cmd *cobra.Command, args []string, a *boardApp) error {
		var rows []canvasRow
		for _, c := range a.ctl.Canvases() {
			rows = append(rows, canvasRow{
				ID:        c.ID,
				Name:      c.Name,
				Notes:     a.ctl.NoteCount(c.ID),
				Active:    c.ID == a.ctl.ActiveID(),
				UpdatedAt: c.UpdatedAt,
			})
		}
		out := cmd.OutOrStdout()
		if canvasesJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, " \tID\tNAME\tNOTES\tUPDATED")
		for i, r := range rows {
			mark := " "
			if r.Active {
				mark = "*"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t(ctrl+%d)\n", mark, r.ID, r.Name, r.Notes, r.UpdatedAt.Local().Format("2006-01-02 15:04"), i+1)
		}
		return tw.Flush()
	}),
}

func init() {
	canvasesCmd.Flags().BoolVar(&canvasesJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(canvasesCmd)
}
