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
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"stickyboard/internal/domain"
	"stickyboard/internal/vector"
)

var (
	noteCanvas string
	noteX      float64
	noteY      float64
	noteColor  string
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Work with notes",
}

var noteAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Add a note to a canvas at canvas coordinates",
	Args:  cobra.MinimumNArgs(1),
	RunE: withBoard(func(cmd *cobra.Command, args []string, a *boardApp) error {
		id, err := resolveCanvas(a, noteCanvas)
		if err != nil {
			return err
		}
		if noteColor != "" && !domain.IsPaletteColor(strings.ToUpper(noteColor)) {
			return fmt.Errorf("color %q is not in the palette %v", noteColor, domain.NoteColors)
		}
		if err := a.ctl.SelectCanvas(id); err != nil {
			return err
		}
		s := a.ctl.Session()
		n := s.CreateNote(vector.Pt{X: noteX, Y: noteY})
		patch := domain.ContentPatch(strings.Join(args, " "))
		if noteColor != "" {
			c := strings.ToUpper(noteColor)
			patch.Color = &c
		}
		s.UpdateNote(n.ID, patch)
		a.ctl.Editing().Reset()
		if !a.ctl.Flush() {
			return fmt.Errorf("note %s was not saved", n.ID)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added note %s\n", n.ID)
		return nil
	}),
}

func init() {
	noteAddCmd.Flags().StringVar(&noteCanvas, "canvas", "", "Canvas id or name (default: active canvas)")
	noteAddCmd.Flags().Float64Var(&noteX, "x", 0, "X position in canvas units")
	noteAddCmd.Flags().Float64Var(&noteY, "y", 0, "Y position in canvas units")
	noteAddCmd.Flags().StringVar(&noteColor, "color", "", "Palette colour, e.g. #C8E6C9")
	noteCmd.AddCommand(noteAddCmd)
	rootCmd.AddCommand(noteCmd)
}
