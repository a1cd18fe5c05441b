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
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"stickyboard/internal/export"
)

var (
	exportCanvas string
	exportFormat string
	exportScale  float64
	exportMargin float64
)

var exportCmd = &cobra.Command{
	Use:   "export <out file>",
	Short: "Export a canvas to PDF, PNG or SVG",
	Args:  cobra.ExactArgs(1),
	RunE: withBoard(func(cmd *cobra.Command, args []string, a *boardApp) error {
		id, err := resolveCanvas(a, exportCanvas)
		if err != nil {
			return err
		}
		c, notes, ok := a.store.LoadCanvas(id)
		if !ok {
			return fmt.Errorf("canvas %s could not be loaded", id)
		}
		out := args[0]
		format := strings.ToLower(exportFormat)
		if format == "" {
			format = strings.TrimPrefix(strings.ToLower(filepath.Ext(out)), ".")
		}
		layout := export.NewLayout(c.Name, notes, exportMargin)
		switch format {
		case "pdf":
			err = export.CanvasPDF(layout, out, export.PDFOptions{})
		case "png":
			err = export.CanvasPNG(layout, out, export.PNGOptions{Scale: exportScale})
		case "svg":
			err = export.CanvasSVG(layout, out)
		default:
			return fmt.Errorf("unknown export format %q (want pdf, png or svg)", format)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %q (%d notes) to %s\n", c.Name, len(notes), out)
		return nil
	}),
}

func init() {
	exportCmd.Flags().StringVar(&exportCanvas, "canvas", "", "Canvas id or name (default: active canvas)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "pdf, png or svg (default: from the file extension)")
	exportCmd.Flags().Float64Var(&exportScale, "scale", 1, "PNG pixels per canvas unit")
	exportCmd.Flags().Float64Var(&exportMargin, "margin", export.DefaultMargin, "Page margin in canvas units")
	rootCmd.AddCommand(exportCmd)
}
