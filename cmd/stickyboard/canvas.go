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
)

var canvasCmd = &cobra.Command{
	Use:   "canvas",
	Short: "Create, rename, delete or select canvases",
}

var canvasCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a canvas and make it active",
	Args:  cobra.MaximumNArgs(1),
	RunE: withBoard(func(cmd *cobra.Command, args []string, a *boardApp) error {
		c, err := a.ctl.CreateCanvas(strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created canvas %q (%s)\n", c.Name, c.ID)
		return nil
	}),
}

var canvasRenameCmd = &cobra.Command{
	Use:   "rename <canvas> <new name>",
	Short: "Rename a canvas",
	Args:  cobra.ExactArgs(2),
	RunE: withBoard(func(cmd *cobra.Command, args []string, a *boardApp) error {
		id, err := resolveCanvas(a, args[0])
		if err != nil {
			return err
		}
		if err := a.ctl.RenameCanvas(id, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %q\n", id, strings.TrimSpace(args[1]))
		return nil
	}),
}

var canvasDeleteCmd = &cobra.Command{
	Use:   "delete <canvas>",
	Short: "Delete a canvas and the notes only it shows",
	Args:  cobra.ExactArgs(1),
	RunE: withBoard(func(cmd *cobra.Command, args []string, a *boardApp) error {
		id, err := resolveCanvas(a, args[0])
		if err != nil {
			return err
		}
		if err := a.ctl.DeleteCanvas(id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
		return nil
	}),
}

var canvasSelectCmd = &cobra.Command{
	Use:   "select <canvas>",
	Short: "Make a canvas the one the UI opens",
	Args:  cobra.ExactArgs(1),
	RunE: withBoard(func(cmd *cobra.Command, args []string, a *boardApp) error {
		id, err := resolveCanvas(a, args[0])
		if err != nil {
			return err
		}
		if err := a.ctl.SelectCanvas(id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Active canvas: %s\n", id)
		return nil
	}),
}

func init() {
	canvasCmd.AddCommand(canvasCreateCmd, canvasRenameCmd, canvasDeleteCmd, canvasSelectCmd)
	rootCmd.AddCommand(canvasCmd)
}
