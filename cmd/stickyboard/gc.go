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

	"github.com/spf13/cobra"
)

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Remove notes that no canvas shows",
	Args:  cobra.NoArgs,
	RunE: withBoard(func(cmd *cobra.Command, args []string, a *boardApp) error {
		n, ok := a.store.CollectGarbage()
		if !ok {
			return fmt.Errorf("garbage collection could not be saved")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d orphan note(s)\n", n)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(gcCmd)
}
