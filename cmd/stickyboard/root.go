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
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"stickyboard/internal/board"
	"stickyboard/internal/config"
	"stickyboard/internal/crash"
	"stickyboard/internal/events"
	applog "stickyboard/internal/log"
	"stickyboard/internal/storage"
)

var (
	verbose     bool
	dataDirFlag string
	backendFlag string

	cfg config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "stickyboard",
	Short: "Infinite-canvas sticky notes, stored locally",
	Long: `Sticky Board keeps free-form notes on named, pannable canvases.
The commands below work on the same data the desktop UI uses.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			// defaults and env overrides are still usable
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
		cfg = loaded
		if dataDirFlag != "" {
			cfg.Storage.Dir = dataDirFlag
		}
		if backendFlag != "" {
			cfg.Storage.Backend = backendFlag
		}
		opts := cfg.Logging.LogOptions()
		if verbose {
			opts.Level = "debug"
		}
		applog.Init(opts)
		applog.WithComponent("cli").Debug("start", slog.String("cmd", cmd.CommandPath()))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Board data directory (default from config)")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Storage backend: file, sqlite or memory")
}

// boardApp is an opened data dir with a mounted board.
type boardApp struct {
	dataDir string
	store   *storage.Store
	ctl     *board.Controller
	bus     *events.Bus
	closeFn func() error
}

func openApp() (*boardApp, error) {
	dataDir, err := cfg.DataDir()
	if err != nil {
		return nil, err
	}
	backend, closeFn, err := storage.OpenBackend(cfg.Storage.Backend, dataDir, cfg.Storage.QuotaBytes)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	bus := events.NewBus()
	events.On(bus, func(e events.StorageFailed) {
		fmt.Fprintf(os.Stderr, "warning: %s failed: %v\n", e.Op, e.Err)
	})
	store := storage.NewStore(backend, storage.Options{Events: bus, MaxBackups: cfg.Storage.MaxBackups})
	ctl := board.New(store, board.Options{
		Debounce:      cfg.Canvas.SaveDebounce(),
		ZoomMin:       cfg.Canvas.ZoomMin,
		ZoomMax:       cfg.Canvas.ZoomMax,
		DragThreshold: cfg.Canvas.DragThresholdPx,
		Events:        bus,
	})
	if _, err := ctl.Mount(); err != nil {
		_ = closeFn()
		return nil, err
	}
	return &boardApp{dataDir: dataDir, store: store, ctl: ctl, bus: bus, closeFn: closeFn}, nil
}

func (a *boardApp) Close() error {
	ok := a.ctl.Close()
	err := a.closeFn()
	if !ok && err == nil {
		err = fmt.Errorf("final save failed")
	}
	return err
}

// withBoard opens the board for fn, writes pending changes afterwards and turns a
// panic into a crash report.
func withBoard(fn func(cmd *cobra.Command, args []string, a *boardApp) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer func() {
			if cerr := a.Close(); err == nil {
				err = cerr
			}
		}()
		defer crash.Recover(a.dataDir, a.ctl)
		return fn(cmd, args, a)
	}
}

// resolveCanvas accepts a canvas id or an exact name; empty means the active canvas.
func resolveCanvas(a *boardApp, ref string) (string, error) {
	if ref == "" {
		return a.ctl.ActiveID(), nil
	}
	var byName []string
	for _, c := range a.ctl.Canvases() {
		if c.ID == ref {
			return c.ID, nil
		}
		if c.Name == ref {
			byName = append(byName, c.ID)
		}
	}
	switch len(byName) {
	case 1:
		return byName[0], nil
	case 0:
		return "", fmt.Errorf("%w: %s", board.ErrUnknownCanvas, ref)
	}
	return "", fmt.Errorf("canvas name %q is ambiguous; use the id", ref)
}
