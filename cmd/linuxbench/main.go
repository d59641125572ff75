// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// linuxbench dispatches the registered measurement scenarios: list them,
// run one, or run the whole catalog. Each scenario writes
// <out-dir>/<scenario>.csv and the process exits non-zero only on
// unrecoverable setup failure — skipped conditions are a clean exit.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/perfprobe/linuxbench/internal/sysinfo"
	"github.com/perfprobe/linuxbench/pkg/emit"
	"github.com/perfprobe/linuxbench/pkg/scenario"
	_ "github.com/perfprobe/linuxbench/pkg/scenarios"
)

var (
	outDir      string
	verbose     bool
	noOverwrite bool
)

func newLogger() logr.Logger {
	if verbose {
		zapLog, err := zap.NewDevelopment()
		if err == nil {
			return zapr.NewLogger(zapLog)
		}
	}
	return logr.Discard()
}

func overwritePolicy() emit.OverwritePolicy {
	if noOverwrite {
		return emit.OverwriteFail
	}
	return emit.OverwriteAlways
}

func runScenario(ctx context.Context, logger logr.Logger, name string) error {
	factory, ok := scenario.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown scenario %q; see 'linuxbench list'", name)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	s := factory()
	path := filepath.Join(outDir, name+".csv")
	w, err := emit.Open(path, overwritePolicy())
	if err != nil {
		return err
	}

	d := scenario.NewDriver(logger)
	stats, runErr := d.Run(ctx, s, w)
	if closeErr := w.Close(); closeErr != nil && runErr == nil {
		runErr = closeErr
	}
	if runErr != nil {
		return fmt.Errorf("scenario %s: %w", name, runErr)
	}

	fmt.Printf("%s: %d records, %d/%d conditions (%d skipped)%s -> %s\n",
		name, stats.RecordsEmitted, stats.ConditionsAttempted, stats.ConditionsTotal,
		stats.ConditionsSkipped, interruptedSuffix(stats), path)
	return nil
}

func interruptedSuffix(stats scenario.Stats) string {
	if stats.Interrupted {
		return ", interrupted"
	}
	return ""
}

func main() {
	root := &cobra.Command{
		Use:           "linuxbench",
		Short:         "Linux micro-benchmark measurement harness",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&outDir, "out-dir", "data", "directory record files are written to")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose logging")
	root.PersistentFlags().BoolVar(&noOverwrite, "no-overwrite", false, "refuse to replace an existing record file")

	root.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered scenarios",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range scenario.Names() {
				fmt.Println(name)
			}
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "run <scenario>",
		Short: "Run one scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(cmd.Context(), newLogger(), args[0])
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "run-all",
		Short: "Run every registered scenario sequentially",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			for _, name := range scenario.Names() {
				if cmd.Context().Err() != nil {
					return nil
				}
				if err := runScenario(cmd.Context(), logger, name); err != nil {
					return err
				}
			}
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "sysinfo",
		Short: "Print the hardware context scenarios run under",
		Run: func(cmd *cobra.Command, args []string) {
			info := sysinfo.New("", "").Collect()
			fmt.Printf("model: %s (%s)\n", info.ModelName, info.VendorID)
			fmt.Printf("logical cpus: %d @ %.0f MHz, governor %s\n",
				info.LogicalCPUs, info.CPUMHz, info.Governor)
			for _, cache := range info.Caches {
				fmt.Printf("L%d %s: %d KiB\n", cache.Level, cache.Type, cache.SizeBytes>>10)
			}
			fmt.Printf("numa nodes: %d\n", info.NUMANodes)
			fmt.Printf("huge pages: %d x %d KiB, thp=%s\n",
				info.HugePagesTotal, info.HugePageSizeKB, info.THPEnabled)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
