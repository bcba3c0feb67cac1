package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"typeload/internal/diagfmt"
	"typeload/internal/driver"
	"typeload/internal/loader"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] <file.ts>",
	Short: "Compile and execute a typed-source module",
	Long:  `Compile a typed-source entry file, link its import graph and execute it on the embedded runtime`,
	Args:  cobra.ExactArgs(1),
	RunE:  runExecution,
}

func init() {
	runCmd.Flags().String("cache-dir", "", "override the transpile cache directory")
}

func runExecution(cmd *cobra.Command, args []string) error {
	entryPath := args[0]

	maxDiagnostics, err := cmd.Flags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	cacheDir, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return fmt.Errorf("failed to get cache-dir flag: %w", err)
	}

	d, err := driver.New(driver.Options{
		MaxDiagnostics: maxDiagnostics,
		NoDiskCache:    noCache,
		CacheDir:       cacheDir,
	})
	if err != nil {
		return err
	}

	if err := d.Run(cmd.Context(), entryPath); err != nil {
		var cerr *loader.CompilationError
		if errors.As(err, &cerr) {
			diagfmt.Pretty(os.Stderr, cerr.Diagnostics, d.Files(), diagfmt.PrettyOpts{
				Color:   colorEnabled(cmd, os.Stderr),
				Context: true,
			})
			fmt.Fprintln(os.Stderr, cerr.Error())
			os.Exit(1)
		}
		return err
	}
	return nil
}
