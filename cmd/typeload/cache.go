package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"typeload/internal/driver"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the transpile output cache",
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove every cached transpile output",
	Args:  cobra.NoArgs,
	RunE:  runCacheClean,
}

func init() {
	cacheCleanCmd.Flags().String("cache-dir", "", "override the transpile cache directory")
	cacheCmd.AddCommand(cacheCleanCmd)
}

func runCacheClean(cmd *cobra.Command, _ []string) error {
	cacheDir, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return fmt.Errorf("failed to get cache-dir flag: %w", err)
	}

	var dc *driver.DiskCache
	if cacheDir != "" {
		dc, err = driver.OpenDiskCacheAt(cacheDir)
	} else {
		dc, err = driver.OpenDiskCache("typeload")
	}
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	if err := dc.DropAll(); err != nil {
		return fmt.Errorf("failed to clean cache: %w", err)
	}
	_, _ = fmt.Fprintln(os.Stdout, "cache cleaned")
	return nil
}
