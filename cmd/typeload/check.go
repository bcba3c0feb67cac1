package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"typeload/internal/diagfmt"
	"typeload/internal/driver"
	"typeload/internal/ui"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [dir]",
	Short: "Diagnose every typed-source file under a directory",
	Long:  `Run the diagnostic and transform passes over every typed-source file under a directory without executing anything`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().Int("jobs", 0, "parallel check workers (0 = GOMAXPROCS)")
	checkCmd.Flags().Bool("no-progress", false, "disable the interactive progress view")
}

func runCheck(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 && args[0] != "" {
		dir = args[0]
	}

	maxDiagnostics, err := cmd.Flags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	noProgress, err := cmd.Flags().GetBool("no-progress")
	if err != nil {
		return fmt.Errorf("failed to get no-progress flag: %w", err)
	}
	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}

	d, err := driver.New(driver.Options{
		MaxDiagnostics: maxDiagnostics,
		NoDiskCache:    true,
	})
	if err != nil {
		return err
	}

	interactive := !noProgress && !quiet && isTerminal(os.Stdout)

	var events chan driver.CheckEvent
	var prog *tea.Program
	progDone := make(chan error, 1)
	if interactive {
		files, err := driver.ListTypedFiles(dir)
		if err != nil {
			return err
		}
		events = make(chan driver.CheckEvent, len(files)*4+8)
		prog = tea.NewProgram(ui.NewCheckModel("checking "+dir, files, events))
		go func() {
			_, err := prog.Run()
			progDone <- err
		}()
	}

	results, err := d.CheckDir(cmd.Context(), dir, jobs, events)
	if prog != nil {
		if perr := <-progDone; perr != nil {
			fmt.Fprintln(os.Stderr, "progress view failed:", perr)
		}
	}
	if err != nil {
		return err
	}

	failed := 0
	opts := diagfmt.PrettyOpts{Color: colorEnabled(cmd, os.Stdout), Context: true}
	for _, res := range results {
		if res.Bag.Len() == 0 {
			continue
		}
		diagfmt.Pretty(os.Stdout, res.Bag, d.Files(), opts)
		if res.Bag.HasErrors() {
			failed++
		}
	}

	if !quiet {
		fmt.Fprintf(os.Stdout, "checked %d files, %d with errors\n", len(results), failed)
	}
	if failed > 0 {
		os.Exit(1)
	}
	return nil
}
