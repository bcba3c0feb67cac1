package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"typeload/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "typeload",
	Short: "Typed-source module loader for the embedded JS runtime",
	Long:  `typeload compiles and runs typed-source (.ts/.tsx) modules on the embedded JavaScript runtime, resolving imports across typed, plain and builtin modules.`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("no-cache", false, "disable the transpile output cache")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// colorEnabled resolves the --color tri-state against the stream.
func colorEnabled(cmd *cobra.Command, f *os.File) bool {
	mode, err := cmd.Flags().GetString("color")
	if err != nil {
		mode = "auto"
	}
	switch mode {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal(f)
	}
}
