package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"fortio.org/safecast"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tsdoctor/internal/config"
	"tsdoctor/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "tsdoctor [flags] [directory]",
	Short: "Type-check a TypeScript project with the compiler version its lockfile pins",
	Long: `tsdoctor resolves the TypeScript version recorded in yarn.lock or
package-lock.json, loads exactly that version and reports its semantic
diagnostics. The step fails when any diagnostic is an error.`,
	Args:              cobra.MaximumNArgs(1),
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: loadEnvFile,
	RunE:              runCheck,
}

// exitError carries a process exit code out of a command without printing
// anything else.
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)

	addCheckFlags(rootCmd)
	addRootFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	cmd.PersistentFlags().Bool("quiet", false, "only log errors")
	cmd.PersistentFlags().Bool("timings", false, "show timing information")
	cmd.PersistentFlags().String("ui", "off", "progress UI (auto|on|off)")
	cmd.PersistentFlags().String("log-level", "info", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().String("env-file", "", "load environment variables from a dotenv file")
	cmd.PersistentFlags().String("trace", "", "write trace events to a file (- for stderr)")
	cmd.PersistentFlags().String("trace-level", "off", "trace level (off|run|stage|detail)")
	cmd.PersistentFlags().String("trace-format", "auto", "trace format (auto|text|ndjson)")
}

func loadEnvFile(cmd *cobra.Command, _ []string) error {
	path, err := cmd.Root().PersistentFlags().GetString("env-file")
	if err != nil {
		return fmt.Errorf("failed to get env-file flag: %w", err)
	}
	if path == "" {
		return nil
	}
	return config.LoadEnvFile(path)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// gutterWidth is the room pretty output needs left of a source line.
const gutterWidth = 8

// terminalWidth is the source line width that fits w, or 0 when w is not a
// terminal.
func terminalWidth(w io.Writer) uint8 {
	f, ok := w.(*os.File)
	if !ok || !isTerminal(f) {
		return 0
	}
	cols, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return clipWidth(cols)
}

func clipWidth(cols int) uint8 {
	if cols <= gutterWidth {
		return 0
	}
	width, err := safecast.Conv[uint8](cols - gutterWidth)
	if err != nil {
		return math.MaxUint8
	}
	return width
}
