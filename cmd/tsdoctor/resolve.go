package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"tsdoctor/internal/lockfile"
	"tsdoctor/internal/project"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [directory]",
	Short: "Print the engine version pinned by the lockfile",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runResolve,
}

func init() {
	resolveCmd.Flags().String("engine-package", lockfile.DefaultPackage, "npm package to look up")
	resolveCmd.Flags().String("format", "text", "output format (text|json)")
}

type resolvePayload struct {
	Package  string `json:"package"`
	Version  string `json:"version"`
	Lockfile string `json:"lockfile"`
	Format   string `json:"format"`
	Entry    string `json:"entry"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	pkg, err := cmd.Flags().GetString("engine-package")
	if err != nil {
		return fmt.Errorf("failed to get engine-package flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format = strings.ToLower(format)
	if format != "text" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be text or json)", format)
	}

	input := ""
	if len(args) == 1 {
		input = args[0]
	}
	dir, err := project.ResolveDirectory(input)
	if err != nil {
		return err
	}
	resolver := lockfile.NewResolver(pkg)
	entry, err := resolver.Lookup(dir)
	if err != nil {
		return err
	}
	payload := resolvePayload{
		Package:  resolver.Package,
		Version:  entry.Version,
		Lockfile: entry.Path,
		Format:   entry.Format.String(),
		Entry:    entry.Name,
	}
	return renderResolve(cmd.OutOrStdout(), payload, format)
}

func renderResolve(out io.Writer, p resolvePayload, format string) error {
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}
	_, err := fmt.Fprintf(out, "%s %s (%s, %s)\n", p.Package, p.Version, p.Format, p.Lockfile)
	return err
}
