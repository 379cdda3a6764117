package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tsdoctor/internal/config"
	"tsdoctor/internal/engine"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage installed engine versions",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed engine versions",
	Args:  cobra.NoArgs,
	RunE:  runCacheList,
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean [version]",
	Short: "Remove one installed version, or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheClean,
}

var cacheInstallCmd = &cobra.Command{
	Use:   "install <version>",
	Short: "Install an engine version into the cache ahead of time",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheInstall,
}

func init() {
	cacheCmd.PersistentFlags().String("cache-dir", "", "engine cache directory")
	cacheCmd.PersistentFlags().String("engine-package", engine.DefaultPackage, "npm package providing the engine")
	cacheInstallCmd.Flags().String("registry", "", "npm registry used for the install")
	cacheInstallCmd.Flags().Bool("verify", false, "confirm the installed engine reports the requested version")

	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheCleanCmd)
	cacheCmd.AddCommand(cacheInstallCmd)
}

func cacheTarget(cmd *cobra.Command) (dir, pkg string, err error) {
	if dir, err = cmd.Flags().GetString("cache-dir"); err != nil {
		return "", "", fmt.Errorf("failed to get cache-dir flag: %w", err)
	}
	if pkg, err = cmd.Flags().GetString("engine-package"); err != nil {
		return "", "", fmt.Errorf("failed to get engine-package flag: %w", err)
	}
	if dir == "" {
		if dir, err = engine.DefaultCacheDir(); err != nil {
			return "", "", fmt.Errorf("failed to locate engine cache: %w", err)
		}
	}
	return dir, pkg, nil
}

func runCacheList(cmd *cobra.Command, _ []string) error {
	dir, pkg, err := cacheTarget(cmd)
	if err != nil {
		return err
	}
	receipts, err := engine.List(dir, pkg)
	if err != nil {
		return err
	}
	return renderReceipts(cmd.OutOrStdout(), receipts)
}

func renderReceipts(out io.Writer, receipts []engine.Receipt) error {
	if len(receipts) == 0 {
		_, err := fmt.Fprintln(out, "no engine versions installed")
		return err
	}
	for _, r := range receipts {
		if _, err := fmt.Fprintf(out, "%s@%-12s %s  %s\n", r.Package, r.Version, r.InstalledAt.Format(time.RFC3339), r.Dir); err != nil {
			return err
		}
	}
	return nil
}

func runCacheClean(cmd *cobra.Command, args []string) error {
	dir, pkg, err := cacheTarget(cmd)
	if err != nil {
		return err
	}
	v := ""
	if len(args) == 1 {
		v = strings.TrimSpace(args[0])
		if !engine.ValidVersion(v) {
			return fmt.Errorf("invalid version %q", args[0])
		}
	}
	removed, err := engine.Clean(dir, pkg, v)
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "nothing to remove")
		return nil
	}
	for _, path := range removed {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", path)
	}
	return nil
}

func runCacheInstall(cmd *cobra.Command, args []string) error {
	dir, pkg, err := cacheTarget(cmd)
	if err != nil {
		return err
	}
	registry, err := cmd.Flags().GetString("registry")
	if err != nil {
		return fmt.Errorf("failed to get registry flag: %w", err)
	}
	verify, err := cmd.Flags().GetBool("verify")
	if err != nil {
		return fmt.Errorf("failed to get verify flag: %w", err)
	}
	log, err := newLogger(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	cfg := config.Default()
	cfg.Engine.CacheDir = dir
	cfg.Engine.Package = pkg
	cfg.Engine.Registry = registry
	cfg.Engine.Verify = verify
	loader, err := newLoader(cfg, log)
	if err != nil {
		return err
	}
	eng, err := loader.Load(cmd.Context(), strings.TrimSpace(args[0]))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s@%s ready in %s\n", pkg, eng.Version(), loader.VersionDir(eng.Version()))
	return err
}
