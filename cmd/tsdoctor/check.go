package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tsdoctor/internal/ci"
	"tsdoctor/internal/config"
	"tsdoctor/internal/diagfmt"
	"tsdoctor/internal/engine"
	"tsdoctor/internal/lockfile"
	"tsdoctor/internal/observ"
	"tsdoctor/internal/pipeline"
	"tsdoctor/internal/version"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [directory]",
	Short: "Report semantic diagnostics with the pinned TypeScript version",
	Long: `Resolve the TypeScript version pinned by the project's lockfile, load it
(installing it into the cache on first use) and report semantic diagnostics
for tsconfig.json. Exits with status 1 when any diagnostic is an error.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	addCheckFlags(checkCmd)
}

func addCheckFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", "", "output format (auto|pretty|short|github|json|sarif)")
	cmd.Flags().String("settings", "", "path to a "+config.FileName+" file")
	cmd.Flags().String("config-file", "", "project configuration file name (default tsconfig.json)")
	cmd.Flags().String("engine-package", "", "npm package providing the engine (default typescript)")
	cmd.Flags().String("cache-dir", "", "engine cache directory")
	cmd.Flags().String("registry", "", "npm registry used for installs")
	cmd.Flags().Bool("verify", false, "confirm the loaded engine reports the pinned version")
	cmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	cmd.Flags().Bool("no-notes", false, "omit related information from diagnostics")
	cmd.Flags().Int("context", -1, "lines of source shown above each diagnostic")
	cmd.Flags().Int("max-diagnostics", 0, "maximum number of diagnostics in json output (0 = all)")
}

// checkFlags are the command-line overrides, applied after every other
// configuration layer.
type checkFlags struct {
	settings       string
	fullPath       bool
	maxDiagnostics int
	// width clips pretty source lines; 0 leaves them whole.
	width uint8
}

func runCheck(cmd *cobra.Command, args []string) error {
	stdout := cmd.OutOrStdout()
	log, err := newLogger(cmd, cmd.ErrOrStderr())
	if err != nil {
		return signalError(stdout, err)
	}
	env := ci.OSEnv()

	cfg, flags, err := loadCheckConfig(cmd, args, env)
	if err != nil {
		return signalError(stdout, err)
	}
	if cfg.Path != "" {
		log.Debug("loaded settings", "path", cfg.Path)
	}
	if len(cfg.Overrides) > 0 {
		log.Debug("settings overridden", "by", strings.Join(cfg.Overrides, ","))
	}

	if err := applyColorFlag(cmd); err != nil {
		return signalError(stdout, err)
	}
	uiFlag, err := cmd.Root().PersistentFlags().GetString("ui")
	if err != nil {
		return signalError(stdout, fmt.Errorf("failed to get ui flag: %w", err))
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return signalError(stdout, err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return signalError(stdout, fmt.Errorf("failed to get timings flag: %w", err))
	}

	cleanup, err := setupTracing(cmd)
	if err != nil {
		return signalError(stdout, err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	format, err := diagfmt.ParseFormat(cfg.Output.Format)
	if err != nil {
		return signalError(stdout, err)
	}
	format = format.Resolve(env.InActions())
	cwd, err := os.Getwd()
	if err != nil {
		return signalError(stdout, err)
	}
	flags.width = terminalWidth(stdout)

	useUI := shouldUseTUI(mode, env.InActions())
	var buf bytes.Buffer
	reportTo := stdout
	if useUI {
		reportTo = &buf
	}
	printer := newPrinter(reportTo, format, cfg, flags, cwd, env.Workspace())
	printer.Sarif.InvocationArgs = os.Args

	loader, err := newLoader(cfg, log)
	if err != nil {
		return signalError(stdout, err)
	}
	var timer *observ.Timer
	if showTimings {
		timer = observ.NewTimer()
	}
	req := &pipeline.Request{
		WorkingDirectory: cfg.Project.WorkingDirectory,
		ConfigFile:       cfg.Project.Config,
		Resolver:         lockfile.NewResolver(cfg.Engine.Package),
		Loader: noteVersion{loader: loader, note: func(v string) {
			printer.Sarif.EngineVersion = v
			printer.GitHub.Group = "TypeScript " + v + " diagnostics"
		}},
		Timer: timer,
		Log:   log,
	}

	var (
		res pipeline.Result
		out ci.Result
	)
	if useUI {
		var uiErr error
		res, out, uiErr = runCheckWithUI(ctx, "tsdoctor check", req, printer)
		if uiErr != nil {
			log.Warn("progress UI failed", "error", uiErr)
		}
		if _, err := io.Copy(stdout, &buf); err != nil {
			return err
		}
	} else {
		res, out = pipeline.Run(ctx, req, printer)
	}

	if showTimings {
		if err := printStageTimings(cmd.ErrOrStderr(), res.Timings); err != nil {
			return err
		}
		log.Debug("phase timings\n" + timer.Summary())
	}
	if code := ci.Signal(stdout, out); code != 0 {
		return exitError{code: code}
	}
	return nil
}

// loadCheckConfig layers the command-line flags and the positional
// directory over config.Load.
func loadCheckConfig(cmd *cobra.Command, args []string, env ci.Env) (config.Config, checkFlags, error) {
	var flags checkFlags
	var err error
	if flags.settings, err = cmd.Flags().GetString("settings"); err != nil {
		return config.Config{}, flags, fmt.Errorf("failed to get settings flag: %w", err)
	}
	if flags.fullPath, err = cmd.Flags().GetBool("fullpath"); err != nil {
		return config.Config{}, flags, fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	if flags.maxDiagnostics, err = cmd.Flags().GetInt("max-diagnostics"); err != nil {
		return config.Config{}, flags, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if flags.maxDiagnostics < 0 {
		return config.Config{}, flags, fmt.Errorf("invalid --max-diagnostics value %d (must be >= 0)", flags.maxDiagnostics)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return config.Config{}, flags, err
	}

	cfg, err := config.Load(config.Options{Dir: cwd, File: flags.settings, Env: env})
	if err != nil {
		return config.Config{}, flags, err
	}

	stringFlags := map[string]*string{
		"format":         &cfg.Output.Format,
		"config-file":    &cfg.Project.Config,
		"engine-package": &cfg.Engine.Package,
		"cache-dir":      &cfg.Engine.CacheDir,
		"registry":       &cfg.Engine.Registry,
	}
	for name, target := range stringFlags {
		if !cmd.Flags().Changed(name) {
			continue
		}
		if *target, err = cmd.Flags().GetString(name); err != nil {
			return config.Config{}, flags, fmt.Errorf("failed to get %s flag: %w", name, err)
		}
	}
	if cmd.Flags().Changed("verify") {
		if cfg.Engine.Verify, err = cmd.Flags().GetBool("verify"); err != nil {
			return config.Config{}, flags, fmt.Errorf("failed to get verify flag: %w", err)
		}
	}
	if cmd.Flags().Changed("no-notes") {
		noNotes, err := cmd.Flags().GetBool("no-notes")
		if err != nil {
			return config.Config{}, flags, fmt.Errorf("failed to get no-notes flag: %w", err)
		}
		cfg.Output.Notes = !noNotes
	}
	if cmd.Flags().Changed("context") {
		if cfg.Output.Context, err = cmd.Flags().GetInt("context"); err != nil {
			return config.Config{}, flags, fmt.Errorf("failed to get context flag: %w", err)
		}
	}
	if len(args) == 1 {
		cfg.Project.WorkingDirectory = args[0]
	}
	return cfg, flags, cfg.Validate()
}

// signalError reports err as a failed check before any stage has run, so
// the CI log carries the same error line as a pipeline failure.
func signalError(stdout io.Writer, err error) error {
	return exitError{code: ci.Signal(stdout, ci.Failure(err.Error()))}
}

func applyColorFlag(cmd *cobra.Command) error {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	switch strings.ToLower(colorFlag) {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
		// fatih/color already honours NO_COLOR and non-terminal stdout.
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorFlag)
	}
	return nil
}

func parsePathMode(s string, fullPath bool) diagfmt.PathMode {
	if fullPath {
		return diagfmt.PathModeAbsolute
	}
	switch strings.ToLower(s) {
	case "absolute":
		return diagfmt.PathModeAbsolute
	case "relative":
		return diagfmt.PathModeRelative
	case "basename":
		return diagfmt.PathModeBasename
	default:
		return diagfmt.PathModeAuto
	}
}

// newPrinter builds the reporter for format. workspace, when set, anchors
// annotation paths to the repository root.
func newPrinter(w io.Writer, format diagfmt.Format, cfg config.Config, flags checkFlags, cwd, workspace string) *diagfmt.Printer {
	mode := parsePathMode(cfg.Output.PathMode, flags.fullPath)
	base := cwd
	if workspace != "" {
		base = workspace
	}
	return &diagfmt.Printer{
		W:      w,
		Format: format,
		Pretty: diagfmt.PrettyOpts{
			Color:     !color.NoColor,
			Context:   int8(cfg.Output.Context),
			PathMode:  mode,
			BaseDir:   cwd,
			Width:     flags.width,
			ShowNotes: cfg.Output.Notes,
		},
		JSON: diagfmt.JSONOpts{
			PathMode:     mode,
			BaseDir:      cwd,
			Max:          flags.maxDiagnostics,
			IncludeNotes: cfg.Output.Notes,
		},
		GitHub: diagfmt.GitHubOpts{
			BaseDir:   base,
			ShowNotes: cfg.Output.Notes,
		},
		Sarif: diagfmt.SarifRunMeta{
			ToolName:    "tsdoctor",
			ToolVersion: version.Version,
			BaseDir:     base,
		},
	}
}

func newLoader(cfg config.Config, log *slog.Logger) (*engine.Loader, error) {
	cacheDir := cfg.Engine.CacheDir
	if cacheDir == "" {
		var err error
		if cacheDir, err = engine.DefaultCacheDir(); err != nil {
			return nil, fmt.Errorf("failed to locate engine cache: %w", err)
		}
	}
	return &engine.Loader{
		CacheDir: cacheDir,
		Package:  cfg.Engine.Package,
		Node:     strings.Fields(cfg.Engine.Node),
		Installer: &engine.NPMInstaller{
			NPM:      cfg.Engine.NPM,
			Registry: cfg.Engine.Registry,
			Log:      log,
		},
		Verify: cfg.Engine.Verify,
		Log:    log,
	}, nil
}

// noteVersion passes the loaded engine's version to note, for report
// metadata that is only known once the engine is up.
type noteVersion struct {
	loader pipeline.EngineLoader
	note   func(string)
}

func (n noteVersion) Load(ctx context.Context, v string) (engine.Engine, error) {
	eng, err := n.loader.Load(ctx, v)
	if err == nil && n.note != nil {
		n.note(eng.Version())
	}
	return eng, err
}
