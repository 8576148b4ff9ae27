// Package main provides the CLI entry point for optionset, a directory-scoped
// macro preprocessor that toggles commented-out lines in plain-text files
// based on annotations embedded in their comments.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"go.optionset.dev/optionset/internal/buildinfo"
	"go.optionset.dev/optionset/internal/devprofile"
	"go.optionset.dev/optionset/internal/driver"
	"go.optionset.dev/optionset/internal/request"
	"go.optionset.dev/optionset/internal/runconfig"
	"go.optionset.dev/optionset/internal/runlog"
)

// Flags holds CLI flag names, allowing callers to customize them while
// keeping sensible defaults, following the teacher's magicschema.Flags
// pattern.
type Flags struct {
	Available     string
	ShowFiles     string
	Verbose       string
	Quiet         string
	Debug         string
	NoLog         string
	RenameOption  string
	RenameSetting string
	BashCompl     string
	HelpFull      string
	AuxDir        string
	DryRun        string
}

// Config holds CLI flag values for one invocation.
type Config struct {
	Flags Flags

	Available     bool
	ShowFiles     bool
	Verbose       bool
	Quiet         bool
	Debug         bool
	NoLog         bool
	RenameOption  string
	RenameSetting string
	BashCompl     bool
	HelpFull      bool
	AuxDir        string
	DryRun        bool
}

// NewConfig returns a [Config] with default flag names.
func NewConfig() *Config {
	return &Config{Flags: Flags{
		Available:     "available",
		ShowFiles:     "show-files",
		Verbose:       "verbose",
		Quiet:         "quiet",
		Debug:         "debug",
		NoLog:         "no-log",
		RenameOption:  "rename-option",
		RenameSetting: "rename-setting",
		BashCompl:     "bash-completion",
		HelpFull:      "help-full",
		AuxDir:        "auxiliary-dir",
		DryRun:        "dry-run",
	}}
}

// RegisterFlags adds the CLI flags to flags, per the external-interfaces
// surface.
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.BoolVarP(&c.Available, c.Flags.Available, "a", false,
		"show available options and settings, without modifying files")
	flags.BoolVarP(&c.ShowFiles, c.Flags.ShowFiles, "f", false,
		"like --available, plus the files each option was observed in")
	flags.BoolVarP(&c.Verbose, c.Flags.Verbose, "v", false,
		"increase console log verbosity to INFO")
	flags.BoolVarP(&c.Quiet, c.Flags.Quiet, "q", false,
		"reduce console log verbosity to ERROR")
	flags.BoolVarP(&c.Debug, c.Flags.Debug, "d", false,
		"increase console log verbosity to DEBUG")
	flags.BoolVar(&c.NoLog, c.Flags.NoLog, false,
		"disable the run log file and config-file auto-creation")
	flags.StringVar(&c.RenameOption, c.Flags.RenameOption, "",
		"rename the given option's annotations to this new name")
	flags.StringVar(&c.RenameSetting, c.Flags.RenameSetting, "",
		"rename the option's setting annotations to this new name")
	flags.BoolVar(&c.BashCompl, c.Flags.BashCompl, false,
		"write a bash-completion script for the discovered option set")
	flags.BoolVar(&c.HelpFull, c.Flags.HelpFull, false,
		"show full help, including developer flags")
	flags.StringVar(&c.AuxDir, c.Flags.AuxDir, defaultAuxDir(),
		"auxiliary directory for the config, log, and completion files")
	flags.BoolVar(&c.DryRun, c.Flags.DryRun, false,
		"report which files an apply/rename would modify, without writing them")
}

func defaultAuxDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".optionset"
	}

	return filepath.Join(home, ".optionset")
}

// BuildRequest turns cfg and the positional args into a validated
// [request.InputRequest].
func (c *Config) BuildRequest(args []string) (*request.InputRequest, error) {
	var optionArg, settingArg string

	if len(args) > 0 {
		optionArg = args[0]
	}

	if len(args) > 1 {
		settingArg = args[1]
	}

	tag, option := request.ParseOptionArg(optionArg)

	req := &request.InputRequest{Tag: tag, Option: option, Setting: settingArg}

	switch {
	case c.BashCompl:
		req.Mode = request.ModeEmitCompletion
	case c.RenameOption != "":
		req.Mode = request.ModeRenameOption
		req.RenameOption = c.RenameOption
	case c.RenameSetting != "":
		req.Mode = request.ModeRenameSetting
		req.RenameSetting = c.RenameSetting
	case c.ShowFiles:
		req.Mode = request.ModeShowFiles
	case c.Available:
		req.Mode = request.ModeShowAvailable
	default:
		req.Mode = request.ModeApplySetting
	}

	if err := request.Validate(req); err != nil {
		return nil, err
	}

	return req, nil
}

func main() {
	cfg := NewConfig()
	profiler := devprofile.New()

	rootCmd := &cobra.Command{
		Use:   "optionset [flags] [option] [setting]",
		Short: "Toggle annotated options in plain-text configuration and source files",
		Long: `optionset scans a directory tree for comment-embedded annotations of the
form [*]<tag><option> <setting> and comments or uncomments the annotated
lines to make the requested setting active, without touching any other
content in the file.`,
		Args:          cobra.MaximumNArgs(2),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, cfg, profiler, args)
		},
	}

	cfg.RegisterFlags(rootCmd.Flags())
	profiler.RegisterFlags(rootCmd.Flags())

	rootCmd.Flags().Bool("version", false, "print the version and exit")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, cfg *Config, profiler *devprofile.Profiler, args []string) error {
	if version, _ := cmd.Flags().GetBool("version"); version {
		fmt.Println(buildinfo.String())
		return nil
	}

	if cfg.HelpFull {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			f.Hidden = false
		})

		return cmd.Help()
	}

	if err := profiler.Start(); err != nil {
		return err
	}

	defer func() {
		_ = profiler.Stop()
	}()

	logger, closeLog, err := runlog.NewLogger(os.Stdout, runlog.Config{
		Quiet: cfg.Quiet, Verbose: cfg.Verbose, Debug: cfg.Debug, NoLog: cfg.NoLog, AuxDir: cfg.AuxDir,
	})
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}

	defer func() {
		_ = closeLog()
	}()

	fileCfg, err := runconfig.Load(cfg.AuxDir, !cfg.NoLog)
	if err != nil {
		return err
	}

	req, err := cfg.BuildRequest(args)
	if err != nil {
		return err
	}

	start := time.Now()

	summary, err := driver.Run(driver.Options{
		Root:       ".",
		Request:    req,
		FileConfig: fileCfg,
		Logger:     logger,
		DryRun:     cfg.DryRun,
	})
	if err != nil {
		return err
	}

	switch req.Mode {
	case request.ModeEmitCompletion:
		path := filepath.Join(cfg.AuxDir, "optionset-completion.bash")

		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("writing bash completion: %w", err)
		}
		defer f.Close()

		if err := driver.WriteBashCompletion(f, "optionset", summary.DB); err != nil {
			return fmt.Errorf("writing bash completion: %w", err)
		}

		runlog.Print(logger, "wrote bash completion script", "path", path)
	case request.ModeShowAvailable, request.ModeShowFiles:
		pattern := driver.FilterPattern(req.OptionKey())
		fmt.Print(driver.Report(summary.DB, pattern, req.Mode == request.ModeShowFiles))
	default:
		if cfg.DryRun {
			for _, path := range summary.ModifiedFiles {
				fmt.Println(path)
			}
		}

		runlog.Print(logger, "run complete", "modified", len(summary.ModifiedFiles), "skipped", summary.SkippedFiles)
	}

	logger.Info("run finished", "duration", time.Since(start).String())

	return nil
}
