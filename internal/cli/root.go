package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/aionic/internal/clock"
	"github.com/roach88/aionic/internal/config"
	"github.com/roach88/aionic/internal/logging"
	"github.com/roach88/aionic/internal/model"
)

// RootOptions holds global flags for all commands, plus the configuration
// and logger resolved from them before any subcommand runs.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	DBPath     string
	Local      bool // keep everything in memory for this invocation

	// Clock is the time source for stores and the journal. Nil uses the
	// wall clock.
	Clock clock.Clock

	Config config.Config
	Logger *slog.Logger
	closer io.Closer
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the aionic CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aionic",
		Short: "aionic - a local-first reflective journal",
		Long: `A local-first journal that scores what you write against a breathing
rhythm, keeps an autosaved draft across interruptions, and stores finished
entries in a local SQLite database.`,
		Version:       fmt.Sprintf("%s (schema v%d)", model.EngineVersion, model.SchemaVersion),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.teardown()
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (.cue, .yaml); defaults to $"+config.EnvConfig)
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "path to SQLite database; overrides config and $"+config.EnvDB)
	cmd.PersistentFlags().BoolVar(&opts.Local, "local", false, "do not touch the database; keep entries in memory")

	cmd.AddCommand(NewWriteCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewScoreCommand(opts))
	cmd.AddCommand(NewPhaseCommand(opts))
	cmd.AddCommand(NewDraftCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewScenarioCommand(opts))

	return cmd
}

// setup validates global flags, loads the configuration and builds the
// process logger.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, ErrCodeInvalidArgs,
			fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	cfg, err := config.FromEnv(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	if o.DBPath != "" {
		cfg.Storage.Path = o.DBPath
	}
	if o.Local {
		cfg.Storage.Consent = false
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
	}
	o.Config = cfg

	logger, closer, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeConfig, "failed to configure logging", err)
	}
	o.Logger, o.closer = logger, closer
	return nil
}

func (o *RootOptions) teardown() error {
	if o.closer == nil {
		return nil
	}
	err := o.closer.Close()
	o.closer = nil
	return err
}

// formatter returns the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return logging.Discard()
	}
	return o.Logger
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// Execute runs the CLI and returns the process exit code. Errors are
// reported through the output formatter.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	_ = opts.teardown()
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Reported {
		return exitErr.Code
	}

	f := &OutputFormatter{Format: opts.Format, Writer: stdout, ErrWriter: stderr, Verbose: opts.Verbose}
	if !isValidFormat(f.Format) {
		f.Format = "text"
	}
	_ = f.Error(GetErrCode(err), err.Error(), nil)
	return GetExitCode(err)
}
