package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/aionic/internal/clock"
	"github.com/roach88/aionic/internal/store"
)

// ExportOutput is the payload of the export command.
type ExportOutput struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

func (o ExportOutput) Text(w io.Writer) {
	fmt.Fprintf(w, "exported %d entries to %s\n", o.Count, o.Path)
}

// ImportOutput is the payload of the import command.
type ImportOutput struct {
	Path string `json:"path"`
	store.ImportResult
}

func (o ImportOutput) Text(w io.Writer) {
	fmt.Fprintf(w, "imported %d entries from %s", o.Imported, o.Path)
	if o.Skipped > 0 {
		fmt.Fprintf(w, " (%d malformed records skipped)", o.Skipped)
	}
	fmt.Fprintln(w)
}

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Out string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write active entries to a JSON file",
		Long: `Write every active entry to an indented JSON array, newest first.
The default file name is aionic-journal-YYYY-MM-DD.json in the current
directory. Use --out - to write to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output file, or - for stdout")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	e, err := openEnv(opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.Close()

	if opts.Out == "-" {
		if _, err := store.Export(cmd.Context(), e.storage.Entries, cmd.OutOrStdout()); err != nil {
			return storeError("failed to export", err)
		}
		return nil
	}

	path := opts.Out
	if path == "" {
		path = store.ExportFileName(clock.Or(opts.Clock).Now())
	}
	f, err := os.Create(path)
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeStorage, "failed to create export file", err)
	}
	n, err := store.Export(cmd.Context(), e.storage.Entries, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return storeError("failed to export", err)
	}
	opts.logger().Info("journal exported", "path", path, "entries", n)
	return opts.formatter(cmd).Success(ExportOutput{Path: path, Count: n})
}

// NewImportCommand creates the import command.
func NewImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import entries from an export or legacy file",
		Long: `Import a JSON array of entries. Both aionic exports and the older
browser journal format are accepted; records are migrated on read and
malformed ones are skipped. Imported entries keep their ids, so importing
the same file twice updates rather than duplicates.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, ErrCodeNotFound, "failed to open import file", err)
			}
			defer f.Close()

			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			res, err := store.Import(cmd.Context(), e.storage.Entries, f)
			if err != nil {
				return WrapExitError(ExitCommandError, ErrCodeInvalidArgs, "failed to import", err)
			}
			opts.logger().Info("journal imported", "path", args[0], "imported", res.Imported, "skipped", res.Skipped)
			return opts.formatter(cmd).Success(ImportOutput{Path: args[0], ImportResult: res})
		},
	}
}
