package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/aionic/internal/model"
	"github.com/roach88/aionic/internal/rhythm"
)

// EntryOutput is the payload of write and show.
type EntryOutput struct {
	Entry model.Entry `json:"entry"`
}

func (o EntryOutput) Text(w io.Writer) {
	writeEntry(w, o.Entry, true)
}

// ListOutput is the payload of list and delete.
type ListOutput struct {
	Entries []model.Entry `json:"entries"`
	Count   int           `json:"count"`
}

func (o ListOutput) Text(w io.Writer) {
	if o.Count == 0 {
		fmt.Fprintln(w, "No entries.")
		return
	}
	for _, e := range o.Entries {
		writeEntry(w, e, false)
	}
	fmt.Fprintf(w, "%d entries\n", o.Count)
}

func writeEntry(w io.Writer, e model.Entry, full bool) {
	title := e.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(w, "%s  %s  %-10s ΔE %+.3f %-6s  %s\n",
		e.ID, e.CreatedAt.Format(time.RFC3339), e.Tone, e.DeltaE, e.Confidence, title)
	if !full {
		return
	}
	for _, line := range strings.Split(e.Content, "\n") {
		fmt.Fprintf(w, "    %s\n", line)
	}
	if m := e.SessionMeta; m != nil {
		fmt.Fprintf(w, "  session %s: %ds, %d words, %d wpm, backspace %.2f, edits %d, tone changes %d\n",
			e.CaptureSessionID, m.DurationSeconds, m.WordCountFinal, m.WPMAvg, m.BackspaceRatio, m.EditCount, m.ToneChanges)
		if m.DraftRecovered && m.RecoveryChoice != nil {
			fmt.Fprintf(w, "  recovered from draft (%s)\n", *m.RecoveryChoice)
		}
	}
	if e.Deleted && e.DeletedAt != nil {
		fmt.Fprintf(w, "  deleted %s\n", e.DeletedAt.Format(time.RFC3339))
	}
}

// WriteOptions holds flags for the write command.
type WriteOptions struct {
	*RootOptions
	Title     string
	Tone      string
	Coherence float64
}

// NewWriteCommand creates the write command.
func NewWriteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WriteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "write [text...]",
		Short: "Save a journal entry",
		Long: `Score text and save it as a journal entry.

The text comes from the arguments, or from stdin when there are none.
Saving clears any autosaved draft.

Examples:
  aionic write "slept badly, feeling better now"
  aionic write --title Morning --tone grateful < note.txt
  aionic write --coherence 0.9 "steady breath today"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrite(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "entry title")
	cmd.Flags().StringVar(&opts.Tone, "tone", "", "tone: reflective|grateful|processing|raw")
	cmd.Flags().Float64Var(&opts.Coherence, "coherence", 0, "breath coherence to score at (default: configured floor)")

	return cmd
}

func runWrite(opts *WriteOptions, args []string, cmd *cobra.Command) error {
	ctx := cmd.Context()

	text := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return WrapExitError(ExitCommandError, ErrCodeInvalidArgs, "failed to read stdin", err)
		}
		text = string(data)
	}

	var genOpts []rhythm.Option
	if cmd.Flags().Changed("coherence") {
		c := opts.Coherence
		if c < 0 || c > 1 {
			return NewExitError(ExitCommandError, ErrCodeInvalidArgs,
				fmt.Sprintf("coherence %v out of range [0,1]", c))
		}
		genOpts = append(genOpts, rhythm.WithBounds(c, max(c, opts.Config.Rhythm.Ceiling)))
	}

	e, err := openEnv(opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.Close()

	j, err := e.journal(genOpts...)
	if err != nil {
		return err
	}
	defer j.End(ctx)

	if opts.Tone != "" {
		if err := j.SetTone(model.Tone(opts.Tone)); err != nil {
			return storeError("invalid tone", err)
		}
	}
	j.SetTitle(opts.Title)
	j.SetBody(text)

	entry, err := j.Save(ctx)
	if err != nil {
		return storeError("failed to save entry", err)
	}
	return opts.formatter(cmd).Success(EntryOutput{Entry: entry})
}

// NewListCommand creates the list command.
func NewListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			entries, err := e.storage.Entries.ListActive(cmd.Context())
			if err != nil {
				return storeError("failed to list entries", err)
			}
			return opts.formatter(cmd).Success(ListOutput{Entries: entries, Count: len(entries)})
		},
	}
}

// NewShowCommand creates the show command.
func NewShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one entry, including deleted ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			entry, err := e.storage.Entries.Get(cmd.Context(), args[0])
			if err != nil {
				return storeError(fmt.Sprintf("entry %s", args[0]), err)
			}
			return opts.formatter(cmd).Success(EntryOutput{Entry: entry})
		},
	}
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Soft-delete an entry",
		Long: `Mark an entry deleted. It disappears from list and export but can
still be read with show.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			j, err := e.journal()
			if err != nil {
				return err
			}
			defer j.End(ctx)

			remaining, err := j.Delete(ctx, args[0])
			if err != nil {
				return storeError(fmt.Sprintf("entry %s", args[0]), err)
			}
			return opts.formatter(cmd).Success(ListOutput{Entries: remaining, Count: len(remaining)})
		},
	}
}

// ClearOptions holds flags for the clear command.
type ClearOptions struct {
	*RootOptions
	Yes bool
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClearOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every entry and the draft",
		Long: `Physically remove every entry, deleted or not, and the autosaved draft.
This cannot be undone; --yes is required.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.Yes {
				return NewExitError(ExitFailure, ErrCodeInvalidArgs, "refusing to clear without --yes")
			}
			ctx := cmd.Context()
			e, err := openEnv(opts.RootOptions)
			if err != nil {
				return err
			}
			defer e.Close()

			j, err := e.journal()
			if err != nil {
				return err
			}
			defer j.End(ctx)

			if err := j.ClearAll(ctx); err != nil {
				return storeError("failed to clear", err)
			}
			return opts.formatter(cmd).Success(ListOutput{Entries: []model.Entry{}, Count: 0})
		},
	}

	cmd.Flags().BoolVar(&opts.Yes, "yes", false, "confirm removal of all data")

	return cmd
}
