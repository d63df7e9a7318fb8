package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/aionic/internal/draft"
	"github.com/roach88/aionic/internal/journal"
	"github.com/roach88/aionic/internal/model"
)

// DraftOutput is the payload of the draft subcommands.
type DraftOutput struct {
	State  string               `json:"state"`
	Draft  string               `json:"text,omitempty"`
	Choice model.RecoveryChoice `json:"choice,omitempty"`
	Entry  *model.Entry         `json:"entry,omitempty"`
}

func (o DraftOutput) Text(w io.Writer) {
	switch {
	case o.Entry != nil:
		fmt.Fprintf(w, "draft saved as %s\n", o.Entry.ID)
	case o.Choice == model.RecoveryDiscard:
		fmt.Fprintln(w, "draft discarded")
	case o.Draft != "":
		fmt.Fprintf(w, "draft (%s):\n", o.State)
		for _, line := range strings.Split(o.Draft, "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	default:
		fmt.Fprintf(w, "no draft (%s)\n", o.State)
	}
}

// NewDraftCommand creates the draft command group.
func NewDraftCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Inspect and resolve the autosaved draft",
		Long: `The draft is the single autosaved buffer left behind when a session ends
without saving. It can be reviewed, saved as its own entry, or discarded.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show whether a draft is waiting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJournal(opts, cmd, func(j *journal.Journal) (DraftOutput, error) {
				state := j.Begin(cmd.Context())
				return DraftOutput{State: state.String(), Draft: j.Draft()}, nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <text...>",
		Short: "Overwrite the draft buffer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJournal(opts, cmd, func(j *journal.Journal) (DraftOutput, error) {
				text := strings.Join(args, " ")
				j.SetBody(text)
				return DraftOutput{State: j.DraftState().String(), Draft: text}, nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "resolve <review|save|discard>",
		Short: "Apply the recovery decision",
		Long: `Resolve a waiting draft:

  review   print the draft and keep it
  save     store it as an entry (tone raw, ΔE -0.25, confidence low)
  discard  drop it

With no draft waiting this does nothing.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(model.RecoveryReview), string(model.RecoverySave), string(model.RecoveryDiscard)},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJournal(opts, cmd, func(j *journal.Journal) (DraftOutput, error) {
				ctx := cmd.Context()
				j.Begin(ctx)
				res, err := j.ResolveDraft(ctx, model.RecoveryChoice(args[0]))
				if errors.Is(err, draft.ErrInvalidChoice) {
					return DraftOutput{}, WrapExitError(ExitCommandError, ErrCodeInvalidArgs, "invalid choice", err)
				}
				if err != nil {
					return DraftOutput{}, storeError("failed to resolve draft", err)
				}
				return DraftOutput{
					State:  j.DraftState().String(),
					Draft:  res.Text,
					Choice: res.Choice,
					Entry:  res.Entry,
				}, nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop the draft without saving",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJournal(opts, cmd, func(j *journal.Journal) (DraftOutput, error) {
				j.ClearDraft(cmd.Context())
				return DraftOutput{State: j.DraftState().String()}, nil
			})
		},
	})

	return cmd
}

// withJournal runs fn against a journal, ends the session so that any
// autosave is flushed, and prints fn's output.
func withJournal(opts *RootOptions, cmd *cobra.Command, fn func(j *journal.Journal) (DraftOutput, error)) error {
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
	out, err := fn(j)
	j.End(ctx)
	if err != nil {
		return err
	}
	return opts.formatter(cmd).Success(out)
}
