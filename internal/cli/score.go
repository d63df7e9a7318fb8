package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/aionic/internal/model"
	"github.com/roach88/aionic/internal/rhythm"
	"github.com/roach88/aionic/internal/score"
)

// ScoreOutput is the payload of the score command.
type ScoreOutput struct {
	Strategy  string        `json:"strategy"`
	Chars     int           `json:"chars"`
	Coherence float64       `json:"coherence"`
	Reading   score.Reading `json:"reading"`
}

func (o ScoreOutput) Text(w io.Writer) {
	fmt.Fprintf(w, "ΔE %+.3f  mode %s  confidence %s\n", o.Reading.DeltaE, o.Reading.Mode, o.Reading.Confidence)
	fmt.Fprintf(w, "%s (%d chars at coherence %.2f, %s)\n", o.Reading.Guidance, o.Chars, o.Coherence, o.Strategy)
}

// ScoreOptions holds flags for the score command.
type ScoreOptions struct {
	*RootOptions
	Coherence float64
	Strategy  string
}

// NewScoreCommand creates the score command.
func NewScoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "score <text...>",
		Short: "Score text without saving it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strategyName := opts.Config.Scoring.Strategy
			if opts.Strategy != "" {
				strategyName = opts.Strategy
			}
			strategy, err := score.Lookup(strategyName, opts.Config.Scoring.Saturation)
			if err != nil {
				return WrapExitError(ExitCommandError, ErrCodeInvalidArgs, "invalid strategy", err)
			}
			if opts.Coherence < 0 || opts.Coherence > 1 {
				return NewExitError(ExitCommandError, ErrCodeInvalidArgs,
					fmt.Sprintf("coherence %v out of range [0,1]", opts.Coherence))
			}

			text := strings.Join(args, " ")
			return opts.formatter(cmd).Success(ScoreOutput{
				Strategy:  strategy.Name(),
				Chars:     model.CharCount(text),
				Coherence: opts.Coherence,
				Reading:   score.NewScorer(strategy).Score(text, opts.Coherence),
			})
		},
	}

	cmd.Flags().Float64Var(&opts.Coherence, "coherence", score.NeutralCoherence, "breath coherence in [0,1]")
	cmd.Flags().StringVar(&opts.Strategy, "strategy", "", "scoring strategy: "+strings.Join(score.Names(), "|"))

	return cmd
}

// PhaseOutput is the payload of the phase command.
type PhaseOutput struct {
	ElapsedMS int64             `json:"elapsed_ms"`
	CycleMS   int64             `json:"cycle_ms"`
	Phase     rhythm.PhaseState `json:"phase"`
	Cycles    int64             `json:"cycles"`
	Coherence float64           `json:"coherence"`
}

func (o PhaseOutput) Text(w io.Writer) {
	fmt.Fprintf(w, "%s %3.0f%%  cycle %d  coherence %.2f\n",
		o.Phase.Name, o.Phase.Progress*100, o.Cycles, o.Coherence)
}

// PhaseOptions holds flags for the phase command.
type PhaseOptions struct {
	*RootOptions
	AtMS   int64
	Preset string
}

// NewPhaseCommand creates the phase command.
func NewPhaseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PhaseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "phase",
		Short: "Show the breath phase and coherence at an elapsed time",
		Long: `Show the breath phase and coherence a session would reach after the
given elapsed time, using the configured cycle or a named preset.

Examples:
  aionic phase --at 9000
  aionic phase --at 18000 --preset box`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.AtMS < 0 {
				return NewExitError(ExitCommandError, ErrCodeInvalidArgs, "--at must not be negative")
			}
			cycle, err := opts.Config.Cycle()
			if opts.Preset != "" {
				cycle, err = rhythm.Preset(opts.Preset)
			}
			if err != nil {
				return WrapExitError(ExitCommandError, ErrCodeInvalidArgs, "invalid cycle", err)
			}

			gen := rhythm.NewGenerator(cycle, opts.Config.GeneratorOptions()...)
			elapsed := time.Duration(opts.AtMS) * time.Millisecond
			ps := gen.Tick(elapsed)
			st := gen.State()
			return opts.formatter(cmd).Success(PhaseOutput{
				ElapsedMS: opts.AtMS,
				CycleMS:   cycle.Total().Milliseconds(),
				Phase:     ps,
				Cycles:    st.Cycles,
				Coherence: st.Coherence,
			})
		},
	}

	cmd.Flags().Int64Var(&opts.AtMS, "at", 0, "elapsed session time in milliseconds")
	cmd.Flags().StringVar(&opts.Preset, "preset", "", "cycle preset: pair|box (default: configured cycle)")

	return cmd
}
