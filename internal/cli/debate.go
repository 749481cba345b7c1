package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ppiankov/ticketdebate/internal/model"
	"github.com/ppiankov/ticketdebate/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	debateContext string
	debateRounds  int
	outJSON       string
	outMD         string
	debateTimeout time.Duration
	quiet         bool
)

// debateCmd represents the debate command
var debateCmd = &cobra.Command{
	Use:   "debate <ticket>",
	Short: "Debate whether a single ticket should be paid",
	Long: `Debate reads one ticket and runs a full debate:
- Extract ticket fields from a photo (.png, .jpg, .gif, .webp) or a .txt file
- Validate the extracted fields
- Gather local rules and social context
- Alternate pro-payment and anti-payment arguments until one side concedes
  or both reach the round cap
- Summarize the debate with a recommendation

Example:
  ticketdebate debate ticket.jpg
  ticketdebate debate ticket.txt --context "The meter was broken" --rounds 3
  ticketdebate debate ticket.png --json report.json --md report.md`,
	Args: cobra.ExactArgs(1),
	RunE: runDebate,
}

func init() {
	rootCmd.AddCommand(debateCmd)

	debateCmd.Flags().StringVar(&debateContext, "context", "", "additional context from the ticket holder")
	debateCmd.Flags().IntVar(&debateRounds, "rounds", 0, "max arguments per side (default from config)")
	debateCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	debateCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	debateCmd.Flags().DurationVar(&debateTimeout, "timeout", 10*time.Minute, "overall debate timeout")
	debateCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not stream arguments while the debate runs")
}

func runDebate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	sub, err := pipeline.SubmissionFromFile(args[0])
	if err != nil {
		return err
	}
	if err := checkRounds(debateRounds, cfg.Debate.MaxRoundsOverride); err != nil {
		return err
	}
	sub.AdditionalContext = debateContext
	sub.Rounds = debateRounds
	if !quiet {
		sub.Observer = &liveObserver{w: cmd.ErrOrStderr()}
	}

	p, err := pipeline.Build(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), debateTimeout)
	defer cancel()

	report, err := p.Debate(ctx, sub)
	if err != nil {
		return fmt.Errorf("debate failed: %w", err)
	}

	renderer := pipeline.NewRenderer()
	if outJSON != "" {
		if err := renderer.RenderJSON(report, outJSON); err != nil {
			return err
		}
		logger.Info("wrote JSON report", "path", outJSON)
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(report, outMD); err != nil {
			return err
		}
		logger.Info("wrote Markdown report", "path", outMD)
	}

	return renderer.RenderTerminal(cmd.OutOrStdout(), report)
}

// checkRounds accepts 0 (use the configured cap) or 1..max
func checkRounds(rounds, limit int) error {
	if rounds < 0 || rounds > limit {
		return fmt.Errorf("%w: --rounds must be between 1 and %d (debate.max_rounds_override)", model.ErrConfiguration, limit)
	}
	return nil
}

// liveObserver streams debate entries as they are produced
type liveObserver struct {
	w io.Writer
}

func (o *liveObserver) OnEntry(state model.DebateState, entry model.Entry, fallback bool) {
	var b strings.Builder
	fmt.Fprintf(&b, "── %s", entry.Side.Label())
	switch {
	case entry.Concession:
		b.WriteString(" concedes")
	case entry.Side.IsDebater():
		fmt.Fprintf(&b, " (%d)", state.MessageCount(entry.Side))
		if fallback {
			b.WriteString(" [fallback]")
		}
	}
	fmt.Fprintf(&b, "\n%s\n\n", strings.TrimSpace(entry.Content))
	_, _ = io.WriteString(o.w, b.String())
}

func (o *liveObserver) OnFinish(state model.DebateState) {
	fmt.Fprintf(o.w, "── Debate over: %s\n\n", strings.ReplaceAll(state.Outcome(), "_", " "))
}
