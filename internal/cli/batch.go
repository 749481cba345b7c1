package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/ticketdebate/internal/pipeline"
	"github.com/ppiankov/ticketdebate/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Debate many tickets from a list file in parallel",
	Long: `Batch debates every ticket listed in a file:
- Read ticket paths from the input file (one per line, # comments allowed)
- Run debates in parallel with a configurable worker count
- Write a JSON and a Markdown report for each ticket
- Print outcome totals when done

Example:
  ticketdebate batch tickets.txt
  ticketdebate batch tickets.txt --concurrency 4 --output-dir ./reports
  ticketdebate batch tickets.txt --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent debates (default from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./ticketdebate-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", time.Hour, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}
	workers := cfg.Concurrency.Workers
	if workers < 1 {
		workers = 1
	}
	logger := newLogger(cfg)

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  TicketDebate Batch Processing\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	fmt.Fprintf(stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, err := pipeline.Build(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	renderer := pipeline.NewRenderer()
	processor := worker.NewBatchProcessor(p, workers)
	processor.OnResult = func(result *worker.DebateResult) {
		if result.Error != nil {
			fmt.Fprintf(stderr, "✗ %s: %v\n", result.Path, result.Error)
			return
		}

		slug := sanitizeFilename(result.Report.ID)
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")

		if err := renderer.RenderJSON(result.Report, jsonPath); err != nil {
			fmt.Fprintf(stderr, "✗ %s: failed to write JSON: %v\n", result.Path, err)
			return
		}
		if err := renderer.RenderMarkdown(result.Report, mdPath); err != nil {
			fmt.Fprintf(stderr, "✗ %s: failed to write Markdown: %v\n", result.Path, err)
			return
		}

		fmt.Fprintf(stderr, "✓ %s → %s (%s)\n", result.Path, result.Report.ID, strings.ReplaceAll(result.Report.Outcome(), "_", " "))
	}

	fmt.Fprintf(stderr, "⚙️  Debating tickets with %d workers...\n\n", workers)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	summary := worker.Summarize(results)

	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  Batch Complete\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Total:          %d tickets\n", summary.Total)
	fmt.Fprintf(stderr, "  Pro conceded:   %d\n", summary.ProConceded)
	fmt.Fprintf(stderr, "  Anti conceded:  %d\n", summary.AntiConceded)
	fmt.Fprintf(stderr, "  Round limit:    %d\n", summary.RoundLimit)
	fmt.Fprintf(stderr, "  Failures:       %d\n", summary.Failed)
	fmt.Fprintf(stderr, "  Output:         %s\n", outputDir)
	fmt.Fprintf(stderr, "\n")

	if summary.Failed == summary.Total && summary.Total > 0 {
		return fmt.Errorf("all %d debates failed", summary.Total)
	}
	return nil
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "-",
)

// sanitizeFilename sanitizes a report id for use as a filename
func sanitizeFilename(s string) string {
	s = filenameReplacer.Replace(strings.TrimSpace(s))
	s = strings.Trim(s, ".")
	if s == "" {
		s = "ticket"
	}

	// Limit length
	if len(s) > 100 {
		s = s[:100]
	}

	return s
}
