package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/ticketdebate/internal/model"
)

// Debater runs one full debate for a ticket file
type Debater interface {
	DebateFile(ctx context.Context, path string) (*model.DebateReport, error)
}

// DebateJob debates a single ticket file
type DebateJob struct {
	Index   int
	Path    string
	Debater Debater
}

// Execute runs the debate
func (j *DebateJob) Execute(ctx context.Context) Result {
	report, err := j.Debater.DebateFile(ctx, j.Path)
	return &DebateResult{
		Index:  j.Index,
		Path:   j.Path,
		Report: report,
		Error:  err,
	}
}

// DebateResult is the outcome of one DebateJob
type DebateResult struct {
	Index  int
	Path   string
	Report *model.DebateReport
	Error  error
}

// Err returns the debate error, if any
func (r *DebateResult) Err() error {
	return r.Error
}

// BatchProcessor debates many ticket files concurrently
type BatchProcessor struct {
	debater     Debater
	concurrency int

	// OnResult, when set, is called from the collecting goroutine as each
	// ticket finishes
	OnResult func(*DebateResult)
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(debater Debater, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		debater:     debater,
		concurrency: concurrency,
	}
}

// ProcessPaths debates every path and returns results in input order.
// Paths never started because ctx ended are reported with ctx.Err().
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) []*DebateResult {
	if len(paths) == 0 {
		return []*DebateResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()
	defer pool.Shutdown()

	go func() {
		for i, path := range paths {
			if !pool.Submit(&DebateJob{Index: i, Path: path, Debater: b.debater}) {
				break
			}
		}
		pool.Close()
	}()

	out := make([]*DebateResult, len(paths))
	for result := range pool.Results() {
		dr := result.(*DebateResult)
		out[dr.Index] = dr
		if b.OnResult != nil {
			b.OnResult(dr)
		}
	}

	for i, r := range out {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			out[i] = &DebateResult{Index: i, Path: paths[i], Error: err}
		}
	}

	return out
}

// ProcessFile reads ticket paths from a list file and debates them
func (b *BatchProcessor) ProcessFile(ctx context.Context, listPath string) ([]*DebateResult, error) {
	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read ticket list: %w", err)
	}

	return b.ProcessPaths(ctx, paths), nil
}

// BatchSummary tallies batch outcomes
type BatchSummary struct {
	Total        int
	Failed       int
	ProConceded  int
	AntiConceded int
	RoundLimit   int
}

// Summarize tallies results by debate outcome
func Summarize(results []*DebateResult) BatchSummary {
	s := BatchSummary{Total: len(results)}
	for _, r := range results {
		if r.Error != nil || r.Report == nil {
			s.Failed++
			continue
		}
		switch r.Report.Outcome() {
		case model.OutcomeProConceded:
			s.ProConceded++
		case model.OutcomeAntiConceded:
			s.AntiConceded++
		default:
			s.RoundLimit++
		}
	}
	return s
}

// ReadPathsFromFile reads ticket paths from a file (one per line).
// Blank lines and # comments are skipped and duplicates dropped.
func ReadPathsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
