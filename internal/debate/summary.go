package debate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ppiankov/ticketdebate/internal/llm"
	"github.com/ppiankov/ticketdebate/internal/logging"
	"github.com/ppiankov/ticketdebate/internal/model"
)

const (
	// NoHistorySummary is returned when there is nothing to summarize
	NoHistorySummary = "No debate history available."

	// FailedSummary is returned when the summary call fails
	FailedSummary = "Error generating summary. Please review the debate points above."
)

const summarySystem = "You are a neutral legal analyst. Weigh both sides fairly and give a clear recommendation."

const summaryPromptTemplate = `Please analyze the following debate about a ticket and provide a concise summary with:
1. Key points from both sides
2. The strength of each argument
3. A clear recommendation on whether to pay or challenge the ticket

Debate content:
%s

Please provide a well-structured summary that helps the user make an informed decision.`

// Summarizer condenses a finished transcript into a recommendation
type Summarizer struct {
	provider  llm.Provider
	maxTokens int
	logger    *slog.Logger
}

// NewSummarizer creates a summarizer. A nil logger discards output.
func NewSummarizer(provider llm.Provider, maxTokens int, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	if maxTokens <= 0 {
		maxTokens = 1000
	}
	return &Summarizer{provider: provider, maxTokens: maxTokens, logger: logger}
}

// DebateContent renders the non-concession pro and anti entries in order
func DebateContent(entries []model.Entry) string {
	var sb strings.Builder
	for _, e := range entries {
		if !e.Side.IsDebater() || e.Concession {
			continue
		}
		sb.WriteString(e.Side.Label())
		sb.WriteString(" Argument: ")
		sb.WriteString(e.Content)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// Summarize never fails: an empty debate or a failed call yields fixed text
func (s *Summarizer) Summarize(ctx context.Context, entries []model.Entry) string {
	content := DebateContent(entries)
	if content == "" {
		return NoHistorySummary
	}

	resp, err := s.provider.Generate(ctx, llm.GenerateRequest{
		System:      summarySystem,
		Prompt:      fmt.Sprintf(summaryPromptTemplate, strings.TrimSpace(content)),
		MaxTokens:   s.maxTokens,
		Temperature: llm.Temperature(0.3),
	})
	if err != nil {
		s.logger.Warn("summary generation failed", "error", err)
		return FailedSummary
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		s.logger.Warn("summary generation returned no text")
		return FailedSummary
	}
	return text
}
