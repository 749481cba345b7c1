// Package validate checks extracted ticket fields for defects worth arguing.
package validate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ppiankov/ticketdebate/internal/llm"
	"github.com/ppiankov/ticketdebate/internal/logging"
	"github.com/ppiankov/ticketdebate/internal/model"
)

// Validator reports ticket issues in order. An empty list means valid.
// Implementations never fail; problems talking to a model become issues.
type Validator interface {
	Validate(ctx context.Context, ticket model.TicketInfo) []string
}

// Func adapts a function to Validator
type Func func(ctx context.Context, ticket model.TicketInfo) []string

func (f Func) Validate(ctx context.Context, ticket model.TicketInfo) []string {
	return f(ctx, ticket)
}

// Rules checks required fields and the signature flag without a model call
type Rules struct {
	Required []string
}

// NewRules returns the standard required-field rules
func NewRules() *Rules {
	return &Rules{Required: model.RequiredTicketFields}
}

// Validate reports each missing required field and an explicit missing signature
func (r *Rules) Validate(_ context.Context, ticket model.TicketInfo) []string {
	var issues []string
	for _, field := range ticket.MissingFields(r.Required) {
		issues = append(issues, "Missing required field: "+field)
	}
	if ticket.SignaturePresent != nil && !*ticket.SignaturePresent {
		issues = append(issues, "Missing required signature")
	}
	return issues
}

const validationSystem = "You are a legal expert specializing in ticket validation."

const validationPromptTemplate = `Analyze the following ticket information for potential legal issues:
%s

Check for:
1. Missing required signatures
2. Date inconsistencies
3. Incorrect formatting
4. Missing required fields
5. Other potential legal flaws

List each issue found on its own line. If there are no issues, respond with exactly NONE.`

// LLM asks a model to review the ticket
type LLM struct {
	provider  llm.Provider
	maxTokens int
	logger    *slog.Logger
}

// NewLLM creates a model-backed validator
func NewLLM(provider llm.Provider, maxTokens int, logger *slog.Logger) *LLM {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LLM{provider: provider, maxTokens: maxTokens, logger: logger}
}

// Validate returns one issue per non-empty answer line. A failed call is
// reported as a single "Error validating ticket" issue.
func (v *LLM) Validate(ctx context.Context, ticket model.TicketInfo) []string {
	resp, err := v.provider.Generate(ctx, llm.GenerateRequest{
		System:      validationSystem,
		Prompt:      fmt.Sprintf(validationPromptTemplate, ticket.JSON()),
		MaxTokens:   v.maxTokens,
		Temperature: llm.Temperature(0.3),
	})
	if err != nil {
		v.logger.Warn("ticket validation failed", "error", err)
		return []string{fmt.Sprintf("Error validating ticket: %v", err)}
	}
	return ParseIssues(resp.Text)
}

// ParseIssues splits a free-text answer into issues, dropping list markers,
// headings and "no issues" answers.
func ParseIssues(text string) []string {
	var issues []string
	for _, line := range strings.Split(text, "\n") {
		line = trimMarker(line)
		if line == "" || isNoIssues(line) || isHeading(line) {
			continue
		}
		issues = append(issues, line)
	}
	return issues
}

func trimMarker(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "-*•> ")

	// "1." / "2)" numbering
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		line = line[i+1:]
	}
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "*"))
}

func isNoIssues(line string) bool {
	l := strings.ToLower(strings.TrimRight(line, ".! "))
	switch l {
	case "none", "no issues", "no issues found", "no issues were found", "n/a":
		return true
	}
	return false
}

func isHeading(line string) bool {
	return strings.HasSuffix(line, ":") && len(strings.Fields(line)) <= 6
}

// Chain runs validators in order and merges their issues, dropping duplicates
type Chain []Validator

// Validate runs each validator in turn. A canceled ctx skips the rest.
func (c Chain) Validate(ctx context.Context, ticket model.TicketInfo) []string {
	seen := make(map[string]bool)
	var issues []string
	for _, v := range c {
		if ctx.Err() != nil {
			break
		}
		for _, issue := range v.Validate(ctx, ticket) {
			key := strings.ToLower(issue)
			if seen[key] {
				continue
			}
			seen[key] = true
			issues = append(issues, issue)
		}
	}
	return issues
}

// Summary renders issues as a numbered report
func Summary(issues []string) string {
	if len(issues) == 0 {
		return "The ticket appears to be legally valid."
	}

	var b strings.Builder
	b.WriteString("The following issues were found:\n")
	for i, issue := range issues {
		fmt.Fprintf(&b, "%d. %s\n", i+1, issue)
	}
	return b.String()
}

// Notice is the system transcript entry announcing issues
func Notice(issues []string) string {
	return "Ticket validation issues found: " + strings.Join(issues, ", ")
}
