package debate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/ticketdebate/internal/llm"
	"github.com/ppiankov/ticketdebate/internal/model"
)

// Generator produces one side's turns. Implementations hold no memory across
// runs: everything they need arrives in the Brief.
type Generator interface {
	Side() model.Side

	// Generate produces an opening argument
	Generate(ctx context.Context, brief Brief) (Result, error)

	// Rebut answers the opponent's most recent message
	Rebut(ctx context.Context, opponent string, brief Brief) (Result, error)
}

// Brief is the frozen input bundle both sides argue from, plus the
// transcript so far
type Brief struct {
	Ticket     model.TicketInfo
	Context    model.Context
	Transcript []model.Entry
}

// PreviousDebate renders the debating entries of the transcript for prompts
func (b Brief) PreviousDebate() string {
	var sb strings.Builder
	for _, e := range b.Transcript {
		if !e.Side.IsDebater() {
			continue
		}
		content := e.Content
		if e.Concession {
			content = ConcessionPrefix + " " + content
		}
		fmt.Fprintf(&sb, "%s: %s\n", e.Side.Label(), content)
	}
	if sb.Len() == 0 {
		return "None yet."
	}
	return strings.TrimSpace(sb.String())
}

// Persona holds the prompts that give a side its position
type Persona struct {
	OpeningSystem  string
	RebuttalSystem string
	Position       string // What the side argues for
	ConcedeWhen    string // What the side must believe before conceding
}

// ProPersona argues for paying the ticket
var ProPersona = Persona{
	OpeningSystem:  "You are a top-tier legal expert arguing in favor of paying the ticket. Provide detailed, compelling arguments that consider legal precedents, financial implications, and practical outcomes. Focus on concrete evidence and specific legal points. Keep responses under 100 words but ensure they are thorough and persuasive.",
	RebuttalSystem: "You are a top-tier legal expert defending the position to pay the ticket. Provide strong rebuttals that address specific points raised in the counterargument. Focus on legal precedents, financial implications, and practical outcomes. Keep responses under 100 words but ensure they are thorough and persuasive.",
	Position:       "argue why the ticket should be paid",
	ConcedeWhen:    "the ticket should be challenged instead",
}

// AntiPersona argues for challenging the ticket
var AntiPersona = Persona{
	OpeningSystem:  "You are a top-tier legal expert arguing against paying the ticket. Provide detailed, compelling arguments that consider procedural errors, evidentiary gaps, and defenses available to the driver. Focus on concrete evidence and specific legal points. Keep responses under 100 words but ensure they are thorough and persuasive.",
	RebuttalSystem: "You are a top-tier legal expert defending the position to challenge the ticket. Provide strong rebuttals that address specific points raised in the counterargument. Focus on procedural errors, evidentiary gaps, and available defenses. Keep responses under 100 words but ensure they are thorough and persuasive.",
	Position:       "argue why the ticket should be challenged",
	ConcedeWhen:    "the ticket should be paid instead",
}

const openingPromptTemplate = `Consider the following information:
- Ticket details: %s
- Local laws: %s
- Social context: %s
- Previous debate: %s

Your task is to %s. Keep your response under 100 words.
If you are convinced that %s, start your response with "CONCEDE: " followed by your reasoning.
Otherwise, provide your argument.`

const rebuttalPromptTemplate = `Counterargument: %s

Ticket Info: %s
Local laws: %s
Social context: %s
Previous debate: %s

Please provide a strong rebuttal to this counterargument. Keep it under 100 words.
If you are convinced that %s, start your response with "CONCEDE: " followed by your reasoning.`

// LLMGenerator renders a persona's prompts and asks a provider for each turn
type LLMGenerator struct {
	side        model.Side
	provider    llm.Provider
	persona     Persona
	maxTokens   int
	temperature float64
}

// NewLLMGenerator creates the generator for side. Only pro and anti are valid.
func NewLLMGenerator(side model.Side, provider llm.Provider, maxTokens int) (*LLMGenerator, error) {
	var persona Persona
	switch side {
	case model.SidePro:
		persona = ProPersona
	case model.SideAnti:
		persona = AntiPersona
	default:
		return nil, fmt.Errorf("no persona for side %q", side)
	}
	if maxTokens <= 0 {
		maxTokens = 400
	}
	return &LLMGenerator{
		side:        side,
		provider:    provider,
		persona:     persona,
		maxTokens:   maxTokens,
		temperature: 0.3,
	}, nil
}

// NewPair creates the pro and anti generators for one run
func NewPair(provider llm.Provider, maxTokens int) (pro, anti *LLMGenerator) {
	pro, _ = NewLLMGenerator(model.SidePro, provider, maxTokens)
	anti, _ = NewLLMGenerator(model.SideAnti, provider, maxTokens)
	return pro, anti
}

func (g *LLMGenerator) Side() model.Side { return g.side }

func (g *LLMGenerator) Generate(ctx context.Context, brief Brief) (Result, error) {
	prompt := fmt.Sprintf(openingPromptTemplate,
		brief.Ticket.JSON(),
		brief.Context.LocalLaws,
		brief.Context.SocialContext,
		brief.PreviousDebate(),
		g.persona.Position,
		g.persona.ConcedeWhen,
	)
	return g.ask(ctx, g.persona.OpeningSystem, prompt)
}

func (g *LLMGenerator) Rebut(ctx context.Context, opponent string, brief Brief) (Result, error) {
	prompt := fmt.Sprintf(rebuttalPromptTemplate,
		opponent,
		brief.Ticket.JSON(),
		brief.Context.LocalLaws,
		brief.Context.SocialContext,
		brief.PreviousDebate(),
		g.persona.ConcedeWhen,
	)
	return g.ask(ctx, g.persona.RebuttalSystem, prompt)
}

func (g *LLMGenerator) ask(ctx context.Context, system, prompt string) (Result, error) {
	resp, err := g.provider.Generate(ctx, llm.GenerateRequest{
		System:      system,
		Prompt:      prompt,
		MaxTokens:   g.maxTokens,
		Temperature: llm.Temperature(g.temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("%s turn: %w", g.side, err)
	}
	if strings.TrimSpace(resp.Text) == "" {
		return nil, fmt.Errorf("%s turn: %w", g.side, llm.ErrEmptyResponse)
	}
	return ParseResult(resp.Text), nil
}

var (
	proOpeningFallback  = "Based on the ticket details and local regulations, paying promptly is the most prudent course of action. This avoids potential late fees, court costs, and the risk of a more severe penalty. The financial and time investment in contesting may outweigh potential benefits."
	proRebuttalFallback = "While challenging the ticket may seem appealing, consider the full implications: court costs, time investment, and potential for increased penalties. The burden of proof often lies with the defendant, and success rates vary significantly. A prompt payment may be the most cost-effective solution."

	antiOpeningFallback  = "This ticket presents several grounds for challenge: potential procedural errors, missing evidence, or technical violations. Many similar cases have been dismissed due to these issues. A well-prepared defense could lead to dismissal or reduced penalties, making the challenge worthwhile."
	antiRebuttalFallback = "While the risks of challenging are real, the potential benefits are significant. Many tickets are dismissed due to technical errors or insufficient evidence. The burden of proof lies with the prosecution, and a well-prepared defense can often identify weaknesses in their case."
)

// ErrNoFallback is returned for sides that never debate
var ErrNoFallback = errors.New("no fallback argument for side")

// FallbackArgument returns the fixed text used when a side's generator fails
func FallbackArgument(side model.Side, rebuttal bool) (string, error) {
	switch {
	case side == model.SidePro && rebuttal:
		return proRebuttalFallback, nil
	case side == model.SidePro:
		return proOpeningFallback, nil
	case side == model.SideAnti && rebuttal:
		return antiRebuttalFallback, nil
	case side == model.SideAnti:
		return antiOpeningFallback, nil
	default:
		return "", fmt.Errorf("%w %q", ErrNoFallback, side)
	}
}
