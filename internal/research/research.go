// Package research gathers the legal and social background both debaters
// argue from.
package research

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ppiankov/ticketdebate/internal/cache"
	"github.com/ppiankov/ticketdebate/internal/llm"
	"github.com/ppiankov/ticketdebate/internal/logging"
	"github.com/ppiankov/ticketdebate/internal/model"
)

// Provider produces the context for a ticket. It never fails: any field it
// cannot fill carries its default placeholder.
type Provider interface {
	Gather(ctx context.Context, ticket model.TicketInfo) model.Context
}

// LawLookup supplies municipal code text to ground the local laws summary
type LawLookup interface {
	Lookup(ctx context.Context, ticket model.TicketInfo) (string, error)
}

const lawsSystem = "You are a legal research assistant."

const socialSystem = "You are a social media analyst."

const lawsPromptTemplate = `Find relevant laws for %s regarding violation code %s.
Focus on:
1. Specific municipal codes
2. Required elements for a valid ticket
3. Common defenses
4. Appeal process`

const socialPromptTemplate = `Find social context about %s tickets in %s.
Include:
1. Common experiences
2. Success/failure rates of challenges
3. Notable cases or precedents
4. Public sentiment`

// Researcher asks a model for the local laws and social context of a ticket
type Researcher struct {
	provider  llm.Provider
	laws      LawLookup
	maxTokens int
	logger    *slog.Logger
}

// Option configures a Researcher
type Option func(*Researcher)

// WithLawLookup grounds the laws prompt in fetched municipal code text
func WithLawLookup(l LawLookup) Option {
	return func(r *Researcher) { r.laws = l }
}

// WithMaxTokens caps each research answer
func WithMaxTokens(n int) Option {
	return func(r *Researcher) { r.maxTokens = n }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(r *Researcher) { r.logger = l }
}

// NewResearcher creates a researcher backed by provider
func NewResearcher(provider llm.Provider, opts ...Option) *Researcher {
	r := &Researcher{
		provider:  provider,
		maxTokens: 1000,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Gather asks for local laws, then social context. Failed queries fall
// back to the context defaults.
func (r *Researcher) Gather(ctx context.Context, ticket model.TicketInfo) model.Context {
	out := model.Context{LocalLaws: r.localLaws(ctx, ticket)}
	out.SocialContext = r.socialContext(ctx, ticket)
	return out.WithDefaults()
}

func (r *Researcher) localLaws(ctx context.Context, ticket model.TicketInfo) string {
	prompt := fmt.Sprintf(lawsPromptTemplate, orUnknown(strings.ToLower(ticket.City), "the issuing city"), orUnknown(ticket.ViolationCode, "unknown"))

	if r.laws != nil {
		excerpt, err := r.laws.Lookup(ctx, ticket)
		if err != nil {
			r.logger.Debug("municipal code lookup skipped", "error", err)
		} else {
			prompt += "\n\nMunicipal code excerpt:\n" + excerpt
		}
	}

	return r.ask(ctx, "local_laws", lawsSystem, prompt)
}

func (r *Researcher) socialContext(ctx context.Context, ticket model.TicketInfo) string {
	prompt := fmt.Sprintf(socialPromptTemplate, orUnknown(ticket.ViolationCode, "parking"), orUnknown(ticket.City, "the issuing city"))
	return r.ask(ctx, "social_context", socialSystem, prompt)
}

func (r *Researcher) ask(ctx context.Context, field, system, prompt string) string {
	resp, err := r.provider.Generate(ctx, llm.GenerateRequest{
		System:      system,
		Prompt:      prompt,
		MaxTokens:   r.maxTokens,
		Temperature: llm.Temperature(0.3),
	})
	if err != nil {
		r.logger.Warn("context retrieval failed, using default", "field", field, "error", err)
		return ""
	}
	return resp.Text
}

func orUnknown(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// Cached memoizes a Provider per city and violation code. Contexts made
// entirely of defaults are not cached so a later attempt can succeed.
type Cached struct {
	inner Provider
	cache cache.Cache
	ttl   time.Duration
}

// NewCached wraps inner with c
func NewCached(inner Provider, c cache.Cache, ttl time.Duration) *Cached {
	return &Cached{inner: inner, cache: c, ttl: ttl}
}

// Gather returns the cached context or asks inner
func (c *Cached) Gather(ctx context.Context, ticket model.TicketInfo) model.Context {
	if strings.TrimSpace(ticket.City) == "" && strings.TrimSpace(ticket.ViolationCode) == "" {
		return c.inner.Gather(ctx, ticket)
	}

	key := cache.Key("context", strings.ToLower(strings.TrimSpace(ticket.City)), strings.TrimSpace(ticket.ViolationCode))

	if hit, ok := cache.GetJSON[model.Context](c.cache, key); ok {
		return hit.WithDefaults()
	}

	result := c.inner.Gather(ctx, ticket)
	if result != model.DefaultContext() {
		_ = cache.SetJSON(c.cache, key, result, c.ttl)
	}
	return result
}

// Static always returns the same context
type Static model.Context

func (s Static) Gather(context.Context, model.TicketInfo) model.Context {
	return model.Context(s).WithDefaults()
}
