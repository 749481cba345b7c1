// Package llmtest provides scripted providers for tests of packages built on llm.
package llmtest

import (
	"context"
	"sync"

	"github.com/ppiankov/ticketdebate/internal/llm"
)

// Reply is one scripted answer. A non-nil Err is returned instead of Text.
type Reply struct {
	Text string
	Err  error
}

// Provider replays scripted replies in order and records every request.
// Once the script is exhausted the last reply repeats.
type Provider struct {
	ProviderName string
	Available    bool

	// Func, when set, answers every call and the script is ignored
	Func func(req llm.GenerateRequest) (string, error)

	mu       sync.Mutex
	replies  []Reply
	requests []llm.GenerateRequest
}

// New returns a provider answering with texts in order.
func New(texts ...string) *Provider {
	replies := make([]Reply, 0, len(texts))
	for _, t := range texts {
		replies = append(replies, Reply{Text: t})
	}
	return NewScript(replies...)
}

// NewScript returns a provider answering with replies in order.
func NewScript(replies ...Reply) *Provider {
	return &Provider{ProviderName: "scripted", Available: true, replies: replies}
}

// Failing returns a provider whose every call fails with err.
func Failing(err error) *Provider {
	return NewScript(Reply{Err: err})
}

func (p *Provider) Name() string { return p.ProviderName }

func (p *Provider) IsAvailable(ctx context.Context) bool { return p.Available }

func (p *Provider) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	idx := len(p.requests) - 1
	fn := p.Func
	var reply Reply
	if fn == nil && len(p.replies) > 0 {
		if idx >= len(p.replies) {
			idx = len(p.replies) - 1
		}
		reply = p.replies[idx]
	}
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if fn != nil {
		text, err := fn(req)
		reply = Reply{Text: text, Err: err}
	}
	if reply.Err != nil {
		return nil, reply.Err
	}
	if reply.Text == "" {
		return nil, llm.ErrEmptyResponse
	}
	return &llm.GenerateResponse{Text: reply.Text, Model: "scripted-model", TokensUsed: len(reply.Text) / 4}, nil
}

// Requests returns a copy of every request seen so far.
func (p *Provider) Requests() []llm.GenerateRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]llm.GenerateRequest, len(p.requests))
	copy(out, p.requests)
	return out
}

// Calls returns how many times Generate ran.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}
