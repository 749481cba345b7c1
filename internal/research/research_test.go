package research

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/ticketdebate/internal/cache"
	"github.com/ppiankov/ticketdebate/internal/llm"
	"github.com/ppiankov/ticketdebate/internal/llm/llmtest"
	"github.com/ppiankov/ticketdebate/internal/model"
)

var springfield = model.TicketInfo{City: "Springfield", ViolationCode: "22-14", FineAmount: "50"}

func TestResearcher_Gather(t *testing.T) {
	provider := llmtest.New("")
	provider.Func = func(req llm.GenerateRequest) (string, error) {
		if req.System == lawsSystem {
			return "Section 22-14 limits parking to two hours.", nil
		}
		return "Residents often win challenges over faded signs.", nil
	}

	got := NewResearcher(provider).Gather(context.Background(), springfield)

	if got.LocalLaws != "Section 22-14 limits parking to two hours." {
		t.Errorf("Unexpected laws: %q", got.LocalLaws)
	}
	if got.SocialContext != "Residents often win challenges over faded signs." {
		t.Errorf("Unexpected social context: %q", got.SocialContext)
	}
	reqs := provider.Requests()
	if len(reqs) != 2 {
		t.Fatalf("Expected 2 calls, got %d", len(reqs))
	}
	if reqs[0].System != lawsSystem || reqs[1].System != socialSystem {
		t.Error("Expected the laws query before the social query")
	}
}

func TestResearcher_FailureUsesDefaults(t *testing.T) {
	got := NewResearcher(llmtest.Failing(errors.New("timeout"))).Gather(context.Background(), springfield)

	if got != model.DefaultContext() {
		t.Errorf("Expected defaults, got %+v", got)
	}
}

type stubLookup struct {
	text string
	err  error
}

func (s stubLookup) Lookup(context.Context, model.TicketInfo) (string, error) {
	return s.text, s.err
}

func TestResearcher_LawLookupGroundsPrompt(t *testing.T) {
	provider := llmtest.New("summary")
	r := NewResearcher(provider, WithLawLookup(stubLookup{text: "22-14. No parking over 2 hours."}))

	r.Gather(context.Background(), springfield)

	found := false
	for _, req := range provider.Requests() {
		if req.System == lawsSystem {
			found = strings.Contains(req.Prompt, "Municipal code excerpt:\n22-14. No parking over 2 hours.")
		}
	}
	if !found {
		t.Error("Expected excerpt in laws prompt")
	}
}

func TestResearcher_LawLookupErrorIgnored(t *testing.T) {
	provider := llmtest.New("summary")
	r := NewResearcher(provider, WithLawLookup(stubLookup{err: ErrNoLawSource}))

	got := r.Gather(context.Background(), springfield)
	if got.LocalLaws != "summary" {
		t.Errorf("Expected laws answer despite lookup error, got %q", got.LocalLaws)
	}
}

type countingProvider struct {
	calls  int32
	result model.Context
}

func (c *countingProvider) Gather(context.Context, model.TicketInfo) model.Context {
	atomic.AddInt32(&c.calls, 1)
	return c.result
}

func TestCached(t *testing.T) {
	inner := &countingProvider{result: model.Context{LocalLaws: "laws", SocialContext: "social"}}
	c := NewCached(inner, cache.NewMemoryCache(time.Minute, time.Minute), 0)

	first := c.Gather(context.Background(), springfield)
	second := c.Gather(context.Background(), model.TicketInfo{City: " springfield ", ViolationCode: "22-14"})

	if first != second || first.LocalLaws != "laws" {
		t.Errorf("Expected identical cached results, got %+v and %+v", first, second)
	}
	if inner.calls != 1 {
		t.Errorf("Expected one inner call, got %d", inner.calls)
	}
}

func TestCached_SkipsDefaults(t *testing.T) {
	inner := &countingProvider{result: model.DefaultContext()}
	c := NewCached(inner, cache.NewMemoryCache(time.Minute, time.Minute), 0)

	c.Gather(context.Background(), springfield)
	c.Gather(context.Background(), springfield)

	if inner.calls != 2 {
		t.Errorf("Expected default contexts not to be cached, got %d calls", inner.calls)
	}
}

func TestStatic(t *testing.T) {
	got := Static{LocalLaws: "placeholder"}.Gather(context.Background(), springfield)
	if got.LocalLaws != "placeholder" || got.SocialContext != model.DefaultSocialContext {
		t.Errorf("Unexpected context: %+v", got)
	}
}
