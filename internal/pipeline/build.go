package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ppiankov/ticketdebate/internal/cache"
	"github.com/ppiankov/ticketdebate/internal/debate"
	"github.com/ppiankov/ticketdebate/internal/events"
	"github.com/ppiankov/ticketdebate/internal/llm"
	"github.com/ppiankov/ticketdebate/internal/logging"
	"github.com/ppiankov/ticketdebate/internal/metrics"
	"github.com/ppiankov/ticketdebate/internal/model"
	"github.com/ppiankov/ticketdebate/internal/research"
	"github.com/ppiankov/ticketdebate/internal/store"
	"github.com/ppiankov/ticketdebate/internal/ticket"
	"github.com/ppiankov/ticketdebate/internal/util"
	"github.com/ppiankov/ticketdebate/internal/validate"
	"github.com/ppiankov/ticketdebate/internal/worker"
)

// Build wires a production pipeline from cfg. m may be nil.
// Configuration problems are returned wrapping model.ErrConfiguration.
func Build(cfg *model.Config, logger *slog.Logger, m *metrics.Metrics) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, err
	}
	providerName := provider.Name()
	provider = llm.NewRateLimited(provider, worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize))
	if m != nil {
		provider = llm.NewInstrumented(provider, m)
	}

	c := cache.FromConfig(cfg.Cache)

	visionModel := cfg.LLM.VisionModel
	if visionModel == "" {
		visionModel = cfg.LLM.Model
	}
	extractor := ticket.NewExtractor(provider,
		ticket.WithModel(visionModel),
		ticket.WithMaxTokens(cfg.LLM.MaxTokens),
		ticket.WithCache(c),
		ticket.WithLogger(logger),
	)

	validator := validate.Chain{
		validate.NewRules(),
		validate.NewLLM(provider, cfg.LLM.MaxTokens, logger),
	}

	researchOpts := []research.Option{
		research.WithMaxTokens(cfg.LLM.MaxTokens),
		research.WithLogger(logger),
	}
	if cfg.Research.LawURLTemplate != "" {
		client := &http.Client{
			Timeout: cfg.Research.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.LLM.HTTPProxy, cfg.LLM.HTTPSProxy, ""),
			},
		}
		robots := util.NewRobotsChecker(cfg.Research.UserAgent, client)
		fetcher := research.NewFetcher(client, cfg.Research.UserAgent, cfg.Research.MaxBytes, robots, worker.NewLimiter(1, 1))
		researchOpts = append(researchOpts, research.WithLawLookup(research.NewWebSource(cfg.Research.LawURLTemplate, fetcher)))
	}
	var background research.Provider = research.NewResearcher(provider, researchOpts...)
	if cfg.Cache.Enabled {
		background = research.NewCached(background, c, cfg.Cache.DiskTTL)
	}

	argumentTokens := cfg.LLM.ArgumentMaxTokens
	generators := func() (debate.Generator, debate.Generator) {
		pro, anti := debate.NewPair(provider, argumentTokens)
		return pro, anti
	}

	st, err := store.FromConfig(cfg.Store)
	if err != nil {
		return nil, err
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.Kafka.Enabled {
		kp, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("kafka: %w", err)
		}
		publisher = kp
	}

	var engineOpts []debate.Option
	if m != nil {
		engineOpts = append(engineOpts, debate.WithObserver(m))
	}

	return New(Deps{
		Extractor:  extractor,
		Validator:  validator,
		Research:   background,
		Generators: generators,
		Summarizer: debate.NewSummarizer(provider, cfg.LLM.MaxTokens, logger),
	}, debate.EngineConfig{MaxRoundsPerSide: cfg.Debate.MaxRoundsPerSide},
		WithStore(st),
		WithPublisher(publisher),
		WithEngineOptions(engineOpts...),
		WithLogger(logger),
		WithModelInfo(providerName, cfg.LLM.Model),
	)
}

// Close releases the store and publisher
func (p *Pipeline) Close() error {
	return errors.Join(p.store.Close(), p.publisher.Close())
}
