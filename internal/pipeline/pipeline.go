package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/ticketdebate/internal/debate"
	"github.com/ppiankov/ticketdebate/internal/events"
	"github.com/ppiankov/ticketdebate/internal/logging"
	"github.com/ppiankov/ticketdebate/internal/model"
	"github.com/ppiankov/ticketdebate/internal/research"
	"github.com/ppiankov/ticketdebate/internal/store"
	"github.com/ppiankov/ticketdebate/internal/ticket"
	"github.com/ppiankov/ticketdebate/internal/validate"
)

// Extractor reads a ticket submission
type Extractor interface {
	Extract(ctx context.Context, src ticket.Source) (ticket.Extraction, error)
}

// Summarizer condenses a finished transcript
type Summarizer interface {
	Summarize(ctx context.Context, entries []model.Entry) string
}

// GeneratorFactory returns fresh pro and anti generators for one run
type GeneratorFactory func() (pro, anti debate.Generator)

// Deps are the collaborators a Pipeline runs
type Deps struct {
	Extractor  Extractor
	Validator  validate.Validator
	Research   research.Provider
	Generators GeneratorFactory
	Summarizer Summarizer
}

// Pipeline orchestrates one ticket submission end to end:
// extract, validate, gather context, debate, summarize, persist
type Pipeline struct {
	deps       Deps
	engineCfg  debate.EngineConfig
	engineOpts []debate.Option
	store      store.TranscriptStore
	publisher  events.Publisher
	logger     *slog.Logger
	now        func() time.Time

	provider string
	model    string
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithStore persists every finished transcript
func WithStore(s store.TranscriptStore) Option {
	return func(p *Pipeline) { p.store = s }
}

// WithPublisher streams debate events
func WithPublisher(pub events.Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// WithEngineOptions passes options to every engine the pipeline creates
func WithEngineOptions(opts ...debate.Option) Option {
	return func(p *Pipeline) { p.engineOpts = append(p.engineOpts, opts...) }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithModelInfo records the provider and model names on reports
func WithModelInfo(provider, model string) Option {
	return func(p *Pipeline) {
		p.provider = provider
		p.model = model
	}
}

// New creates a pipeline. Every Deps field is required.
func New(deps Deps, engineCfg debate.EngineConfig, opts ...Option) (*Pipeline, error) {
	switch {
	case deps.Extractor == nil:
		return nil, errors.New("pipeline: extractor is required")
	case deps.Validator == nil:
		return nil, errors.New("pipeline: validator is required")
	case deps.Research == nil:
		return nil, errors.New("pipeline: research provider is required")
	case deps.Generators == nil:
		return nil, errors.New("pipeline: generator factory is required")
	case deps.Summarizer == nil:
		return nil, errors.New("pipeline: summarizer is required")
	}

	p := &Pipeline{
		deps:      deps,
		engineCfg: engineCfg,
		store:     store.Nop{},
		publisher: events.Nop{},
		logger:    logging.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Store returns the transcript store
func (p *Pipeline) Store() store.TranscriptStore {
	return p.store
}

// Submission is one ticket to debate
type Submission struct {
	Image             []byte
	MIMEType          string
	Text              string
	AdditionalContext string

	// Rounds overrides the per-side cap when positive
	Rounds int

	// Observer receives this debate's entries as they are produced
	Observer debate.Observer
}

// Debate runs a submission to completion. Only missing input and
// cancellation are errors; every collaborator failure degrades to its
// documented fallback.
func (p *Pipeline) Debate(ctx context.Context, sub Submission) (*model.DebateReport, error) {
	started := p.now().UTC()
	var warnings []string

	// 1. Extract
	extraction, err := p.deps.Extractor.Extract(ctx, ticket.Source{
		Image:    sub.Image,
		MIMEType: sub.MIMEType,
		Text:     sub.Text,
	})
	if err != nil {
		if IsInputError(err) {
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		p.logger.Warn("ticket extraction failed, debating without fields", "error", err)
		warnings = append(warnings, fmt.Sprintf("extraction failed: %v", err))
		extraction = ticket.RawText{}
	}

	info := extraction.Ticket()
	if ac := strings.TrimSpace(sub.AdditionalContext); ac != "" {
		info.AdditionalContext = ac
	}

	// 2. Validate
	issues := p.deps.Validator.Validate(ctx, info)
	var preamble []model.Entry
	if len(issues) > 0 {
		preamble = append(preamble, model.Entry{Side: model.SideSystem, Content: validate.Notice(issues)})
	}

	// 3. Context
	background := p.deps.Research.Gather(ctx, info).WithDefaults()

	// 4. Debate
	id := ReportID(info)
	cfg := p.engineCfg
	if sub.Rounds > 0 {
		cfg.MaxRoundsPerSide = sub.Rounds
	}
	engine := debate.NewEngine(cfg, append([]debate.Option{debate.WithLogger(p.logger.With("debate_id", id))}, p.engineOpts...)...)

	pro, anti := p.deps.Generators()
	state, err := engine.Run(ctx, debate.Input{
		Ticket:   info,
		Context:  background,
		Preamble: preamble,
		Observer: debate.Observers{sub.Observer, events.NewObserver(p.publisher, id, p.logger)},
	}, pro, anti)
	if err != nil {
		return nil, fmt.Errorf("debate: %w", err)
	}

	// 5. Summary
	summary := p.deps.Summarizer.Summarize(ctx, state.Entries)
	transcript := model.BuildTranscript(state, summary)

	// 6. Persist
	if err := p.store.Save(ctx, id, transcript); err != nil {
		p.logger.Warn("transcript not saved", "debate_id", id, "error", err)
		warnings = append(warnings, fmt.Sprintf("transcript not saved: %v", err))
	}

	return &model.DebateReport{
		ID:         id,
		Ticket:     info,
		Extraction: extraction.Kind(),
		Issues:     issues,
		Context:    background,
		State:      state,
		Summary:    summary,
		Transcript: transcript,
		Provider:   p.provider,
		Model:      p.model,
		StartedAt:  started,
		FinishedAt: p.now().UTC(),
		Warnings:   warnings,
	}, nil
}

// IsInputError reports whether err means the submission itself was unusable
func IsInputError(err error) bool {
	return errors.Is(err, ticket.ErrNoInput) || errors.Is(err, ticket.ErrUnsupportedImage)
}

// DebateFile reads a ticket image or a .txt of OCR'd text from disk.
// It satisfies worker.Debater.
func (p *Pipeline) DebateFile(ctx context.Context, path string) (*model.DebateReport, error) {
	return p.DebateFileWithContext(ctx, path, "")
}

// DebateFileWithContext is DebateFile with user-supplied additional context
func (p *Pipeline) DebateFileWithContext(ctx context.Context, path, additional string) (*model.DebateReport, error) {
	sub, err := SubmissionFromFile(path)
	if err != nil {
		return nil, err
	}
	sub.AdditionalContext = additional
	return p.Debate(ctx, sub)
}

// SubmissionFromFile treats .txt files as ticket text and anything else as an image
func SubmissionFromFile(path string) (Submission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Submission{}, fmt.Errorf("read ticket: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".txt" {
		return Submission{Text: string(data)}, nil
	}
	return Submission{Image: data, MIMEType: mime.TypeByExtension(ext)}, nil
}

// ReportID uses the ticket number when it is a usable key, otherwise a UUID
func ReportID(info model.TicketInfo) string {
	id := strings.Join(strings.Fields(info.TicketNumber), "-")
	if store.ValidateID(id) == nil {
		return id
	}
	return uuid.NewString()
}
