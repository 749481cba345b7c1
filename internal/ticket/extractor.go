package ticket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ppiankov/ticketdebate/internal/cache"
	"github.com/ppiankov/ticketdebate/internal/llm"
	"github.com/ppiankov/ticketdebate/internal/logging"
)

// ErrNoInput is returned when a Source carries neither an image nor text
var ErrNoInput = errors.New("ticket source has no image or text")

// ErrUnsupportedImage is returned for image bytes that are not an image type
var ErrUnsupportedImage = errors.New("unsupported ticket image type")

const extractionSystem = "You are a helpful assistant that extracts information from ticket text."

const fieldList = `- ticket_number: the ticket or citation number
- city: the city or municipality that issued it
- address: where the violation took place
- violation_code: the violation code and/or description
- date: date and time of the violation
- officer_info: issuing officer name and badge number
- fine_amount: the fine amount
- signature_present: true if the ticket is signed, false if not
- vehicle_info: license plate, make and model`

const visionPrompt = `Analyze this ticket image and extract the following information:
` + fieldList + `

Respond with a single JSON object using exactly these keys. Use null for anything you cannot read.`

const textPromptTemplate = `Extract the following information from the ticket text:
%s

Required fields:
` + fieldList + `

Format the output as a JSON object using exactly these keys. Use null for anything missing.`

// Source is one ticket submission
type Source struct {
	Image    []byte
	MIMEType string // detected from Image when empty
	Text     string // already OCR'd ticket text
}

// Extractor reads tickets through a generation provider
type Extractor struct {
	provider  llm.Provider
	model     string
	maxTokens int
	cache     cache.Cache
	logger    *slog.Logger
}

// Option configures an Extractor
type Option func(*Extractor)

// WithModel sets the vision-capable model used for extraction
func WithModel(name string) Option {
	return func(e *Extractor) { e.model = name }
}

// WithMaxTokens caps the extraction response
func WithMaxTokens(n int) Option {
	return func(e *Extractor) { e.maxTokens = n }
}

// WithCache stores provider answers keyed by the submitted content
func WithCache(c cache.Cache) Option {
	return func(e *Extractor) { e.cache = c }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// NewExtractor creates an extractor backed by provider
func NewExtractor(provider llm.Provider, opts ...Option) *Extractor {
	e := &Extractor{
		provider:  provider,
		maxTokens: 1000,
		cache:     cache.Nop{},
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads src. Provider failures are returned as errors; answers that
// are not a JSON object come back as RawText.
func (e *Extractor) Extract(ctx context.Context, src Source) (Extraction, error) {
	req, key, err := e.request(src)
	if err != nil {
		return nil, err
	}

	if text, ok := e.cache.Get(key); ok {
		e.logger.Debug("extraction cache hit", "key", key)
		return Parse(string(text)), nil
	}

	resp, err := e.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("extract ticket: %w", err)
	}

	if err := e.cache.Set(key, []byte(resp.Text), 0); err != nil {
		e.logger.Warn("extraction cache write failed", "error", err)
	}

	result := Parse(resp.Text)
	e.logger.Debug("ticket extracted", "kind", result.Kind(), "tokens", resp.TokensUsed)
	return result, nil
}

func (e *Extractor) request(src Source) (llm.GenerateRequest, string, error) {
	temperature := llm.Temperature(0.3)

	switch {
	case len(src.Image) > 0:
		mime := src.MIMEType
		if mime == "" {
			mime = http.DetectContentType(src.Image)
		}
		if !strings.HasPrefix(mime, "image/") {
			return llm.GenerateRequest{}, "", fmt.Errorf("%w %q", ErrUnsupportedImage, mime)
		}
		return llm.GenerateRequest{
			System:      extractionSystem,
			Prompt:      visionPrompt,
			Images:      []llm.Image{{MIMEType: mime, Data: src.Image}},
			Model:       e.model,
			MaxTokens:   e.maxTokens,
			Temperature: temperature,
		}, cache.BytesKey("extract:image:"+e.model, src.Image), nil

	case strings.TrimSpace(src.Text) != "":
		return llm.GenerateRequest{
			System:      extractionSystem,
			Prompt:      fmt.Sprintf(textPromptTemplate, src.Text),
			Model:       e.model,
			MaxTokens:   e.maxTokens,
			Temperature: temperature,
		}, cache.Key("extract:text:"+e.model, src.Text), nil

	default:
		return llm.GenerateRequest{}, "", ErrNoInput
	}
}

// Parse interprets a model answer. A JSON object (optionally inside a
// markdown code fence or surrounded by prose) becomes Structured; anything
// else is RawText.
func Parse(text string) Extraction {
	candidate := stripFences(text)

	var raw map[string]any
	if err := json.Unmarshal([]byte(candidate), &raw); err != nil {
		start := strings.Index(candidate, "{")
		end := strings.LastIndex(candidate, "}")
		if start < 0 || end <= start {
			return RawText{Text: text}
		}
		if err := json.Unmarshal([]byte(candidate[start:end+1]), &raw); err != nil {
			return RawText{Text: text}
		}
	}

	info, err := DecodeTicket(raw)
	if err != nil {
		return RawText{Text: text}
	}
	return Structured{Info: info}
}

func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
