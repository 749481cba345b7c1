package research

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ppiankov/ticketdebate/internal/model"
)

// ErrNoLawSource is returned when no URL can be built for a ticket
var ErrNoLawSource = errors.New("no municipal code source for ticket")

// excerptKeywords always accompany the violation code when picking sentences
var excerptKeywords = []string{"parking", "citation", "fine", "penalty", "appeal", "contest", "signage", "meter"}

// WebSource looks up municipal code text. The URL template may contain
// {city} and {violation_code}, each path-escaped.
type WebSource struct {
	template string
	fetcher  *Fetcher
	maxChars int
}

// NewWebSource creates a source from a URL template
func NewWebSource(template string, fetcher *Fetcher) *WebSource {
	return &WebSource{template: template, fetcher: fetcher, maxChars: 4000}
}

// URL expands the template for ticket
func (w *WebSource) URL(ticket model.TicketInfo) (string, error) {
	if w.template == "" {
		return "", ErrNoLawSource
	}
	if strings.Contains(w.template, "{city}") && ticket.City == "" {
		return "", fmt.Errorf("%w: city unknown", ErrNoLawSource)
	}
	if strings.Contains(w.template, "{violation_code}") && ticket.ViolationCode == "" {
		return "", fmt.Errorf("%w: violation code unknown", ErrNoLawSource)
	}

	city := strings.ToLower(strings.Join(strings.Fields(ticket.City), "-"))
	r := strings.NewReplacer(
		"{city}", url.PathEscape(city),
		"{violation_code}", url.PathEscape(ticket.ViolationCode),
	)
	return r.Replace(w.template), nil
}

// Lookup fetches the code page and returns the sentences relevant to ticket
func (w *WebSource) Lookup(ctx context.Context, ticket model.TicketInfo) (string, error) {
	rawURL, err := w.URL(ticket)
	if err != nil {
		return "", err
	}

	page, err := w.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	text := page.Body
	if !strings.HasPrefix(page.ContentType, "text/plain") {
		text, err = VisibleText(page.Body)
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", rawURL, err)
		}
	}

	keywords := append([]string{ticket.ViolationCode}, excerptKeywords...)
	excerpt := Excerpt(text, keywords, w.maxChars)
	if excerpt == "" {
		return "", fmt.Errorf("%s: no relevant sections", rawURL)
	}
	return excerpt, nil
}
