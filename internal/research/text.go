package research

import (
	"strings"

	"golang.org/x/net/html"
)

// VisibleText returns the readable text of an HTML document, skipping
// scripts, styles and navigation chrome
func VisibleText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "nav", "header", "footer":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(strings.Fields(buf.String()), " "), nil
}

// Sentences splits text on terminal punctuation followed by whitespace
func Sentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if r != '.' && r != '!' && r != '?' && r != ';' {
			continue
		}
		if i+1 < len(runes) && (runes[i+1] == ' ' || runes[i+1] == '\t' || runes[i+1] == '\n') {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// Excerpt keeps the sentences that mention any keyword, in document order,
// up to maxChars. Matching is case-insensitive and each sentence appears once.
func Excerpt(text string, keywords []string, maxChars int) string {
	var kws []string
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			kws = append(kws, k)
		}
	}
	if len(kws) == 0 {
		return ""
	}

	seen := make(map[string]bool)
	var b strings.Builder
	for _, sentence := range Sentences(text) {
		lower := strings.ToLower(sentence)
		if seen[lower] {
			continue
		}
		for _, k := range kws {
			if !strings.Contains(lower, k) {
				continue
			}
			if maxChars > 0 && b.Len()+len(sentence)+1 > maxChars {
				return strings.TrimSpace(b.String())
			}
			seen[lower] = true
			b.WriteString(sentence)
			b.WriteString(" ")
			break
		}
	}
	return strings.TrimSpace(b.String())
}
