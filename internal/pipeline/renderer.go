package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/ppiankov/ticketdebate/internal/model"
	"github.com/ppiankov/ticketdebate/internal/validate"
	"golang.org/x/term"
)

// Renderer writes debate reports as JSON, Markdown or styled terminal output
type Renderer struct{}

// NewRenderer creates a renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.DebateReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// RenderMarkdown writes the report as Markdown
func (r *Renderer) RenderMarkdown(report *model.DebateReport, path string) error {
	return os.WriteFile(path, []byte(r.Markdown(report)), 0o644)
}

// Markdown renders the ticket, validation, transcript and summary
func (r *Renderer) Markdown(report *model.DebateReport) string {
	var b strings.Builder

	title := "Ticket Debate"
	if report.Ticket.TicketNumber != "" {
		title += ": " + report.Ticket.TicketNumber
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	b.WriteString("## Ticket\n\n")
	fields := [][2]string{
		{"City", report.Ticket.City},
		{"Address", report.Ticket.Address},
		{"Violation", report.Ticket.ViolationCode},
		{"Date", report.Ticket.Date},
		{"Officer", report.Ticket.OfficerInfo},
		{"Fine", report.Ticket.FineAmount},
		{"Vehicle", report.Ticket.VehicleInfo},
	}
	wrote := false
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		fmt.Fprintf(&b, "- **%s:** %s\n", f[0], f[1])
		wrote = true
	}
	if !wrote {
		b.WriteString("_No structured fields were extracted._\n")
	}
	b.WriteString("\n")

	b.WriteString("## Validation\n\n")
	b.WriteString(validate.Summary(report.Issues))
	b.WriteString("\n\n")

	b.WriteString("## Debate\n\n")
	for _, e := range report.State.Entries {
		switch {
		case e.Side == model.SideSystem:
			fmt.Fprintf(&b, "> %s\n\n", e.Content)
		case e.Concession:
			fmt.Fprintf(&b, "**%s concedes:** %s\n\n", e.Side.Label(), e.Content)
		default:
			fmt.Fprintf(&b, "**%s:** %s\n\n", e.Side.Label(), e.Content)
		}
	}
	fmt.Fprintf(&b, "_Outcome: %s (pro %d, anti %d messages)_\n\n",
		outcomeText(report.State), report.State.ProMessageCount, report.State.AntiMessageCount)

	b.WriteString("## Summary\n\n")
	b.WriteString(report.Summary)
	b.WriteString("\n")

	if len(report.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, w := range report.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}

func outcomeText(state model.DebateState) string {
	switch state.Outcome() {
	case model.OutcomeProConceded:
		return "pro-payment side conceded"
	case model.OutcomeAntiConceded:
		return "anti-payment side conceded"
	default:
		return "round limit reached"
	}
}

// RenderTerminal writes the Markdown report to w, styled with glamour when
// w is a terminal
func (r *Renderer) RenderTerminal(w io.Writer, report *model.DebateReport) error {
	md := r.Markdown(report)

	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		_, err := io.WriteString(w, md)
		return err
	}

	width := 100
	if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 20 {
		width = cols - 4
	}

	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		_, werr := io.WriteString(w, md)
		return werr
	}
	out, err := tr.Render(md)
	if err != nil {
		_, werr := io.WriteString(w, md)
		return werr
	}
	_, err = io.WriteString(w, out)
	return err
}
