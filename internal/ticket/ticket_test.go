package ticket

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/ticketdebate/internal/cache"
	"github.com/ppiankov/ticketdebate/internal/llm/llmtest"
	"github.com/ppiankov/ticketdebate/internal/model"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestParse_StructuredJSON(t *testing.T) {
	got := Parse(`{"ticket_number": "A-1001", "city": "Springfield", "violation_code": "22-14", "fine_amount": 50}`)

	s, ok := got.(Structured)
	if !ok {
		t.Fatalf("expected Structured, got %T", got)
	}
	if s.Info.City != "Springfield" || s.Info.ViolationCode != "22-14" {
		t.Errorf("unexpected fields: %+v", s.Info)
	}
	if s.Info.FineAmount != "50" {
		t.Errorf("expected numeric fine to decode as \"50\", got %q", s.Info.FineAmount)
	}
	if got.Kind() != KindStructured {
		t.Errorf("expected kind structured, got %s", got.Kind())
	}
}

func TestParse_FencedAndAliased(t *testing.T) {
	text := "Here is the data:\n```json\n{\n  \"Ticket Number\": \"B-7\",\n  \"Date and time\": \"2024-03-01 10:15\",\n  \"issuingOfficer\": {\"name\": \"Lee\", \"badge\": 42},\n  \"Signature\": \"yes\",\n  \"valid\": true\n}\n```"

	s, ok := Parse(strings.TrimPrefix(text, "Here is the data:\n")).(Structured)
	if !ok {
		t.Fatal("expected Structured for fenced JSON")
	}
	if s.Info.TicketNumber != "B-7" {
		t.Errorf("expected aliased ticket number, got %q", s.Info.TicketNumber)
	}
	if s.Info.Date != "2024-03-01 10:15" {
		t.Errorf("expected aliased date, got %q", s.Info.Date)
	}
	if s.Info.OfficerInfo != "badge: 42, name: Lee" {
		t.Errorf("expected flattened officer info, got %q", s.Info.OfficerInfo)
	}
	if s.Info.SignaturePresent == nil || !*s.Info.SignaturePresent {
		t.Errorf("expected signature_present=true, got %v", s.Info.SignaturePresent)
	}
	if s.Info.Extra["valid"] != true {
		t.Errorf("expected unknown key kept in Extra, got %v", s.Info.Extra)
	}

	// Prose around an unfenced object still parses
	if _, ok := Parse(`The ticket shows {"city": "Shelbyville"} as issuer.`).(Structured); !ok {
		t.Error("expected embedded object to parse")
	}
}

func TestParse_RawText(t *testing.T) {
	got := Parse("I could not read this ticket clearly.")

	r, ok := got.(RawText)
	if !ok {
		t.Fatalf("expected RawText, got %T", got)
	}
	if r.Ticket().RawText != "I could not read this ticket clearly." {
		t.Errorf("expected raw text carried into ticket, got %+v", r.Ticket())
	}
	if got.Kind() != KindRawText {
		t.Errorf("expected kind raw_text, got %s", got.Kind())
	}
}

func TestDecodeTicket_Signature(t *testing.T) {
	tests := []struct {
		in   any
		want *bool
	}{
		{true, model.Bool(true)},
		{"No", model.Bool(false)},
		{"missing", model.Bool(false)},
		{"unclear", nil},
		{nil, nil},
	}
	for _, tt := range tests {
		info, err := DecodeTicket(map[string]any{"signature_present": tt.in})
		if err != nil {
			t.Fatalf("DecodeTicket(%v) failed: %v", tt.in, err)
		}
		switch {
		case tt.want == nil && info.SignaturePresent != nil:
			t.Errorf("%v: expected nil, got %v", tt.in, *info.SignaturePresent)
		case tt.want != nil && (info.SignaturePresent == nil || *info.SignaturePresent != *tt.want):
			t.Errorf("%v: expected %v, got %v", tt.in, *tt.want, info.SignaturePresent)
		}
	}
}

func TestDecodeTicket_VehicleList(t *testing.T) {
	info, err := DecodeTicket(map[string]any{"car_information": []any{"ABC123", "Toyota", "Corolla"}})
	if err != nil {
		t.Fatalf("DecodeTicket failed: %v", err)
	}
	if info.VehicleInfo != "ABC123, Toyota, Corolla" {
		t.Errorf("unexpected vehicle info: %q", info.VehicleInfo)
	}
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"ticketNumber":               "ticket_number",
		"Ticket Number":              "ticket_number",
		"Violation description/code": "violation_description_code",
		"  fine_amount ":             "fine_amount",
	}
	for in, want := range tests {
		if got := snakeCase(in); got != want {
			t.Errorf("snakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractor_Image(t *testing.T) {
	provider := llmtest.New(`{"city": "Springfield"}`)
	e := NewExtractor(provider, WithModel("gpt-4o"))

	got, err := e.Extract(context.Background(), Source{Image: pngHeader})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got.Ticket().City != "Springfield" {
		t.Errorf("unexpected ticket: %+v", got.Ticket())
	}

	req := provider.Requests()[0]
	if len(req.Images) != 1 || req.Images[0].MIMEType != "image/png" {
		t.Errorf("expected detected png attachment, got %+v", req.Images)
	}
	if req.Model != "gpt-4o" {
		t.Errorf("expected vision model, got %q", req.Model)
	}
}

func TestExtractor_Text(t *testing.T) {
	provider := llmtest.New(`{"ticket_number": "T-9"}`)
	e := NewExtractor(provider)

	got, err := e.Extract(context.Background(), Source{Text: "CITATION T-9 SPRINGFIELD"})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got.Ticket().TicketNumber != "T-9" {
		t.Errorf("unexpected ticket: %+v", got.Ticket())
	}

	req := provider.Requests()[0]
	if len(req.Images) != 0 {
		t.Error("expected no images for text extraction")
	}
	if !strings.Contains(req.Prompt, "CITATION T-9 SPRINGFIELD") {
		t.Error("expected OCR text in prompt")
	}
}

func TestExtractor_Errors(t *testing.T) {
	e := NewExtractor(llmtest.Failing(errors.New("boom")))

	if _, err := e.Extract(context.Background(), Source{}); !errors.Is(err, ErrNoInput) {
		t.Errorf("expected ErrNoInput, got %v", err)
	}
	if _, err := e.Extract(context.Background(), Source{Image: []byte("plain text, not an image")}); err == nil {
		t.Error("expected error for non-image upload")
	}
	if _, err := e.Extract(context.Background(), Source{Text: "x"}); err == nil {
		t.Error("expected provider error to surface")
	}
}

func TestExtractor_CachesByContent(t *testing.T) {
	provider := llmtest.New(`{"city": "Springfield"}`)
	e := NewExtractor(provider, WithCache(cache.NewMemoryCache(time.Minute, time.Minute)))

	for i := 0; i < 2; i++ {
		if _, err := e.Extract(context.Background(), Source{Image: pngHeader}); err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
	}
	if provider.Calls() != 1 {
		t.Errorf("expected one provider call, got %d", provider.Calls())
	}
}
