package model

import (
	"errors"
	"strings"
	"testing"
)

func TestDebateState_AppendCopiesEntries(t *testing.T) {
	s0 := NewDebateState(nil)
	s1 := s0.Append(Entry{Side: SidePro, Content: "pay it"})
	s2 := s1.Append(Entry{Side: SideAnti, Content: "fight it"})

	if len(s0.Entries) != 0 {
		t.Errorf("expected initial state untouched, got %d entries", len(s0.Entries))
	}
	if len(s1.Entries) != 1 {
		t.Errorf("expected 1 entry after first append, got %d", len(s1.Entries))
	}
	if len(s2.Entries) != 2 {
		t.Errorf("expected 2 entries after second append, got %d", len(s2.Entries))
	}

	s2.Entries[0].Content = "mutated"
	if s1.Entries[0].Content != "pay it" {
		t.Error("expected states not to share entry storage")
	}
}

func TestDebateState_Counters(t *testing.T) {
	s := NewDebateState([]Entry{{Side: SideSystem, Content: "issues"}})
	s = s.Append(Entry{Side: SidePro, Content: "a"})
	s = s.Append(Entry{Side: SideAnti, Content: "b"})
	s = s.Append(Entry{Side: SidePro, Content: "I yield", Concession: true})

	if s.ProMessageCount != 1 {
		t.Errorf("expected pro count 1, got %d", s.ProMessageCount)
	}
	if s.AntiMessageCount != 1 {
		t.Errorf("expected anti count 1, got %d", s.AntiMessageCount)
	}
	if !s.ProConceded || s.AntiConceded {
		t.Errorf("expected only pro conceded, got pro=%v anti=%v", s.ProConceded, s.AntiConceded)
	}
	if s.Winner() != SideAnti {
		t.Errorf("expected anti to win, got %q", s.Winner())
	}

	last, ok := s.LastFrom(SidePro)
	if !ok || last.Content != "a" {
		t.Errorf("expected last pro argument 'a', got %+v", last)
	}
}

func TestDebateState_Flip(t *testing.T) {
	s := NewDebateState(nil)
	if s.CurrentTurn != SidePro {
		t.Fatalf("expected pro to open, got %q", s.CurrentTurn)
	}
	if s.Flip().CurrentTurn != SideAnti {
		t.Error("expected flip to hand the turn to anti")
	}
	if s.Flip().Flip().CurrentTurn != SidePro {
		t.Error("expected double flip to return to pro")
	}
}

func TestBuildTranscript(t *testing.T) {
	s := NewDebateState(nil).Append(Entry{Side: SidePro, Content: "a"})

	transcript := BuildTranscript(s, "recommend paying")
	if len(transcript) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(transcript))
	}
	if transcript[1].Side != SideSummary {
		t.Errorf("expected trailing summary entry, got %q", transcript[1].Side)
	}

	if got := BuildTranscript(s, ""); len(got) != 1 {
		t.Errorf("expected no summary entry for empty summary, got %d entries", len(got))
	}
}

func TestTicketInfo_MissingFields(t *testing.T) {
	ticket := TicketInfo{City: "Springfield", ViolationCode: "22-14", FineAmount: "50"}

	missing := ticket.MissingFields(RequiredTicketFields)
	want := []string{"ticket_number", "address", "date", "officer_info"}
	if len(missing) != len(want) {
		t.Fatalf("expected %v, got %v", want, missing)
	}
	for i := range want {
		if missing[i] != want[i] {
			t.Errorf("expected missing[%d]=%s, got %s", i, want[i], missing[i])
		}
	}

	if ticket.IsEmpty() {
		t.Error("expected ticket with fields not to be empty")
	}
	if !(TicketInfo{}).IsEmpty() {
		t.Error("expected zero ticket to be empty")
	}
}

func TestContext_WithDefaults(t *testing.T) {
	ctx := Context{LocalLaws: "Ordinance 7"}.WithDefaults()
	if ctx.LocalLaws != "Ordinance 7" {
		t.Errorf("expected existing value kept, got %q", ctx.LocalLaws)
	}
	if ctx.SocialContext != DefaultSocialContext {
		t.Errorf("expected social context placeholder, got %q", ctx.SocialContext)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.APIKey = "sk-test"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config with key to be valid, got %v", err)
	}

	cfg.LLM.APIKey = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.LLM.Provider = "ollama"
	cfg.Store.Backend = "sqlite"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown store backend")
	}

	cfg = DefaultConfig()
	cfg.LLM.APIKey = "sk-test"
	cfg.Debate.MaxRoundsOverride = 0
	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "max_rounds_override") {
		t.Errorf("expected max_rounds_override error, got %v", err)
	}
}
