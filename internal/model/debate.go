package model

// Side identifies who produced a transcript entry
type Side string

const (
	SidePro     Side = "pro"
	SideAnti    Side = "anti"
	SideSystem  Side = "system"
	SideSummary Side = "summary"
	SideError   Side = "error"
)

// Opponent returns the other debating side. Non-debating sides have no opponent.
func (s Side) Opponent() Side {
	switch s {
	case SidePro:
		return SideAnti
	case SideAnti:
		return SidePro
	default:
		return ""
	}
}

// Label returns the display name used in prompts and rendered transcripts.
func (s Side) Label() string {
	switch s {
	case SidePro:
		return "Pro-Payment"
	case SideAnti:
		return "Anti-Payment"
	case SideSystem:
		return "System"
	case SideSummary:
		return "Summary"
	case SideError:
		return "Error"
	default:
		return string(s)
	}
}

// IsDebater reports whether s is one of the two arguing sides.
func (s Side) IsDebater() bool {
	return s == SidePro || s == SideAnti
}

// Entry is one record of the debate transcript.
// A concession is stored under the conceding side with Concession set; its
// Content is the concession reason.
type Entry struct {
	Side       Side   `json:"side"`
	Content    string `json:"content"`
	Concession bool   `json:"concession,omitempty"`
}

// Phase is the engine state
type Phase string

const (
	PhaseInit     Phase = "init"
	PhaseProTurn  Phase = "pro_turn"
	PhaseAntiTurn Phase = "anti_turn"
	PhaseTerminal Phase = "terminal"
)

// DebateState is the full state of one debate run.
// Values are treated as immutable: every transition returns a new DebateState
// with its own Entries slice.
type DebateState struct {
	Entries          []Entry `json:"entries"`
	ProMessageCount  int     `json:"pro_message_count"`
	AntiMessageCount int     `json:"anti_message_count"`
	ProConceded      bool    `json:"pro_conceded"`
	AntiConceded     bool    `json:"anti_conceded"`
	CurrentTurn      Side    `json:"current_turn"`
	Phase            Phase   `json:"phase"`
}

// NewDebateState returns the initial state: pro to move, with the given
// preamble entries (system notices) already in the transcript.
func NewDebateState(preamble []Entry) DebateState {
	entries := make([]Entry, len(preamble))
	copy(entries, preamble)
	return DebateState{
		Entries:     entries,
		CurrentTurn: SidePro,
		Phase:       PhaseInit,
	}
}

// MessageCount returns the non-concession message count for a side.
func (s DebateState) MessageCount(side Side) int {
	switch side {
	case SidePro:
		return s.ProMessageCount
	case SideAnti:
		return s.AntiMessageCount
	default:
		return 0
	}
}

// Conceded reports whether side has conceded.
func (s DebateState) Conceded(side Side) bool {
	switch side {
	case SidePro:
		return s.ProConceded
	case SideAnti:
		return s.AntiConceded
	default:
		return false
	}
}

// LastFrom returns the most recent non-concession entry from side.
func (s DebateState) LastFrom(side Side) (Entry, bool) {
	for i := len(s.Entries) - 1; i >= 0; i-- {
		e := s.Entries[i]
		if e.Side == side && !e.Concession {
			return e, true
		}
	}
	return Entry{}, false
}

// Winner returns the side that did not concede, or "" when nobody conceded.
func (s DebateState) Winner() Side {
	switch {
	case s.ProConceded && !s.AntiConceded:
		return SideAnti
	case s.AntiConceded && !s.ProConceded:
		return SidePro
	default:
		return ""
	}
}

// Append returns a copy of s with e appended and counters updated.
func (s DebateState) Append(e Entry) DebateState {
	next := s
	next.Entries = make([]Entry, len(s.Entries), len(s.Entries)+1)
	copy(next.Entries, s.Entries)
	next.Entries = append(next.Entries, e)

	switch {
	case e.Side == SidePro && e.Concession:
		next.ProConceded = true
	case e.Side == SidePro:
		next.ProMessageCount++
	case e.Side == SideAnti && e.Concession:
		next.AntiConceded = true
	case e.Side == SideAnti:
		next.AntiMessageCount++
	}
	return next
}

// WithPhase returns a copy of s in the given phase.
func (s DebateState) WithPhase(p Phase) DebateState {
	next := s
	next.Phase = p
	return next
}

// Flip returns a copy of s with the turn handed to the other side.
func (s DebateState) Flip() DebateState {
	next := s
	next.CurrentTurn = s.CurrentTurn.Opponent()
	return next
}

// Outcome names how a terminal debate ended
func (s DebateState) Outcome() string {
	switch {
	case s.ProConceded:
		return OutcomeProConceded
	case s.AntiConceded:
		return OutcomeAntiConceded
	default:
		return OutcomeRoundLimit
	}
}
