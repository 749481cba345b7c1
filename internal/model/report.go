package model

import "time"

// DebateReport represents the complete result of one ticket submission
type DebateReport struct {
	ID         string      `json:"id"`                 // Store key: ticket number, or a generated id
	Ticket     TicketInfo  `json:"ticket"`             // Extracted ticket fields
	Extraction string      `json:"extraction"`         // "structured" or "raw_text"
	Issues     []string    `json:"issues,omitempty"`   // Validation issues (empty = valid)
	Context    Context     `json:"context"`            // Legal and social context used by both sides
	State      DebateState `json:"state"`              // Terminal engine state
	Summary    string      `json:"summary"`            // Post-debate summary and recommendation
	Transcript []Entry     `json:"transcript"`         // State entries plus the trailing summary entry
	Provider   string      `json:"provider,omitempty"` // LLM provider that generated the debate
	Model      string      `json:"model,omitempty"`    // Model name
	StartedAt  time.Time   `json:"started_at"`         // When the submission was received
	FinishedAt time.Time   `json:"finished_at"`        // When the summary was produced
	Warnings   []string    `json:"warnings,omitempty"` // Degraded steps (fallbacks, store failures)
}

// Debate outcomes, used as log fields and metric labels
const (
	OutcomeProConceded  = "pro_conceded"
	OutcomeAntiConceded = "anti_conceded"
	OutcomeRoundLimit   = "round_limit"
)

// Outcome describes how the debate ended, for logs and metrics.
func (r *DebateReport) Outcome() string {
	return r.State.Outcome()
}

// BuildTranscript appends the summary entry to the state entries.
func BuildTranscript(state DebateState, summary string) []Entry {
	transcript := make([]Entry, 0, len(state.Entries)+1)
	transcript = append(transcript, state.Entries...)
	if summary != "" {
		transcript = append(transcript, Entry{Side: SideSummary, Content: summary})
	}
	return transcript
}
