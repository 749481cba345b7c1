// Package debate runs the pro-payment versus anti-payment turn loop and
// summarizes the result.
package debate

import "strings"

// ConcessionPrefix marks a generated reply as a concession
const ConcessionPrefix = "CONCEDE:"

// DefaultConcessionReason is used when a side concedes without saying why
const DefaultConcessionReason = "Conceded without further explanation."

// Result is one generated turn: either an Argument or a Concession
type Result interface {
	isResult()
}

// Argument is a normal debate message
type Argument struct {
	Text string
}

// Concession ends the debate in favor of the opponent
type Concession struct {
	Reason string
}

func (Argument) isResult()   {}
func (Concession) isResult() {}

// ParseResult classifies raw generated text. Leading whitespace is ignored
// when looking for the concession prefix; the prefix is case-sensitive.
func ParseResult(text string) Result {
	trimmed := strings.TrimSpace(text)
	if rest, ok := strings.CutPrefix(trimmed, ConcessionPrefix); ok {
		reason := strings.TrimSpace(rest)
		if reason == "" {
			reason = DefaultConcessionReason
		}
		return Concession{Reason: reason}
	}
	return Argument{Text: trimmed}
}
