// Package ticket turns an uploaded ticket image or OCR text into TicketInfo.
package ticket

import "github.com/ppiankov/ticketdebate/internal/model"

// Extraction is the result of reading a ticket: either Structured fields or
// the RawText the model produced when it did not answer with a JSON object.
type Extraction interface {
	// Ticket returns the fields to debate. RawText yields TicketInfo{RawText}.
	Ticket() model.TicketInfo

	// Kind is "structured" or "raw_text"
	Kind() string

	isExtraction()
}

// Structured is a successfully parsed extraction
type Structured struct {
	Info model.TicketInfo
}

func (s Structured) Ticket() model.TicketInfo { return s.Info }
func (Structured) Kind() string               { return KindStructured }
func (Structured) isExtraction()              {}

// RawText is an extraction whose output could not be parsed
type RawText struct {
	Text string
}

func (r RawText) Ticket() model.TicketInfo { return model.TicketInfo{RawText: r.Text} }
func (RawText) Kind() string               { return KindRawText }
func (RawText) isExtraction()              {}

const (
	KindStructured = "structured"
	KindRawText    = "raw_text"
)
