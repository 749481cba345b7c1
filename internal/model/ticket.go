package model

import "encoding/json"

// TicketInfo holds the fields extracted from a ticket.
// Every field is optional: an empty string (or nil SignaturePresent) means the
// extractor could not find it, which the validator reports as an issue.
type TicketInfo struct {
	TicketNumber      string         `json:"ticket_number,omitempty" mapstructure:"ticket_number"`
	City              string         `json:"city,omitempty" mapstructure:"city"`
	Address           string         `json:"address,omitempty" mapstructure:"address"`
	ViolationCode     string         `json:"violation_code,omitempty" mapstructure:"violation_code"`
	Date              string         `json:"date,omitempty" mapstructure:"date"`
	OfficerInfo       string         `json:"officer_info,omitempty" mapstructure:"officer_info"`
	FineAmount        string         `json:"fine_amount,omitempty" mapstructure:"fine_amount"`
	SignaturePresent  *bool          `json:"signature_present,omitempty" mapstructure:"signature_present"`
	VehicleInfo       string         `json:"vehicle_info,omitempty" mapstructure:"vehicle_info"`
	AdditionalContext string         `json:"additional_context,omitempty" mapstructure:"additional_context"`
	RawText           string         `json:"raw_text,omitempty" mapstructure:"raw_text"`
	Extra             map[string]any `json:"extra,omitempty" mapstructure:",remain"`
}

// RequiredTicketFields lists the fields a legally complete ticket must carry.
var RequiredTicketFields = []string{
	"ticket_number",
	"city",
	"address",
	"violation_code",
	"date",
	"officer_info",
	"fine_amount",
}

var optionalTicketFields = []string{
	"signature_present",
	"vehicle_info",
	"additional_context",
	"raw_text",
}

// Field returns the string value of a named field and whether it is present.
func (t TicketInfo) Field(name string) (string, bool) {
	var v string
	switch name {
	case "ticket_number":
		v = t.TicketNumber
	case "city":
		v = t.City
	case "address":
		v = t.Address
	case "violation_code":
		v = t.ViolationCode
	case "date":
		v = t.Date
	case "officer_info":
		v = t.OfficerInfo
	case "fine_amount":
		v = t.FineAmount
	case "vehicle_info":
		v = t.VehicleInfo
	case "additional_context":
		v = t.AdditionalContext
	case "raw_text":
		v = t.RawText
	case "signature_present":
		if t.SignaturePresent == nil {
			return "", false
		}
		if *t.SignaturePresent {
			return "true", true
		}
		return "false", true
	default:
		return "", false
	}
	return v, v != ""
}

// MissingFields returns the names in fields that are absent, in order.
func (t TicketInfo) MissingFields(fields []string) []string {
	var missing []string
	for _, f := range fields {
		if _, ok := t.Field(f); !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

// IsEmpty reports whether no field at all was extracted.
func (t TicketInfo) IsEmpty() bool {
	if len(t.MissingFields(RequiredTicketFields)) < len(RequiredTicketFields) {
		return false
	}
	if len(t.MissingFields(optionalTicketFields)) < len(optionalTicketFields) {
		return false
	}
	return len(t.Extra) == 0
}

// JSON renders the ticket as indented JSON for prompts.
func (t TicketInfo) JSON() string {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// Bool returns a pointer to b, for SignaturePresent literals.
func Bool(b bool) *bool {
	return &b
}

// Context is the legal and social background gathered for a ticket
type Context struct {
	LocalLaws     string `json:"local_laws"`
	SocialContext string `json:"social_context"`
}

const (
	DefaultLocalLaws     = "No specific local laws found."
	DefaultSocialContext = "No social context available."
)

// DefaultContext returns a Context with both placeholders set.
func DefaultContext() Context {
	return Context{
		LocalLaws:     DefaultLocalLaws,
		SocialContext: DefaultSocialContext,
	}
}

// WithDefaults fills empty fields with their placeholders.
func (c Context) WithDefaults() Context {
	if c.LocalLaws == "" {
		c.LocalLaws = DefaultLocalLaws
	}
	if c.SocialContext == "" {
		c.SocialContext = DefaultSocialContext
	}
	return c
}
