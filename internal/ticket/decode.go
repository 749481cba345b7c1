package ticket

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/mitchellh/mapstructure"
	"github.com/ppiankov/ticketdebate/internal/model"
)

// fieldAliases maps the spellings vision and text models actually use onto
// TicketInfo keys. Keys are already snake_cased.
var fieldAliases = map[string]string{
	"ticket":                              "ticket_number",
	"ticket_no":                           "ticket_number",
	"ticket_id":                           "ticket_number",
	"citation_number":                     "ticket_number",
	"citation_no":                         "ticket_number",
	"location":                            "address",
	"address_where_the_ticket_was_issued": "address",
	"violation":                           "violation_code",
	"violation_type":                      "violation_code",
	"violation_description":               "violation_code",
	"violation_description_code":          "violation_code",
	"date_and_time":                       "date",
	"date_time":                           "date",
	"datetime":                            "date",
	"timestamp":                           "date",
	"timestamp_of_the_violation":          "date",
	"officer":                             "officer_info",
	"officer_information":                 "officer_info",
	"issuing_officer":                     "officer_info",
	"fine":                                "fine_amount",
	"amount":                              "fine_amount",
	"amount_due":                          "fine_amount",
	"signature":                           "signature_present",
	"has_signature":                       "signature_present",
	"signed":                              "signature_present",
	"vehicle":                             "vehicle_info",
	"car_information":                     "vehicle_info",
	"car_info":                            "vehicle_info",
}

// DecodeTicket maps a loosely shaped JSON object onto TicketInfo.
// Numbers become strings, yes/no answers become booleans, nested objects are
// flattened into text, and unknown keys are kept in Extra.
func DecodeTicket(raw map[string]any) (model.TicketInfo, error) {
	var info model.TicketInfo

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		// signatureHook may yield nil, so it must run last
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			textHook,
			signatureHook,
		),
		WeaklyTypedInput: true,
		Result:           &info,
		TagName:          "mapstructure",
	})
	if err != nil {
		return info, fmt.Errorf("create decoder: %w", err)
	}

	if err := decoder.Decode(normalizeKeys(raw)); err != nil {
		return info, fmt.Errorf("decode ticket fields: %w", err)
	}

	for k, v := range info.Extra {
		if v == nil {
			delete(info.Extra, k)
		}
	}
	if len(info.Extra) == 0 {
		info.Extra = nil
	}
	return info, nil
}

func normalizeKeys(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		key := snakeCase(k)
		if alias, ok := fieldAliases[key]; ok {
			key = alias
		}
		// First spelling wins when a model emits two aliases of one field
		if _, exists := out[key]; exists && isBlank(v) {
			continue
		}
		out[key] = v
	}
	return out
}

func snakeCase(s string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsUpper(r):
			if prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevLower = true
		default:
			b.WriteByte('_')
			prevLower = false
		}
	}

	parts := strings.FieldsFunc(b.String(), func(r rune) bool { return r == '_' })
	return strings.Join(parts, "_")
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

var boolPtrType = reflect.TypeOf((*bool)(nil))

// signatureHook turns "yes", "signed", "no" and friends into *bool.
// Answers it cannot classify decode as unknown (nil).
func signatureHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != boolPtrType {
		return data, nil
	}

	switch from.Kind() {
	case reflect.Bool:
		return data, nil
	case reflect.String:
		switch strings.ToLower(strings.TrimSpace(data.(string))) {
		case "yes", "y", "true", "present", "signed", "visible":
			return true, nil
		case "no", "n", "false", "absent", "missing", "none", "unsigned", "not present":
			return false, nil
		default:
			return nil, nil
		}
	default:
		return nil, nil
	}
}

// textHook renders non-scalar values into the string fields of TicketInfo
func textHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}

	switch from.Kind() {
	case reflect.Bool:
		if data.(bool) {
			return "true", nil
		}
		return "false", nil
	case reflect.Slice:
		items, ok := data.([]any)
		if !ok {
			break
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			parts = append(parts, scalarText(item))
		}
		return strings.Join(parts, ", "), nil
	case reflect.Map:
		m, ok := data.(map[string]any)
		if !ok {
			break
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %s", k, scalarText(m[k])))
		}
		return strings.Join(parts, ", "), nil
	}
	return data, nil
}

func scalarText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64, int, int64, bool:
		return fmt.Sprint(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
