package schemaform

import (
	"reflect"
	"strings"

	"github.com/spf13/cast"

	"github.com/openfuse/console/internal/models"
)

// NormalizeFieldValue applies the meaningful-value convention shared by the
// form engine, preview masking, and payload assembly: nil, blank strings,
// and empty lists mean "absent" and the key must be omitted rather than
// stored as an empty placeholder. The boolean reports whether the value
// should be kept. Note that false is meaningful.
func NormalizeFieldValue(v any) (any, bool) {
	switch value := v.(type) {
	case nil:
		return nil, false
	case string:
		if strings.TrimSpace(value) == "" {
			return nil, false
		}
		return value, true
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Slice && rv.Len() == 0 {
			return nil, false
		}
		return v, true
	}
}

// UpdateField applies one raw user edit to the working configuration and
// returns a fresh map; the input map is never mutated, so callers can detect
// change by reference. Raw values arrive as the widget produces them: a
// single delimited string for list editors, a string for numeric inputs, and
// a bool for toggles.
func UpdateField(schema *models.ConnectorSchema, value map[string]any, field string, raw any) map[string]any {
	next := make(map[string]any, len(value)+1)
	for k, v := range value {
		next[k] = v
	}

	var widget Widget = WidgetText
	if schema != nil {
		if prop, ok := schema.Property(field); ok {
			widget = Classify(prop)
		}
	}

	normalized, keep := coerce(widget, raw)
	if !keep {
		delete(next, field)
		return next
	}

	next[field] = normalized
	return next
}

func coerce(widget Widget, raw any) (any, bool) {
	if raw == nil {
		return nil, false
	}
	switch widget {
	case WidgetStringList:
		if s, ok := raw.(string); ok {
			return NormalizeFieldValue(SplitStringList(s))
		}
		return NormalizeFieldValue(raw)
	case WidgetNumber:
		return coerceNumber(raw)
	case WidgetBoolean:
		return cast.ToBool(raw), true
	default:
		return NormalizeFieldValue(raw)
	}
}

// coerceNumber treats a blank string as clearing the field rather than zero.
// No range checks happen locally; the server is authoritative.
func coerceNumber(raw any) (any, bool) {
	s, ok := raw.(string)
	if !ok {
		return NormalizeFieldValue(raw)
	}
	if strings.TrimSpace(s) == "" {
		return nil, false
	}
	n, err := cast.ToFloat64E(s)
	if err != nil {
		return nil, false
	}
	if n == float64(int64(n)) {
		return int64(n), true
	}
	return n, true
}

// SplitStringList turns a delimited edit into an ordered list: commas and
// newlines both separate, segments are trimmed, empties dropped. Duplicates
// survive in order of first appearance.
func SplitStringList(raw string) []string {
	segments := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n'
	})

	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		trimmed := strings.TrimSpace(segment)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
