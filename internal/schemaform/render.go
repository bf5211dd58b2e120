package schemaform

import "github.com/openfuse/console/internal/models"

// Field is one editable entry of a rendered configuration form.
type Field struct {
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Widget      Widget   `json:"widget"`
	Required    bool     `json:"required"`
	Options     []string `json:"options,omitempty"`
	Value       any      `json:"value"`
}

// Render maps a connector schema and the current working configuration into
// the ordered field list shown to the user. The order is the schema's
// declared property order, independent of the value map. An empty or nil
// schema yields no fields; callers present a "no configuration needed"
// state instead of an empty form.
func Render(schema *models.ConnectorSchema, value map[string]any) []Field {
	if schema.Empty() {
		return nil
	}

	fields := make([]Field, 0, len(schema.Properties))
	for _, p := range schema.Properties {
		widget := Classify(p.Property)
		fields = append(fields, Field{
			Name:        p.Name,
			Label:       DeriveLabel(p.Name, p.Property.Title),
			Description: p.Property.Description,
			Widget:      widget,
			Required:    schema.IsRequired(p.Name),
			Options:     p.Property.Enum,
			Value:       displayValue(p.Property, widget, value, p.Name),
		})
	}
	return fields
}

func displayValue(prop models.SchemaProperty, widget Widget, value map[string]any, name string) any {
	if v, ok := value[name]; ok {
		return v
	}
	if prop.Default != nil {
		return prop.Default
	}
	switch widget {
	case WidgetBoolean:
		return false
	case WidgetStringList:
		return []string{}
	default:
		return ""
	}
}
