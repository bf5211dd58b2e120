package schemaform

import "github.com/openfuse/console/internal/models"

// Widget is the closed set of input kinds a configuration field can render
// as. Classification is exhaustive so callers can switch over it safely.
type Widget string

const (
	WidgetText       Widget = "text"
	WidgetPassword   Widget = "password"
	WidgetURL        Widget = "url"
	WidgetNumber     Widget = "number"
	WidgetBoolean    Widget = "boolean"
	WidgetEnumChoice Widget = "enum"
	WidgetStringList Widget = "string_list"
)

// Classify maps a schema property to its widget kind. First match wins:
// an enum forces a closed choice regardless of declared type, and only
// string arrays get the delimited list editor; any other array shape falls
// back to plain text.
func Classify(prop models.SchemaProperty) Widget {
	switch {
	case len(prop.Enum) > 0:
		return WidgetEnumChoice
	case prop.Type == models.PropertyTypeBoolean:
		return WidgetBoolean
	case prop.Type == models.PropertyTypeInteger || prop.Type == models.PropertyTypeNumber:
		return WidgetNumber
	case prop.Type == models.PropertyTypeArray && prop.Items != nil && prop.Items.Type == models.PropertyTypeString:
		return WidgetStringList
	case prop.Format == models.FormatPassword:
		return WidgetPassword
	case prop.Format == models.FormatURI:
		return WidgetURL
	default:
		return WidgetText
	}
}

// Obscured reports whether the widget hides its value while editing.
func (w Widget) Obscured() bool {
	return w == WidgetPassword
}
