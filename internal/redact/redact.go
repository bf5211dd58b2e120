// Package redact produces display-safe copies of connector configurations.
package redact

import "github.com/openfuse/console/internal/models"

// MaskedValue replaces secret values in previews.
const MaskedValue = "********"

// MaskConfig returns a copy of config with every field whose schema property
// carries format "password" replaced by the redaction token. The schema is
// advisory, not a filter: keys without a schema entry pass through untouched,
// and nested values are never examined. A nil schema (connector unknown)
// returns the config as-is. Inputs are never mutated.
func MaskConfig(schema *models.ConnectorSchema, config map[string]any) map[string]any {
	if schema == nil || config == nil {
		return config
	}

	masked := make(map[string]any, len(config))
	for key, value := range config {
		if prop, ok := schema.Property(key); ok && prop.Format == models.FormatPassword {
			masked[key] = MaskedValue
			continue
		}
		masked[key] = value
	}
	return masked
}
