package redact

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfuse/console/internal/models"
)

func testSchema(t *testing.T) *models.ConnectorSchema {
	t.Helper()
	var schema models.ConnectorSchema
	require.NoError(t, json.Unmarshal([]byte(`{
	  "type": "object",
	  "properties": {
	    "host": {"type": "string"},
	    "password": {"type": "string", "format": "password"},
	    "api_key": {"type": "string", "format": "password"}
	  }
	}`), &schema))
	return &schema
}

func TestMaskConfigRedactsPasswordFields(t *testing.T) {
	schema := testSchema(t)
	config := map[string]any{
		"host":     "db.internal",
		"password": "hunter2",
		"api_key":  "sk-123",
	}

	masked := MaskConfig(schema, config)

	assert.Equal(t, "db.internal", masked["host"])
	assert.Equal(t, MaskedValue, masked["password"])
	assert.Equal(t, MaskedValue, masked["api_key"])
	assert.Len(t, MaskedValue, 8)

	// the live config keeps the real secret
	assert.Equal(t, "hunter2", config["password"])
}

func TestMaskConfigPassesUnknownKeysThrough(t *testing.T) {
	schema := testSchema(t)
	nested := map[string]any{"secret": "kept"}
	config := map[string]any{"extra": nested}

	masked := MaskConfig(schema, config)

	// schema is advisory: unknown keys pass through unmasked and unexamined
	assert.Equal(t, nested, masked["extra"])
}

func TestMaskConfigNilSchemaReturnsConfigUnchanged(t *testing.T) {
	config := map[string]any{"password": "hunter2"}
	assert.Equal(t, config, MaskConfig(nil, config))
}

func TestMaskConfigNilConfig(t *testing.T) {
	assert.Nil(t, MaskConfig(testSchema(t), nil))
}
