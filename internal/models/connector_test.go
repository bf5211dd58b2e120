package models

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const postgresSchemaJSON = `{
  "type": "object",
  "properties": {
    "host": {"type": "string", "title": "Host", "default": "localhost"},
    "port": {"type": "integer", "title": "Port", "default": 5432},
    "database": {"type": "string", "title": "Database"},
    "username": {"type": "string", "title": "Username"},
    "password": {"type": "string", "title": "Password", "format": "password"},
    "ssl_mode": {"type": "string", "title": "SSL Mode", "enum": ["disable", "require", "verify-full"], "default": "disable"},
    "tables": {"type": "array", "title": "Tables", "items": {"type": "string"}}
  },
  "required": ["host", "database", "username", "password"]
}`

func TestConnectorSchemaPreservesPropertyOrder(t *testing.T) {
	var schema ConnectorSchema
	require.NoError(t, json.Unmarshal([]byte(postgresSchemaJSON), &schema))

	var names []string
	for _, p := range schema.Properties {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"host", "port", "database", "username", "password", "ssl_mode", "tables"}, names)
}

func TestConnectorSchemaRoundTripKeepsOrder(t *testing.T) {
	var schema ConnectorSchema
	require.NoError(t, json.Unmarshal([]byte(postgresSchemaJSON), &schema))

	encoded, err := json.Marshal(schema)
	require.NoError(t, err)

	var again ConnectorSchema
	require.NoError(t, json.Unmarshal(encoded, &again))

	require.Len(t, again.Properties, len(schema.Properties))
	for i, p := range schema.Properties {
		assert.Equal(t, p.Name, again.Properties[i].Name)
	}
	assert.Equal(t, schema.Required, again.Required)
}

func TestConnectorSchemaPropertyLookup(t *testing.T) {
	var schema ConnectorSchema
	require.NoError(t, json.Unmarshal([]byte(postgresSchemaJSON), &schema))

	prop, ok := schema.Property("password")
	require.True(t, ok)
	assert.Equal(t, FormatPassword, prop.Format)

	_, ok = schema.Property("nope")
	assert.False(t, ok)

	prop, ok = schema.Property("ssl_mode")
	require.True(t, ok)
	assert.Equal(t, []string{"disable", "require", "verify-full"}, prop.Enum)

	prop, ok = schema.Property("tables")
	require.True(t, ok)
	require.NotNil(t, prop.Items)
	assert.Equal(t, PropertyTypeString, prop.Items.Type)
}

func TestConnectorSchemaIsRequired(t *testing.T) {
	var schema ConnectorSchema
	require.NoError(t, json.Unmarshal([]byte(postgresSchemaJSON), &schema))

	assert.True(t, schema.IsRequired("host"))
	assert.False(t, schema.IsRequired("port"))
	// required entries outside properties are ignored
	schema.Required = append(schema.Required, "ghost")
	assert.False(t, schema.IsRequired("ghost"))
}

func TestConnectorSchemaMalformedFallsBackToEmpty(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not an object", `"just a string"`},
		{"array", `[1, 2, 3]`},
		{"number", `42`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var schema ConnectorSchema
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &schema))
			assert.True(t, schema.Empty())
		})
	}
}

func TestCapabilityValid(t *testing.T) {
	tests := []struct {
		capability string
		valid      bool
	}{
		{"source", true},
		{"destination", true},
		{"", false},
		{"transform", false},
	}
	for _, tt := range tests {
		t.Run(tt.capability, func(t *testing.T) {
			if got := Capability(tt.capability).Valid(); got != tt.valid {
				t.Errorf("Capability(%q).Valid() = %v, want %v", tt.capability, got, tt.valid)
			}
		})
	}
}

func TestConnectorMatches(t *testing.T) {
	connector := Connector{
		Name:  "postgres",
		Title: "PostgreSQL",
		Tags:  []string{"database", "source"},
	}

	tests := []struct {
		term string
		want bool
	}{
		{"", true},
		{"  ", true},
		{"postgres", true},
		{"SQL", true},
		{"data", true},
		{"snowflake", false},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			if got := connector.Matches(tt.term); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.term, got, tt.want)
			}
		})
	}
}

func TestConnectorHasCapability(t *testing.T) {
	connector := Connector{Capabilities: []Capability{CapabilitySource}}
	assert.True(t, connector.HasCapability(CapabilitySource))
	assert.False(t, connector.HasCapability(CapabilityDestination))
}
