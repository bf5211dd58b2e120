package models

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

type Capability string

const (
	CapabilitySource      Capability = "source"
	CapabilityDestination Capability = "destination"
)

func (c Capability) Valid() bool {
	switch c {
	case CapabilitySource, CapabilityDestination:
		return true
	default:
		return false
	}
}

func (c Capability) String() string {
	return string(c)
}

const (
	PropertyTypeString  = "string"
	PropertyTypeInteger = "integer"
	PropertyTypeNumber  = "number"
	PropertyTypeBoolean = "boolean"
	PropertyTypeArray   = "array"

	FormatPassword = "password"
	FormatURI      = "uri"
)

type SchemaItems struct {
	Type string `json:"type,omitempty"`
}

// SchemaProperty describes a single connector configuration field. A missing
// type is treated as string-like by consumers.
type SchemaProperty struct {
	Type        string       `json:"type,omitempty"`
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Enum        []string     `json:"enum,omitempty"`
	Format      string       `json:"format,omitempty"`
	Default     any          `json:"default,omitempty"`
	Items       *SchemaItems `json:"items,omitempty"`
}

type NamedProperty struct {
	Name     string
	Property SchemaProperty
}

// ConnectorSchema is an object schema whose property order is significant:
// fields are presented to users in the order the catalog declares them.
// Since Go maps do not keep insertion order, properties are held as an
// ordered slice and JSON decoding captures document key order.
type ConnectorSchema struct {
	Type                 string
	Properties           []NamedProperty
	Required             []string
	AdditionalProperties bool
}

func (s *ConnectorSchema) Property(name string) (SchemaProperty, bool) {
	for _, p := range s.Properties {
		if p.Name == name {
			return p.Property, true
		}
	}
	return SchemaProperty{}, false
}

// IsRequired reports membership in the schema's required list. Entries that
// do not refer to a declared property are treated as not required.
func (s *ConnectorSchema) IsRequired(name string) bool {
	if _, ok := s.Property(name); !ok {
		return false
	}
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

func (s *ConnectorSchema) Empty() bool {
	return s == nil || len(s.Properties) == 0
}

func (s *ConnectorSchema) UnmarshalJSON(data []byte) error {
	parsed := gjson.ParseBytes(data)
	if !parsed.IsObject() {
		// Malformed schema fragments degrade to an empty schema.
		*s = ConnectorSchema{}
		return nil
	}

	out := ConnectorSchema{
		Type: parsed.Get("type").String(),
	}

	var iterErr error
	parsed.Get("properties").ForEach(func(key, value gjson.Result) bool {
		var prop SchemaProperty
		if err := json.Unmarshal([]byte(value.Raw), &prop); err != nil {
			iterErr = fmt.Errorf("decode schema property %q: %w", key.String(), err)
			return false
		}
		out.Properties = append(out.Properties, NamedProperty{Name: key.String(), Property: prop})
		return true
	})
	if iterErr != nil {
		return iterErr
	}

	for _, r := range parsed.Get("required").Array() {
		out.Required = append(out.Required, r.String())
	}
	out.AdditionalProperties = parsed.Get("additionalProperties").Bool()

	*s = out
	return nil
}

// MarshalJSON writes properties back as a JSON object in declared order.
func (s ConnectorSchema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	typ := s.Type
	if typ == "" {
		typ = "object"
	}
	buf.WriteString(`"type":`)
	writeJSONString(&buf, typ)

	buf.WriteString(`,"properties":{`)
	for i, p := range s.Properties {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeJSONString(&buf, p.Name)
		buf.WriteByte(':')
		encoded, err := json.Marshal(p.Property)
		if err != nil {
			return nil, fmt.Errorf("encode schema property %q: %w", p.Name, err)
		}
		buf.Write(encoded)
	}
	buf.WriteByte('}')

	if len(s.Required) > 0 {
		buf.WriteString(`,"required":`)
		encoded, err := json.Marshal(s.Required)
		if err != nil {
			return nil, fmt.Errorf("encode required list: %w", err)
		}
		buf.Write(encoded)
	}
	if s.AdditionalProperties {
		buf.WriteString(`,"additionalProperties":true`)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONString(buf *bytes.Buffer, s string) {
	encoded, _ := json.Marshal(s) //nolint:errcheck // string marshalling cannot fail
	buf.Write(encoded)
}

// Connector is read-only catalog metadata; the core never mutates it.
type Connector struct {
	Name         string          `json:"name"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Tags         []string        `json:"tags"`
	Capabilities []Capability    `json:"capabilities"`
	ConfigSchema ConnectorSchema `json:"config_schema"`
}

func (c *Connector) HasCapability(capability Capability) bool {
	for _, have := range c.Capabilities {
		if have == capability {
			return true
		}
	}
	return false
}

// Matches reports whether the connector matches a free-text search term
// against its name, title, or tags. An empty term matches everything.
func (c *Connector) Matches(term string) bool {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(c.Name), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(c.Title), needle) {
		return true
	}
	for _, tag := range c.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}
