package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// RawSchemaType names one variant of the raw schema union.
type RawSchemaType string

const (
	RawSchemaSchemaless RawSchemaType = "schemaless"
	RawSchemaPrestoDDL  RawSchemaType = "prestoDDL"
	RawSchemaMySQLDDL   RawSchemaType = "mySqlDDL"
	RawSchemaOracleDDL  RawSchemaType = "oracleDDL"
	RawSchemaKafka      RawSchemaType = "kafkaSchema"
	RawSchemaEspresso   RawSchemaType = "espressoSchema"
	RawSchemaKeyValue   RawSchemaType = "keyValueSchema"
	RawSchemaBinaryJSON RawSchemaType = "binaryJsonSchema"
	RawSchemaOrc        RawSchemaType = "orcSchema"
)

// String returns the string representation of the raw schema type.
func (t RawSchemaType) String() string {
	return string(t)
}

// IsValid checks whether the raw schema type is a known variant.
func (t RawSchemaType) IsValid() bool {
	_, ok := rawSchemaFactories[t]
	return ok
}

// RawSchema is the closed set of platform-specific schema representations.
// Only the variant types declared in this file implement it.
type RawSchema interface {
	Type() RawSchemaType
	isRawSchema()
}

// Schemaless marks a dataset whose platform records no schema.
type Schemaless struct{}

// PrestoDDL holds a Presto CREATE TABLE statement.
type PrestoDDL struct {
	RawSchema string `json:"rawSchema"`
}

// MySQLDDL holds a MySQL CREATE TABLE statement.
type MySQLDDL struct {
	TableSchema string `json:"tableSchema"`
}

// OracleDDL holds an Oracle CREATE TABLE statement.
type OracleDDL struct {
	TableSchema string `json:"tableSchema"`
}

// KafkaSchema holds the document and optional key schema of a topic.
type KafkaSchema struct {
	DocumentSchema string `json:"documentSchema"`
	KeySchema      string `json:"keySchema,omitempty"`
}

// EspressoSchema holds the table and document schemas of an Espresso table.
type EspressoSchema struct {
	DocumentSchema string `json:"documentSchema"`
	TableSchema    string `json:"tableSchema"`
}

// KeyValueSchema holds separate key and value schemas.
type KeyValueSchema struct {
	KeySchema   string `json:"keySchema"`
	ValueSchema string `json:"valueSchema"`
}

// BinaryJSONSchema holds a JSON schema for binary-encoded documents.
type BinaryJSONSchema struct {
	Schema string `json:"schema"`
}

// OrcSchema holds an ORC type description.
type OrcSchema struct {
	Schema string `json:"schema"`
}

func (Schemaless) Type() RawSchemaType       { return RawSchemaSchemaless }
func (PrestoDDL) Type() RawSchemaType        { return RawSchemaPrestoDDL }
func (MySQLDDL) Type() RawSchemaType         { return RawSchemaMySQLDDL }
func (OracleDDL) Type() RawSchemaType        { return RawSchemaOracleDDL }
func (KafkaSchema) Type() RawSchemaType      { return RawSchemaKafka }
func (EspressoSchema) Type() RawSchemaType   { return RawSchemaEspresso }
func (KeyValueSchema) Type() RawSchemaType   { return RawSchemaKeyValue }
func (BinaryJSONSchema) Type() RawSchemaType { return RawSchemaBinaryJSON }
func (OrcSchema) Type() RawSchemaType        { return RawSchemaOrc }

func (Schemaless) isRawSchema()       {}
func (PrestoDDL) isRawSchema()        {}
func (MySQLDDL) isRawSchema()         {}
func (OracleDDL) isRawSchema()        {}
func (KafkaSchema) isRawSchema()      {}
func (EspressoSchema) isRawSchema()   {}
func (KeyValueSchema) isRawSchema()   {}
func (BinaryJSONSchema) isRawSchema() {}
func (OrcSchema) isRawSchema()        {}

// rawSchemaFactories returns a pointer to a zero value of each variant for decoding.
var rawSchemaFactories = map[RawSchemaType]func() RawSchema{
	RawSchemaSchemaless: func() RawSchema { return &Schemaless{} },
	RawSchemaPrestoDDL:  func() RawSchema { return &PrestoDDL{} },
	RawSchemaMySQLDDL:   func() RawSchema { return &MySQLDDL{} },
	RawSchemaOracleDDL:  func() RawSchema { return &OracleDDL{} },
	RawSchemaKafka:      func() RawSchema { return &KafkaSchema{} },
	RawSchemaEspresso:   func() RawSchema { return &EspressoSchema{} },
	RawSchemaKeyValue:   func() RawSchema { return &KeyValueSchema{} },
	RawSchemaBinaryJSON: func() RawSchema { return &BinaryJSONSchema{} },
	RawSchemaOrc:        func() RawSchema { return &OrcSchema{} },
}

// RawSchemaTypes returns every raw schema variant name in sorted order.
func RawSchemaTypes() []RawSchemaType {
	out := make([]RawSchemaType, 0, len(rawSchemaFactories))
	for t := range rawSchemaFactories {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SchemaField is one column or path of a normalized schema.
type SchemaField struct {
	FieldPath      string `json:"fieldPath"`
	NativeDataType string `json:"nativeDataType,omitempty"`
	Nullable       bool   `json:"nullable,omitempty"`
	Description    string `json:"description,omitempty"`
}

// NormalizedSchema is the canonical representation derived from a raw schema.
type NormalizedSchema struct {
	Fields []SchemaField `json:"fields"`
}

// FieldPaths returns the field paths in declaration order.
func (n *NormalizedSchema) FieldPaths() []string {
	if n == nil {
		return nil
	}
	paths := make([]string, len(n.Fields))
	for i, f := range n.Fields {
		paths[i] = f.FieldPath
	}
	return paths
}

// HasField reports whether the schema declares the given field path.
func (n *NormalizedSchema) HasField(path string) bool {
	if n == nil {
		return false
	}
	for _, f := range n.Fields {
		if f.FieldPath == path {
			return true
		}
	}
	return false
}

// SchemaDefinition is the optional raw and normalized schema metadata of a
// dataset. Either part may be nil; neither implies the other.
type SchemaDefinition struct {
	RawSchema        RawSchema
	NormalizedSchema *NormalizedSchema
}

type schemaDefinitionJSON struct {
	RawSchema        json.RawMessage   `json:"rawSchema,omitempty"`
	NormalizedSchema *NormalizedSchema `json:"normalizedSchema,omitempty"`
}

// MarshalJSON encodes the raw schema as a single-key object named after its variant.
func (d SchemaDefinition) MarshalJSON() ([]byte, error) {
	var out schemaDefinitionJSON
	out.NormalizedSchema = d.NormalizedSchema
	if d.RawSchema != nil {
		raw, err := marshalRawSchema(d.RawSchema)
		if err != nil {
			return nil, err
		}
		out.RawSchema = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a schema definition, rejecting unknown or ambiguous raw schema variants.
func (d *SchemaDefinition) UnmarshalJSON(data []byte) error {
	var in schemaDefinitionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	d.NormalizedSchema = in.NormalizedSchema
	d.RawSchema = nil
	if len(in.RawSchema) == 0 || string(in.RawSchema) == "null" {
		return nil
	}
	rs, err := unmarshalRawSchema(in.RawSchema)
	if err != nil {
		return err
	}
	d.RawSchema = rs
	return nil
}

func marshalRawSchema(rs RawSchema) ([]byte, error) {
	body, err := json.Marshal(rs)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", rs.Type(), err)
	}
	return json.Marshal(map[string]json.RawMessage{string(rs.Type()): body})
}

func unmarshalRawSchema(data []byte) (RawSchema, error) {
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("rawSchema: must be an object keyed by variant")
	}
	if len(wrapper) != 1 {
		return nil, fmt.Errorf("rawSchema: expected exactly one variant, got %d", len(wrapper))
	}
	for key, body := range wrapper {
		factory, ok := rawSchemaFactories[RawSchemaType(key)]
		if !ok {
			return nil, fmt.Errorf("rawSchema: unknown variant %q", key)
		}
		v := factory()
		if err := json.Unmarshal(body, v); err != nil {
			return nil, fmt.Errorf("rawSchema %s: %w", key, err)
		}
		return deref(v), nil
	}
	return nil, nil
}

// deref turns the decoding pointer back into the value form used by callers.
func deref(v RawSchema) RawSchema {
	switch x := v.(type) {
	case *Schemaless:
		return *x
	case *PrestoDDL:
		return *x
	case *MySQLDDL:
		return *x
	case *OracleDDL:
		return *x
	case *KafkaSchema:
		return *x
	case *EspressoSchema:
		return *x
	case *KeyValueSchema:
		return *x
	case *BinaryJSONSchema:
		return *x
	case *OrcSchema:
		return *x
	}
	return v
}
