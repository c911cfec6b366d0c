package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSchemaDefinition_MarshalSingleKeyVariant(t *testing.T) {
	def := SchemaDefinition{RawSchema: KafkaSchema{DocumentSchema: `{"type":"record"}`}}
	data, err := json.Marshal(def)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"rawSchema":{"kafkaSchema":{"documentSchema":"{\"type\":\"record\"}"}}}`
	if string(data) != want {
		t.Errorf("got %s\nwant %s", data, want)
	}
}

func TestSchemaDefinition_MarshalEmpty(t *testing.T) {
	data, err := json.Marshal(SchemaDefinition{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("got %s, want {}", data)
	}
}

func TestSchemaDefinition_MarshalThroughPointer(t *testing.T) {
	d := Dataset{Name: "x", Schema: &SchemaDefinition{RawSchema: Schemaless{}}}
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"schema":{"rawSchema":{"schemaless":{}}}`) {
		t.Errorf("dataset JSON missing schema: %s", data)
	}
}

func TestSchemaDefinition_UnmarshalVariants(t *testing.T) {
	tests := []struct {
		json string
		want RawSchema
	}{
		{`{"rawSchema":{"schemaless":{}}}`, Schemaless{}},
		{`{"rawSchema":{"prestoDDL":{"rawSchema":"CREATE TABLE t (a int)"}}}`, PrestoDDL{RawSchema: "CREATE TABLE t (a int)"}},
		{`{"rawSchema":{"mySqlDDL":{"tableSchema":"CREATE TABLE t"}}}`, MySQLDDL{TableSchema: "CREATE TABLE t"}},
		{`{"rawSchema":{"keyValueSchema":{"keySchema":"k","valueSchema":"v"}}}`, KeyValueSchema{KeySchema: "k", ValueSchema: "v"}},
		{`{"rawSchema":{"orcSchema":{"schema":"struct<a:int>"}}}`, OrcSchema{Schema: "struct<a:int>"}},
	}
	for _, tt := range tests {
		var d SchemaDefinition
		if err := json.Unmarshal([]byte(tt.json), &d); err != nil {
			t.Errorf("%s: %v", tt.json, err)
			continue
		}
		if d.RawSchema != tt.want {
			t.Errorf("%s: got %#v, want %#v", tt.json, d.RawSchema, tt.want)
		}
	}
}

func TestSchemaDefinition_UnmarshalNormalizedOnly(t *testing.T) {
	var d SchemaDefinition
	err := json.Unmarshal([]byte(`{"normalizedSchema":{"fields":[{"fieldPath":"id","nativeDataType":"bigint"}]}}`), &d)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.RawSchema != nil {
		t.Errorf("RawSchema = %#v, want nil", d.RawSchema)
	}
	if !d.NormalizedSchema.HasField("id") {
		t.Error("normalized schema lost field id")
	}
}

func TestSchemaDefinition_UnmarshalRejects(t *testing.T) {
	for _, in := range []string{
		`{"rawSchema":{}}`,
		`{"rawSchema":{"schemaless":{},"orcSchema":{"schema":"x"}}}`,
		`{"rawSchema":{"avroSchema":{"schema":"x"}}}`,
		`{"rawSchema":"prestoDDL"}`,
	} {
		var d SchemaDefinition
		if err := json.Unmarshal([]byte(in), &d); err == nil {
			t.Errorf("%s: expected error", in)
		}
	}
}

func TestSchemaDefinition_UnmarshalNullRaw(t *testing.T) {
	d := SchemaDefinition{RawSchema: Schemaless{}}
	if err := json.Unmarshal([]byte(`{"rawSchema":null}`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.RawSchema != nil {
		t.Errorf("RawSchema = %#v, want nil", d.RawSchema)
	}
}
