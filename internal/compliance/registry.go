// Package compliance derives the security-classification lookup tables used
// by the dataset compliance form, and applies them to field annotations.
//
// The tables are built once from a type registry (embedded registry.yaml by
// default) and are read-only afterwards, so a *Tables may be shared freely
// between goroutines.
package compliance

import (
	_ "embed"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

//go:embed registry.yaml
var embeddedRegistry []byte

// GenericLogicalType is a non-identifier logical type and its metadata.
type GenericLogicalType struct {
	Name           string `yaml:"name"`
	Classification string `yaml:"classification"`
	DisplayAs      string `yaml:"displayAs"`
}

// IdentifierType is one entry of the field identifier type enumeration.
type IdentifierType struct {
	Value     string `yaml:"value"`
	DisplayAs string `yaml:"displayAs"`
}

// Registry is the external type registry the lookup tables are derived from.
type Registry struct {
	Classifications      []string             `yaml:"classifications"`
	IDClassification     string               `yaml:"idClassification"`
	IDLogicalTypes       []string             `yaml:"idLogicalTypes"`
	CustomIDLogicalTypes []string             `yaml:"customIdLogicalTypes"`
	GenericLogicalTypes  []GenericLogicalType `yaml:"genericLogicalTypes"`
	IdentifierTypes      []IdentifierType     `yaml:"identifierTypes"`
}

// ParseRegistry decodes a YAML registry document.
func ParseRegistry(r io.Reader) (*Registry, error) {
	var reg Registry
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&reg); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	return &reg, nil
}

// Load parses a registry document and builds its tables.
func Load(r io.Reader) (*Tables, error) {
	reg, err := ParseRegistry(r)
	if err != nil {
		return nil, err
	}
	return Build(reg)
}

var defaultTables = mustBuildEmbedded()

func mustBuildEmbedded() *Tables {
	var reg Registry
	if err := yaml.Unmarshal(embeddedRegistry, &reg); err != nil {
		panic(fmt.Sprintf("compliance: embedded registry: %v", err))
	}
	t, err := Build(&reg)
	if err != nil {
		panic(fmt.Sprintf("compliance: embedded registry: %v", err))
	}
	return t
}

// Default returns the tables built from the embedded registry at process start.
func Default() *Tables {
	return defaultTables
}
