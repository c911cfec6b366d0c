package compliance

import (
	"fmt"
	"sort"
)

// Option is a value/label pair for a dropdown.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ClassificationPlaceholderLabel labels the empty leading dropdown option.
const ClassificationPlaceholderLabel = "Select classification"

// Category selects which logical type enumeration a label list covers.
type Category string

const (
	CategoryID      Category = "id"
	CategoryGeneric Category = "generic"
)

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}

// IsValid checks whether the category is a known value.
func (c Category) IsValid() bool {
	switch c {
	case CategoryID, CategoryGeneric:
		return true
	}
	return false
}

// Tables holds the lookup tables derived from a Registry.
// All accessors return copies; the tables never change after Build.
type Tables struct {
	idFieldClassification    map[string]string
	nonIDFieldClassification map[string]string
	defaultClassification    map[string]string
	defaultOrder             []string // keys of defaultClassification in insertion order

	classifiers     []string // first-seen order
	dropdownOptions []Option
	logicalTypesIDs []Option
	logicalTypesGen []Option

	severity         map[string]int
	idClassification string
	idLogicalTypes   map[string]struct{}
	customIDTypes    map[string]struct{}
	genericTypes     map[string]struct{}
	identifierTypes  []IdentifierType
	identifierIndex  map[string]struct{}
}

// Build derives every lookup table from reg. Registry defects (unknown
// classification values, missing display names, overlapping enumerations)
// are reported as errors.
func Build(reg *Registry) (*Tables, error) {
	t := &Tables{
		idFieldClassification:    make(map[string]string),
		nonIDFieldClassification: make(map[string]string),
		defaultClassification:    make(map[string]string),
		severity:                 make(map[string]int, len(reg.Classifications)),
		idLogicalTypes:           make(map[string]struct{}, len(reg.IDLogicalTypes)),
		customIDTypes:            make(map[string]struct{}, len(reg.CustomIDLogicalTypes)),
		genericTypes:             make(map[string]struct{}, len(reg.GenericLogicalTypes)),
		identifierIndex:          make(map[string]struct{}, len(reg.IdentifierTypes)),
		idClassification:         reg.IDClassification,
	}

	if len(reg.Classifications) == 0 {
		return nil, fmt.Errorf("registry declares no classifications")
	}
	for i, c := range reg.Classifications {
		if c == "" {
			return nil, fmt.Errorf("classification %d is empty", i)
		}
		if _, dup := t.severity[c]; dup {
			return nil, fmt.Errorf("classification %q declared twice", c)
		}
		t.severity[c] = i
	}
	if _, ok := t.severity[reg.IDClassification]; !ok {
		return nil, fmt.Errorf("id classification %q is not a declared classification", reg.IDClassification)
	}

	// Custom identifier types first, then the standard identifier types.
	for _, name := range reg.CustomIDLogicalTypes {
		if err := t.addID(name); err != nil {
			return nil, err
		}
		t.customIDTypes[name] = struct{}{}
	}
	for _, name := range reg.IDLogicalTypes {
		if err := t.addID(name); err != nil {
			return nil, err
		}
		t.idLogicalTypes[name] = struct{}{}
	}
	if _, ok := t.idLogicalTypes[DefaultMixedLogicalType]; !ok {
		return nil, fmt.Errorf("id logical types must include %q", DefaultMixedLogicalType)
	}

	for _, g := range reg.GenericLogicalTypes {
		if g.Name == "" {
			return nil, fmt.Errorf("generic logical type with empty name")
		}
		if _, collides := t.defaultClassification[g.Name]; collides {
			return nil, fmt.Errorf("logical type %q is both an identifier and a generic type", g.Name)
		}
		if _, ok := t.severity[g.Classification]; !ok {
			return nil, fmt.Errorf("logical type %q has unknown classification %q", g.Name, g.Classification)
		}
		if g.DisplayAs == "" {
			return nil, fmt.Errorf("logical type %q has no display name", g.Name)
		}
		t.nonIDFieldClassification[g.Name] = g.Classification
		t.genericTypes[g.Name] = struct{}{}
		t.put(g.Name, g.Classification)
		t.logicalTypesGen = append(t.logicalTypesGen, Option{Value: g.Name, Label: g.DisplayAs})
	}

	for _, name := range reg.IDLogicalTypes {
		t.logicalTypesIDs = append(t.logicalTypesIDs, Option{Value: name, Label: FormatIDLogicalTypeLabel(name)})
	}

	for _, it := range reg.IdentifierTypes {
		if it.Value == "" {
			return nil, fmt.Errorf("identifier type with empty value")
		}
		if _, dup := t.identifierIndex[it.Value]; dup {
			return nil, fmt.Errorf("identifier type %q declared twice", it.Value)
		}
		t.identifierIndex[it.Value] = struct{}{}
		t.identifierTypes = append(t.identifierTypes, it)
	}
	for _, required := range []string{IdentifierNone, IdentifierGeneric, IdentifierCustom} {
		if _, ok := t.identifierIndex[required]; !ok {
			return nil, fmt.Errorf("identifier types must include %q", required)
		}
	}

	t.buildClassifiers()
	return t, nil
}

func (t *Tables) addID(name string) error {
	if name == "" {
		return fmt.Errorf("identifier logical type with empty name")
	}
	if _, dup := t.defaultClassification[name]; dup {
		return fmt.Errorf("identifier logical type %q declared twice", name)
	}
	t.idFieldClassification[name] = t.idClassification
	t.put(name, t.idClassification)
	return nil
}

func (t *Tables) put(key, classification string) {
	t.defaultClassification[key] = classification
	t.defaultOrder = append(t.defaultOrder, key)
}

// buildClassifiers collects distinct classifications in first-seen order,
// then sorts a separate copy for the dropdown.
func (t *Tables) buildClassifiers() {
	seen := make(map[string]struct{})
	for _, key := range t.defaultOrder {
		c := t.defaultClassification[key]
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		t.classifiers = append(t.classifiers, c)
	}

	sorted := append([]string(nil), t.classifiers...)
	sort.Strings(sorted)

	t.dropdownOptions = make([]Option, 0, len(sorted)+1)
	t.dropdownOptions = append(t.dropdownOptions, Option{Value: "", Label: ClassificationPlaceholderLabel})
	for _, c := range sorted {
		t.dropdownOptions = append(t.dropdownOptions, Option{Value: c, Label: FormatClassificationLabel(c)})
	}
}

// IDFieldDataTypeClassification maps every identifier logical type to the
// limited-distribution classification.
func (t *Tables) IDFieldDataTypeClassification() map[string]string {
	return copyMap(t.idFieldClassification)
}

// NonIDFieldDataTypeClassification maps every generic logical type to its
// registered classification.
func (t *Tables) NonIDFieldDataTypeClassification() map[string]string {
	return copyMap(t.nonIDFieldClassification)
}

// DefaultFieldDataTypeClassification is the union of the identifier and
// generic classification maps.
func (t *Tables) DefaultFieldDataTypeClassification() map[string]string {
	return copyMap(t.defaultClassification)
}

// DefaultClassification returns the default classification for a logical type.
func (t *Tables) DefaultClassification(logicalType string) (string, bool) {
	c, ok := t.defaultClassification[logicalType]
	return c, ok
}

// Classifiers returns the distinct classifications of the default map in
// first-seen order.
func (t *Tables) Classifiers() []string {
	return append([]string(nil), t.classifiers...)
}

// SeverityOrder returns every registered classification from least to most
// restrictive.
func (t *Tables) SeverityOrder() []string {
	out := make([]string, len(t.severity))
	for c, rank := range t.severity {
		out[rank] = c
	}
	return out
}

// SecurityClassificationDropdownOptions returns the placeholder option
// followed by every classifier in ascending order.
func (t *Tables) SecurityClassificationDropdownOptions() []Option {
	return append([]Option(nil), t.dropdownOptions...)
}

// LogicalTypesForIDs returns the identifier logical types with derived labels.
func (t *Tables) LogicalTypesForIDs() []Option {
	return append([]Option(nil), t.logicalTypesIDs...)
}

// LogicalTypesForGeneric returns the generic logical types with their
// registered display names.
func (t *Tables) LogicalTypesForGeneric() []Option {
	return append([]Option(nil), t.logicalTypesGen...)
}

// LogicalTypeValueLabel returns the value/label list for a category.
// It panics on an unknown category.
func (t *Tables) LogicalTypeValueLabel(c Category) []Option {
	switch c {
	case CategoryID:
		return t.LogicalTypesForIDs()
	case CategoryGeneric:
		return t.LogicalTypesForGeneric()
	}
	panic(fmt.Sprintf("compliance: unknown logical type category %q", c))
}

// IdentifierTypes returns the registered field identifier types in registry order.
func (t *Tables) IdentifierTypes() []IdentifierType {
	return append([]IdentifierType(nil), t.identifierTypes...)
}

// IsIdentifierType reports whether v is a registered field identifier type.
func (t *Tables) IsIdentifierType(v string) bool {
	_, ok := t.identifierIndex[v]
	return ok
}

// IsClassification reports whether c is a declared classification value.
func (t *Tables) IsClassification(c string) bool {
	_, ok := t.severity[c]
	return ok
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
