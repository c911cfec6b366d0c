package model

import (
	"fmt"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// Add appends a field error.
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// DatasetURNPrefix is the required prefix of every dataset URN.
const DatasetURNPrefix = "urn:li:dataset:"

// DatasetURN builds the canonical URN for a dataset on a platform.
func DatasetURN(platform, name string) string {
	return fmt.Sprintf("%s(urn:li:dataPlatform:%s,%s,PROD)", DatasetURNPrefix, platform, name)
}

// ValidateDataset checks a Dataset for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the dataset is valid.
func ValidateDataset(d *Dataset) error {
	var ve ValidationError

	name := strings.TrimSpace(d.Name)
	if name == "" {
		ve.Add("name", "is required")
	} else if len([]rune(name)) > 500 {
		ve.Add("name", "must be 500 characters or fewer")
	}

	if d.Platform == "" {
		ve.Add("platform", "is required")
	} else if !isPlatformName(d.Platform) {
		ve.Add("platform", fmt.Sprintf("invalid value %q", d.Platform))
	}

	if d.URN != "" && !strings.HasPrefix(d.URN, DatasetURNPrefix) {
		ve.Add("urn", "must start with "+DatasetURNPrefix)
	}

	if d.Schema != nil {
		if err := ValidateSchemaDefinition(d.Schema); err != nil {
			if sve, ok := err.(*ValidationError); ok {
				ve.Errors = append(ve.Errors, sve.Errors...)
			}
		}
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidateSchemaDefinition checks the structural consistency of a schema
// definition. An empty definition (no raw, no normalized schema) is valid.
func ValidateSchemaDefinition(s *SchemaDefinition) error {
	var ve ValidationError

	raw := s.RawSchema
	if raw != nil {
		raw = deref(raw)
	}
	switch rs := raw.(type) {
	case nil, Schemaless:
	case PrestoDDL:
		requireText(&ve, "rawSchema.prestoDDL.rawSchema", rs.RawSchema)
	case MySQLDDL:
		requireText(&ve, "rawSchema.mySqlDDL.tableSchema", rs.TableSchema)
	case OracleDDL:
		requireText(&ve, "rawSchema.oracleDDL.tableSchema", rs.TableSchema)
	case KafkaSchema:
		requireText(&ve, "rawSchema.kafkaSchema.documentSchema", rs.DocumentSchema)
	case EspressoSchema:
		requireText(&ve, "rawSchema.espressoSchema.documentSchema", rs.DocumentSchema)
		requireText(&ve, "rawSchema.espressoSchema.tableSchema", rs.TableSchema)
	case KeyValueSchema:
		requireText(&ve, "rawSchema.keyValueSchema.keySchema", rs.KeySchema)
		requireText(&ve, "rawSchema.keyValueSchema.valueSchema", rs.ValueSchema)
	case BinaryJSONSchema:
		requireText(&ve, "rawSchema.binaryJsonSchema.schema", rs.Schema)
	case OrcSchema:
		requireText(&ve, "rawSchema.orcSchema.schema", rs.Schema)
	default:
		ve.Add("rawSchema", fmt.Sprintf("unsupported variant %T", rs))
	}

	if s.NormalizedSchema != nil {
		seen := make(map[string]struct{}, len(s.NormalizedSchema.Fields))
		for i, f := range s.NormalizedSchema.Fields {
			path := strings.TrimSpace(f.FieldPath)
			if path == "" {
				ve.Add(fmt.Sprintf("normalizedSchema.fields[%d].fieldPath", i), "is required")
				continue
			}
			if _, dup := seen[path]; dup {
				ve.Add(fmt.Sprintf("normalizedSchema.fields[%d].fieldPath", i), fmt.Sprintf("duplicate path %q", path))
			}
			seen[path] = struct{}{}
		}
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

func requireText(ve *ValidationError, field, value string) {
	if strings.TrimSpace(value) == "" {
		ve.Add(field, "is required")
	}
}

func isPlatformName(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
