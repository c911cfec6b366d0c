package compliance

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jiaofangliang/datahub/internal/model"
)

// ApplyDefaults fills the derived parts of an annotation in place: the fixed
// logical type of mixed identifiers and the default classification of the
// logical type. The field path is trimmed so the stored path is the one
// ValidateAnnotations checked.
func (t *Tables) ApplyDefaults(a *model.FieldAnnotation) {
	a.FieldPath = strings.TrimSpace(a.FieldPath)
	if lt, ok := DefaultLogicalType(a.IdentifierType); ok {
		a.LogicalType = lt
	}
	if a.SecurityClassification != "" {
		return
	}
	if c, ok := t.DefaultClassification(a.LogicalType); ok {
		a.SecurityClassification = c
		return
	}
	if IsIDField(a.IdentifierType) {
		a.SecurityClassification = t.idClassification
	}
}

// ValidateAnnotations checks a set of field annotations against the tables
// and, when it has a normalized schema, against the dataset schema.
// It returns a *model.ValidationError, or nil when every annotation is valid.
func (t *Tables) ValidateAnnotations(annotations []model.FieldAnnotation, schema *model.SchemaDefinition) error {
	var ve model.ValidationError
	seen := make(map[string]struct{}, len(annotations))

	var normalized *model.NormalizedSchema
	if schema != nil {
		normalized = schema.NormalizedSchema
	}

	for i, a := range annotations {
		prefix := fmt.Sprintf("annotations[%d]", i)

		path := strings.TrimSpace(a.FieldPath)
		if path == "" {
			ve.Add(prefix+".fieldPath", "is required")
		} else {
			if _, dup := seen[path]; dup {
				ve.Add(prefix+".fieldPath", fmt.Sprintf("duplicate path %q", path))
			}
			seen[path] = struct{}{}
			if normalized != nil && !normalized.HasField(path) {
				ve.Add(prefix+".fieldPath", fmt.Sprintf("%q is not in the dataset schema", path))
			}
		}

		if a.IdentifierType == "" {
			ve.Add(prefix+".identifierType", "is required")
		} else if !t.IsIdentifierType(a.IdentifierType) {
			ve.Add(prefix+".identifierType", fmt.Sprintf("invalid value %q", a.IdentifierType))
		} else if msg := t.logicalTypeMismatch(a); msg != "" {
			ve.Add(prefix+".logicalType", msg)
		}

		if IsCustomID(a.IdentifierType) {
			if a.ValuePattern == "" {
				ve.Add(prefix+".valuePattern", "is required for custom identifiers")
			} else if _, err := regexp.Compile(a.ValuePattern); err != nil {
				ve.Add(prefix+".valuePattern", "must be a valid regular expression")
			}
		}

		if a.SecurityClassification != "" && !t.IsClassification(a.SecurityClassification) {
			ve.Add(prefix+".securityClassification", fmt.Sprintf("invalid value %q", a.SecurityClassification))
		}
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// logicalTypeMismatch returns a message when the logical type is not allowed
// for the annotation's identifier type.
func (t *Tables) logicalTypeMismatch(a model.FieldAnnotation) string {
	lt := a.LogicalType
	switch {
	case IsMixedID(a.IdentifierType):
		if lt != DefaultMixedLogicalType {
			return fmt.Sprintf("must be %q for mixed identifiers", DefaultMixedLogicalType)
		}
	case IsCustomID(a.IdentifierType):
		if _, ok := t.customIDTypes[lt]; lt != "" && !ok {
			return fmt.Sprintf("%q is not a custom identifier logical type", lt)
		}
	case IsIDField(a.IdentifierType):
		if _, ok := t.idLogicalTypes[lt]; lt != "" && !ok {
			return fmt.Sprintf("%q is not an identifier logical type", lt)
		}
	default:
		if _, ok := t.genericTypes[lt]; lt != "" && !ok {
			return fmt.Sprintf("%q is not a generic logical type", lt)
		}
	}
	return ""
}

// DatasetClassification returns the most restrictive classification across
// the annotations, or "" when none is classified.
func (t *Tables) DatasetClassification(annotations []model.FieldAnnotation) string {
	best, bestRank := "", -1
	for _, a := range annotations {
		rank, ok := t.severity[a.SecurityClassification]
		if ok && rank > bestRank {
			best, bestRank = a.SecurityClassification, rank
		}
	}
	return best
}
