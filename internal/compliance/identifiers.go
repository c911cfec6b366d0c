package compliance

// Field identifier type categories with special handling.
const (
	IdentifierNone    = "none"
	IdentifierGeneric = "generic"
	IdentifierCustom  = "custom"
)

// DefaultMixedLogicalType is the logical type pre-filled for mixed identifiers.
const DefaultMixedLogicalType = "URN"

// IsMixedID reports whether the identifier type is the generic (mixed) category.
func IsMixedID(identifierType string) bool {
	return identifierType == IdentifierGeneric
}

// IsCustomID reports whether the identifier type is the custom category.
func IsCustomID(identifierType string) bool {
	return identifierType == IdentifierCustom
}

// HasPredefinedFieldFormat reports whether the field format of the identifier
// type is fixed and must not be edited by the user.
func HasPredefinedFieldFormat(identifierType string) bool {
	return IsMixedID(identifierType) || IsCustomID(identifierType)
}

// DefaultLogicalType returns the logical type to pre-fill for an identifier
// type. ok is false when there is no default.
func DefaultLogicalType(identifierType string) (logicalType string, ok bool) {
	if IsMixedID(identifierType) {
		return DefaultMixedLogicalType, true
	}
	return "", false
}

// IsIDField reports whether the identifier type marks the field as an identifier.
func IsIDField(identifierType string) bool {
	return identifierType != "" && identifierType != IdentifierNone
}
