package model

import "time"

// FieldAnnotation is the compliance entry for a single schema field.
type FieldAnnotation struct {
	FieldPath              string `json:"fieldPath"`
	IdentifierType         string `json:"identifierType"`
	LogicalType            string `json:"logicalType,omitempty"`
	SecurityClassification string `json:"securityClassification,omitempty"`
	NonOwner               bool   `json:"nonOwner,omitempty"`
	ValuePattern           string `json:"valuePattern,omitempty"`
}

// ComplianceInfo holds every field annotation of a dataset.
// DatasetClassification is derived from the annotations on write.
type ComplianceInfo struct {
	DatasetID             string            `json:"dataset_id"`
	Annotations           []FieldAnnotation `json:"annotations"`
	DatasetClassification string            `json:"dataset_classification,omitempty"`
	UpdatedAt             time.Time         `json:"updated_at"`
	UpdatedBy             string            `json:"updated_by,omitempty"`
}
