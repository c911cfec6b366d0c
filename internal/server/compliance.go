package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jiaofangliang/datahub/internal/compliance"
	"github.com/jiaofangliang/datahub/internal/events"
	"github.com/jiaofangliang/datahub/internal/model"
	"github.com/jiaofangliang/datahub/internal/store"
)

// classificationDefaults is the response of the defaults lookup: the merged
// map plus the two maps it was built from.
type classificationDefaults struct {
	Defaults    map[string]string `json:"defaults"`
	IDFields    map[string]string `json:"id_fields"`
	NonIDFields map[string]string `json:"non_id_fields"`
	Classifiers []string          `json:"classifiers"`
	// SeverityOrder lists classifications from least to most restrictive.
	SeverityOrder []string `json:"severity_order"`
}

func (s *DatasetServer) classificationDefaults() classificationDefaults {
	return classificationDefaults{
		Defaults:      s.tables.DefaultFieldDataTypeClassification(),
		IDFields:      s.tables.IDFieldDataTypeClassification(),
		NonIDFields:   s.tables.NonIDFieldDataTypeClassification(),
		Classifiers:   s.tables.Classifiers(),
		SeverityOrder: s.tables.SeverityOrder(),
	}
}

// logicalTypes returns the value/label list for a category name.
func (s *DatasetServer) logicalTypes(category string) ([]compliance.Option, error) {
	c := compliance.Category(category)
	if !c.IsValid() {
		return nil, inputError(fmt.Sprintf("invalid category %q (want %q or %q)", category, compliance.CategoryID, compliance.CategoryGeneric))
	}
	return s.tables.LogicalTypeValueLabel(c), nil
}

// identifierInfo describes how the compliance form treats one field
// identifier type.
type identifierInfo struct {
	Value                    string `json:"value"`
	DisplayAs                string `json:"display_as"`
	IsIDField                bool   `json:"is_id_field"`
	IsMixedID                bool   `json:"is_mixed_id"`
	IsCustomID               bool   `json:"is_custom_id"`
	HasPredefinedFieldFormat bool   `json:"has_predefined_field_format"`
	DefaultLogicalType       string `json:"default_logical_type,omitempty"`
}

func newIdentifierInfo(it compliance.IdentifierType) identifierInfo {
	lt, _ := compliance.DefaultLogicalType(it.Value)
	return identifierInfo{
		Value:                    it.Value,
		DisplayAs:                it.DisplayAs,
		IsIDField:                compliance.IsIDField(it.Value),
		IsMixedID:                compliance.IsMixedID(it.Value),
		IsCustomID:               compliance.IsCustomID(it.Value),
		HasPredefinedFieldFormat: compliance.HasPredefinedFieldFormat(it.Value),
		DefaultLogicalType:       lt,
	}
}

func (s *DatasetServer) identifierTypes() []identifierInfo {
	types := s.tables.IdentifierTypes()
	out := make([]identifierInfo, 0, len(types))
	for _, it := range types {
		out = append(out, newIdentifierInfo(it))
	}
	return out
}

func (s *DatasetServer) identifierType(value string) (identifierInfo, error) {
	if value == "" {
		return identifierInfo{}, inputError("identifier type is required")
	}
	for _, it := range s.tables.IdentifierTypes() {
		if it.Value == value {
			return newIdentifierInfo(it), nil
		}
	}
	return identifierInfo{}, notFoundError(fmt.Sprintf("identifier type %q not found", value))
}

// getCompliance returns the compliance record of a dataset. A dataset that
// was never annotated yields an empty record.
func (s *DatasetServer) getCompliance(ctx context.Context, ref string) (*model.ComplianceInfo, error) {
	ds, err := s.getDataset(ctx, ref)
	if err != nil {
		return nil, err
	}
	info, err := s.store.GetCompliance(ctx, ds.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return &model.ComplianceInfo{DatasetID: ds.ID, Annotations: []model.FieldAnnotation{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get compliance: %w", err)
	}
	if info.Annotations == nil {
		info.Annotations = []model.FieldAnnotation{}
	}
	return info, nil
}

// setComplianceInput holds the full replacement annotation set of a dataset.
type setComplianceInput struct {
	Annotations []model.FieldAnnotation `json:"annotations"`
	UpdatedBy   string                  `json:"updated_by"`
}

// setCompliance fills annotation defaults, validates the result against the
// lookup tables and the dataset schema, derives the dataset classification,
// and replaces the stored record.
func (s *DatasetServer) setCompliance(ctx context.Context, ref string, in setComplianceInput) (*model.ComplianceInfo, error) {
	ds, err := s.getDataset(ctx, ref)
	if err != nil {
		return nil, err
	}

	annotations := make([]model.FieldAnnotation, len(in.Annotations))
	copy(annotations, in.Annotations)
	for i := range annotations {
		s.tables.ApplyDefaults(&annotations[i])
	}
	if err := s.tables.ValidateAnnotations(annotations, ds.Schema); err != nil {
		return nil, inputError("invalid compliance: " + err.Error())
	}

	info := &model.ComplianceInfo{
		DatasetID:             ds.ID,
		Annotations:           annotations,
		DatasetClassification: s.tables.DatasetClassification(annotations),
		UpdatedBy:             in.UpdatedBy,
	}

	var previous string
	err = s.store.RunInTransaction(ctx, func(tx store.Store) error {
		prev, err := tx.GetCompliance(ctx, ds.ID)
		switch {
		case err == nil:
			previous = prev.DatasetClassification
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("failed to read compliance: %w", err)
		}
		if err := tx.SetCompliance(ctx, info); err != nil {
			return fmt.Errorf("failed to store compliance: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAndPublish(ctx, events.TopicComplianceUpdated, ds.ID, in.UpdatedBy, events.ComplianceUpdated{
		Compliance:             info,
		PreviousClassification: previous,
	})
	return info, nil
}
