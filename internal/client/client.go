// Package client provides a transport-agnostic interface to the dataset
// compliance service, with HTTP/JSON and gRPC implementations.
package client

import (
	"context"

	"github.com/jiaofangliang/datahub/internal/compliance"
	"github.com/jiaofangliang/datahub/internal/model"
)

// Client is the interface that all dhc CLI commands use to talk to the server.
// Dataset arguments named ref accept either a dataset ID or a dataset URN.
type Client interface {
	// Lookup tables
	Classifications(ctx context.Context) ([]compliance.Option, error)
	ClassificationDefaults(ctx context.Context) (*ClassificationDefaults, error)
	LogicalTypes(ctx context.Context, category string) ([]compliance.Option, error)
	IdentifierTypes(ctx context.Context) ([]IdentifierType, error)
	IdentifierType(ctx context.Context, value string) (*IdentifierType, error)

	// Datasets
	CreateDataset(ctx context.Context, req *CreateDatasetRequest) (*model.Dataset, error)
	ListDatasets(ctx context.Context, req *ListDatasetsRequest) (*ListDatasetsResponse, error)
	GetDataset(ctx context.Context, ref string) (*model.Dataset, error)
	DeleteDataset(ctx context.Context, ref, actor string) error
	SetSchema(ctx context.Context, ref string, schema *model.SchemaDefinition, updatedBy string) (*model.Dataset, error)

	// Compliance
	GetCompliance(ctx context.Context, ref string) (*model.ComplianceInfo, error)
	SetCompliance(ctx context.Context, ref string, req *SetComplianceRequest) (*model.ComplianceInfo, error)

	// Events
	GetEvents(ctx context.Context, ref string) ([]*model.Event, error)

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// ClassificationDefaults holds the default classification of every logical type.
type ClassificationDefaults struct {
	Defaults    map[string]string `json:"defaults"`
	IDFields    map[string]string `json:"id_fields"`
	NonIDFields map[string]string `json:"non_id_fields"`
	Classifiers []string          `json:"classifiers"`
	// SeverityOrder lists classifications from least to most restrictive.
	SeverityOrder []string `json:"severity_order"`
}

// IdentifierType describes how the compliance form treats a field identifier type.
type IdentifierType struct {
	Value                    string `json:"value"`
	DisplayAs                string `json:"display_as"`
	IsIDField                bool   `json:"is_id_field"`
	IsMixedID                bool   `json:"is_mixed_id"`
	IsCustomID               bool   `json:"is_custom_id"`
	HasPredefinedFieldFormat bool   `json:"has_predefined_field_format"`
	DefaultLogicalType       string `json:"default_logical_type,omitempty"`
}

// CreateDatasetRequest holds parameters for creating a dataset.
// URN may be left empty to derive it from platform and name.
type CreateDatasetRequest struct {
	URN         string                  `json:"urn,omitempty"`
	Platform    string                  `json:"platform"`
	Name        string                  `json:"name"`
	Description string                  `json:"description,omitempty"`
	Schema      *model.SchemaDefinition `json:"schema,omitempty"`
	CreatedBy   string                  `json:"created_by,omitempty"`
}

// ListDatasetsRequest holds parameters for listing datasets.
type ListDatasetsRequest struct {
	Platform []string `json:"platform,omitempty"`
	Search   string   `json:"search,omitempty"`
	Sort     string   `json:"sort,omitempty"`
	Limit    int      `json:"limit,omitempty"`
	Offset   int      `json:"offset,omitempty"`
}

// ListDatasetsResponse is the response from ListDatasets.
type ListDatasetsResponse struct {
	Datasets []*model.Dataset `json:"datasets"`
	Total    int              `json:"total"`
}

// SetComplianceRequest replaces every annotation of a dataset.
type SetComplianceRequest struct {
	Annotations []model.FieldAnnotation `json:"annotations"`
	UpdatedBy   string                  `json:"updated_by,omitempty"`
}
