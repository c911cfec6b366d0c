// Package events defines the dataset lifecycle topics published on the event
// bus and the publisher/subscriber implementations.
package events

import (
	"context"

	"github.com/jiaofangliang/datahub/internal/model"
)

// AllTopics is the wildcard subject matching every topic below.
const AllTopics = "datahub.>"

// Event topic constants
const (
	TopicDatasetCreated    = "datahub.dataset.created"
	TopicDatasetDeleted    = "datahub.dataset.deleted"
	TopicSchemaUpdated     = "datahub.schema.updated"
	TopicComplianceUpdated = "datahub.compliance.updated"
)

// Event types

type DatasetCreated struct {
	Dataset *model.Dataset `json:"dataset"`
}

type DatasetDeleted struct {
	DatasetID string `json:"dataset_id"`
	URN       string `json:"urn"`
}

type SchemaUpdated struct {
	DatasetID string                  `json:"dataset_id"`
	Schema    *model.SchemaDefinition `json:"schema,omitempty"`
}

// ComplianceUpdated carries the stored annotations together with the
// classification they were rolled up to.
type ComplianceUpdated struct {
	Compliance *model.ComplianceInfo `json:"compliance"`
	// PreviousClassification is empty when the dataset had no compliance record.
	PreviousClassification string `json:"previous_classification,omitempty"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
