package store

import (
	"context"
	"errors"

	"github.com/jiaofangliang/datahub/internal/model"
)

// ErrConflict is returned when a write collides with a unique constraint,
// such as creating a second dataset with an existing URN.
var ErrConflict = errors.New("conflict")

// Store defines the persistence interface for datasets and their compliance metadata.
// Lookups of missing rows return sql.ErrNoRows.
type Store interface {
	// Datasets
	CreateDataset(ctx context.Context, ds *model.Dataset) error
	GetDataset(ctx context.Context, id string) (*model.Dataset, error)
	GetDatasetByURN(ctx context.Context, urn string) (*model.Dataset, error)
	ListDatasets(ctx context.Context, filter model.DatasetFilter) ([]*model.Dataset, int, error) // returns datasets, total count, error
	DeleteDataset(ctx context.Context, id string) error

	// SetSchema replaces the schema definition; a nil schema clears it.
	SetSchema(ctx context.Context, id string, schema *model.SchemaDefinition) (*model.Dataset, error)

	// Compliance
	GetCompliance(ctx context.Context, datasetID string) (*model.ComplianceInfo, error)
	SetCompliance(ctx context.Context, info *model.ComplianceInfo) error

	// Events
	RecordEvent(ctx context.Context, event *model.Event) error
	GetEvents(ctx context.Context, datasetID string) ([]*model.Event, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
