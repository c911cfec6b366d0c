package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jiaofangliang/datahub/internal/events"
	"github.com/jiaofangliang/datahub/internal/idgen"
	"github.com/jiaofangliang/datahub/internal/model"
	"github.com/jiaofangliang/datahub/internal/store"
)

// maxListLimit caps the page size of dataset listings.
const maxListLimit = 500

// createDatasetInput holds transport-agnostic parameters for creating a dataset.
type createDatasetInput struct {
	URN         string                  `json:"urn"`
	Platform    string                  `json:"platform"`
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Schema      *model.SchemaDefinition `json:"schema"`
	CreatedBy   string                  `json:"created_by"`
}

// createDataset validates input, persists a new dataset, and publishes a
// DatasetCreated event. The URN is derived from platform and name when not given.
func (s *DatasetServer) createDataset(ctx context.Context, in createDatasetInput) (*model.Dataset, error) {
	name := strings.TrimSpace(in.Name)
	urn := in.URN
	if urn == "" && name != "" && in.Platform != "" {
		urn = model.DatasetURN(in.Platform, name)
	}

	now := time.Now().UTC()
	ds := &model.Dataset{
		URN:         urn,
		Platform:    in.Platform,
		Name:        name,
		Description: in.Description,
		Schema:      in.Schema,
		CreatedAt:   now,
		CreatedBy:   in.CreatedBy,
		UpdatedAt:   now,
	}
	if err := model.ValidateDataset(ds); err != nil {
		return nil, inputError("invalid dataset: " + err.Error())
	}

	if _, err := s.store.GetDatasetByURN(ctx, urn); err == nil {
		return nil, conflictError(fmt.Sprintf("dataset %q already exists", urn))
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up dataset: %w", err)
	}

	id, err := idgen.NewDatasetID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID: %w", err)
	}
	ds.ID = id

	// A concurrent create can still win the race on the unique URN.
	if err := s.store.CreateDataset(ctx, ds); errors.Is(err, store.ErrConflict) {
		return nil, conflictError(fmt.Sprintf("dataset %q already exists", urn))
	} else if err != nil {
		return nil, fmt.Errorf("failed to create dataset: %w", err)
	}

	s.recordAndPublish(ctx, events.TopicDatasetCreated, ds.ID, ds.CreatedBy, events.DatasetCreated{Dataset: ds})
	return ds, nil
}

// getDataset looks a dataset up by ID, or by URN when ref is a dataset URN.
func (s *DatasetServer) getDataset(ctx context.Context, ref string) (*model.Dataset, error) {
	if ref == "" {
		return nil, inputError("id is required")
	}
	if strings.HasPrefix(ref, model.DatasetURNPrefix) {
		return s.store.GetDatasetByURN(ctx, ref)
	}
	return s.store.GetDataset(ctx, ref)
}

func (s *DatasetServer) listDatasets(ctx context.Context, filter model.DatasetFilter) ([]*model.Dataset, int, error) {
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, 0, inputError("limit and offset must not be negative")
	}
	if filter.Limit == 0 || filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	datasets, total, err := s.store.ListDatasets(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if datasets == nil {
		datasets = []*model.Dataset{}
	}
	return datasets, total, nil
}

// deleteDataset removes a dataset together with its compliance record.
func (s *DatasetServer) deleteDataset(ctx context.Context, ref, actor string) error {
	ds, err := s.getDataset(ctx, ref)
	if err != nil {
		return err
	}
	if err := s.store.DeleteDataset(ctx, ds.ID); err != nil {
		return err
	}
	s.recordAndPublish(ctx, events.TopicDatasetDeleted, ds.ID, actor, events.DatasetDeleted{DatasetID: ds.ID, URN: ds.URN})
	return nil
}

// setSchemaInput holds the replacement schema definition of a dataset.
type setSchemaInput struct {
	Schema    *model.SchemaDefinition `json:"schema"`
	UpdatedBy string                  `json:"updated_by"`
}

// setSchema replaces the schema definition of a dataset. A nil schema clears it.
// A normalized schema that leaves stored annotations without their field is
// rejected, so the dataset classification never counts fields that are gone.
func (s *DatasetServer) setSchema(ctx context.Context, ref string, in setSchemaInput) (*model.Dataset, error) {
	if in.Schema != nil {
		if err := model.ValidateSchemaDefinition(in.Schema); err != nil {
			return nil, inputError("invalid schema: " + err.Error())
		}
	}
	ds, err := s.getDataset(ctx, ref)
	if err != nil {
		return nil, err
	}

	var updated *model.Dataset
	err = s.store.RunInTransaction(ctx, func(tx store.Store) error {
		info, err := tx.GetCompliance(ctx, ds.ID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return fmt.Errorf("failed to read compliance: %w", err)
		default:
			if orphaned := orphanedFields(info.Annotations, in.Schema); len(orphaned) > 0 {
				return inputError(fmt.Sprintf("schema drops annotated fields %s; update the compliance annotations first",
					strings.Join(orphaned, ", ")))
			}
		}
		updated, err = tx.SetSchema(ctx, ds.ID, in.Schema)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.recordAndPublish(ctx, events.TopicSchemaUpdated, ds.ID, in.UpdatedBy, events.SchemaUpdated{DatasetID: ds.ID, Schema: in.Schema})
	return updated, nil
}

// orphanedFields returns the quoted paths of annotations that the normalized
// schema of sd does not declare. A schema without a normalized part orphans nothing.
func orphanedFields(annotations []model.FieldAnnotation, sd *model.SchemaDefinition) []string {
	if sd == nil || sd.NormalizedSchema == nil {
		return nil
	}
	var out []string
	for _, a := range annotations {
		if !sd.NormalizedSchema.HasField(a.FieldPath) {
			out = append(out, strconv.Quote(a.FieldPath))
		}
	}
	return out
}

func (s *DatasetServer) getEvents(ctx context.Context, ref string) ([]*model.Event, error) {
	ds, err := s.getDataset(ctx, ref)
	if err != nil {
		return nil, err
	}
	evts, err := s.store.GetEvents(ctx, ds.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	if evts == nil {
		evts = []*model.Event{}
	}
	return evts, nil
}
