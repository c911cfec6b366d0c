package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jiaofangliang/datahub/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// datasetRow holds the nullable columns of a datasets row while scanning.
type datasetRow struct {
	description sql.NullString
	schema      []byte
	createdBy   sql.NullString
}

func (r *datasetRow) dest(ds *model.Dataset) []any {
	return []any{
		&ds.ID,
		&ds.URN,
		&ds.Platform,
		&ds.Name,
		&r.description,
		&r.schema,
		&ds.CreatedAt,
		&r.createdBy,
		&ds.UpdatedAt,
	}
}

func (r *datasetRow) apply(ds *model.Dataset) error {
	ds.Description = r.description.String
	ds.CreatedBy = r.createdBy.String
	if len(r.schema) > 0 {
		var s model.SchemaDefinition
		if err := json.Unmarshal(r.schema, &s); err != nil {
			return fmt.Errorf("decode schema of %s: %w", ds.ID, err)
		}
		ds.Schema = &s
	}
	return nil
}

// scanDataset scans a single row into a model.Dataset.
// The row must contain columns in the order defined by datasetColumns.
func scanDataset(row scannable) (*model.Dataset, error) {
	var (
		ds model.Dataset
		r  datasetRow
	)
	if err := row.Scan(r.dest(&ds)...); err != nil {
		return nil, err
	}
	if err := r.apply(&ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

// scanDatasetWithTotal scans a row that has a leading total_count column
// followed by the standard dataset columns. Used by queryListDatasets with
// COUNT(*) OVER().
func scanDatasetWithTotal(row scannable) (*model.Dataset, int, error) {
	var (
		total int
		ds    model.Dataset
		r     datasetRow
	)
	if err := row.Scan(append([]any{&total}, r.dest(&ds)...)...); err != nil {
		return nil, 0, err
	}
	if err := r.apply(&ds); err != nil {
		return nil, 0, err
	}
	return &ds, total, nil
}

// scanAnnotation scans a single compliance_annotations row.
func scanAnnotation(row scannable) (model.FieldAnnotation, error) {
	var (
		a              model.FieldAnnotation
		logicalType    sql.NullString
		classification sql.NullString
		valuePattern   sql.NullString
	)
	err := row.Scan(
		&a.FieldPath,
		&a.IdentifierType,
		&logicalType,
		&classification,
		&a.NonOwner,
		&valuePattern,
	)
	if err != nil {
		return a, err
	}
	a.LogicalType = logicalType.String
	a.SecurityClassification = classification.String
	a.ValuePattern = valuePattern.String
	return a, nil
}

// scanAnnotations scans multiple rows into a slice of annotations.
// The result is never nil so an empty set encodes as [].
func scanAnnotations(rows *sql.Rows) ([]model.FieldAnnotation, error) {
	annotations := []model.FieldAnnotation{}
	for rows.Next() {
		a, err := scanAnnotation(rows)
		if err != nil {
			return nil, err
		}
		annotations = append(annotations, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return annotations, nil
}

// scanEvent scans a single row into a model.Event.
func scanEvent(row scannable) (*model.Event, error) {
	var e model.Event
	var (
		actor   sql.NullString
		payload []byte
	)
	err := row.Scan(&e.ID, &e.Topic, &e.DatasetID, &actor, &payload, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.Actor = actor.String
	if len(payload) > 0 {
		e.Payload = json.RawMessage(payload)
	}
	return &e, nil
}

// scanEvents scans multiple rows into a slice of model.Event pointers.
func scanEvents(rows *sql.Rows) ([]*model.Event, error) {
	var events []*model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// nullString converts a string to sql.NullString; empty string is null.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// jsonbBytes converts json.RawMessage to a []byte suitable for JSONB columns.
func jsonbBytes(m json.RawMessage) []byte {
	if len(m) == 0 {
		return nil
	}
	return []byte(m)
}
