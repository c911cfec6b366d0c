package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jiaofangliang/datahub/internal/model"
	"github.com/jiaofangliang/datahub/internal/store"
	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint violation.
const uniqueViolation = "23505"

// datasetColumns is the column list used for SELECT statements on the datasets table.
const datasetColumns = `id, urn, platform, name, description, schema,
	created_at, created_by, updated_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryCreateDataset(ctx context.Context, db executor, ds *model.Dataset) error {
	schema, err := schemaBytes(ds.Schema)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO datasets (
			id, urn, platform, name, description, schema,
			created_at, created_by, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		ds.ID,
		ds.URN,
		ds.Platform,
		ds.Name,
		nullString(ds.Description),
		schema,
		ds.CreatedAt,
		nullString(ds.CreatedBy),
		ds.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("dataset %q: %w", ds.URN, store.ErrConflict)
	}
	return err
}

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike turns a search term into a literal substring for ILIKE.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func queryGetDataset(ctx context.Context, db executor, id string) (*model.Dataset, error) {
	row := db.QueryRowContext(ctx, `SELECT `+datasetColumns+` FROM datasets WHERE id = $1`, id)
	return scanDataset(row)
}

func queryGetDatasetByURN(ctx context.Context, db executor, urn string) (*model.Dataset, error) {
	row := db.QueryRowContext(ctx, `SELECT `+datasetColumns+` FROM datasets WHERE urn = $1`, urn)
	return scanDataset(row)
}

func queryListDatasets(ctx context.Context, db executor, filter model.DatasetFilter) ([]*model.Dataset, int, error) {
	var (
		whereClauses []string
		args         []any
		argIdx       int
	)

	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}

	if len(filter.Platform) > 0 {
		placeholders := make([]string, len(filter.Platform))
		for i, p := range filter.Platform {
			placeholders[i] = nextArg()
			args = append(args, p)
		}
		whereClauses = append(whereClauses, "platform IN ("+strings.Join(placeholders, ", ")+")")
	}

	if filter.Search != "" {
		p := nextArg()
		whereClauses = append(whereClauses,
			fmt.Sprintf(`(name ILIKE '%%' || %s || '%%' ESCAPE '\' OR urn ILIKE '%%' || %s || '%%' ESCAPE '\')`, p, p))
		args = append(args, escapeLike(filter.Search))
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	// Single query with COUNT(*) OVER() to get total and rows atomically.
	dataQuery := "SELECT COUNT(*) OVER() AS total_count, " + datasetColumns + " FROM datasets" + whereSQL + " ORDER BY " + parseSortClause(filter.Sort)

	if filter.Limit > 0 {
		dataQuery += " LIMIT " + nextArg()
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		dataQuery += " OFFSET " + nextArg()
		args = append(args, filter.Offset)
	}

	rows, err := db.QueryContext(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()

	var datasets []*model.Dataset
	var total int
	for rows.Next() {
		ds, t, err := scanDatasetWithTotal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan datasets: %w", err)
		}
		total = t
		datasets = append(datasets, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan datasets: %w", err)
	}

	return datasets, total, nil
}

func queryDeleteDataset(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func querySetSchema(ctx context.Context, db executor, id string, schema *model.SchemaDefinition) (*model.Dataset, error) {
	b, err := schemaBytes(schema)
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx, `
		UPDATE datasets SET schema = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+datasetColumns,
		id, b,
	)
	return scanDataset(row)
}

func queryGetCompliance(ctx context.Context, db executor, datasetID string) (*model.ComplianceInfo, error) {
	info := &model.ComplianceInfo{DatasetID: datasetID}
	var (
		classification sql.NullString
		updatedBy      sql.NullString
	)
	err := db.QueryRowContext(ctx, `
		SELECT dataset_classification, updated_at, updated_by
		FROM compliance WHERE dataset_id = $1`,
		datasetID,
	).Scan(&classification, &info.UpdatedAt, &updatedBy)
	if err != nil {
		return nil, err
	}
	info.DatasetClassification = classification.String
	info.UpdatedBy = updatedBy.String

	rows, err := db.QueryContext(ctx, `
		SELECT field_path, identifier_type, logical_type, security_classification,
			non_owner, value_pattern
		FROM compliance_annotations
		WHERE dataset_id = $1
		ORDER BY position ASC`,
		datasetID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	annotations, err := scanAnnotations(rows)
	if err != nil {
		return nil, err
	}
	info.Annotations = annotations
	return info, nil
}

// querySetCompliance replaces every annotation of the dataset. Callers should
// run it inside a transaction.
func querySetCompliance(ctx context.Context, db executor, info *model.ComplianceInfo) error {
	err := db.QueryRowContext(ctx, `
		INSERT INTO compliance (dataset_id, dataset_classification, updated_by)
		VALUES ($1, $2, $3)
		ON CONFLICT (dataset_id) DO UPDATE
		SET dataset_classification = $2, updated_by = $3, updated_at = NOW()
		RETURNING updated_at`,
		info.DatasetID, nullString(info.DatasetClassification), nullString(info.UpdatedBy),
	).Scan(&info.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert compliance: %w", err)
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM compliance_annotations WHERE dataset_id = $1`, info.DatasetID); err != nil {
		return fmt.Errorf("clear annotations: %w", err)
	}

	for i, a := range info.Annotations {
		_, err := db.ExecContext(ctx, `
			INSERT INTO compliance_annotations (
				dataset_id, position, field_path, identifier_type, logical_type,
				security_classification, non_owner, value_pattern
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			info.DatasetID,
			i,
			a.FieldPath,
			a.IdentifierType,
			nullString(a.LogicalType),
			nullString(a.SecurityClassification),
			a.NonOwner,
			nullString(a.ValuePattern),
		)
		if err != nil {
			return fmt.Errorf("insert annotation %q: %w", a.FieldPath, err)
		}
	}
	return nil
}

func queryRecordEvent(ctx context.Context, db executor, e *model.Event) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO events (topic, dataset_id, actor, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		e.Topic, e.DatasetID, nullString(e.Actor), jsonbBytes(e.Payload),
	).Scan(&e.ID, &e.CreatedAt)
}

func queryGetEvents(ctx context.Context, db executor, datasetID string) ([]*model.Event, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, topic, dataset_id, actor, payload, created_at
		FROM events
		WHERE dataset_id = $1
		ORDER BY created_at ASC, id ASC`,
		datasetID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func parseSortClause(sort string) string {
	if sort == "" {
		return "created_at DESC"
	}
	desc := strings.HasPrefix(sort, "-")
	col := strings.TrimPrefix(sort, "-")
	allowed := map[string]bool{
		"name": true, "platform": true, "urn": true,
		"created_at": true, "updated_at": true,
	}
	if !allowed[col] {
		return "created_at DESC"
	}
	if desc {
		return col + " DESC"
	}
	return col + " ASC"
}

// schemaBytes encodes a schema definition for the JSONB column; nil stays NULL.
func schemaBytes(s *model.SchemaDefinition) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	return b, nil
}
