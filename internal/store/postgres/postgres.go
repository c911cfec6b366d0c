// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/jiaofangliang/datahub/internal/model"
	"github.com/jiaofangliang/datahub/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateDataset(ctx context.Context, ds *model.Dataset) error {
	return queryCreateDataset(ctx, s.db, ds)
}

func (s *PostgresStore) GetDataset(ctx context.Context, id string) (*model.Dataset, error) {
	return queryGetDataset(ctx, s.db, id)
}

func (s *PostgresStore) GetDatasetByURN(ctx context.Context, urn string) (*model.Dataset, error) {
	return queryGetDatasetByURN(ctx, s.db, urn)
}

func (s *PostgresStore) ListDatasets(ctx context.Context, filter model.DatasetFilter) ([]*model.Dataset, int, error) {
	return queryListDatasets(ctx, s.db, filter)
}

func (s *PostgresStore) DeleteDataset(ctx context.Context, id string) error {
	return queryDeleteDataset(ctx, s.db, id)
}

func (s *PostgresStore) SetSchema(ctx context.Context, id string, schema *model.SchemaDefinition) (*model.Dataset, error) {
	return querySetSchema(ctx, s.db, id, schema)
}

func (s *PostgresStore) GetCompliance(ctx context.Context, datasetID string) (*model.ComplianceInfo, error) {
	return queryGetCompliance(ctx, s.db, datasetID)
}

func (s *PostgresStore) RecordEvent(ctx context.Context, event *model.Event) error {
	return queryRecordEvent(ctx, s.db, event)
}

func (s *PostgresStore) GetEvents(ctx context.Context, datasetID string) ([]*model.Event, error) {
	return queryGetEvents(ctx, s.db, datasetID)
}

// SetCompliance replaces the dataset's compliance record and annotations in a
// single transaction.
func (s *PostgresStore) SetCompliance(ctx context.Context, info *model.ComplianceInfo) error {
	return s.RunInTransaction(ctx, func(tx store.Store) error {
		return tx.SetCompliance(ctx, info)
	})
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txS := &txStore{tx: tx}
	if err := fn(txS); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

func (s *txStore) CreateDataset(ctx context.Context, ds *model.Dataset) error {
	return queryCreateDataset(ctx, s.tx, ds)
}

func (s *txStore) GetDataset(ctx context.Context, id string) (*model.Dataset, error) {
	return queryGetDataset(ctx, s.tx, id)
}

func (s *txStore) GetDatasetByURN(ctx context.Context, urn string) (*model.Dataset, error) {
	return queryGetDatasetByURN(ctx, s.tx, urn)
}

func (s *txStore) ListDatasets(ctx context.Context, filter model.DatasetFilter) ([]*model.Dataset, int, error) {
	return queryListDatasets(ctx, s.tx, filter)
}

func (s *txStore) DeleteDataset(ctx context.Context, id string) error {
	return queryDeleteDataset(ctx, s.tx, id)
}

func (s *txStore) SetSchema(ctx context.Context, id string, schema *model.SchemaDefinition) (*model.Dataset, error) {
	return querySetSchema(ctx, s.tx, id, schema)
}

func (s *txStore) GetCompliance(ctx context.Context, datasetID string) (*model.ComplianceInfo, error) {
	return queryGetCompliance(ctx, s.tx, datasetID)
}

func (s *txStore) RecordEvent(ctx context.Context, event *model.Event) error {
	return queryRecordEvent(ctx, s.tx, event)
}

func (s *txStore) GetEvents(ctx context.Context, datasetID string) ([]*model.Event, error) {
	return queryGetEvents(ctx, s.tx, datasetID)
}

func (s *txStore) SetCompliance(ctx context.Context, info *model.ComplianceInfo) error {
	return querySetCompliance(ctx, s.tx, info)
}

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
