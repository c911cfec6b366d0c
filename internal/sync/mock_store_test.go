package sync

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"

	"github.com/jiaofangliang/datahub/internal/model"
	"github.com/jiaofangliang/datahub/internal/store"
)

// mockStore is a minimal in-memory store for sync tests.
type mockStore struct {
	mu         sync.Mutex
	datasets   map[string]*model.Dataset
	compliance map[string]*model.ComplianceInfo

	complianceErr error // returned by GetCompliance when set
}

func newMockStore() *mockStore {
	return &mockStore{
		datasets:   make(map[string]*model.Dataset),
		compliance: make(map[string]*model.ComplianceInfo),
	}
}

func (m *mockStore) CreateDataset(_ context.Context, ds *model.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.datasets[ds.ID] = ds
	return nil
}

func (m *mockStore) GetDataset(_ context.Context, id string) (*model.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ds, ok := m.datasets[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return ds, nil
}

func (m *mockStore) GetDatasetByURN(_ context.Context, urn string) (*model.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ds := range m.datasets {
		if ds.URN == urn {
			return ds, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStore) ListDatasets(_ context.Context, _ model.DatasetFilter) ([]*model.Dataset, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.Dataset
	for _, ds := range m.datasets {
		result = append(result, ds)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, len(result), nil
}

func (m *mockStore) DeleteDataset(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.datasets, id)
	return nil
}

func (m *mockStore) SetSchema(_ context.Context, id string, schema *model.SchemaDefinition) (*model.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ds, ok := m.datasets[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	ds.Schema = schema
	return ds, nil
}

func (m *mockStore) GetCompliance(_ context.Context, datasetID string) (*model.ComplianceInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.complianceErr != nil {
		return nil, m.complianceErr
	}
	info, ok := m.compliance[datasetID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return info, nil
}

func (m *mockStore) SetCompliance(_ context.Context, info *model.ComplianceInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.datasets[info.DatasetID]; !ok {
		return errors.New("unknown dataset")
	}
	m.compliance[info.DatasetID] = info
	return nil
}

func (m *mockStore) RecordEvent(_ context.Context, _ *model.Event) error {
	return nil
}

func (m *mockStore) GetEvents(_ context.Context, _ string) ([]*model.Event, error) {
	return nil, nil
}

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *mockStore) Close() error {
	return nil
}
