package sync

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jiaofangliang/datahub/internal/model"
	"github.com/jiaofangliang/datahub/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version         string    `json:"version"`
	Type            string    `json:"type"`
	Timestamp       time.Time `json:"timestamp"`
	DatasetCount    int       `json:"dataset_count"`
	AnnotatedCount  int       `json:"annotated_count"`
	Classifications []string  `json:"classifications,omitempty"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// datasetRecord is a dataset with its compliance annotations embedded.
// Compliance is nil for datasets that were never annotated.
type datasetRecord struct {
	*model.Dataset
	Compliance *model.ComplianceInfo `json:"compliance,omitempty"`
}

// ExportJSONL writes every dataset in the store as JSONL to w, sorted by URN.
// classifications, when given, is recorded in the header so a reader can
// rank dataset classifications without the server's registry.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer, classifications ...string) error {
	datasets, _, err := s.ListDatasets(ctx, model.DatasetFilter{Sort: "created_at"})
	if err != nil {
		return fmt.Errorf("list datasets: %w", err)
	}

	sort.Slice(datasets, func(i, j int) bool {
		return datasets[i].URN < datasets[j].URN
	})

	records := make([]datasetRecord, 0, len(datasets))
	annotated := 0
	for _, ds := range datasets {
		info, err := s.GetCompliance(ctx, ds.ID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			info = nil
		case err != nil:
			return fmt.Errorf("get compliance for %s: %w", ds.ID, err)
		default:
			annotated++
		}
		records = append(records, datasetRecord{Dataset: ds, Compliance: info})
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:         "1",
		Type:            "header",
		Timestamp:       time.Now().UTC(),
		DatasetCount:    len(records),
		AnnotatedCount:  annotated,
		Classifications: classifications,
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, r := range records {
		if err := enc.Encode(record{Type: "dataset", Data: r}); err != nil {
			return fmt.Errorf("encode dataset %s: %w", r.ID, err)
		}
	}
	return nil
}
