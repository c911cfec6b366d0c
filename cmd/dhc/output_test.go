package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/jiaofangliang/datahub/internal/client"
	"github.com/jiaofangliang/datahub/internal/model"
	"github.com/jiaofangliang/datahub/internal/ui"
)

func TestSchemaSummary(t *testing.T) {
	ui.ForceNoColor()
	tests := []struct {
		name string
		sd   *model.SchemaDefinition
		want string
	}{
		{"Nil", nil, "(none)"},
		{"Empty", &model.SchemaDefinition{}, "(empty)"},
		{"RawOnly", &model.SchemaDefinition{RawSchema: model.OrcSchema{Schema: "struct<a:int>"}}, "raw orcSchema"},
		{"Both", &model.SchemaDefinition{
			RawSchema:        model.MySQLDDL{TableSchema: "CREATE TABLE t (a INT)"},
			NormalizedSchema: &model.NormalizedSchema{Fields: []model.SchemaField{{FieldPath: "a"}, {FieldPath: "b"}}},
		}, "raw mySqlDDL, 2 normalized fields"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := schemaSummary(tc.sd); got != tc.want {
				t.Errorf("schemaSummary = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestPrintCompliance(t *testing.T) {
	ui.ForceNoColor()
	info := &model.ComplianceInfo{
		DatasetID: "ds-1",
		Annotations: []model.FieldAnnotation{
			{FieldPath: "memberId", IdentifierType: "memberId", LogicalType: "ID", SecurityClassification: "confidential"},
			{FieldPath: "email", IdentifierType: "none", LogicalType: "EMAIL", SecurityClassification: "highlyConfidential"},
		},
		DatasetClassification: "highlyConfidential",
		UpdatedAt:             time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		UpdatedBy:             "alice",
	}

	var buf bytes.Buffer
	printCompliance(&buf, info, []string{"limitedDistribution", "confidential", "highlyConfidential"})
	out := buf.String()
	for _, want := range []string{
		"FIELD", "memberId", "EMAIL",
		"Dataset classification: highlyConfidential",
		"Updated 2024-05-01 09:00:00 by alice",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("expected no ANSI escapes with colour disabled:\n%s", out)
	}

	buf.Reset()
	printCompliance(&buf, &model.ComplianceInfo{DatasetID: "ds-2"}, nil)
	if strings.TrimSpace(buf.String()) != "no compliance annotations" {
		t.Errorf("unexpected empty output %q", buf.String())
	}
}

func TestPrintDefaults(t *testing.T) {
	ui.ForceNoColor()
	var buf bytes.Buffer
	printDefaults(&buf, &client.ClassificationDefaults{
		Defaults:    map[string]string{"NAME": "confidential", "ID": "limitedDistribution"},
		IDFields:    map[string]string{"ID": "limitedDistribution"},
		NonIDFields: map[string]string{"NAME": "confidential"},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got:\n%s", buf.String())
	}
	if f := strings.Fields(lines[1]); f[0] != "ID" || f[2] != "id" {
		t.Errorf("unexpected ID row %q", lines[1])
	}
	if f := strings.Fields(lines[2]); f[0] != "NAME" || f[2] != "generic" {
		t.Errorf("unexpected NAME row %q", lines[2])
	}
}

func TestPrintEvents(t *testing.T) {
	var buf bytes.Buffer
	printEvents(&buf, nil)
	if strings.TrimSpace(buf.String()) != "no events" {
		t.Fatalf("unexpected output %q", buf.String())
	}

	buf.Reset()
	printEvents(&buf, []*model.Event{{
		Topic:     "datahub.compliance.updated",
		Actor:     "bob",
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}})
	if out := buf.String(); !strings.Contains(out, "2024-01-02 03:04:05") || !strings.Contains(out, "bob") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}
