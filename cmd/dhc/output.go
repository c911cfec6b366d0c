package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/jiaofangliang/datahub/internal/client"
	"github.com/jiaofangliang/datahub/internal/compliance"
	"github.com/jiaofangliang/datahub/internal/model"
	"github.com/jiaofangliang/datahub/internal/ui"
)

const timeLayout = "2006-01-02 15:04:05"

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printOptions(w io.Writer, opts []compliance.Option) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VALUE\tLABEL")
	for _, o := range opts {
		value := o.Value
		if value == "" {
			value = ui.RenderMuted("(none)")
		}
		fmt.Fprintf(tw, "%s\t%s\n", value, o.Label)
	}
	tw.Flush()
}

// printDefaults prints the default classification of every logical type,
// marking which table each entry came from.
func printDefaults(w io.Writer, d *client.ClassificationDefaults) {
	keys := make([]string, 0, len(d.Defaults))
	for k := range d.Defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LOGICAL TYPE\tCLASSIFICATION\tKIND")
	for _, k := range keys {
		kind := "generic"
		if _, ok := d.IDFields[k]; ok {
			kind = "id"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", k, ui.RenderClassification(d.Defaults[k], d.SeverityOrder), kind)
	}
	tw.Flush()
}

func printIdentifierTypes(w io.Writer, types []client.IdentifierType) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tDISPLAY\tID FIELD\tFORMAT\tDEFAULT LOGICAL TYPE")
	for _, it := range types {
		format := ""
		switch {
		case it.IsMixedID:
			format = "mixed"
		case it.IsCustomID:
			format = "custom"
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n", it.Value, it.DisplayAs, it.IsIDField, format, it.DefaultLogicalType)
	}
	tw.Flush()
}

func printIdentifierType(w io.Writer, it *client.IdentifierType) {
	fmt.Fprintf(w, "Type:                  %s\n", it.Value)
	fmt.Fprintf(w, "Display As:            %s\n", it.DisplayAs)
	fmt.Fprintf(w, "ID Field:              %t\n", it.IsIDField)
	fmt.Fprintf(w, "Mixed ID:              %t\n", it.IsMixedID)
	fmt.Fprintf(w, "Custom ID:             %t\n", it.IsCustomID)
	fmt.Fprintf(w, "Predefined Format:     %t\n", it.HasPredefinedFieldFormat)
	if it.DefaultLogicalType != "" {
		fmt.Fprintf(w, "Default Logical Type:  %s\n", it.DefaultLogicalType)
	}
}

func printDataset(w io.Writer, ds *model.Dataset) {
	fmt.Fprintf(w, "ID:          %s\n", ui.RenderAccent(ds.ID))
	fmt.Fprintf(w, "URN:         %s\n", ds.URN)
	fmt.Fprintf(w, "Platform:    %s\n", ds.Platform)
	fmt.Fprintf(w, "Name:        %s\n", ds.Name)
	if ds.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", ds.Description)
	}
	fmt.Fprintf(w, "Schema:      %s\n", schemaSummary(ds.Schema))
	if ds.CreatedBy != "" {
		fmt.Fprintf(w, "Created By:  %s\n", ds.CreatedBy)
	}
	if !ds.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Created At:  %s\n", ds.CreatedAt.Format(timeLayout))
	}
	if !ds.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "Updated At:  %s\n", ds.UpdatedAt.Format(timeLayout))
	}
}

// schemaSummary describes a schema definition in one line.
func schemaSummary(sd *model.SchemaDefinition) string {
	if sd == nil {
		return ui.RenderMuted("(none)")
	}
	var parts []string
	if sd.RawSchema != nil {
		parts = append(parts, "raw "+string(sd.RawSchema.Type()))
	}
	if sd.NormalizedSchema != nil {
		parts = append(parts, fmt.Sprintf("%d normalized fields", len(sd.NormalizedSchema.Fields)))
	}
	if len(parts) == 0 {
		return ui.RenderMuted("(empty)")
	}
	return strings.Join(parts, ", ")
}

func printDatasetList(w io.Writer, datasets []*model.Dataset, total int) {
	nameWidth := max(ui.Width()-60, 20)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPLATFORM\tNAME\tFIELDS\tUPDATED")
	for _, ds := range datasets {
		fields := "-"
		if ds.Schema != nil && ds.Schema.NormalizedSchema != nil {
			fields = fmt.Sprintf("%d", len(ds.Schema.NormalizedSchema.Fields))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			ui.RenderAccent(ds.ID),
			ds.Platform,
			ui.Truncate(ds.Name, nameWidth),
			fields,
			ds.UpdatedAt.Format(timeLayout),
		)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d datasets (%d total)\n", len(datasets), total)
}

func printSchema(w io.Writer, sd *model.SchemaDefinition) {
	if sd == nil {
		fmt.Fprintln(w, "no schema")
		return
	}
	if sd.RawSchema != nil {
		fmt.Fprintf(w, "Raw schema (%s):\n", sd.RawSchema.Type())
		data, err := json.MarshalIndent(sd.RawSchema, "  ", "  ")
		if err == nil {
			fmt.Fprintf(w, "  %s\n", data)
		}
	}
	if sd.NormalizedSchema == nil {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tTYPE\tNULLABLE\tDESCRIPTION")
	for _, f := range sd.NormalizedSchema.Fields {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", f.FieldPath, f.NativeDataType, f.Nullable, f.Description)
	}
	tw.Flush()
}

// printCompliance prints the annotations of a dataset. order is the
// classification severity order used for colouring; it may be nil.
func printCompliance(w io.Writer, info *model.ComplianceInfo, order []string) {
	if len(info.Annotations) == 0 {
		fmt.Fprintln(w, "no compliance annotations")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tIDENTIFIER\tLOGICAL TYPE\tCLASSIFICATION\tPATTERN")
	for _, a := range info.Annotations {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			a.FieldPath,
			a.IdentifierType,
			a.LogicalType,
			ui.RenderClassification(a.SecurityClassification, order),
			a.ValuePattern,
		)
	}
	tw.Flush()

	fmt.Fprintf(w, "\nDataset classification: %s\n", ui.RenderClassification(info.DatasetClassification, order))
	if !info.UpdatedAt.IsZero() {
		by := ""
		if info.UpdatedBy != "" {
			by = " by " + info.UpdatedBy
		}
		fmt.Fprintf(w, "Updated %s%s\n", info.UpdatedAt.Format(timeLayout), by)
	}
}

func printEvents(w io.Writer, evts []*model.Event) {
	if len(evts) == 0 {
		fmt.Fprintln(w, "no events")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tTOPIC\tACTOR")
	for _, e := range evts {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.CreatedAt.Format(timeLayout), e.Topic, e.Actor)
	}
	tw.Flush()
}

// output writes v as JSON under --json, otherwise calls the table printer.
func output(v any, table func(io.Writer)) error {
	if jsonOutput {
		return printJSON(os.Stdout, v)
	}
	table(os.Stdout)
	return nil
}
