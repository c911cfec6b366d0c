package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jiaofangliang/datahub/internal/client"
	"github.com/jiaofangliang/datahub/internal/model"
	"github.com/spf13/cobra"
)

var complianceCmd = &cobra.Command{
	Use:     "compliance",
	Short:   "Show or replace the compliance annotations of a dataset",
	GroupID: "datasets",
}

var complianceShowCmd = &cobra.Command{
	Use:   "show <id|urn>",
	Short: "Show field annotations and the dataset classification",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		info, err := apiClient.GetCompliance(ctx, args[0])
		if err != nil {
			return err
		}
		order := classificationOrder(ctx)
		return output(info, func(w io.Writer) { printCompliance(w, info, order) })
	},
}

var complianceSetCmd = &cobra.Command{
	Use:   "set <id|urn> <file|->",
	Short: "Validate and store field annotations",
	Long: `Replace every compliance annotation of a dataset. The document is either a
JSON array of annotations or an object with an "annotations" array. Empty
classifications are filled from the logical type defaults, and fields with a
predefined identifier format get their fixed logical type.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(args[1])
		if err != nil {
			return err
		}
		anns, err := parseAnnotations(data)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		info, err := apiClient.SetCompliance(ctx, args[0], &client.SetComplianceRequest{
			Annotations: anns,
			UpdatedBy:   actor,
		})
		if err != nil {
			return fmt.Errorf("setting compliance: %w", err)
		}
		order := classificationOrder(ctx)
		return output(info, func(w io.Writer) { printCompliance(w, info, order) })
	},
}

var eventsCmd = &cobra.Command{
	Use:     "events <id|urn>",
	Short:   "Show the change history of a dataset",
	GroupID: "datasets",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		evts, err := apiClient.GetEvents(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if evts == nil {
			evts = []*model.Event{}
		}
		return output(evts, func(w io.Writer) { printEvents(w, evts) })
	},
}

// classificationOrder fetches the severity order used to colour
// classifications. Output falls back to plain text when it is unavailable.
func classificationOrder(ctx context.Context) []string {
	if jsonOutput {
		return nil
	}
	d, err := apiClient.ClassificationDefaults(ctx)
	if err != nil {
		return nil
	}
	return d.SeverityOrder
}

func init() {
	complianceCmd.AddCommand(complianceShowCmd)
	complianceCmd.AddCommand(complianceSetCmd)
}
