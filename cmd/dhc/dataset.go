package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jiaofangliang/datahub/internal/client"
	"github.com/spf13/cobra"
)

var datasetCmd = &cobra.Command{
	Use:     "dataset",
	Short:   "Create, list, show, and delete datasets",
	GroupID: "datasets",
}

var datasetCreateCmd = &cobra.Command{
	Use:   "create <platform> <name>",
	Short: "Register a dataset",
	Long: `Register a dataset. The URN defaults to
urn:li:dataset:(urn:li:dataPlatform:<platform>,<name>,PROD).`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		urn, _ := cmd.Flags().GetString("urn")
		desc, _ := cmd.Flags().GetString("description")
		schemaFile, _ := cmd.Flags().GetString("schema")

		req := &client.CreateDatasetRequest{
			URN:         urn,
			Platform:    args[0],
			Name:        args[1],
			Description: desc,
			CreatedBy:   actor,
		}
		if schemaFile != "" {
			data, err := readInput(schemaFile)
			if err != nil {
				return err
			}
			if req.Schema, err = parseSchema(data); err != nil {
				return err
			}
		}

		ds, err := apiClient.CreateDataset(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("creating dataset: %w", err)
		}
		return output(ds, func(w io.Writer) {
			fmt.Fprintf(w, "Created dataset %s\n", ds.ID)
			printDataset(w, ds)
		})
	},
}

var datasetListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List datasets",
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		platforms, _ := cmd.Flags().GetStringSlice("platform")
		search, _ := cmd.Flags().GetString("search")
		sort, _ := cmd.Flags().GetString("sort")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		resp, err := apiClient.ListDatasets(cmd.Context(), &client.ListDatasetsRequest{
			Platform: platforms,
			Search:   search,
			Sort:     sort,
			Limit:    limit,
			Offset:   offset,
		})
		if err != nil {
			return fmt.Errorf("listing datasets: %w", err)
		}
		return output(resp.Datasets, func(w io.Writer) { printDatasetList(w, resp.Datasets, resp.Total) })
	},
}

var datasetShowCmd = &cobra.Command{
	Use:   "show <id|urn>",
	Short: "Show a dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := apiClient.GetDataset(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return output(ds, func(w io.Writer) { printDataset(w, ds) })
	},
}

var datasetDeleteCmd = &cobra.Command{
	Use:   "delete <id|urn>...",
	Short: "Delete datasets and their compliance annotations",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, ref := range args {
			if err := apiClient.DeleteDataset(cmd.Context(), ref, actor); err != nil {
				return fmt.Errorf("deleting %s: %w", ref, err)
			}
			if !jsonOutput {
				fmt.Fprintf(os.Stdout, "Deleted %s\n", ref)
			}
		}
		return nil
	},
}

var schemaCmd = &cobra.Command{
	Use:     "schema",
	Short:   "Show or replace the schema definition of a dataset",
	GroupID: "datasets",
}

var schemaShowCmd = &cobra.Command{
	Use:   "show <id|urn>",
	Short: "Show the schema definition of a dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := apiClient.GetDataset(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return output(ds.Schema, func(w io.Writer) { printSchema(w, ds.Schema) })
	},
}

var schemaSetCmd = &cobra.Command{
	Use:   "set <id|urn> <file|->",
	Short: "Replace the schema definition from a JSON document",
	Long: `Replace the schema definition of a dataset. The document is a JSON object
with optional "rawSchema" (single-key object naming the variant) and
"normalizedSchema" members. The literal document null clears the schema.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(args[1])
		if err != nil {
			return err
		}
		schema, err := parseSchema(data)
		if err != nil {
			return err
		}
		ds, err := apiClient.SetSchema(cmd.Context(), args[0], schema, actor)
		if err != nil {
			return fmt.Errorf("setting schema: %w", err)
		}
		return output(ds, func(w io.Writer) { printDataset(w, ds) })
	},
}

func init() {
	datasetCreateCmd.Flags().String("urn", "", "explicit dataset URN")
	datasetCreateCmd.Flags().StringP("description", "d", "", "dataset description")
	datasetCreateCmd.Flags().String("schema", "", "schema definition JSON file (- for stdin)")

	datasetListCmd.Flags().StringSliceP("platform", "p", nil, "filter by platform (repeatable)")
	datasetListCmd.Flags().StringP("search", "s", "", "substring match on name or URN")
	datasetListCmd.Flags().String("sort", "", "sort field, prefix - for descending (e.g. -updated_at)")
	datasetListCmd.Flags().Int("limit", 50, "maximum number of results")
	datasetListCmd.Flags().Int("offset", 0, "number of results to skip")

	datasetCmd.AddCommand(datasetCreateCmd)
	datasetCmd.AddCommand(datasetListCmd)
	datasetCmd.AddCommand(datasetShowCmd)
	datasetCmd.AddCommand(datasetDeleteCmd)

	schemaCmd.AddCommand(schemaShowCmd)
	schemaCmd.AddCommand(schemaSetCmd)
}
