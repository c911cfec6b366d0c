package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var classificationsCmd = &cobra.Command{
	Use:     "classifications",
	Short:   "List security classifications, or the default per logical type",
	GroupID: "compliance",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if defaults, _ := cmd.Flags().GetBool("defaults"); defaults {
			d, err := apiClient.ClassificationDefaults(ctx)
			if err != nil {
				return err
			}
			return output(d, func(w io.Writer) { printDefaults(w, d) })
		}

		opts, err := apiClient.Classifications(ctx)
		if err != nil {
			return err
		}
		return output(opts, func(w io.Writer) { printOptions(w, opts) })
	},
}

var logicalTypesCmd = &cobra.Command{
	Use:     "logical-types <id|generic>",
	Short:   "List the logical types of a category with display labels",
	GroupID: "compliance",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := apiClient.LogicalTypes(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return output(opts, func(w io.Writer) { printOptions(w, opts) })
	},
}

var identifierCmd = &cobra.Command{
	Use:     "identifier [<type>]",
	Short:   "Describe field identifier types",
	GroupID: "compliance",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if len(args) == 0 {
			types, err := apiClient.IdentifierTypes(ctx)
			if err != nil {
				return err
			}
			return output(types, func(w io.Writer) { printIdentifierTypes(w, types) })
		}

		it, err := apiClient.IdentifierType(ctx, args[0])
		if err != nil {
			return fmt.Errorf("identifier type %q: %w", args[0], err)
		}
		return output(it, func(w io.Writer) { printIdentifierType(w, it) })
	},
}

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check the health of the compliance service",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := apiClient.Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("checking health: %w", err)
		}
		if err := output(map[string]string{"status": status}, func(w io.Writer) {
			fmt.Fprintf(w, "Health: %s\n", status)
		}); err != nil {
			return err
		}
		if status != "ok" {
			return fmt.Errorf("unhealthy: %s", status)
		}
		return nil
	},
}

func init() {
	classificationsCmd.Flags().Bool("defaults", false, "show the default classification of every logical type")
}
