package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/phonginreallife/sentinel/actions"
)

var schemaIntegration bool

var schemaCmd = &cobra.Command{
	Use:   "schema [action_type]",
	Short: "Print the form schema of every action type, or of one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var out interface{} = actions.Schemas()
		if len(args) == 1 {
			variant, err := actions.Resolve(args[0])
			if err != nil {
				return err
			}
			if schemaIntegration {
				out = variant.IntegrationSchema()
			} else {
				out = variant.Schema()
			}
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().BoolVar(&schemaIntegration, "integration", false, "Only the integration fields of the given action type")
}
