package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/llmtxt/internal/wire"
)

// CheckCmd returns the check command
func CheckCmd(opts *globalOptions) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report which canonical files already exist in the document root",
		Long: `Report whether saving the given kind would overwrite existing files.

Examples:
  llmtxt check --kind summary
  llmtxt check --kind both`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := wire.ArtifactAdapterWithOutput(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			_, err = adapter.Check(opts.principal(cmd.Context()), kind)
			return err
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "both", "Output kind: summary, full or both")
	return cmd
}
