package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/llmtxt/internal/ports/primary"
	"github.com/example/llmtxt/internal/wire"
)

// GenerateCmd returns the generate command
func GenerateCmd(opts *globalOptions) *cobra.Command {
	var (
		kind    string
		save    bool
		confirm bool
		zipPath string
	)

	cmd := &cobra.Command{
		Use:   "generate [url]",
		Short: "Generate llm.txt content for a website through the pipeline",
		Long: `Run the generation pipeline (prepare, batches, finalize) for a website.

The pipeline base URL comes from pipeline.base_url in the config or
LLMTXT_PIPELINE_BASE_URL. Without --save the generated text is printed.

Examples:
  llmtxt generate https://example.com --kind summary
  llmtxt generate https://example.com --kind both --save --confirm
  llmtxt generate https://example.com --kind full --zip site.zip`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := wire.GenerationAdapterWithOutput(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			_, err = adapter.Generate(opts.principal(cmd.Context()), primary.GenerateRequest{
				WebsiteURL:       args[0],
				Kind:             kind,
				Save:             save,
				ConfirmOverwrite: confirm,
			}, zipPath)
			return err
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "summary", "Output kind: summary, full or both")
	cmd.Flags().BoolVar(&save, "save", false, "Save the result into the document root")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm overwriting existing files when saving")
	cmd.Flags().StringVar(&zipPath, "zip", "", "Write the archive here when the pipeline returns one")
	return cmd
}
