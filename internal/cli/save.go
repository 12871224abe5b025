package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/llmtxt/internal/core/artifact"
	"github.com/example/llmtxt/internal/ports/primary"
	"github.com/example/llmtxt/internal/wire"
)

// SaveCmd returns the save command
func SaveCmd(opts *globalOptions) *cobra.Command {
	var (
		kind        string
		file        string
		summaryFile string
		fullFile    string
		sourceURL   string
		confirm     bool
	)

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save generated content into the document root",
		Long: `Write llm.txt and/or llm-full.txt into the document root and record history.

Existing files are only backed up when --confirm is given. Use "-" to read
content from stdin.

Examples:
  llmtxt save --kind summary --file out/llm.txt --url https://example.com
  cat llm-full.txt | llmtxt save --kind full --file - --confirm
  llmtxt save --kind both --summary-file llm.txt --full-file llm-full.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := primary.SaveRequest{
				Kind:             kind,
				ConfirmOverwrite: confirm,
				SourceURL:        sourceURL,
			}

			k, err := artifact.ParseOutputKind(kind)
			if err != nil {
				return err
			}
			in := cmd.InOrStdin()
			if k == artifact.KindBoth {
				if summaryFile == "" && fullFile == "" {
					return errors.New("--summary-file or --full-file is required for --kind both")
				}
				if summaryFile != "" {
					if req.Summarized, err = readInput(summaryFile, in); err != nil {
						return err
					}
				}
				if fullFile != "" {
					if req.Full, err = readInput(fullFile, in); err != nil {
						return err
					}
				}
			} else {
				if file == "" {
					return errors.New("--file is required")
				}
				if req.Content, err = readInput(file, in); err != nil {
					return err
				}
			}

			adapter, err := wire.ArtifactAdapterWithOutput(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			_, err = adapter.Save(opts.principal(cmd.Context()), req)
			return err
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "summary", "Output kind: summary, full or both")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Content file for summary or full saves (- for stdin)")
	cmd.Flags().StringVar(&summaryFile, "summary-file", "", "llm.txt content for --kind both")
	cmd.Flags().StringVar(&fullFile, "full-file", "", "llm-full.txt content for --kind both")
	cmd.Flags().StringVar(&sourceURL, "url", "", "Website the content was generated from")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm overwriting existing files (backs them up first)")
	return cmd
}

// readInput reads path, or stdin when path is "-".
func readInput(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
