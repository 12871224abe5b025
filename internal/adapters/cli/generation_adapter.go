package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/example/llmtxt/internal/ports/primary"
)

// GenerationAdapter translates CLI operations to GenerationService calls.
type GenerationAdapter struct {
	service primary.GenerationService
	out     io.Writer
}

// NewGenerationAdapter creates a new GenerationAdapter with the given service.
func NewGenerationAdapter(service primary.GenerationService, out io.Writer) *GenerationAdapter {
	return &GenerationAdapter{
		service: service,
		out:     out,
	}
}

// Generate runs a generation, printing progress. Archive bytes are written
// to zipPath when the pipeline returns an archive and zipPath is set; the
// generated text is printed when nothing is saved.
func (a *GenerationAdapter) Generate(ctx context.Context, req primary.GenerateRequest, zipPath string) (*primary.GenerateResponse, error) {
	req.Progress = func(processed, total int) {
		fmt.Fprintf(a.out, "  processed %d/%d\n", processed, total)
	}

	resp, err := a.service.Generate(ctx, req)
	if err != nil {
		return resp, err
	}
	fmt.Fprintf(a.out, "%s Generation %s completed\n", okMark, resp.JobID)

	if resp.ZipMode && zipPath != "" {
		if err := os.WriteFile(zipPath, resp.ZipData, 0644); err != nil {
			return resp, fmt.Errorf("failed to write archive: %w", err)
		}
		fmt.Fprintf(a.out, "%s Archive written to %s (%d bytes)\n", okMark, zipPath, len(resp.ZipData))
	}

	if resp.Save != nil {
		PrintSaveResponse(a.out, resp.Save)
		return resp, nil
	}

	if resp.SummaryText != "" {
		fmt.Fprintln(a.out, resp.SummaryText)
	}
	if resp.FullText != "" {
		if resp.SummaryText != "" {
			fmt.Fprintln(a.out)
		}
		fmt.Fprintln(a.out, resp.FullText)
	}
	return resp, nil
}
