// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle output formatting but delegate
// business logic to services.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/example/llmtxt/internal/ports/primary"
)

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	warnMark = color.New(color.FgYellow).Sprint("!")
	failMark = color.New(color.FgRed).Sprint("✗")
)

// ArtifactAdapter translates CLI operations to ArtifactService calls.
type ArtifactAdapter struct {
	service primary.ArtifactService
	out     io.Writer
}

// NewArtifactAdapter creates a new ArtifactAdapter with the given service.
func NewArtifactAdapter(service primary.ArtifactService, out io.Writer) *ArtifactAdapter {
	return &ArtifactAdapter{
		service: service,
		out:     out,
	}
}

// Check reports which canonical files of kind exist.
func (a *ArtifactAdapter) Check(ctx context.Context, kind string) (*primary.FilesExistResponse, error) {
	resp, err := a.service.CheckFilesExist(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to check files: %w", err)
	}

	if !resp.Exists {
		fmt.Fprintln(a.out, "No existing files")
		return resp, nil
	}
	fmt.Fprintf(a.out, "Existing files: %s\n", strings.Join(resp.Names, ", "))
	return resp, nil
}

// Save writes content to the document root and prints the outcome.
func (a *ArtifactAdapter) Save(ctx context.Context, req primary.SaveRequest) (*primary.SaveResponse, error) {
	resp, err := a.service.SaveToRoot(ctx, req)
	if err != nil {
		return nil, err
	}
	PrintSaveResponse(a.out, resp)
	return resp, nil
}

// PrintSaveResponse renders a save outcome.
func PrintSaveResponse(out io.Writer, resp *primary.SaveResponse) {
	fmt.Fprintf(out, "%s %s\n", okMark, resp.Message)
	for _, f := range resp.FilesSaved {
		fmt.Fprintf(out, "  %s → %s\n", f.Name, f.URL)
	}
	for _, e := range resp.Errors {
		fmt.Fprintf(out, "%s %s\n", failMark, e)
	}
	for _, w := range resp.Warnings {
		fmt.Fprintf(out, "%s %s\n", warnMark, w)
	}
	if resp.HistoryID > 0 {
		fmt.Fprintf(out, "  history entry %d\n", resp.HistoryID)
	}
}
