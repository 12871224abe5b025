package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/example/llmtxt/internal/ports/primary"
)

// HistoryAdapter translates CLI operations to HistoryService calls.
type HistoryAdapter struct {
	service primary.HistoryService
	out     io.Writer
}

// NewHistoryAdapter creates a new HistoryAdapter with the given service.
func NewHistoryAdapter(service primary.HistoryService, out io.Writer) *HistoryAdapter {
	return &HistoryAdapter{
		service: service,
		out:     out,
	}
}

// List prints the caller's history, most recent first.
func (a *HistoryAdapter) List(ctx context.Context) error {
	entries, err := a.service.GetHistory(ctx)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No history entries")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-6s %-8s %-20s %s\n", "ID", "KIND", "CREATED", "SOURCE")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────")
	for _, e := range entries {
		fmt.Fprintf(a.out, "%-6d %-8s %-20s %s\n", e.ID, e.OutputKind, e.CreatedAt.Format(time.DateTime), e.SourceURL)
	}
	fmt.Fprintln(a.out)
	return nil
}

// Show prints one entry. With content set, the stored text is printed too.
func (a *HistoryAdapter) Show(ctx context.Context, id int64, content bool) (*primary.HistoryEntry, error) {
	entry, err := a.service.GetHistoryItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get history item: %w", err)
	}

	fmt.Fprintf(a.out, "\nHistory: %d\n", entry.ID)
	fmt.Fprintf(a.out, "Source:  %s\n", entry.SourceURL)
	fmt.Fprintf(a.out, "Kind:    %s\n", entry.OutputKind)
	fmt.Fprintf(a.out, "Created: %s\n", entry.CreatedAt.Format(time.RFC3339))
	if len(entry.FilePaths) > 0 {
		fmt.Fprintf(a.out, "Files:   %s\n", strings.Join(entry.FilePaths, "\n         "))
	}
	if content {
		if entry.SummarizedContent != "" {
			fmt.Fprintf(a.out, "\n--- summary ---\n%s\n", entry.SummarizedContent)
		}
		if entry.FullContent != "" {
			fmt.Fprintf(a.out, "\n--- full ---\n%s\n", entry.FullContent)
		}
	}
	fmt.Fprintln(a.out)
	return entry, nil
}

// Delete removes an entry and prints per-file outcomes.
func (a *HistoryAdapter) Delete(ctx context.Context, id int64) (*primary.DeleteResponse, error) {
	resp, err := a.service.DeleteHistoryItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete history item: %w", err)
	}

	fmt.Fprintf(a.out, "%s %s\n", okMark, resp.Message)
	for _, f := range resp.FilesFailed {
		fmt.Fprintf(a.out, "%s %s\n", failMark, f)
	}
	return resp, nil
}
