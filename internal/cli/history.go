package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/example/llmtxt/internal/wire"
)

// HistoryCmd returns the history command
func HistoryCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List, inspect and delete generation history",
	}

	cmd.AddCommand(historyListCmd(opts))
	cmd.AddCommand(historyShowCmd(opts))
	cmd.AddCommand(historyDeleteCmd(opts))

	return cmd
}

func historyListCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the most recent history entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := wire.HistoryAdapterWithOutput(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return adapter.List(opts.principal(cmd.Context()))
		},
	}
}

func historyShowCmd(opts *globalOptions) *cobra.Command {
	var content bool

	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show a history entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			adapter, err := wire.HistoryAdapterWithOutput(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			_, err = adapter.Show(opts.principal(cmd.Context()), id, content)
			return err
		},
	}

	cmd.Flags().BoolVar(&content, "content", false, "Print the stored content")
	return cmd
}

func historyDeleteCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a history entry and the files only it references",
		Long: `Delete a history entry.

Backups the entry points at are removed. A live llm.txt / llm-full.txt is kept
when a newer history entry still references it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			adapter, err := wire.HistoryAdapterWithOutput(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			_, err = adapter.Delete(opts.principal(cmd.Context()), id)
			return err
		},
	}
}

func parseEntryID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid history id %q", s)
	}
	return id, nil
}
