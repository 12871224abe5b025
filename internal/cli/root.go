// Package cli implements the llmtxt command tree.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/llmtxt/internal/config"
	"github.com/example/llmtxt/internal/ctxutil"
	"github.com/example/llmtxt/internal/project"
	"github.com/example/llmtxt/internal/version"
	"github.com/example/llmtxt/internal/wire"
)

// globalOptions carries the persistent flags and the configuration they select.
type globalOptions struct {
	dir     string
	owner   string
	verbose bool

	cfg *config.Config
}

// load reads the configuration for dir and applies flag overrides. Without
// --dir the nearest ancestor holding a config is used.
func (o *globalOptions) load() error {
	if o.dir == "" {
		dir, err := project.Dir()
		if err != nil {
			return err
		}
		o.dir = dir
	}
	cfg, err := config.LoadConfig(o.dir)
	if err != nil {
		return err
	}
	if o.owner != "" {
		cfg.Owner = o.owner
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
	cfg.Resolve(o.dir)
	o.cfg = cfg
	return nil
}

// principal returns ctx acting as the configured owner. The local operator
// always has manage rights.
func (o *globalOptions) principal(ctx context.Context) context.Context {
	return ctxutil.WithPrincipal(ctx, o.cfg.Owner, true)
}

// NewRootCmd returns the llmtxt root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:     "llmtxt",
		Short:   "Publish llm.txt and llm-full.txt into a website root",
		Version: version.String(),
		Long: `llmtxt saves generated llm.txt / llm-full.txt artifacts into a document root.

It backs up files before overwriting them, keeps a de-duplicated generation
history, and deletes history entries together with the files only they reference.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.load(); err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			wire.Configure(opts.cfg)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.dir, "dir", "C", "", "Project directory holding .llmtxt/config.yaml (default: nearest ancestor with one)")
	cmd.PersistentFlags().StringVar(&opts.owner, "owner", "", "Owner ID for history entries (overrides config)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(InitCmd(opts))
	cmd.AddCommand(CheckCmd(opts))
	cmd.AddCommand(SaveCmd(opts))
	cmd.AddCommand(HistoryCmd(opts))
	cmd.AddCommand(GenerateCmd(opts))
	cmd.AddCommand(ServeCmd(opts))
	cmd.AddCommand(MigrateCmd(opts))
	cmd.AddCommand(VersionCmd())

	return cmd
}
