package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/example/llmtxt/internal/config"
	"github.com/example/llmtxt/internal/db"
	"github.com/example/llmtxt/internal/templates"
)

// InitCmd returns the init command
func InitCmd(opts *globalOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the llmtxt config, document root and history database",
		Long: `Write .llmtxt/config.yaml with the defaults, create the document root and
initialize the history database with the required schema.

An existing config is left alone unless --force is given.`,
		Args: cobra.NoArgs,
		// init creates the project in the working directory rather than
		// searching upward for an existing one.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.dir != "" {
				return nil
			}
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
			opts.dir = cwd
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path := config.Path(opts.dir)

			if _, err := os.Stat(path); err == nil && !force {
				fmt.Fprintf(out, "Config already exists at %s\n", path)
			} else {
				cfg := config.Default()
				if opts.owner != "" {
					cfg.Owner = opts.owner
				}
				if err := writeConfig(path, cfg); err != nil {
					return err
				}
				fmt.Fprintf(out, "✓ Config written to %s\n", path)
			}
			if err := opts.load(); err != nil {
				return err
			}

			if err := os.MkdirAll(opts.cfg.DocRoot, 0755); err != nil {
				return fmt.Errorf("failed to create document root: %w", err)
			}
			fmt.Fprintf(out, "✓ Document root ready at %s\n", opts.cfg.DocRoot)

			database, err := db.Open(opts.cfg.DBPath)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer database.Close()
			fmt.Fprintf(out, "✓ History database initialized at %s\n", opts.cfg.DBPath)

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Next steps:")
			fmt.Fprintln(out, "  llmtxt save --kind summary --file llm.txt")
			fmt.Fprintln(out, "  llmtxt history list")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config with the defaults")
	return cmd
}

// writeConfig writes the commented config template filled with cfg.
func writeConfig(path string, cfg *config.Config) error {
	content, err := templates.RenderConfig(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create %s dir: %w", config.DirName, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
