package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.rtlflow.dev/yoke/internal/adapters/cas"
	"go.rtlflow.dev/yoke/internal/adapters/checkpoint"
	"go.rtlflow.dev/yoke/internal/engine/scheduler"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove run directories, the cache index, and checkpoints",
		Long: `Remove the run directory root along with the persisted cache index and
checkpoint snapshots. The cache and checkpoints always live under ` + scheduler.DefaultOutDir + `,
independent of the --out override, so both roots are cleaned.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, path := range []string{outDir, cas.DefaultPath, checkpoint.DefaultRoot} {
				if err := os.RemoveAll(path); err != nil {
					return fmt.Errorf("failed to remove %s: %w", path, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", outDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", scheduler.DefaultOutDir, "Root directory to remove")

	return cmd
}
