package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.rtlflow.dev/yoke/internal/core/domain"
	"go.rtlflow.dev/yoke/internal/engine/scheduler"
)

func (c *CLI) newRunCmd() *cobra.Command {
	var (
		noCache        bool
		jobs           int
		outDir         string
		fromCheckpoint string
		toCheckpoint   string
	)

	cmd := &cobra.Command{
		Use:   "run [tasks...]",
		Short: "Evaluate tasks and their dependencies",
		Long: `Evaluate the named tasks and everything they depend on.
Without arguments every task in the flow file is evaluated.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}

			opts := scheduler.Options{
				Targets: args,
				Jobs:    jobs,
				NoCache: noCache,
				OutDir:  outDir,
				Checkpoint: domain.CheckpointRange{
					From: fromCheckpoint,
					To:   toCheckpoint,
				},
			}

			report, err := c.app.Run(cmd.Context(), configPath, opts)
			if report != nil {
				printReport(cmd, report)
			}
			return err
		},
	}

	cmd.Flags().BoolVarP(&noCache, "no-cache", "n", false, "Run every task even on a fingerprint match")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "Maximum concurrent tool invocations (default: number of CPUs)")
	cmd.Flags().StringVar(&outDir, "out", scheduler.DefaultOutDir, "Root directory for per-task run directories (the cache index and checkpoints stay under "+scheduler.DefaultOutDir+")")
	cmd.Flags().StringVar(&fromCheckpoint, "from-checkpoint", "", "Resume the target task from a saved checkpoint label")
	cmd.Flags().StringVar(&toCheckpoint, "to-checkpoint", "", "Stop the target task at a checkpoint label and save a snapshot")

	return cmd
}

func printReport(cmd *cobra.Command, report *scheduler.Report) {
	w := cmd.OutOrStdout()
	for _, t := range report.Tasks {
		switch {
		case t.Warnings > 0:
			fmt.Fprintf(w, "%-32s %s (%d warnings)\n", t.Task, t.Status, t.Warnings)
		case t.Err != nil:
			fmt.Fprintf(w, "%-32s %s: %v\n", t.Task, t.Status, t.Err)
		default:
			fmt.Fprintf(w, "%-32s %s\n", t.Task, t.Status)
		}
	}
}
