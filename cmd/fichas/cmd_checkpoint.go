package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/itemforge/fichas/internal/checkpoint"
	"github.com/itemforge/fichas/internal/config"
)

func newCheckpointCommand() *cobra.Command {
	var clearAll bool

	cmd := &cobra.Command{
		Use:   "checkpoint <fichas.yaml>",
		Short: "Show or clear the saved progress of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, jobDir, err := loadJob(args[0])
			if err != nil {
				return err
			}
			cfg := config.NewRunConfig(spec, config.WithJobDir(jobDir))
			out := cmd.OutOrStdout()

			dir := cfg.CheckpointDir()
			if dir == "" {
				fmt.Fprintln(out, "Checkpoints are disabled for this job (no checkpoint_dir)")
				return nil
			}
			store := checkpoint.New(dir)

			if clearAll {
				if err := store.Clear(); err != nil {
					return fmt.Errorf("clearing checkpoints: %w", err)
				}
				fmt.Fprintf(out, "Checkpoints cleared: %s\n", dir)
				return nil
			}

			cursor, err := store.LoadCursor()
			if errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(out, "No saved progress in %s\n", dir)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Directory:  %s\n", dir)
			fmt.Fprintf(out, "Last run:   %s\n", cursor.RunID)
			fmt.Fprintf(out, "Progress:   %d/%d rows\n", cursor.Completed, cursor.Total)
			fmt.Fprintf(out, "Updated:    %s\n", cursor.UpdatedAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearAll, "clear", false, "Delete the saved rows so the next run starts over")

	return cmd
}
