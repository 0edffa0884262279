package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mirrorbox/mirrorbox/internal/daemon"
)

func init() {
	rootCmd.AddCommand(newSyncCmd())
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run a single sync pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFromViper()
			if err := cfg.Validate(); err != nil {
				return err
			}
			cmd.SilenceUsage = true

			d, err := daemon.New(cfg)
			if err != nil {
				return err
			}

			res, err := d.RunOnce(cmd.Context())
			if err != nil {
				return err
			}

			if res.Empty() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s nothing to do (%d unchanged)\n", green("in sync"), res.Unchanged)
				return nil
			}

			status := green("done")
			if res.Errors > 0 {
				status = red("done with errors")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d created, %d copied, %d removed, %d errors (%s in %s)\n",
				status, res.Created, res.Copied, res.Removed, res.Errors,
				humanize.Bytes(uint64(res.Bytes)), res.Took.Round(time.Millisecond))
			return nil
		},
	}
}
