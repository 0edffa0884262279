package main

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mirrorbox/mirrorbox/internal/mirror"
)

func init() {
	rootCmd.AddCommand(newHistoryCmd())
}

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sync passes from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFromViper()
			if err := cfg.Validate(); err != nil {
				return err
			}
			cmd.SilenceUsage = true

			journal, err := mirror.NewPassJournal(filepath.Join(cfg.DestDir, mirror.MetadataDirName, mirror.JournalFileName))
			if err != nil {
				return err
			}
			defer journal.Close()

			recs, err := journal.Recent(limit)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no sync passes recorded")
				return nil
			}

			for _, rec := range recs {
				started := rec.StartedAt
				if ts, err := rec.Started(); err == nil {
					started = ts.Local().Format("2006-01-02 15:04:05")
				}
				line := fmt.Sprintf("%s  +%d ~%d -%d  %s  %dms",
					cyan(started), rec.Created, rec.Copied, rec.Removed,
					humanize.Bytes(uint64(rec.Bytes)), rec.DurationMS)
				if rec.Errors > 0 {
					line += "  " + red(fmt.Sprintf("%d errors", rec.Errors))
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of passes to show")
	return cmd
}
