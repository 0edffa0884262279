package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mirrorbox/mirrorbox/internal/daemon/config"
)

func init() {
	rootCmd.AddCommand(newInitCmd())
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a MirrorBox config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := cmd.Flag("config").Value.String()

			if cfg, err := config.Load(configPath); err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "MirrorBox already initialized")
				printConfig(cmd, cfg)
				return nil
			}

			cfg := configFromViper()
			if err := cfg.Validate(); err != nil {
				return err
			}
			cmd.SilenceUsage = true

			if err := cfg.Save(configPath); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "MirrorBox initialized")
			printConfig(cmd, cfg)
			return nil
		},
	}
}

func printConfig(cmd *cobra.Command, cfg *config.Config) {
	fmt.Fprintf(cmd.OutOrStdout(), "Config Path: %s\n", green(cfg.Path))
	fmt.Fprintf(cmd.OutOrStdout(), "Source:      %s\n", cyan(cfg.SourceDir))
	fmt.Fprintf(cmd.OutOrStdout(), "Dest:        %s\n", cyan(cfg.DestDir))
	fmt.Fprintf(cmd.OutOrStdout(), "Interval:    %s\n", cyan(cfg.Interval().String()))
}
