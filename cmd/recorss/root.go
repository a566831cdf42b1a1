package main

import (
	"os"

	"github.com/spf13/cobra"

	"recorss/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   config.AppName,
	Short: "Filter RSS/Atom feeds through a classifier ensemble",
	Long: `recorss polls the configured feeds, scores new items with a weighted
classifier ensemble and writes one filtered RSS feed per source.

Example usage:
  recorss serve                # HTTP server plus periodic refresh
  recorss generate             # Run one refresh pass and exit`,
	Version:       config.AppVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			return os.Setenv("RECORSS_CONFIG", cfgFile)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "pipeline config file (default $RECORSS_CONFIG or ./config.yml)")
	rootCmd.AddCommand(serveCmd, generateCmd)
}
