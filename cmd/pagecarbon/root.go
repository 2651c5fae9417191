package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for pagecarbon.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pagecarbon",
		Short: "Estimate the carbon footprint of web pages",
		Long: `pagecarbon estimates the environmental cost of loading a web page.

It fetches the page, finds the images, videos, stylesheets and scripts it
references, measures their size and converts the page weight into energy
(kWh) and CO2e estimates. Reports are stored in a local SQLite database so
that trends can be followed over time.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
