// Package main provides the entry point for the geoexhibit CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/geoexhibit/cmd/geoexhibit/commands"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/version"
)

var (
	verbose bool
	quiet   bool
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "geoexhibit",
		Short: "GeoExhibit - publish geospatial analysis results as STAC",
		Long: `GeoExhibit runs an analyzer over a set of features and publishes
the results as a self-contained STAC catalog under an immutable job prefix.

Commands:
  run              Run the full publish pipeline
  config           Create or inspect a configuration file
  validate         Check configuration and environment prerequisites
  pmtiles          Build a PMTiles overlay from a feature file
  import-features  Normalize a feature file and assign stable IDs`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output")

	// Add commands.
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewPMTilesCommand())
	rootCmd.AddCommand(commands.NewImportCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "geoexhibit %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
