package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/geoexhibit/pkg/config"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/feature"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/ids"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/pmtiles"
)

// PMTilesCommand holds flags for the standalone overlay build.
type PMTilesCommand struct {
	output  string
	minZoom int
	maxZoom int
}

// NewPMTilesCommand creates the standalone PMTiles build command.
func NewPMTilesCommand() *cobra.Command {
	pc := &PMTilesCommand{}

	cmd := &cobra.Command{
		Use:   "pmtiles <features>",
		Short: "Build a PMTiles overlay from a feature file",
		Long:  "Run tippecanoe over a feature file and write a PMTiles archive, without publishing anything.",
		Args:  cobra.ExactArgs(1),
		RunE:  pc.run,
	}

	cmd.Flags().StringVarP(&pc.output, "output", "o", "features.pmtiles", "Output PMTiles path")
	cmd.Flags().IntVar(&pc.minZoom, "minzoom", config.DefaultMinZoom, "Minimum tile zoom")
	cmd.Flags().IntVar(&pc.maxZoom, "maxzoom", config.DefaultMaxZoom, "Maximum tile zoom")

	return cmd
}

func (pc *PMTilesCommand) run(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd)

	collection, stats, err := feature.Load(args[0], "", ids.NewMinter(), log)
	if err != nil {
		return err
	}

	log.Info("loaded features", "count", stats.Loaded)

	generator := &pmtiles.Generator{MinZoom: pc.minZoom, MaxZoom: pc.maxZoom}

	err = generator.Generate(cmd.Context(), collection, pc.output)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (z%d-z%d, %d features)\n",
		pc.output, pc.minZoom, pc.maxZoom, stats.Loaded)

	return nil
}
