package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/geoexhibit/pkg/config"
)

// ErrConfigExists is returned when --create targets an existing file.
var ErrConfigExists = errors.New("config file already exists")

// ConfigCommand holds flags for the config command.
type ConfigCommand struct {
	create bool
}

// NewConfigCommand creates the config inspection command.
func NewConfigCommand() *cobra.Command {
	cc := &ConfigCommand{}

	cmd := &cobra.Command{
		Use:   "config <path>",
		Short: "Create or inspect a configuration file",
		Long:  "Validate a configuration file and print a summary, or write a starter template with --create.",
		Args:  cobra.ExactArgs(1),
		RunE:  cc.run,
	}

	cmd.Flags().BoolVar(&cc.create, "create", false, "Write a starter configuration template")

	return cmd
}

func (cc *ConfigCommand) run(cmd *cobra.Command, args []string) error {
	path := args[0]

	if cc.create {
		return cc.writeTemplate(cmd, path)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%s %s\n", color.GreenString("valid:"), path)
	fmt.Fprintf(out, "  project:    %s (collection %q)\n", cfg.Project.Name, cfg.Project.CollectionID)
	fmt.Fprintf(out, "  storage:    %s://%s (region %s)\n", cfg.Storage.Scheme, cfg.Storage.Bucket, cfg.Storage.Region)
	fmt.Fprintf(out, "  time:       %s/%s\n", cfg.Time.Mode, timeDetail(cfg))
	fmt.Fprintf(out, "  analyzer:   %s\n", cfg.Analyzer.Name)
	fmt.Fprintf(out, "  pmtiles:    z%d-z%d\n", cfg.Map.PMTiles.MinZoom, cfg.Map.PMTiles.MaxZoom)

	return nil
}

func (cc *ConfigCommand) writeTemplate(cmd *cobra.Command, path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}

	err = os.WriteFile(path, []byte(config.DefaultTemplate), 0o644)
	if err != nil {
		return fmt.Errorf("write template: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote starter configuration to %s\n", path)

	return nil
}

func timeDetail(cfg *config.Config) string {
	if cfg.Time.Mode == "callable" {
		return cfg.Time.Provider
	}

	return cfg.Time.Extractor
}
