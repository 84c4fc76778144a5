package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/geoexhibit/pkg/config"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/pmtiles"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/storage"
)

// ValidateCommand holds flags for the validate command.
type ValidateCommand struct {
	checkStorage bool
}

// NewValidateCommand creates the environment preflight command.
func NewValidateCommand() *cobra.Command {
	vc := &ValidateCommand{}

	cmd := &cobra.Command{
		Use:   "validate <config>",
		Short: "Check configuration and environment prerequisites",
		Long:  "Validate the configuration file, check for tippecanoe and optionally probe the storage target.",
		Args:  cobra.ExactArgs(1),
		RunE:  vc.run,
	}

	cmd.Flags().BoolVar(&vc.checkStorage, "check-storage", false, "Probe the configured S3 bucket for access")

	return cmd
}

func (vc *ValidateCommand) run(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(args[0])
	if err != nil {
		report(out, "configuration", err)

		return err
	}

	report(out, "configuration", nil)

	generator := &pmtiles.Generator{}
	if generator.Available() {
		report(out, "tippecanoe", nil)
	} else {
		// Missing tippecanoe degrades a run (no overlay) but does not
		// block it.
		fmt.Fprintf(out, "%s tippecanoe: not found on PATH, runs will skip the overlay\n", color.YellowString("warn"))
	}

	if vc.checkStorage {
		_, err = storage.NewS3(cmd.Context(), cfg.Storage.Bucket, cfg.Storage.Region)
		report(out, fmt.Sprintf("storage s3://%s", cfg.Storage.Bucket), err)

		if err != nil {
			return err
		}
	}

	return nil
}

func report(writer io.Writer, subject string, err error) {
	if err != nil {
		fmt.Fprintf(writer, "%s %s: %v\n", color.RedString("fail"), subject, err)

		return
	}

	fmt.Fprintf(writer, "%s %s\n", color.GreenString("ok"), subject)
}
