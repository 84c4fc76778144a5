// Package commands implements CLI command handlers for geoexhibit.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/geoexhibit/pkg/analyzer"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/config"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/pipeline"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/publish"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/safeconv"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/timeprov"
)

type pipelineExecutor func(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error)

var (
	// ErrPartialFailure signals that the run finished but some items or
	// features did not publish.
	ErrPartialFailure = errors.New("run finished with partial failure")
	// ErrMissingFeatures is returned when no feature file is given.
	ErrMissingFeatures = errors.New("a feature file is required (--features)")
)

// RunCommand holds configuration and dependencies for the run command.
type RunCommand struct {
	featuresPath string
	localOut     string
	dryRun       bool

	exec pipelineExecutor
}

// NewRunCommand creates the publish pipeline command.
func NewRunCommand() *cobra.Command {
	return newRunCommandWithDeps(pipeline.Run)
}

func newRunCommandWithDeps(exec pipelineExecutor) *cobra.Command {
	rc := &RunCommand{exec: exec}

	cmd := &cobra.Command{
		Use:   "run <config>",
		Short: "Run the full publish pipeline",
		Long:  "Load features, run the configured analyzer and publish a STAC catalog to storage.",
		Args:  cobra.ExactArgs(1),
		RunE:  rc.run,
	}

	cmd.Flags().StringVarP(&rc.featuresPath, "features", "f", "", "Feature file (GeoJSON FeatureCollection or NDJSON)")
	cmd.Flags().StringVar(&rc.localOut, "local-out", "", "Publish to a local directory instead of S3")
	cmd.Flags().BoolVar(&rc.dryRun, "dry-run", false, "Build the plan and list uploads without writing")

	return cmd
}

func (rc *RunCommand) run(cmd *cobra.Command, args []string) error {
	if rc.featuresPath == "" {
		return ErrMissingFeatures
	}

	log := newLogger(cmd)

	cfg, err := config.Load(args[0])
	if err != nil {
		return err
	}

	registry := analyzer.NewRegistry()

	err = registry.Register(analyzer.NewDemo())
	if err != nil {
		return err
	}

	result, err := rc.exec(cmd.Context(), pipeline.Options{
		Config:        cfg,
		FeaturesPath:  rc.featuresPath,
		LocalOut:      rc.localOut,
		DryRun:        rc.dryRun,
		Registry:      registry,
		TimeProviders: timeprov.Registry{},
		Log:           log,
	})
	if err != nil {
		return err
	}

	if rc.dryRun {
		renderDryRun(cmd.OutOrStdout(), result)

		return nil
	}

	renderSummary(cmd.OutOrStdout(), result)

	if result.Manifest != nil && result.Manifest.Status == publish.StatusPartialFailure {
		return fmt.Errorf("%w: %d failed, %d run errors",
			ErrPartialFailure, len(result.Manifest.Failed), len(result.Manifest.RunErrors))
	}

	return nil
}

func renderDryRun(writer io.Writer, result *pipeline.Result) {
	fmt.Fprintf(writer, "dry run: job %s (%d items from %d features)\n\n",
		result.JobID, result.ItemCount, result.FeatureCount)

	tw := table.NewWriter()
	tw.SetOutputMirror(writer)
	tw.AppendHeader(table.Row{"#", "Path", "Content-Type", "Size"})

	var total int64

	for i, upload := range result.Planned {
		size := "-"
		if upload.Size > 0 {
			size = humanize.Bytes(safeconv.MustInt64ToUint64(upload.Size))
			total += upload.Size
		}

		tw.AppendRow(table.Row{i + 1, upload.Path, upload.ContentType, size})
	}

	tw.AppendFooter(table.Row{"", "", "total", humanize.Bytes(safeconv.MustInt64ToUint64(total))})
	tw.Render()
}

func renderSummary(writer io.Writer, result *pipeline.Result) {
	m := result.Manifest
	if m == nil {
		return
	}

	status := color.GreenString(string(m.Status))
	if m.Status == publish.StatusPartialFailure {
		status = color.RedString(string(m.Status))
	}

	fmt.Fprintf(writer, "job %s: %s\n", m.JobID, status)
	fmt.Fprintf(writer, "  published: %d items, %s uploaded\n",
		len(m.Succeeded), humanize.Bytes(safeconv.MustInt64ToUint64(m.BytesUploaded)))

	if len(m.Failed) > 0 {
		fmt.Fprintf(writer, "  failed:    %d items\n", len(m.Failed))

		for _, f := range m.Failed {
			fmt.Fprintf(writer, "    %s (%s): %s\n", f.ItemID, f.Stage, f.Reason)
		}
	}

	if len(m.Skipped) > 0 {
		fmt.Fprintf(writer, "  skipped:   %d features\n", len(m.Skipped))
	}

	for _, msg := range m.RunErrors {
		fmt.Fprintf(writer, "  run error: %s\n", msg)
	}
}

// newLogger builds the slog logger honoring the persistent
// verbose/quiet flags.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo

	if v, err := cmd.Flags().GetBool("verbose"); err == nil && v {
		level = slog.LevelDebug
	}

	if q, err := cmd.Flags().GetBool("quiet"); err == nil && q {
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
