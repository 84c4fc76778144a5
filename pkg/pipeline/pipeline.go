// Package pipeline orchestrates a full publish run: feature ingestion,
// plan construction, overlay generation, publishing and verification.
// Execution is strictly sequential by design.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Sumatoshi-tech/geoexhibit/pkg/analyzer"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/config"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/feature"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/ids"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/layout"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/plan"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/pmtiles"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/publish"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/stac"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/storage"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/timeprov"
)

// ErrNothingToPublish is returned when no item survived plan
// construction.
var ErrNothingToPublish = errors.New("no publishable items in plan")

// Options configures one run.
type Options struct {
	Config       *config.Config
	FeaturesPath string

	// LocalOut switches publishing to a directory instead of S3.
	LocalOut string

	// DryRun builds the plan and catalog but writes nothing.
	DryRun bool

	Registry      *analyzer.Registry
	TimeProviders timeprov.Registry
	Log           *slog.Logger
}

// PlannedUpload describes one write a dry run would perform.
type PlannedUpload struct {
	Path        string
	ContentType string
	Size        int64
}

// Result summarizes a completed (or dry) run.
type Result struct {
	JobID        string
	CollectionID string
	ItemCount    int
	FeatureCount int
	Skips        []plan.Skip
	Manifest     *publish.Manifest

	// Planned is populated in dry-run mode only.
	Planned []PlannedUpload
}

// Run executes the pipeline. A returned error is fatal (configuration,
// ingestion or catalog invariant); partial failure is expressed through
// Result.Manifest.Status.
func Run(ctx context.Context, opts Options) (*Result, error) {
	cfg := opts.Config
	log := opts.Log

	minter := ids.NewMinter()

	collection, stats, err := feature.Load(opts.FeaturesPath, cfg.IDs.Prefix, minter, log)
	if err != nil {
		return nil, fmt.Errorf("load features: %w", err)
	}

	log.Info("loaded features", "count", stats.Loaded, "minted_ids", stats.MintedIDs, "skipped_lines", stats.SkippedLines)

	provider, err := timeprov.Resolve(cfg.TimeProvider(), opts.TimeProviders)
	if err != nil {
		return nil, fmt.Errorf("resolve time provider: %w", err)
	}

	selected, err := opts.Registry.Get(cfg.Analyzer.Name)
	if err != nil {
		return nil, err
	}

	log.Info("selected analyzer", "name", selected.Name())

	builder := &plan.Builder{Time: provider, Analyzer: selected, Minter: minter, Log: log}

	publishPlan, skips, err := builder.Build(collection, cfg.Project.CollectionID, plan.Metadata{
		Title:       cfg.Project.Title,
		Description: cfg.Project.Description,
		Keywords:    []string{"geospatial", "analysis", "raster"},
	})
	if err != nil {
		return nil, fmt.Errorf("build publish plan: %w", err)
	}

	log.Info("built publish plan",
		"job_id", publishPlan.JobID,
		"items", publishPlan.ItemCount(),
		"features", publishPlan.FeatureCount(),
		"skips", len(skips))

	if publishPlan.ItemCount() == 0 {
		return nil, fmt.Errorf("%w: %d features skipped or failed", ErrNothingToPublish, len(skips))
	}

	generateOverlay(ctx, collection, cfg, publishPlan, log)

	jobLayout := layout.New(publishPlan.JobID)
	resolver := stac.NewHrefResolver(cfg.Storage.Scheme, cfg.Storage.Bucket, jobLayout)
	writer := stac.NewWriter(resolver, jobLayout, cfg.STAC.GeometryInItem)

	result := &Result{
		JobID:        publishPlan.JobID,
		CollectionID: publishPlan.CollectionID,
		ItemCount:    publishPlan.ItemCount(),
		FeatureCount: publishPlan.FeatureCount(),
		Skips:        skips,
	}

	if opts.DryRun {
		planned, err := planUploads(writer, jobLayout, publishPlan)
		if err != nil {
			return nil, err
		}

		result.Planned = planned

		return result, nil
	}

	store, err := openStore(ctx, cfg, opts.LocalOut)
	if err != nil {
		return nil, err
	}

	publisher := publish.New(store, writer, jobLayout, resolver, log)

	manifest, err := publisher.Publish(ctx, publishPlan, skips)
	if err != nil {
		return nil, err
	}

	result.Manifest = manifest

	return result, nil
}

// generateOverlay builds the shared vector overlay. Failure is not fatal
// to the run; the collection simply omits the overlay link.
func generateOverlay(ctx context.Context, collection *feature.Collection, cfg *config.Config, p *plan.Plan, log *slog.Logger) {
	generator := &pmtiles.Generator{
		MinZoom: cfg.Map.PMTiles.MinZoom,
		MaxZoom: cfg.Map.PMTiles.MaxZoom,
	}

	outPath := filepath.Join(os.TempDir(), "geoexhibit-"+p.JobID, layout.OverlayName)

	if err := generator.Generate(ctx, collection, outPath); err != nil {
		log.Warn("overlay generation failed (tippecanoe required)", "error", err)

		return
	}

	p.OverlayPath = outPath
	log.Info("generated overlay", "path", outPath)
}

func openStore(ctx context.Context, cfg *config.Config, localOut string) (storage.Store, error) {
	if localOut != "" {
		store, err := storage.NewLocal(localOut)
		if err != nil {
			return nil, fmt.Errorf("open local output: %w", err)
		}

		return store, nil
	}

	store, err := storage.NewS3(ctx, cfg.Storage.Bucket, cfg.Storage.Region)
	if err != nil {
		return nil, fmt.Errorf("open storage target: %w", err)
	}

	return store, nil
}

// planUploads lists every write the publisher would perform, for the
// dry-run report.
func planUploads(writer *stac.Writer, jobLayout layout.Layout, p *plan.Plan) ([]PlannedUpload, error) {
	catalog, err := writer.Catalog(p)
	if err != nil {
		return nil, fmt.Errorf("build catalog documents: %w", err)
	}

	planned := make([]PlannedUpload, 0, 2*len(p.Items)+2)
	planned = append(planned, PlannedUpload{
		Path:        catalog.CollectionPath,
		ContentType: analyzer.MediaTypeJSON,
	})

	itemByID := make(map[string]*plan.Item, len(p.Items))
	for _, it := range p.Items {
		itemByID[it.ID] = it
	}

	for _, entry := range catalog.Items {
		planned = append(planned, PlannedUpload{Path: entry.Path, ContentType: analyzer.MediaTypeJSON})

		it := itemByID[entry.Doc.ID]
		for _, asset := range it.Output.Assets() {
			mediaType, _ := stac.NormalizeMediaType(asset.Key, asset.MediaType, asset.Roles)
			fileName := stac.FileName(asset.Key, mediaType)

			key := jobLayout.AssetPath(it.ID, fileName)
			if asset.HasRole(analyzer.RoleThumbnail) {
				key = jobLayout.ThumbPath(it.ID, fileName)
			}

			size, err := asset.Source.Size()
			if err != nil {
				return nil, fmt.Errorf("asset %s: %w", asset.Key, err)
			}

			planned = append(planned, PlannedUpload{Path: key, ContentType: mediaType, Size: size})
		}
	}

	if p.OverlayPath != "" {
		info, err := os.Stat(p.OverlayPath)
		if err == nil {
			planned = append(planned, PlannedUpload{
				Path:        jobLayout.PMTilesPath(),
				ContentType: analyzer.MediaTypePMTiles,
				Size:        info.Size(),
			})
		}
	}

	return planned, nil
}
