package pipeline_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/geoexhibit/pkg/analyzer"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/config"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/pipeline"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/publish"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/timeprov"
)

const pipelineFeatures = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [138.6, -34.9]},
      "properties": {"feature_id": "f-1", "fire_date": "2023-08-15"}
    },
    {
      "type": "Feature",
      "geometry": {"type": "Polygon", "coordinates": [[[138.5,-35.0],[138.7,-35.0],[138.7,-34.8],[138.5,-35.0]]]},
      "properties": {"feature_id": "f-2", "fire_date": "2023-09-01"}
    }
  ]
}`

func writeFeatures(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "features.geojson")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	return path
}

func testConfig() *config.Config {
	return &config.Config{
		Project: config.ProjectConfig{
			Name:         "burns",
			CollectionID: "burns-2023",
			Title:        "Prescribed Burns",
			Description:  "Burn severity results.",
		},
		Storage: config.StorageConfig{Scheme: "s3", Bucket: "test-bucket"},
		Map: config.MapConfig{PMTiles: config.PMTilesConfig{
			MinZoom: config.DefaultMinZoom,
			MaxZoom: config.DefaultMaxZoom,
		}},
		STAC: config.STACConfig{GeometryInItem: true},
		Time: config.TimeConfig{
			Mode:      "declarative",
			Extractor: "attribute_date",
			Field:     "fire_date",
		},
		Analyzer: config.AnalyzerConfig{Name: analyzer.DemoName},
	}
}

func testOptions(t *testing.T, cfg *config.Config, featuresPath string) pipeline.Options {
	t.Helper()

	registry := analyzer.NewRegistry()
	require.NoError(t, registry.Register(analyzer.NewDemo()))

	return pipeline.Options{
		Config:        cfg,
		FeaturesPath:  featuresPath,
		Registry:      registry,
		TimeProviders: timeprov.Registry{},
		Log:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestRunDryRun(t *testing.T) {
	t.Parallel()

	opts := testOptions(t, testConfig(), writeFeatures(t, pipelineFeatures))
	opts.DryRun = true

	result, err := pipeline.Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Nil(t, result.Manifest, "dry run writes nothing")
	assert.Equal(t, 2, result.ItemCount)
	assert.Equal(t, 2, result.FeatureCount)
	assert.NotEmpty(t, result.JobID)

	// Collection, two item docs and two primary assets.
	require.Len(t, result.Planned, 5)
	assert.Equal(t, "jobs/"+result.JobID+"/stac/collection.json", result.Planned[0].Path)

	assetPaths := 0
	for _, upload := range result.Planned {
		if strings.Contains(upload.Path, "/assets/") {
			assetPaths++
			assert.True(t, strings.HasSuffix(upload.Path, "/analysis.tif"))
			assert.Positive(t, upload.Size)
		}
	}

	assert.Equal(t, 2, assetPaths)
}

func TestRunLocalOut(t *testing.T) {
	t.Parallel()

	outDir := t.TempDir()

	opts := testOptions(t, testConfig(), writeFeatures(t, pipelineFeatures))
	opts.LocalOut = outDir

	result, err := pipeline.Run(context.Background(), opts)
	require.NoError(t, err)

	require.NotNil(t, result.Manifest)
	assert.Equal(t, publish.StatusSuccess, result.Manifest.Status)
	assert.Len(t, result.Manifest.Succeeded, 2)

	manifestPath := filepath.Join(outDir, "jobs", result.JobID, "manifest.json")
	data, err := os.ReadFile(manifestPath)
	require.NoError(t, err)

	var stored publish.Manifest
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, result.JobID, stored.JobID)

	_, err = os.Stat(filepath.Join(outDir, "jobs", result.JobID, "stac", "collection.json"))
	require.NoError(t, err)
}

func TestRunSkipsFeatureWithoutDate(t *testing.T) {
	t.Parallel()

	features := `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [138.6, -34.9]},
      "properties": {"feature_id": "f-1", "fire_date": "2023-08-15"}
    },
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [1, 2]},
      "properties": {"feature_id": "f-dateless"}
    }
  ]
}`

	opts := testOptions(t, testConfig(), writeFeatures(t, features))
	opts.DryRun = true

	result, err := pipeline.Run(context.Background(), opts)
	require.NoError(t, err)

	// A feature yielding zero periods is simply absent, not skipped.
	assert.Equal(t, 1, result.ItemCount)
	assert.Empty(t, result.Skips)
}

func TestRunNothingToPublish(t *testing.T) {
	t.Parallel()

	features := `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [1, 2]},
      "properties": {"feature_id": "f-dateless"}
    }
  ]
}`

	opts := testOptions(t, testConfig(), writeFeatures(t, features))
	opts.DryRun = true

	_, err := pipeline.Run(context.Background(), opts)
	require.ErrorIs(t, err, pipeline.ErrNothingToPublish)
}

func TestRunUnknownAnalyzer(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Analyzer.Name = "missing"

	opts := testOptions(t, cfg, writeFeatures(t, pipelineFeatures))

	_, err := pipeline.Run(context.Background(), opts)
	require.ErrorIs(t, err, analyzer.ErrNotRegistered)
}
