package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/geoexhibit/pkg/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "geoexhibit.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	return path
}

const minimalConfig = `{
  "project": {
    "name": "burns",
    "collection_id": "burns-2023",
    "title": "Prescribed Burns",
    "description": "Burn severity results."
  },
  "storage": {"bucket": "my-bucket", "region": "ap-southeast-2"},
  "time": {"mode": "declarative", "extractor": "attribute_date", "field": "fire_date"},
  "analyzer": {"name": "demo_analyzer"}
}`

func TestLoadMinimalConfig(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "burns-2023", cfg.Project.CollectionID)
	assert.Equal(t, "my-bucket", cfg.Storage.Bucket)

	// Defaults fill the rest.
	assert.Equal(t, config.DefaultScheme, cfg.Storage.Scheme)
	assert.True(t, cfg.STAC.GeometryInItem)
	assert.Equal(t, config.DefaultMinZoom, cfg.Map.PMTiles.MinZoom)
	assert.Equal(t, config.DefaultMaxZoom, cfg.Map.PMTiles.MaxZoom)
	assert.Equal(t, "auto", cfg.Time.Format)
	assert.Equal(t, "UTC", cfg.Time.TZ)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestLoadValidation(t *testing.T) {
	t.Parallel()

	mutate := func(t *testing.T, change func(m map[string]any)) string {
		t.Helper()

		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(minimalConfig), &m))
		change(m)

		out, err := json.Marshal(m)
		require.NoError(t, err)

		return writeConfig(t, string(out))
	}

	tests := []struct {
		name    string
		change  func(m map[string]any)
		wantErr error
	}{
		{
			name:    "missing project title",
			change:  func(m map[string]any) { delete(m["project"].(map[string]any), "title") },
			wantErr: config.ErrMissingProjectField,
		},
		{
			name:    "missing bucket",
			change:  func(m map[string]any) { delete(m["storage"].(map[string]any), "bucket") },
			wantErr: config.ErrMissingBucket,
		},
		{
			name:    "bad scheme",
			change:  func(m map[string]any) { m["storage"].(map[string]any)["scheme"] = "gs" },
			wantErr: config.ErrBadScheme,
		},
		{
			name:    "bad time mode",
			change:  func(m map[string]any) { m["time"].(map[string]any)["mode"] = "psychic" },
			wantErr: config.ErrBadTimeMode,
		},
		{
			name:    "bad extractor",
			change:  func(m map[string]any) { m["time"].(map[string]any)["extractor"] = "tea_leaves" },
			wantErr: config.ErrBadExtractor,
		},
		{
			name:    "extractor without field",
			change:  func(m map[string]any) { delete(m["time"].(map[string]any), "field") },
			wantErr: config.ErrMissingTimeField,
		},
		{
			name: "callable without provider",
			change: func(m map[string]any) {
				m["time"] = map[string]any{"mode": "callable"}
			},
			wantErr: config.ErrMissingProvider,
		},
		{
			name:    "missing analyzer",
			change:  func(m map[string]any) { delete(m["analyzer"].(map[string]any), "name") },
			wantErr: config.ErrMissingAnalyzer,
		},
		{
			name: "inverted zoom range",
			change: func(m map[string]any) {
				m["map"] = map[string]any{"pmtiles": map[string]any{"minzoom": 12, "maxzoom": 4}}
			},
			wantErr: config.ErrBadZoomRange,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.Load(mutate(t, tc.change))
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestLoadCallableMode(t *testing.T) {
	t.Parallel()

	contents := `{
  "project": {"name": "n", "collection_id": "c", "title": "t", "description": "d"},
  "storage": {"bucket": "b"},
  "time": {"mode": "callable", "provider": "constant:2023-08-15"},
  "analyzer": {"name": "demo_analyzer"}
}`

	cfg, err := config.Load(writeConfig(t, contents))
	require.NoError(t, err)

	tp := cfg.TimeProvider()
	assert.Equal(t, "callable", tp.Mode)
	assert.Equal(t, "constant:2023-08-15", tp.Provider)
}

func TestTimeProviderMapping(t *testing.T) {
	t.Parallel()

	contents := `{
  "project": {"name": "n", "collection_id": "c", "title": "t", "description": "d"},
  "storage": {"bucket": "b"},
  "time": {
    "mode": "declarative",
    "extractor": "attribute_interval",
    "field": "start",
    "interval": {"end_field": "end", "default_days": 30},
    "fanout": {"as_list": true},
    "regex": {"pattern": "\\d{8}"}
  },
  "analyzer": {"name": "demo_analyzer"}
}`

	cfg, err := config.Load(writeConfig(t, contents))
	require.NoError(t, err)

	tp := cfg.TimeProvider()
	assert.Equal(t, "attribute_interval", tp.Extractor)
	assert.Equal(t, "end", tp.EndField)
	assert.Equal(t, 30, tp.DefaultDays)
	assert.True(t, tp.FanoutAsList)
	assert.Equal(t, `\d{8}`, tp.Pattern)
}

func TestDefaultTemplateIsLoadable(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(writeConfig(t, config.DefaultTemplate))
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.Project.CollectionID)
	assert.NotEmpty(t, cfg.Analyzer.Name)
}
