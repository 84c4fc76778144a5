package timeprov_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/geoexhibit/pkg/timeprov"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/timespan"
)

func mustResolve(t *testing.T, cfg timeprov.Config) timeprov.Provider {
	t.Helper()

	cfg.Mode = "declarative"

	provider, err := timeprov.Resolve(cfg, nil)
	require.NoError(t, err)

	return provider
}

func TestAttributeDate(t *testing.T) {
	t.Parallel()

	provider := mustResolve(t, timeprov.Config{Extractor: "attribute_date", Field: "fire_date"})

	spans, err := provider.ForFeature(newFeature(map[string]any{"fire_date": "2023-08-15"}))
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, time.Date(2023, 8, 15, 0, 0, 0, 0, time.UTC), spans[0].Start)
}

func TestAttributeDateMissingFieldYieldsNoSpans(t *testing.T) {
	t.Parallel()

	provider := mustResolve(t, timeprov.Config{Extractor: "attribute_date", Field: "fire_date"})

	spans, err := provider.ForFeature(newFeature(map[string]any{"other": "2023-08-15"}))
	require.NoError(t, err)
	assert.Empty(t, spans)
}

func TestAttributeDateUnparseableYieldsNoSpans(t *testing.T) {
	t.Parallel()

	provider := mustResolve(t, timeprov.Config{Extractor: "attribute_date", Field: "fire_date"})

	spans, err := provider.ForFeature(newFeature(map[string]any{"fire_date": "soon"}))
	require.NoError(t, err)
	assert.Empty(t, spans)
}

func TestAttributeDateFanout(t *testing.T) {
	t.Parallel()

	provider := mustResolve(t, timeprov.Config{
		Extractor:    "attribute_date",
		Field:        "burn_dates",
		FanoutAsList: true,
	})

	spans, err := provider.ForFeature(newFeature(map[string]any{
		"burn_dates": []any{"2023-01-10", "2023-06-20", "garbage"},
	}))
	require.NoError(t, err)
	require.Len(t, spans, 2, "unparseable list entries are dropped")
	assert.True(t, spans[0].Before(spans[1]))
}

func TestAttributeDateDottedPath(t *testing.T) {
	t.Parallel()

	provider := mustResolve(t, timeprov.Config{Extractor: "attribute_date", Field: "properties.meta.date"})

	spans, err := provider.ForFeature(newFeature(map[string]any{
		"meta": map[string]any{"date": "2023-08-15"},
	}))
	require.NoError(t, err)
	require.Len(t, spans, 1)
}

func TestAttributeInterval(t *testing.T) {
	t.Parallel()

	provider := mustResolve(t, timeprov.Config{
		Extractor: "attribute_interval",
		Field:     "start",
		EndField:  "end",
	})

	spans, err := provider.ForFeature(newFeature(map[string]any{
		"start": "2023-08-01",
		"end":   "2023-08-31",
	}))
	require.NoError(t, err)
	require.Len(t, spans, 1)

	assert.False(t, spans[0].IsInstant())
	assert.Equal(t, time.Date(2023, 8, 31, 0, 0, 0, 0, time.UTC), spans[0].EffectiveEnd())
}

func TestAttributeIntervalDefaultDays(t *testing.T) {
	t.Parallel()

	provider := mustResolve(t, timeprov.Config{
		Extractor:   "attribute_interval",
		Field:       "start",
		DefaultDays: 30,
	})

	spans, err := provider.ForFeature(newFeature(map[string]any{"start": "2023-08-01"}))
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, time.Date(2023, 8, 31, 0, 0, 0, 0, time.UTC), spans[0].EffectiveEnd())
}

func TestAttributeIntervalNoEndFallsBackToInstant(t *testing.T) {
	t.Parallel()

	provider := mustResolve(t, timeprov.Config{Extractor: "attribute_interval", Field: "start"})

	spans, err := provider.ForFeature(newFeature(map[string]any{"start": "2023-08-01"}))
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.True(t, spans[0].IsInstant())
}

func TestAttributeIntervalReversedBounds(t *testing.T) {
	t.Parallel()

	provider := mustResolve(t, timeprov.Config{
		Extractor: "attribute_interval",
		Field:     "start",
		EndField:  "end",
	})

	_, err := provider.ForFeature(newFeature(map[string]any{
		"start": "2023-08-31",
		"end":   "2023-08-01",
	}))
	require.ErrorIs(t, err, timespan.ErrIntervalOrder)
}

func TestFromEpochSeconds(t *testing.T) {
	t.Parallel()

	provider := mustResolve(t, timeprov.Config{Extractor: "from_epoch", Field: "ts"})

	spans, err := provider.ForFeature(newFeature(map[string]any{"ts": float64(1692057600)}))
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, time.Date(2023, 8, 15, 0, 0, 0, 0, time.UTC), spans[0].Start)
}

func TestFromEpochMilliseconds(t *testing.T) {
	t.Parallel()

	provider := mustResolve(t, timeprov.Config{Extractor: "from_epoch", Field: "ts"})

	spans, err := provider.ForFeature(newFeature(map[string]any{"ts": float64(1692057600000)}))
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, time.Date(2023, 8, 15, 0, 0, 0, 0, time.UTC), spans[0].Start)
}

func TestFromEpochStringValue(t *testing.T) {
	t.Parallel()

	provider := mustResolve(t, timeprov.Config{Extractor: "from_epoch", Field: "ts"})

	spans, err := provider.ForFeature(newFeature(map[string]any{"ts": "1692057600"}))
	require.NoError(t, err)
	require.Len(t, spans, 1)
}

func TestRegexFromString(t *testing.T) {
	t.Parallel()

	provider := mustResolve(t, timeprov.Config{Extractor: "regex_from_string", Field: "label"})

	spans, err := provider.ForFeature(newFeature(map[string]any{
		"label": "burn window 2023-08-15 (planned)",
	}))
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, time.Date(2023, 8, 15, 0, 0, 0, 0, time.UTC), spans[0].Start)
}

func TestRegexFromStringCustomPattern(t *testing.T) {
	t.Parallel()

	provider := mustResolve(t, timeprov.Config{
		Extractor: "regex_from_string",
		Field:     "label",
		Pattern:   `\d{8}`,
		Format:    "20060102",
	})

	spans, err := provider.ForFeature(newFeature(map[string]any{"label": "scene_20230815_v2"}))
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, time.Date(2023, 8, 15, 0, 0, 0, 0, time.UTC), spans[0].Start)
}

func TestRegexFromStringNoMatch(t *testing.T) {
	t.Parallel()

	provider := mustResolve(t, timeprov.Config{Extractor: "regex_from_string", Field: "label"})

	spans, err := provider.ForFeature(newFeature(map[string]any{"label": "no date here"}))
	require.NoError(t, err)
	assert.Empty(t, spans)
}

func TestExplicitTimezone(t *testing.T) {
	t.Parallel()

	provider := mustResolve(t, timeprov.Config{
		Extractor: "attribute_date",
		Field:     "date",
		TZ:        "Australia/Adelaide",
	})

	spans, err := provider.ForFeature(newFeature(map[string]any{"date": "2023-08-15"}))
	require.NoError(t, err)
	require.Len(t, spans, 1)

	// Midnight Adelaide time is the previous afternoon in UTC.
	assert.Equal(t, time.Date(2023, 8, 14, 14, 30, 0, 0, time.UTC), spans[0].Start)
}
