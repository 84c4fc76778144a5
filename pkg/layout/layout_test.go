package layout_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/geoexhibit/pkg/layout"
)

func TestCanonicalPaths(t *testing.T) {
	t.Parallel()

	l := layout.New("01ABC")

	assert.Equal(t, "jobs/01ABC/", l.JobRoot())
	assert.Equal(t, "jobs/01ABC/stac/collection.json", l.CollectionPath())
	assert.Equal(t, "jobs/01ABC/stac/items/01XYZ.json", l.ItemPath("01XYZ"))
	assert.Equal(t, "jobs/01ABC/assets/01XYZ/analysis.tif", l.AssetPath("01XYZ", "analysis.tif"))
	assert.Equal(t, "jobs/01ABC/thumbs/01XYZ/thumb.png", l.ThumbPath("01XYZ", "thumb.png"))
	assert.Equal(t, "jobs/01ABC/pmtiles/features.pmtiles", l.PMTilesPath())
	assert.Equal(t, "jobs/01ABC/manifest.json", l.ManifestPath())
}

func TestPathsAreDeterministic(t *testing.T) {
	t.Parallel()

	first := layout.New("01ABC")
	second := layout.New("01ABC")

	assert.Equal(t, first.ItemPath("01XYZ"), second.ItemPath("01XYZ"))
	assert.Equal(t, first.AssetPath("01XYZ", "a.tif"), second.AssetPath("01XYZ", "a.tif"))
}

func TestDistinctJobsAreDisjoint(t *testing.T) {
	t.Parallel()

	a := layout.New("01AAA")
	b := layout.New("01BBB")

	paths := func(l layout.Layout) []string {
		return []string{
			l.CollectionPath(),
			l.ItemPath("01XYZ"),
			l.AssetPath("01XYZ", "analysis.tif"),
			l.ThumbPath("01XYZ", "thumb.png"),
			l.PMTilesPath(),
			l.ManifestPath(),
		}
	}

	for _, pa := range paths(a) {
		assert.True(t, strings.HasPrefix(pa, a.JobRoot()))

		for _, pb := range paths(b) {
			assert.NotEqual(t, pa, pb)
		}
	}
}
