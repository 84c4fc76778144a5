// Package feature loads, validates and normalizes the input geographic
// features consumed by the publish pipeline.
package feature

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// IDProperty is the property key carrying the stable feature identifier.
const IDProperty = "feature_id"

// Feature is one geographic feature: a geometry plus a property bag. The
// feature_id property is assigned during ingestion if absent and is
// immutable for the rest of the run.
type Feature struct {
	Geometry   orb.Geometry
	Properties geojson.Properties
}

// ID returns the feature_id property, or "" when not yet assigned.
func (f *Feature) ID() string {
	id, _ := f.Properties[IDProperty].(string)

	return id
}

// Collection is an ordered set of features.
type Collection struct {
	Features []*Feature
}

// GeometryTypes returns the distinct GeoJSON geometry type names present
// in the collection, sorted.
func (c *Collection) GeometryTypes() []string {
	seen := make(map[string]bool)
	types := make([]string, 0)

	for _, f := range c.Features {
		if f.Geometry == nil {
			continue
		}

		name := f.Geometry.GeoJSONType()
		if !seen[name] {
			seen[name] = true
			types = append(types, name)
		}
	}

	sort.Strings(types)

	return types
}

// ToGeoJSON converts the collection back into an orb FeatureCollection,
// e.g. for handing to the overlay generator.
func (c *Collection) ToGeoJSON() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, f := range c.Features {
		gf := geojson.NewFeature(f.Geometry)
		gf.Properties = f.Properties
		fc.Append(gf)
	}

	return fc
}
