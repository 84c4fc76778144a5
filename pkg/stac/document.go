package stac

import (
	"github.com/paulmach/orb/geojson"
)

// Version is the catalog spec version stamped on every document.
const Version = "1.0.0"

// Link relation types used by the writer.
const (
	RelItem       = "item"
	RelCollection = "collection"
	RelParent     = "parent"
	RelPMTiles    = "pmtiles"
)

// Link is a typed reference from one document to another document or to
// the shared overlay.
type Link struct {
	Rel   string `json:"rel"`
	Href  string `json:"href"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
}

// Asset is a typed reference to a byte artifact.
type Asset struct {
	Href        string   `json:"href"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type,omitempty"`
	Roles       []string `json:"roles,omitempty"`
}

// SpatialExtent is the union bounding box of all items.
type SpatialExtent struct {
	Bbox [][]float64 `json:"bbox"`
}

// TemporalExtent is the overall time interval of all items. Open ends
// are null.
type TemporalExtent struct {
	Interval [][]*string `json:"interval"`
}

// Extent combines spatial and temporal coverage.
type Extent struct {
	Spatial  SpatialExtent  `json:"spatial"`
	Temporal TemporalExtent `json:"temporal"`
}

// Collection is the collection-level catalog document. All of its links
// are relative.
type Collection struct {
	Type          string   `json:"type"`
	StacVersion   string   `json:"stac_version"`
	ID            string   `json:"id"`
	Title         string   `json:"title,omitempty"`
	Description   string   `json:"description"`
	Keywords      []string `json:"keywords,omitempty"`
	License       string   `json:"license"`
	Extent        Extent   `json:"extent"`
	Links         []Link   `json:"links"`
	FeatureCount  int      `json:"geoexhibit:feature_count,omitempty"`
	GeometryTypes []string `json:"geoexhibit:geometry_types,omitempty"`
}

// Item is a per-item catalog document: a GeoJSON Feature with typed
// links and assets. Data asset hrefs are absolute; document links are
// relative.
type Item struct {
	Type        string            `json:"type"`
	StacVersion string            `json:"stac_version"`
	ID          string            `json:"id"`
	Geometry    *geojson.Geometry `json:"geometry"`
	Bbox        []float64         `json:"bbox,omitempty"`
	Properties  map[string]any    `json:"properties"`
	Links       []Link            `json:"links"`
	Assets      map[string]Asset  `json:"assets"`
	Collection  string            `json:"collection"`
}

// Entry pairs a built item document with its canonical storage path.
type Entry struct {
	Doc  *Item
	Path string
}

// Catalog is the full linked document set for one plan.
type Catalog struct {
	Collection     *Collection
	CollectionPath string
	Items          []Entry
}
