// Package layout maps run and item identifiers to canonical storage
// paths. The mapping is pure and hard-coded: the same identifiers always
// yield the same paths, and distinct job ids occupy disjoint path sets.
package layout

import "fmt"

// OverlayName is the fixed file name of the shared vector overlay.
const OverlayName = "features.pmtiles"

// Layout is the canonical path set for one job. Every component that
// touches storage resolves paths through it and nothing else.
type Layout struct {
	JobID string
}

// New binds a layout to a job id.
func New(jobID string) Layout {
	return Layout{JobID: jobID}
}

// JobRoot returns jobs/<job_id>/.
func (l Layout) JobRoot() string {
	return fmt.Sprintf("jobs/%s/", l.JobID)
}

// STACRoot returns jobs/<job_id>/stac/.
func (l Layout) STACRoot() string {
	return l.JobRoot() + "stac/"
}

// CollectionPath returns jobs/<job_id>/stac/collection.json.
func (l Layout) CollectionPath() string {
	return l.STACRoot() + "collection.json"
}

// ItemsRoot returns jobs/<job_id>/stac/items/.
func (l Layout) ItemsRoot() string {
	return l.STACRoot() + "items/"
}

// ItemPath returns jobs/<job_id>/stac/items/<item_id>.json.
func (l Layout) ItemPath(itemID string) string {
	return l.ItemsRoot() + itemID + ".json"
}

// AssetsRoot returns jobs/<job_id>/assets/.
func (l Layout) AssetsRoot() string {
	return l.JobRoot() + "assets/"
}

// AssetPath returns jobs/<job_id>/assets/<item_id>/<asset_name>.
func (l Layout) AssetPath(itemID, assetName string) string {
	return fmt.Sprintf("%s%s/%s", l.AssetsRoot(), itemID, assetName)
}

// ThumbsRoot returns jobs/<job_id>/thumbs/.
func (l Layout) ThumbsRoot() string {
	return l.JobRoot() + "thumbs/"
}

// ThumbPath returns jobs/<job_id>/thumbs/<item_id>/<thumb_name>.
func (l Layout) ThumbPath(itemID, thumbName string) string {
	return fmt.Sprintf("%s%s/%s", l.ThumbsRoot(), itemID, thumbName)
}

// PMTilesRoot returns jobs/<job_id>/pmtiles/.
func (l Layout) PMTilesRoot() string {
	return l.JobRoot() + "pmtiles/"
}

// PMTilesPath returns jobs/<job_id>/pmtiles/features.pmtiles.
func (l Layout) PMTilesPath() string {
	return l.PMTilesRoot() + OverlayName
}

// ManifestPath returns jobs/<job_id>/manifest.json.
func (l Layout) ManifestPath() string {
	return l.JobRoot() + "manifest.json"
}
