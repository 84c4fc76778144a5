package stac

import (
	"fmt"
	"path"
	"strings"

	"github.com/Sumatoshi-tech/geoexhibit/pkg/layout"
)

// HrefResolver is the only component allowed to produce link strings. It
// enforces the two sanctioned link forms:
//
//   - raster/binary data assets (primary, secondary, thumbnails): fully
//     qualified storage URIs under the job namespace;
//   - document-to-document and document-to-overlay references: relative
//     paths resolved against the referencing document's own location.
type HrefResolver struct {
	scheme string
	bucket string
	layout layout.Layout
}

// NewHrefResolver binds a resolver to a storage target and a job layout.
func NewHrefResolver(scheme, bucket string, l layout.Layout) *HrefResolver {
	return &HrefResolver{scheme: scheme, bucket: bucket, layout: l}
}

// StoragePrefix returns "<scheme>://<bucket>/".
func (r *HrefResolver) StoragePrefix() string {
	return fmt.Sprintf("%s://%s/", r.scheme, r.bucket)
}

// AssetHref returns the absolute URI of a data asset. Resolution is pure:
// identical arguments always yield an identical string.
func (r *HrefResolver) AssetHref(itemID, fileName string) string {
	return r.StoragePrefix() + r.layout.AssetPath(itemID, fileName)
}

// ThumbHref returns the absolute URI of a thumbnail asset.
func (r *HrefResolver) ThumbHref(itemID, fileName string) string {
	return r.StoragePrefix() + r.layout.ThumbPath(itemID, fileName)
}

// CollectionToItem returns the relative href from the collection
// document to one item document.
func (r *HrefResolver) CollectionToItem(itemID string) string {
	return relHref(r.layout.CollectionPath(), r.layout.ItemPath(itemID))
}

// ItemToCollection returns the relative href from an item document back
// to the collection document.
func (r *HrefResolver) ItemToCollection(itemID string) string {
	return relHref(r.layout.ItemPath(itemID), r.layout.CollectionPath())
}

// CollectionToOverlay returns the relative href from the collection
// document to the shared vector overlay.
func (r *HrefResolver) CollectionToOverlay() string {
	return relHref(r.layout.CollectionPath(), r.layout.PMTilesPath())
}

// relHref computes the relative path from one document's canonical
// location to a target's canonical location.
func relHref(fromFile, toFile string) string {
	fromParts := strings.Split(path.Dir(fromFile), "/")
	toParts := strings.Split(toFile, "/")

	common := 0
	for common < len(fromParts) && common < len(toParts)-1 && fromParts[common] == toParts[common] {
		common++
	}

	segments := make([]string, 0, len(fromParts)-common+len(toParts)-common)
	for range fromParts[common:] {
		segments = append(segments, "..")
	}

	segments = append(segments, toParts[common:]...)

	return strings.Join(segments, "/")
}
