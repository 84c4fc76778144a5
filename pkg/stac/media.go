// Package stac assembles the linked catalog documents describing a
// publish plan and enforces the href resolution policy.
package stac

import (
	"path"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/geoexhibit/pkg/analyzer"
)

// canonicalByExt maps known asset file extensions to the content types
// the catalog publishes for them.
var canonicalByExt = map[string]string{
	".tif":     analyzer.MediaTypeCOG,
	".tiff":    analyzer.MediaTypeCOG,
	".png":     analyzer.MediaTypePNG,
	".jpg":     analyzer.MediaTypeJPEG,
	".jpeg":    analyzer.MediaTypeJPEG,
	".json":    analyzer.MediaTypeJSON,
	".pmtiles": analyzer.MediaTypePMTiles,
}

// extByMediaType is the reverse mapping used to derive storage file
// names from declared content types.
var extByMediaType = map[string]string{
	analyzer.MediaTypeCOG:     ".tif",
	"image/tiff":              ".tif",
	analyzer.MediaTypePNG:     ".png",
	analyzer.MediaTypeJPEG:    ".jpg",
	analyzer.MediaTypeJSON:    ".json",
	analyzer.MediaTypePMTiles: ".pmtiles",
}

// NormalizeMediaType reconciles an asset's declared content type with its
// key's file extension. When the extension implies a canonical type that
// disagrees with the declaration, the canonical value wins; a declared
// mismatch is never passed through. Keys without a recognized extension
// leave nothing to reconcile against, so data-role assets get the
// canonical raster type there too rather than trusting the declaration.
// Returns the effective type and whether the declaration was overwritten.
func NormalizeMediaType(key, declared string, roles []string) (string, bool) {
	ext := strings.ToLower(path.Ext(key))

	canonical, known := canonicalByExt[ext]
	if !known {
		if declared == "" {
			return analyzer.MediaTypeCOG, true
		}

		if slices.Contains(roles, analyzer.RoleData) && declared != analyzer.MediaTypeCOG {
			return analyzer.MediaTypeCOG, true
		}

		return declared, false
	}

	if declared == canonical {
		return declared, false
	}

	return canonical, declared != ""
}

// FileName derives the storage file name for an asset: the key plus the
// extension implied by its (normalized) content type. Keys that already
// carry the extension are left alone.
func FileName(key, mediaType string) string {
	ext, ok := extByMediaType[mediaType]
	if !ok {
		ext = ".tif"
	}

	if strings.HasSuffix(strings.ToLower(key), ext) {
		return key
	}

	if canonical, known := canonicalByExt[strings.ToLower(path.Ext(key))]; known && canonical == mediaType {
		return key
	}

	return key + ext
}
