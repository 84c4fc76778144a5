// Package analyzer defines the capability contract for analysis steps
// and the explicit registry they are selected from.
package analyzer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/Sumatoshi-tech/geoexhibit/pkg/feature"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/textutil"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/timespan"
)

// Asset roles with defined meaning in the catalog.
const (
	RoleData      = "data"
	RolePrimary   = "primary"
	RoleThumbnail = "thumbnail"
)

// Canonical media types for produced assets.
const (
	MediaTypeCOG     = "image/tiff; application=geotiff; profile=cloud-optimized"
	MediaTypePNG     = "image/png"
	MediaTypeJPEG    = "image/jpeg"
	MediaTypeJSON    = "application/json"
	MediaTypePMTiles = "application/x-pmtiles"
)

// Output validation errors.
var (
	ErrNoPrimaryAsset = errors.New("analyzer output missing primary asset")
	ErrDuplicateAsset = errors.New("duplicate asset key in analyzer output")
	ErrNoAssetSource  = errors.New("asset has no byte source")
	ErrEmptyAssetKey  = errors.New("asset key must not be empty")
)

// Source supplies the bytes of one produced asset. Analyzers may write to
// temp files or keep small artifacts in memory.
type Source interface {
	Open() (io.ReadCloser, error)
	Size() (int64, error)
}

// FileSource reads asset bytes from a local file produced by the
// analysis step.
type FileSource string

// Open implements Source.
func (fs FileSource) Open() (io.ReadCloser, error) {
	f, err := os.Open(string(fs))
	if err != nil {
		return nil, fmt.Errorf("open asset file: %w", err)
	}

	return f, nil
}

// Size implements Source.
func (fs FileSource) Size() (int64, error) {
	info, err := os.Stat(string(fs))
	if err != nil {
		return 0, fmt.Errorf("stat asset file: %w", err)
	}

	return info.Size(), nil
}

// BytesSource keeps asset bytes in memory.
type BytesSource []byte

// Open implements Source.
func (bs BytesSource) Open() (io.ReadCloser, error) {
	return textutil.BytesReader(bs), nil
}

// Size implements Source.
func (bs BytesSource) Size() (int64, error) {
	return int64(len(bs)), nil
}

// AssetSpec describes one produced asset. Key is unique within the owning
// item; the final storage name and href are derived by the catalog
// writer, never by the analyzer.
type AssetSpec struct {
	Key         string
	Title       string
	Description string
	MediaType   string
	Roles       []string
	Source      Source
}

// HasRole reports whether the asset carries the given role tag.
func (a *AssetSpec) HasRole(role string) bool {
	return slices.Contains(a.Roles, role)
}

// Output is the result of analyzing one (feature, time period) pair:
// exactly one primary raster asset, optional additional assets, and
// namespaced metadata merged into the item document.
type Output struct {
	Primary    AssetSpec
	Additional []AssetSpec
	Properties map[string]any
}

// Assets returns the primary asset followed by the additional ones.
func (o *Output) Assets() []AssetSpec {
	assets := make([]AssetSpec, 0, 1+len(o.Additional))
	assets = append(assets, o.Primary)
	assets = append(assets, o.Additional...)

	return assets
}

// Normalize forces the data and primary roles onto the primary asset and
// validates structural requirements: a primary byte source, unique
// non-empty keys, and a source per asset.
func (o *Output) Normalize() error {
	if o.Primary.Source == nil {
		return ErrNoPrimaryAsset
	}

	if !o.Primary.HasRole(RoleData) {
		o.Primary.Roles = append(o.Primary.Roles, RoleData)
	}

	if !o.Primary.HasRole(RolePrimary) {
		o.Primary.Roles = append(o.Primary.Roles, RolePrimary)
	}

	seen := make(map[string]bool)

	for _, asset := range o.Assets() {
		if asset.Key == "" {
			return ErrEmptyAssetKey
		}

		if seen[asset.Key] {
			return fmt.Errorf("%w: %q", ErrDuplicateAsset, asset.Key)
		}

		seen[asset.Key] = true

		if asset.Source == nil {
			return fmt.Errorf("%w: %q", ErrNoAssetSource, asset.Key)
		}
	}

	return nil
}

// Analyzer turns one (feature, time period) pair into a raster artifact
// set. A failed invocation fails that pair only, never the run.
type Analyzer interface {
	Name() string
	Analyze(f *feature.Feature, span timespan.TimeSpan) (*Output, error)
}
